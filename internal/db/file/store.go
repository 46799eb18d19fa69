// Package file provides file-backed JSON persistence.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/utils"
)

// Store manages the data directory that holds one JSON file per collection.
type Store struct {
	dataDir string
	logger  *utils.Logger
}

// NewStore creates a new file store rooted at the configured data directory.
func NewStore(cfg *config.Config, logger *utils.Logger) (*Store, error) {
	// If no logger is provided, use the global logger
	if logger == nil {
		logger = utils.GetLogger()
	}

	dataDir := cfg.Storage.DataDir
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Error("Failed to create data directory", err, "dir", dataDir)
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store := &Store{
		dataDir: dataDir,
		logger:  logger,
	}

	// Verify the directory is writable before handing it to repositories
	if err := store.Ping(context.Background()); err != nil {
		return nil, err
	}

	logger.Info("Opened file store", "dir", dataDir)
	return store, nil
}

// Path returns the file path for a named collection.
func (s *Store) Path(collection string) string {
	return filepath.Join(s.dataDir, collection+".json")
}

// Ping verifies that the data directory is writable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probe := filepath.Join(s.dataDir, ".probe")
	if err := os.WriteFile(probe, []byte{}, 0644); err != nil {
		s.logger.Error("Data directory is not writable", err, "dir", s.dataDir)
		return fmt.Errorf("data directory not writable: %w", err)
	}
	os.Remove(probe)

	return nil
}

// DataDir returns the root directory of the store.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Logger returns the logger used by the store.
func (s *Store) Logger() *utils.Logger {
	return s.logger
}

// ReadJSON loads a collection file into v. A missing or empty file is a fresh
// start and leaves v untouched.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// WriteJSON persists v to the collection file atomically. The document is
// written to a temp file first and renamed into place so readers never see a
// partial write.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file for %s: %w", path, err)
	}

	return nil
}

package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"norelock.dev/reelid/backend/internal/utils"
)

// LocalStorage stores uploaded files on the local filesystem. Files are
// renamed to random UUIDs so client names never reach the disk.
type LocalStorage struct {
	basePath string
	logger   *utils.Logger
}

// NewLocalStorage creates a local storage rooted at basePath.
func NewLocalStorage(basePath string, logger *utils.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		logger:   logger.Named("local_storage"),
	}, nil
}

// SaveFile stores an uploaded file and returns its reference name.
func (ls *LocalStorage) SaveFile(file multipart.File, info FileInfo) (string, error) {
	ext := strings.ToLower(filepath.Ext(info.Filename))
	filename := uuid.NewString() + ext
	fullPath := filepath.Join(ls.basePath, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		ls.logger.Error("Failed to create upload file", err, "path", fullPath)
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(fullPath)
		ls.logger.Error("Failed to write upload file", err, "path", fullPath)
		return "", fmt.Errorf("save file: %w", err)
	}

	ls.logger.Debug("Saved upload", "ref", filename, "bytes", written)
	return filename, nil
}

// OpenFile opens a stored file by its reference name.
func (ls *LocalStorage) OpenFile(ref string) (io.ReadSeekCloser, error) {
	fullPath, err := ls.resolve(ref)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return file, nil
}

// DeleteFile removes a stored file by its reference name.
func (ls *LocalStorage) DeleteFile(ref string) error {
	fullPath, err := ls.resolve(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	ls.logger.Debug("Deleted upload", "ref", ref)
	return nil
}

// resolve maps a reference name onto the base path, rejecting traversal
// attempts.
func (ls *LocalStorage) resolve(ref string) (string, error) {
	clean := filepath.Clean(ref)
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", utils.BadRequestError("invalid file reference", nil)
	}

	return filepath.Join(ls.basePath, clean), nil
}

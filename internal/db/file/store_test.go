package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/utils"
)

func testLogger() *utils.Logger {
	return &utils.Logger{Logger: zap.NewNop()}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.CreateDefaultConfig()
	cfg.Storage.DataDir = t.TempDir()

	store, err := NewStore(cfg, testLogger())
	require.NoError(t, err)
	return store
}

func TestNewStoreCreatesDataDir(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cfg := config.CreateDefaultConfig()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(cfg, testLogger())
	require.NoError(err)
	require.Equal(cfg.Storage.DataDir, store.DataDir())

	info, err := os.Stat(cfg.Storage.DataDir)
	require.NoError(err)
	require.True(info.IsDir())
}

func TestStorePathNaming(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	store := newTestStore(t)
	require.Equal(filepath.Join(store.DataDir(), "users.json"), store.Path("users"))
}

func TestStorePing(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	store := newTestStore(t)
	require.NoError(store.Ping(context.Background()))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(store.Ping(cancelled))
}

func TestReadJSONMissingFileIsFreshStart(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	data := map[string]string{"seed": "kept"}
	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &data)

	require.NoError(err)
	require.Equal(map[string]string{"seed": "kept"}, data)
}

func TestReadJSONEmptyFileIsFreshStart(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(os.WriteFile(path, []byte{}, 0644))

	data := make(map[string]string)
	require.NoError(ReadJSON(path, &data))
	require.Empty(data)
}

func TestReadJSONRejectsCorruptFile(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(os.WriteFile(path, []byte("not json at all"), 0644))

	data := make(map[string]string)
	require.Error(ReadJSON(path, &data))
}

func TestWriteAndReadJSONRoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "collection.json")
	written := map[string]int{"a": 1, "b": 2}

	require.NoError(WriteJSON(path, written))

	read := make(map[string]int)
	require.NoError(ReadJSON(path, &read))
	require.Equal(written, read)

	// The temp file used for the atomic write must not survive.
	_, err := os.Stat(path + ".tmp")
	require.True(os.IsNotExist(err))
}

func TestWriteJSONCreatesParentDirectory(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "deep", "nested", "collection.json")
	require.NoError(WriteJSON(path, map[string]string{"k": "v"}))

	read := make(map[string]string)
	require.NoError(ReadJSON(path, &read))
	require.Equal("v", read["k"])
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentsnap/internal/config"
)

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := New(config.StorageConfig{Type: "local", UploadDir: dir, BaseURL: "http://localhost:8000/media/"})
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Put(ctx, "items/1/a.jpg", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/media/items/1/a.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "items", "1", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	key, ok := s.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "items/1/a.jpg", key)
	_, ok = s.KeyFromURL("https://elsewhere.example/a.jpg")
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "items", "1", "a.jpg"))
	assert.True(t, os.IsNotExist(err))
	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage("http://localhost/media", t.TempDir())
	require.NoError(t, err)
	_, err = s.Put(context.Background(), "../outside.jpg", "image/jpeg", []byte("x"))
	assert.Error(t, err)
}

func TestItemImageKey(t *testing.T) {
	a, b := ItemImageKey(7, ".jpg"), ItemImageKey(7, ".jpg")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^items/7/[0-9a-f-]{36}\.jpg$`, a)
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}

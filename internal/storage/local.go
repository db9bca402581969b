package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rentsnap/internal/logger"
)

// LocalStorage keeps images under a directory served by the backend at baseURL.
type LocalStorage struct {
	baseURL string
	dir     string
}

func NewLocalStorage(baseURL, uploadDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{baseURL: strings.TrimSuffix(baseURL, "/"), dir: uploadDir}, nil
}

// Dir is the directory served under the media route.
func (l *LocalStorage) Dir() string { return l.dir }

func (l *LocalStorage) path(key string) (string, error) {
	full := filepath.Join(l.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(l.dir, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return full, nil
}

func (l *LocalStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	full, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	file, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	logger.Debug("Stored image", "key", key, "size", len(data))
	return l.baseURL + "/" + key, nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	full, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) KeyFromURL(url string) (string, bool) {
	return keyFromURL(l.baseURL, url)
}

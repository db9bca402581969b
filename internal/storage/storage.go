// Package storage keeps uploaded item images, on the local filesystem or in S3.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"rentsnap/internal/config"
)

// Storage saves and removes objects addressed by key.
type Storage interface {
	// Put stores data under key and returns the public URL of the object.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL reverses Put's URL. ok is false for URLs this storage did not issue.
	KeyFromURL(url string) (key string, ok bool)
}

func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.BaseURL, cfg.UploadDir)
	case "s3":
		return NewS3Storage(cfg.S3, cfg.BaseURL)
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}

// ItemImageKey names a fresh object for an image of itemID.
func ItemImageKey(itemID int32, ext string) string {
	return path.Join("items", fmt.Sprint(itemID), uuid.NewString()+ext)
}

func keyFromURL(prefix, url string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

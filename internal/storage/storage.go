package storage

import (
	"context"
	"errors"
	"io"

	"galleria/internal/models"
)

var (
	ErrEmptyFolder     = errors.New("folder key is empty")
	ErrEmptyRemoteID   = errors.New("remote id is empty")
	ErrInvalidFileType = errors.New("only jpg, jpeg, png, webp and gif images are allowed")
	ErrFileTooLarge    = errors.New("file size exceeds limit")
)

// File is one uploaded image ready to be written to the store.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ImageStore keeps binary assets under hierarchical folder keys.
type ImageStore interface {
	// Upload always creates a new asset below folder.
	Upload(ctx context.Context, file File, folder string) (models.Image, error)
	// Delete removes one asset. A missing asset is not an error.
	Delete(ctx context.Context, remoteID string) error
	// DeleteFolder removes every asset below prefix. An empty or missing folder is not an error.
	DeleteFolder(ctx context.Context, prefix string) error
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ExtensionFor returns the object extension for an accepted image content type.
func ExtensionFor(contentType string) (string, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", ErrInvalidFileType
	}
	return ext, nil
}

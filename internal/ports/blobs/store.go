package blobs

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// Object es un archivo guardado junto a su content-type.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store guarda archivos de campos file bajo una key "<collectionID>/<recordID>/<filename>".
type Store interface {
	Put(ctx context.Context, key, contentType string, content []byte) error
	Open(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

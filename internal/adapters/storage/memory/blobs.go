package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"taxi-pet/internal/ports/blobs"
)

type blob struct {
	contentType string
	content     []byte
}

// BlobStore guarda archivos en memoria (dev/tests).
type BlobStore struct {
	mu    sync.RWMutex
	items map[string]blob
}

func NewBlobStore() *BlobStore {
	return &BlobStore{items: map[string]blob{}}
}

func (s *BlobStore) Put(ctx context.Context, key, contentType string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = blob{contentType: contentType, content: bytes.Clone(content)}
	return nil
}

func (s *BlobStore) Open(ctx context.Context, key string) (blobs.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.items[key]
	if !ok {
		return blobs.Object{}, blobs.ErrNotFound
	}
	return blobs.Object{
		Body:        io.NopCloser(bytes.NewReader(b.content)),
		ContentType: b.contentType,
		Size:        int64(len(b.content)),
	}, nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return blobs.ErrNotFound
	}
	delete(s.items, key)
	return nil
}

// Len es para tests.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

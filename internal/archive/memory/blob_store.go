// Package memory implements an in-memory payload archive for tests.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// BlobStore keeps payloads in a map keyed by path.
type BlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// New constructs an empty store.
func New() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

// Put stores a copy of data under path and returns a mem:// URI.
func (s *BlobStore) Put(_ context.Context, path string, data []byte) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = append([]byte(nil), data...)
	return fmt.Sprintf("mem://%s", path), nil
}

// Get returns the payload stored under path.
func (s *BlobStore) Get(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	return data, ok
}

// Len reports the number of stored payloads.
func (s *BlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

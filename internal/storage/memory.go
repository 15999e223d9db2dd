package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// NewInMemoryStore returns a BlobStore backed by an in-memory map, for tests
// and local development.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string][]byte)}
}

// InMemoryStore implements BlobStore without external dependencies.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// Put stores the content under key and returns a mem:// location.
func (s *InMemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrEmptyKey
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return "mem:///" + key, nil
}

// Delete removes the object stored under key.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// SignedURL returns a stable pseudo-URL for the stored object.
func (s *InMemoryStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return "mem:///" + key + "?signed", nil
}

// Has reports whether an object exists. Useful for tests.
func (s *InMemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

var _ BlobStore = (*InMemoryStore)(nil)

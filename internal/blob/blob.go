// Package blob stores uploaded images and addresses them by URL.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrUnknownURL is returned by Delete for URLs the store did not issue.
var ErrUnknownURL = errors.New("blob url not issued by this store")

type Store interface {
	// Put stores r under key and returns the public URL of the object.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

const memoryScheme = "memory://"

type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps objects in process. URLs have the form memory://<key>.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = Object{Data: buf.Bytes(), ContentType: contentType}
	return memoryScheme + key, nil
}

func (s *MemoryStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, memoryScheme)
	if !ok {
		return ErrUnknownURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Get returns the object stored at url.
func (s *MemoryStore) Get(url string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[strings.TrimPrefix(url, memoryScheme)]
	return obj, ok
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

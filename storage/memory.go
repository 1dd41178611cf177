package storage

import (
	"context"
	"errors"
	"sync"
)

// MemoryAttachmentStore is an in-memory AttachmentStore for tests and for
// running without a JetStream-enabled NATS server.
type MemoryAttachmentStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// FailPuts makes every Put fail; used to exercise upload-failure paths.
	FailPuts bool
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryAttachmentStore() *MemoryAttachmentStore {
	return &MemoryAttachmentStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryAttachmentStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.FailPuts {
		return "", errors.New("put failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = memoryObject{data: stored, contentType: contentType}
	return AttachmentURL(key), nil
}

func (s *MemoryAttachmentStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return obj.data, obj.contentType, nil
}

func (s *MemoryAttachmentStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

// Len reports how many objects are stored; test helper.
func (s *MemoryAttachmentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

package store

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	content map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{content: make(map[string][]byte)}
}

func (s *MemoryStore) Put(id string, content io.Reader) error {
	if err := validateID(id); err != nil {
		return err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("cannot read content '%s': %w", id, err)
	}
	s.mu.Lock()
	s.content[id] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(id string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.content[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cannot open content '%s': %w", id, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.content[id]; !ok {
		return fmt.Errorf("cannot delete content '%s': %w", id, ErrNotFound)
	}
	delete(s.content, id)
	return nil
}

func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.content))
	for id := range s.content {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.content = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

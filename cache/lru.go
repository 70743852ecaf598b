package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory is an in-process cache. With a positive capacity it evicts the
// least recently used entry; otherwise it grows without bound.
type Memory struct {
	bounded *lru.Cache[string, string]

	mu        sync.RWMutex
	unbounded map[string]string
}

// NewLRU returns a Memory cache holding at most capacity entries. A
// capacity of zero or less means unbounded.
func NewLRU(capacity int) (*Memory, error) {
	if capacity <= 0 {
		return &Memory{unbounded: make(map[string]string)}, nil
	}
	c, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, err
	}
	return &Memory{bounded: c}, nil
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if m.bounded != nil {
		text, ok := m.bounded.Get(key)
		return text, ok, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.unbounded[key]
	return text, ok, nil
}

func (m *Memory) Set(_ context.Context, key, text string) error {
	if m.bounded != nil {
		m.bounded.Add(key, text)
		return nil
	}
	m.mu.Lock()
	m.unbounded[key] = text
	m.mu.Unlock()
	return nil
}

// Len reports the number of cached entries.
func (m *Memory) Len() int {
	if m.bounded != nil {
		return m.bounded.Len()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.unbounded)
}

// Purge drops every entry, ending the cache's session.
func (m *Memory) Purge() {
	if m.bounded != nil {
		m.bounded.Purge()
		return
	}
	m.mu.Lock()
	m.unbounded = make(map[string]string)
	m.mu.Unlock()
}

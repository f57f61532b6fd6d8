package services

import (
	"context"
	"sync"
	"time"
)

// MockCache is an in-memory Cache for testing
type MockCache struct {
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetFunc func(ctx context.Context, key string) (string, error)

	// Track calls for testing
	SetCalls []SetCall
	GetCalls []string

	data map[string]string
	mu   sync.Mutex
}

type SetCall struct {
	Key        string
	Value      interface{}
	Expiration time.Duration
}

// NewMockCache creates a new mock cache
func NewMockCache() *MockCache {
	return &MockCache{
		SetCalls: make([]SetCall, 0),
		GetCalls: make([]string, 0),
		data:     make(map[string]string),
	}
}

// Ping mocks cache ping
func (m *MockCache) Ping(ctx context.Context) error {
	return nil
}

// Set mocks cache set, storing string values for later Get calls
func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value, Expiration: expiration})
	if s, ok := value.(string); ok {
		m.data[key] = s
	}
	fn := m.SetFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, key, value, expiration)
	}
	return nil
}

// Get mocks cache get
func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, key)
	val := m.data[key]
	fn := m.GetFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, key)
	}
	return val, nil
}

// Del mocks cache delete
func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Close mocks cache close
func (m *MockCache) Close() error {
	return nil
}

// Ensure MockCache implements Cache interface
var _ Cache = (*MockCache)(nil)

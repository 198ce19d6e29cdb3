package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"marketcache/internal/status"
	"marketcache/internal/store"
)

// MockStore is a mock implementation of the extract.Store interface for testing
type MockStore struct {
	FetchFunc func(ctx context.Context, label, key string) (store.Record, error)

	mu      sync.Mutex
	fetched []string
}

// Fetch implements the store fetch contract and records the requested key
func (m *MockStore) Fetch(ctx context.Context, label, key string) (store.Record, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, key)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, label, key)
	}
	return store.Record{Status: status.NotRun}, nil
}

// FetchedKeys returns the keys requested so far, in order
func (m *MockStore) FetchedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

// NewMockStore creates a mock store that always returns the given record and error
func NewMockStore(rec store.Record, err error) *MockStore {
	return &MockStore{
		FetchFunc: func(ctx context.Context, label, key string) (store.Record, error) {
			return rec, err
		},
	}
}

// MemStore is an in-memory cache implementing both the loader's Set surface
// and the extractor's Fetch surface, for end-to-end tests without Redis
type MemStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string][]byte)}
}

// Set caches value under key as JSON
func (s *MemStore) Set(ctx context.Context, key string, value any, expire ...time.Duration) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	s.mu.Lock()
	s.m[key] = bytes
	s.mu.Unlock()
	return nil
}

// Fetch returns the record cached under key; a missing key yields NotRun
func (s *MemStore) Fetch(ctx context.Context, label, key string) (store.Record, error) {
	s.mu.Lock()
	val, ok := s.m[key]
	s.mu.Unlock()

	if !ok {
		return store.Record{Status: status.NotRun}, nil
	}
	return store.Record{Status: status.Success, Data: val}, nil
}

// DiscardLogger returns a logrus entry that swallows all output, for tests
func DiscardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

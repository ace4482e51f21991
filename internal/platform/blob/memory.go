// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package blob

import (
	"context"
	"sync"
)

// # In-Memory Adapter

// MemoryStore implements [Store] in memory for tests.
//
// FailReads / FailWrites simulate a broken persistence tier so tests can
// assert that the cache degrades to miss behavior instead of erroring.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailReads makes every Get return FailErr.
	FailReads bool

	// FailWrites makes every Set/Delete return FailErr.
	FailWrites bool

	// FailErr is the error returned when failures are enabled.
	FailErr error
}

// NewMemoryStore constructs an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns the blob stored under key, or ErrNotFound.
func (store *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.FailReads {
		return nil, store.FailErr
	}

	value, ok := store.values[key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores the blob under key, replacing any previous value.
func (store *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.FailWrites {
		return store.FailErr
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	store.values[key] = stored
	return nil
}

// Delete removes the key. Absent keys are a no-op.
func (store *MemoryStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.FailWrites {
		return store.FailErr
	}

	delete(store.values, key)
	return nil
}

// Close is a no-op.
func (store *MemoryStore) Close() error { return nil }

// Len reports the number of stored keys (test helper).
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.values)
}

// Has reports whether a key is present (test helper).
func (store *MemoryStore) Has(key string) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	_, ok := store.values[key]
	return ok
}

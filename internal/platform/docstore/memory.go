// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/toshoapp/tosho/pkg/uuid"
)

// # In-Memory Adapter

// memoryDoc is one stored document plus its insertion sequence number.
type memoryDoc struct {
	data []byte
	seq  int64
}

// MemoryStore implements [Store] entirely in memory.
//
// It mirrors the PostgreSQL adapter's semantics (shallow merge updates,
// newest-first listing, no-op deletes of absent documents) and is the
// store the catalog tests run against.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memoryDoc
	nextSeq     int64
}

// NewMemoryStore constructs an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*memoryDoc),
	}
}

// Get returns a single document by id.
func (store *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	doc, ok := store.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}

	return Document{ID: id, Data: cloneBytes(doc.data)}, nil
}

// List returns every document in a collection, newest first.
func (store *MemoryStore) List(_ context.Context, collection string) ([]Document, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	type entry struct {
		id  string
		doc *memoryDoc
	}

	entries := make([]entry, 0, len(store.collections[collection]))
	for id, doc := range store.collections[collection] {
		entries = append(entries, entry{id: id, doc: doc})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].doc.seq > entries[j].doc.seq
	})

	documents := make([]Document, 0, len(entries))
	for _, e := range entries {
		documents = append(documents, Document{ID: e.id, Data: cloneBytes(e.doc.data)})
	}

	return documents, nil
}

// Query returns the documents whose named field equals value.
func (store *MemoryStore) Query(_ context.Context, collection, field, value string) ([]Document, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var documents []Document
	for id, doc := range store.collections[collection] {
		fields, err := decodeFields(doc.data)
		if err != nil {
			return nil, err
		}

		if stringValue, ok := fields[field].(string); ok && stringValue == value {
			documents = append(documents, Document{ID: id, Data: cloneBytes(doc.data)})
		}
	}

	// Stable order keeps tests deterministic even though the contract
	// promises no ordering for equality queries.
	sort.Slice(documents, func(i, j int) bool { return documents[i].ID < documents[j].ID })

	return documents, nil
}

// Create persists fields as a new document and returns the assigned id.
func (store *MemoryStore) Create(_ context.Context, collection string, fields map[string]any) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("docstore: encode %s document failed: %w", collection, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if store.collections[collection] == nil {
		store.collections[collection] = make(map[string]*memoryDoc)
	}

	id := uuid.New()
	store.nextSeq++
	store.collections[collection][id] = &memoryDoc{data: payload, seq: store.nextSeq}

	return id, nil
}

// Update merges fields into an existing document (shallow merge).
func (store *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	doc, ok := store.collections[collection][id]
	if !ok {
		return ErrNotFound
	}

	existing, err := decodeFields(doc.data)
	if err != nil {
		return err
	}

	for key, value := range fields {
		existing[key] = value
	}

	payload, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("docstore: encode %s update failed: %w", collection, err)
	}

	doc.data = payload
	return nil
}

// Delete removes a document. Absent documents are a no-op.
func (store *MemoryStore) Delete(_ context.Context, collection, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.collections[collection], id)
	return nil
}

// Increment atomically adds delta to a numeric field of a document.
func (store *MemoryStore) Increment(_ context.Context, collection, id, field string, delta int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	doc, ok := store.collections[collection][id]
	if !ok {
		return ErrNotFound
	}

	fields, err := decodeFields(doc.data)
	if err != nil {
		return err
	}

	current, _ := fields[field].(float64)
	fields[field] = current + float64(delta)

	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: encode %s increment failed: %w", collection, err)
	}

	doc.data = payload
	return nil
}

// decodeFields unmarshals a stored payload into a generic field map.
func decodeFields(data []byte) (map[string]any, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("docstore: corrupt stored document: %w", err)
	}
	return fields, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

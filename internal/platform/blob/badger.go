// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// # Badger Adapter

// badgerStore implements [Store] on an embedded Badger database.
type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string, logger *slog.Logger) (Store, error) {
	options := badger.DefaultOptions(path)
	options.Logger = nil // Badger's own logging is too chatty for a cache tier

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to open badger db at %s: %w", path, err)
	}

	logger.Info("badger cache opened", slog.String("path", path))

	return &badgerStore{db: db}, nil
}

// Get returns the blob stored under key, or ErrNotFound.
func (store *badgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte

	err := store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob: badger get %q failed: %w", key, err)
	}

	return value, nil
}

// Set stores the blob under key, replacing any previous value.
func (store *badgerStore) Set(_ context.Context, key string, value []byte) error {
	err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})

	if err != nil {
		return fmt.Errorf("blob: badger set %q failed: %w", key, err)
	}

	return nil
}

// Delete removes the key. Absent keys are a no-op.
func (store *badgerStore) Delete(_ context.Context, key string) error {
	err := store.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("blob: badger delete %q failed: %w", key, err)
	}

	return nil
}

// Close releases the database.
func (store *badgerStore) Close() error {
	return store.db.Close()
}

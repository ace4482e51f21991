// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

/*
Package blob provides the persistent key/value tier of the catalog cache.

Values are opaque JSON blobs under flat string keys: one fixed key for the
whole-catalog snapshot and one prefixed key per manga aggregate. The tier
is an optimization, never a source of truth — every entry can be dropped
and rebuilt from the remote store, so callers treat every failure here as
a cache miss.

Backends:

  - Badger: Embedded on-disk store, the default. Survives process restarts.
  - Redis: Optional, for sharing one warm cache between replicas.
  - Memory: Test double with the same contract.
*/
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("blob: key not found")

// Store is a flat key/value store for JSON blobs.
type Store interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(context context.Context, key string) ([]byte, error)

	// Set stores the blob under key, replacing any previous value.
	Set(context context.Context, key string, value []byte) error

	// Delete removes the key. Absent keys are a no-op.
	Delete(context context.Context, key string) error

	// Close releases the backing resources.
	Close() error
}

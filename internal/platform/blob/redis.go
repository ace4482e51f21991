// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// # Redis Adapter

// redisStore implements [Store] on a Redis client.
//
// Entries carry no TTL: the catalog invalidates them explicitly, the same
// contract as the embedded backend.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-connected Redis client.
// The wrapper takes ownership of the client's lifecycle.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

// Get returns the blob stored under key, or ErrNotFound.
func (store *redisStore) Get(context context.Context, key string) ([]byte, error) {
	value, err := store.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob: redis get %q failed: %w", key, err)
	}

	return value, nil
}

// Set stores the blob under key, replacing any previous value.
func (store *redisStore) Set(context context.Context, key string, value []byte) error {
	if err := store.client.Set(context, key, value, 0).Err(); err != nil {
		return fmt.Errorf("blob: redis set %q failed: %w", key, err)
	}

	return nil
}

// Delete removes the key. Absent keys are a no-op.
func (store *redisStore) Delete(context context.Context, key string) error {
	if err := store.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("blob: redis delete %q failed: %w", key, err)
	}

	return nil
}

// Close releases the underlying client.
func (store *redisStore) Close() error {
	return store.client.Close()
}

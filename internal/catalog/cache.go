// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/toshoapp/tosho/internal/platform/blob"
	"github.com/toshoapp/tosho/internal/platform/constants"
)

/*
Description:

	Cache is the two-tier read-through cache in front of the assembler.

	Tier 1 is an in-process map guarded by a mutex: a per-id aggregate
	index plus one whole-catalog snapshot. Tier 2 is a persistent local
	blob store holding JSON mirrors of the same two shapes, so a process
	restart starts warm instead of cold.

	Entries never expire on their own. The only way data leaves the cache
	is coarse invalidation by the service after a mutation. Tier-2 failures
	are never fatal: a read error degrades to a cache miss and a write
	error leaves tier 2 stale, both logged at WARN.
*/
type Cache struct {
	mu     sync.RWMutex
	byID   map[string]*Manga
	all    []*Manga
	hasAll bool

	blobs  blob.Store
	logger *slog.Logger
}

/*
Description:

	NewCache creates an empty cache backed by the given blob store.

Parameters:

  - blobs: Persistent tier-2 store; never nil (use a memory store in tests).
  - logger: Structured logger for tier-2 degradation warnings.

Returns:

  - *Cache: Empty cache; both tiers fill lazily on first read.
*/
func NewCache(blobs blob.Store, logger *slog.Logger) *Cache {
	return &Cache{
		byID:   make(map[string]*Manga),
		blobs:  blobs,
		logger: logger,
	}
}

// # Per-Manga Entries

/*
Description:

	GetManga looks one manga aggregate up, tier 1 first, then tier 2. A
	tier-2 hit is promoted into tier 1 before returning.

Parameters:

  - context: Request context for cancellation.
  - id: Manga id.

Returns:

  - *Manga: The cached aggregate, or nil on miss.
  - bool: Whether the lookup was a hit.
*/
func (cache *Cache) GetManga(context context.Context, id string) (*Manga, bool) {
	cache.mu.RLock()
	manga, ok := cache.byID[id]
	cache.mu.RUnlock()
	if ok {
		return manga, true
	}

	payload, err := cache.blobs.Get(context, mangaBlobKey(id))
	if err != nil {
		if err != blob.ErrNotFound {
			cache.logger.Warn("blob cache read failed, treating as miss",
				slog.String("manga_id", id),
				slog.String("error", err.Error()))
		}
		return nil, false
	}

	var restored Manga
	if err := json.Unmarshal(payload, &restored); err != nil {
		cache.logger.Warn("blob cache entry corrupt, treating as miss",
			slog.String("manga_id", id),
			slog.String("error", err.Error()))
		return nil, false
	}

	cache.mu.Lock()
	cache.byID[id] = &restored
	cache.mu.Unlock()
	return &restored, true
}

/*
Description:

	SetManga stores one aggregate in both tiers. Called after every read
	that missed and after every mutation that produced fresh state.

Parameters:

  - context: Request context for cancellation.
  - manga: Aggregate to cache; keyed by its ID.
*/
func (cache *Cache) SetManga(context context.Context, manga *Manga) {
	cache.mu.Lock()
	cache.byID[manga.ID] = manga
	cache.mu.Unlock()

	payload, err := json.Marshal(manga)
	if err != nil {
		cache.logger.Warn("blob cache encode failed",
			slog.String("manga_id", manga.ID),
			slog.String("error", err.Error()))
		return
	}
	if err := cache.blobs.Set(context, mangaBlobKey(manga.ID), payload); err != nil {
		cache.logger.Warn("blob cache write failed",
			slog.String("manga_id", manga.ID),
			slog.String("error", err.Error()))
	}
}

/*
Description:

	RemoveManga drops one aggregate from both tiers.

Parameters:

  - context: Request context for cancellation.
  - id: Manga id to evict.
*/
func (cache *Cache) RemoveManga(context context.Context, id string) {
	cache.mu.Lock()
	delete(cache.byID, id)
	cache.mu.Unlock()

	if err := cache.blobs.Delete(context, mangaBlobKey(id)); err != nil {
		cache.logger.Warn("blob cache delete failed",
			slog.String("manga_id", id),
			slog.String("error", err.Error()))
	}
}

// # Catalog Snapshot

/*
Description:

	GetCatalog looks the whole-catalog snapshot up, tier 1 first, then
	tier 2. A tier-2 hit is promoted into tier 1 and also seeds the per-id
	index, so subsequent single lookups hit without touching the store.

Parameters:

  - context: Request context for cancellation.

Returns:

  - []*Manga: The cached snapshot, or nil on miss.
  - bool: Whether the lookup was a hit.
*/
func (cache *Cache) GetCatalog(context context.Context) ([]*Manga, bool) {
	cache.mu.RLock()
	all, ok := cache.all, cache.hasAll
	cache.mu.RUnlock()
	if ok {
		return all, true
	}

	payload, err := cache.blobs.Get(context, constants.BlobKeyCatalog)
	if err != nil {
		if err != blob.ErrNotFound {
			cache.logger.Warn("blob cache read failed, treating as miss",
				slog.String("key", constants.BlobKeyCatalog),
				slog.String("error", err.Error()))
		}
		return nil, false
	}

	var restored []*Manga
	if err := json.Unmarshal(payload, &restored); err != nil {
		cache.logger.Warn("blob cache entry corrupt, treating as miss",
			slog.String("key", constants.BlobKeyCatalog),
			slog.String("error", err.Error()))
		return nil, false
	}

	cache.mu.Lock()
	cache.all = restored
	cache.hasAll = true
	for _, manga := range restored {
		cache.byID[manga.ID] = manga
	}
	cache.mu.Unlock()
	return restored, true
}

/*
Description:

	SetCatalog stores the whole-catalog snapshot in both tiers and seeds
	the per-id index from it.

Parameters:

  - context: Request context for cancellation.
  - mangas: Snapshot to cache.
*/
func (cache *Cache) SetCatalog(context context.Context, mangas []*Manga) {
	cache.mu.Lock()
	cache.all = mangas
	cache.hasAll = true
	for _, manga := range mangas {
		cache.byID[manga.ID] = manga
	}
	cache.mu.Unlock()

	payload, err := json.Marshal(mangas)
	if err != nil {
		cache.logger.Warn("blob cache encode failed",
			slog.String("key", constants.BlobKeyCatalog),
			slog.String("error", err.Error()))
		return
	}
	if err := cache.blobs.Set(context, constants.BlobKeyCatalog, payload); err != nil {
		cache.logger.Warn("blob cache write failed",
			slog.String("key", constants.BlobKeyCatalog),
			slog.String("error", err.Error()))
	}
}

/*
Description:

	InvalidateCatalog drops the whole-catalog snapshot from both tiers.
	Per-id entries are left alone; the mutating caller replaces or removes
	the one entry it touched.

Parameters:

  - context: Request context for cancellation.
*/
func (cache *Cache) InvalidateCatalog(context context.Context) {
	cache.mu.Lock()
	cache.all = nil
	cache.hasAll = false
	cache.mu.Unlock()

	if err := cache.blobs.Delete(context, constants.BlobKeyCatalog); err != nil {
		cache.logger.Warn("blob cache delete failed",
			slog.String("key", constants.BlobKeyCatalog),
			slog.String("error", err.Error()))
	}
}

// mangaBlobKey builds the tier-2 key for one manga aggregate.
func mangaBlobKey(id string) string {
	return constants.BlobKeyMangaPrefix + id
}

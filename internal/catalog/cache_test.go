// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toshoapp/tosho/internal/catalog"
	"github.com/toshoapp/tosho/internal/platform/blob"
)

func newCache(blobs blob.Store) *catalog.Cache {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return catalog.NewCache(blobs, logger)
}

func sampleManga(id, title string) *catalog.Manga {
	return &catalog.Manga{
		ID:         id,
		Title:      title,
		Author:     "Test Author",
		Status:     catalog.StatusOngoing,
		Categories: []catalog.Category{},
		Chapters:   []catalog.Chapter{},
		CreatedAt:  "2026-01-01T00:00:00Z",
		UpdatedAt:  "2026-01-01T00:00:00Z",
	}
}

/*
TestCache_MangaRoundTrip verifies set/get/remove through both tiers.
*/
func TestCache_MangaRoundTrip(t *testing.T) {
	blobs := blob.NewMemoryStore()
	cache := newCache(blobs)
	ctx := context.Background()

	// 1. Miss on empty cache
	_, ok := cache.GetManga(ctx, "m1")
	assert.False(t, ok)

	// 2. Set populates both tiers
	cache.SetManga(ctx, sampleManga("m1", "First"))
	manga, ok := cache.GetManga(ctx, "m1")
	require.True(t, ok)
	assert.Equal(t, "First", manga.Title)
	assert.Equal(t, 1, blobs.Len())

	// 3. Remove clears both tiers
	cache.RemoveManga(ctx, "m1")
	_, ok = cache.GetManga(ctx, "m1")
	assert.False(t, ok)
	assert.Equal(t, 0, blobs.Len())
}

/*
TestCache_SurvivesRestart verifies that a fresh cache over the same blob
store starts warm: tier 2 restores what tier 1 lost.
*/
func TestCache_SurvivesRestart(t *testing.T) {
	blobs := blob.NewMemoryStore()
	ctx := context.Background()

	first := newCache(blobs)
	first.SetManga(ctx, sampleManga("m1", "Persistent"))
	first.SetCatalog(ctx, []*catalog.Manga{sampleManga("m1", "Persistent")})

	// Simulated restart: new in-process tier, same blob store
	second := newCache(blobs)

	manga, ok := second.GetManga(ctx, "m1")
	require.True(t, ok)
	assert.Equal(t, "Persistent", manga.Title)

	mangas, ok := second.GetCatalog(ctx)
	require.True(t, ok)
	assert.Len(t, mangas, 1)
}

/*
TestCache_CatalogSeedsIndex verifies that loading the catalog snapshot
from tier 2 also fills the per-id index.
*/
func TestCache_CatalogSeedsIndex(t *testing.T) {
	blobs := blob.NewMemoryStore()
	ctx := context.Background()

	newCache(blobs).SetCatalog(ctx, []*catalog.Manga{
		sampleManga("m1", "One"),
		sampleManga("m2", "Two"),
	})

	restarted := newCache(blobs)
	_, ok := restarted.GetCatalog(ctx)
	require.True(t, ok)

	// Break the blob tier: single lookups must still hit tier 1
	blobs.FailReads = true
	blobs.FailErr = assert.AnError

	manga, ok := restarted.GetManga(ctx, "m2")
	require.True(t, ok)
	assert.Equal(t, "Two", manga.Title)
}

/*
TestCache_InvalidateCatalog verifies that invalidation removes only the
snapshot, leaving per-id entries alone.
*/
func TestCache_InvalidateCatalog(t *testing.T) {
	blobs := blob.NewMemoryStore()
	cache := newCache(blobs)
	ctx := context.Background()

	cache.SetCatalog(ctx, []*catalog.Manga{sampleManga("m1", "Kept")})
	cache.InvalidateCatalog(ctx)

	_, ok := cache.GetCatalog(ctx)
	assert.False(t, ok)

	// The per-id entry seeded by SetCatalog survives
	manga, ok := cache.GetManga(ctx, "m1")
	require.True(t, ok)
	assert.Equal(t, "Kept", manga.Title)
}

/*
TestCache_DegradesOnBlobFailure verifies that tier-2 failures surface as
plain misses and never as errors.
*/
func TestCache_DegradesOnBlobFailure(t *testing.T) {
	blobs := blob.NewMemoryStore()
	blobs.FailReads = true
	blobs.FailWrites = true
	blobs.FailErr = assert.AnError

	cache := newCache(blobs)
	ctx := context.Background()

	// Writes degrade silently; tier 1 still works
	cache.SetManga(ctx, sampleManga("m1", "Tier One Only"))
	manga, ok := cache.GetManga(ctx, "m1")
	require.True(t, ok)
	assert.Equal(t, "Tier One Only", manga.Title)

	// A cache with an empty tier 1 just misses
	cold := newCache(blobs)
	_, ok = cold.GetManga(ctx, "m1")
	assert.False(t, ok)
	_, ok = cold.GetCatalog(ctx)
	assert.False(t, ok)
}

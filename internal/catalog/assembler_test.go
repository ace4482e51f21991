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
	"github.com/toshoapp/tosho/internal/platform/constants"
	"github.com/toshoapp/tosho/internal/platform/docstore"
)

// newAssembler wires an assembler over a fresh memory store.
func newAssembler(t *testing.T) (*catalog.Assembler, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return catalog.NewAssembler(store, logger), store
}

/*
TestAssembler_ChapterOrdering verifies that chapters come back sorted by
number ascending regardless of insertion order, half-chapters included.
*/
func TestAssembler_ChapterOrdering(t *testing.T) {
	assembler, store := newAssembler(t)
	ctx := context.Background()

	mangaID, err := store.Create(ctx, constants.CollectionMangas, map[string]any{
		"title":      "Out of Order",
		"author":     "Kai Lin",
		"created_at": "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	for _, number := range []float64{3, 1, 10.5, 2} {
		_, err := store.Create(ctx, constants.CollectionChapters, map[string]any{
			"manga_id":   mangaID,
			"number":     number,
			"title":      "Chapter",
			"pages":      []string{"p.jpg"},
			"created_at": "2026-01-02T00:00:00Z",
		})
		require.NoError(t, err)
	}

	manga, err := assembler.ByID(ctx, mangaID)
	require.NoError(t, err)
	require.Len(t, manga.Chapters, 4)

	numbers := make([]float64, len(manga.Chapters))
	for i, chapter := range manga.Chapters {
		numbers[i] = chapter.Number
	}
	assert.Equal(t, []float64{1, 2, 3, 10.5}, numbers)
}

/*
TestAssembler_DanglingCategorySkipped verifies that a category id whose
document no longer exists is silently dropped from the aggregate.
*/
func TestAssembler_DanglingCategorySkipped(t *testing.T) {
	assembler, store := newAssembler(t)
	ctx := context.Background()

	categoryID, err := store.Create(ctx, constants.CollectionCategories, map[string]any{
		"name":       "Action",
		"created_at": "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	mangaID, err := store.Create(ctx, constants.CollectionMangas, map[string]any{
		"title":      "Half Tagged",
		"author":     "Rin Oda",
		"categories": []string{categoryID, "deleted-category-id"},
		"created_at": "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	// 1. Point lookup path
	manga, err := assembler.ByID(ctx, mangaID)
	require.NoError(t, err)
	require.Len(t, manga.Categories, 1)
	assert.Equal(t, "Action", manga.Categories[0].Name)

	// 2. Bulk index path behaves the same
	mangas, err := assembler.All(ctx)
	require.NoError(t, err)
	require.Len(t, mangas, 1)
	assert.Len(t, mangas[0].Categories, 1)
}

/*
TestAssembler_TimestampFallback verifies that a document without an
updated_at inherits its created_at.
*/
func TestAssembler_TimestampFallback(t *testing.T) {
	assembler, store := newAssembler(t)
	ctx := context.Background()

	mangaID, err := store.Create(ctx, constants.CollectionMangas, map[string]any{
		"title":      "Legacy Doc",
		"author":     "Old Hand",
		"created_at": "2025-06-01T12:00:00Z",
	})
	require.NoError(t, err)

	manga, err := assembler.ByID(ctx, mangaID)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T12:00:00Z", manga.CreatedAt)
	assert.Equal(t, "2025-06-01T12:00:00Z", manga.UpdatedAt)
}

/*
TestAssembler_MissingManga verifies that the not-found sentinel passes
through untouched.
*/
func TestAssembler_MissingManga(t *testing.T) {
	assembler, _ := newAssembler(t)

	_, err := assembler.ByID(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

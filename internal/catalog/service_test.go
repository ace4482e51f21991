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
	"github.com/toshoapp/tosho/internal/platform/constants"
	"github.com/toshoapp/tosho/internal/platform/docstore"
)

// testEnv bundles a fully wired catalog service over in-memory stores.
type testEnv struct {
	service *catalog.Service
	store   *docstore.MemoryStore
	blobs   *blob.MemoryStore
	cache   *catalog.Cache
}

// newTestEnv wires a service with a fresh memory document store, memory
// blob store, and an empty cache.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := docstore.NewMemoryStore()
	blobs := blob.NewMemoryStore()
	cache := catalog.NewCache(blobs, logger)
	assembler := catalog.NewAssembler(store, logger)

	return &testEnv{
		service: catalog.NewService(store, assembler, cache, logger),
		store:   store,
		blobs:   blobs,
		cache:   cache,
	}
}

// mustCreateManga creates a manga through the service and fails the test
// on error.
func mustCreateManga(t *testing.T, env *testEnv, input catalog.CreateMangaInput) *catalog.Manga {
	t.Helper()
	manga, err := env.service.Create(context.Background(), input)
	require.NoError(t, err)
	return manga
}

/*
TestService_CreateDefaults verifies that a minimal create fills in the
documented defaults and returns the aggregate without a store re-read.
*/
func TestService_CreateDefaults(t *testing.T) {
	env := newTestEnv(t)

	manga := mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:  "Dragon King",
		Author: "Akira Mori",
	})

	// 1. Store-assigned id and defaults
	assert.NotEmpty(t, manga.ID)
	assert.Equal(t, catalog.StatusOngoing, manga.Status)
	assert.Equal(t, int64(0), manga.Views)
	assert.Equal(t, float64(0), manga.Rating)
	assert.Empty(t, manga.Categories)
	assert.Empty(t, manga.Chapters)
	assert.NotEmpty(t, manga.CreatedAt)
	assert.Equal(t, manga.CreatedAt, manga.UpdatedAt)

	// 2. The document actually landed in the store
	document, err := env.store.Get(context.Background(), constants.CollectionMangas, manga.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, document.Data)
}

/*
TestService_CreateValidation verifies that missing required fields reject
before anything is written.
*/
func TestService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Create(context.Background(), catalog.CreateMangaInput{
		Title: "No Author",
	})
	require.Error(t, err)

	documents, err := env.store.List(context.Background(), constants.CollectionMangas)
	require.NoError(t, err)
	assert.Empty(t, documents)
}

/*
TestService_GetByIDMissing verifies the absence contract: a manga that
does not exist yields nil, nil rather than an error.
*/
func TestService_GetByIDMissing(t *testing.T) {
	env := newTestEnv(t)

	manga, err := env.service.GetByID(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, manga)
}

/*
TestService_GetByIDReadThrough verifies that a read miss falls through to
the store and the result is cached for the next read.
*/
func TestService_GetByIDReadThrough(t *testing.T) {
	env := newTestEnv(t)
	created := mustCreateManga(t, env, catalog.CreateMangaInput{Title: "Solo Max", Author: "Hana Sato"})

	// 1. Cold read through a fresh cache sharing the same blob tier
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coldCache := catalog.NewCache(blob.NewMemoryStore(), logger)
	coldService := catalog.NewService(env.store, catalog.NewAssembler(env.store, logger), coldCache, logger)

	manga, err := coldService.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, manga)
	assert.Equal(t, "Solo Max", manga.Title)

	// 2. Second read is idempotent and serves the cached aggregate
	again, err := coldService.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Same(t, manga, again)
}

/*
TestService_UpdateRoundTrip verifies that an update re-reads the
aggregate and that blank optional fields leave stored values untouched.
*/
func TestService_UpdateRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	created := mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:        "Tower of Dawn",
		Author:       "Mina Aoki",
		Description:  "A climb to the top.",
		ThumbnailURL: "https://img.example.com/thumb.jpg",
	})

	// 1. Update the title only; blank optional fields must not clobber
	updated, err := env.service.Update(context.Background(), created.ID, catalog.UpdateMangaInput{
		Title:  "Tower of Dusk",
		Author: "Mina Aoki",
	})
	require.NoError(t, err)

	assert.Equal(t, "Tower of Dusk", updated.Title)
	assert.Equal(t, "A climb to the top.", updated.Description)
	assert.Equal(t, "https://img.example.com/thumb.jpg", updated.ThumbnailURL)

	// 2. The re-read state is what subsequent reads observe
	fetched, err := env.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tower of Dusk", fetched.Title)
}

/*
TestService_UpdateMissing verifies that updating an absent manga fails
with a not-found error.
*/
func TestService_UpdateMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Update(context.Background(), "no-such-id", catalog.UpdateMangaInput{
		Title:  "Ghost",
		Author: "Nobody",
	})
	require.Error(t, err)
}

/*
TestService_DeleteCascade verifies that deleting a manga removes its
chapters as well, and that deleting an absent manga is a no-op.
*/
func TestService_DeleteCascade(t *testing.T) {
	env := newTestEnv(t)
	created := mustCreateManga(t, env, catalog.CreateMangaInput{Title: "Last Arc", Author: "Jiro Tan"})

	_, err := env.service.CreateChapter(context.Background(), catalog.CreateChapterInput{
		MangaID: created.ID,
		Number:  1,
		Title:   "Beginning",
		Pages:   []string{"p1.jpg"},
	})
	require.NoError(t, err)

	// 1. Delete cascades
	require.NoError(t, env.service.Delete(context.Background(), created.ID))

	manga, err := env.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, manga)

	chapters, err := env.store.Query(context.Background(), constants.CollectionChapters, catalog.FieldMangaID, created.ID)
	require.NoError(t, err)
	assert.Empty(t, chapters)

	// 2. Deleting again succeeds
	require.NoError(t, env.service.Delete(context.Background(), created.ID))
}

/*
TestService_ListAllFreshness verifies that the catalog snapshot reflects
every mutation: a second list after create/delete sees the new state.
*/
func TestService_ListAllFreshness(t *testing.T) {
	env := newTestEnv(t)

	first := mustCreateManga(t, env, catalog.CreateMangaInput{Title: "Alpha", Author: "Ann Lee"})

	// 1. Snapshot built and cached
	mangas, err := env.service.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, mangas, 1)

	// 2. A create invalidates the snapshot
	mustCreateManga(t, env, catalog.CreateMangaInput{Title: "Beta", Author: "Bob Kim"})
	mangas, err = env.service.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, mangas, 2)

	// 3. A delete invalidates it again
	require.NoError(t, env.service.Delete(context.Background(), first.ID))
	mangas, err = env.service.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, mangas, 1)
	assert.Equal(t, "Beta", mangas[0].Title)
}

/*
TestService_IncrementViews verifies the atomic counter bump and the
accepted staleness of the cached aggregate.
*/
func TestService_IncrementViews(t *testing.T) {
	env := newTestEnv(t)
	created := mustCreateManga(t, env, catalog.CreateMangaInput{Title: "Viewed", Author: "Cam Vo"})

	// 1. Counter moves at the store
	require.NoError(t, env.service.IncrementViews(context.Background(), created.ID))
	require.NoError(t, env.service.IncrementViews(context.Background(), created.ID))

	// 2. The cached aggregate is deliberately stale
	cached, err := env.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cached.Views)

	// 3. A fresh assembly sees the real count
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fresh, err := catalog.NewAssembler(env.store, logger).ByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.Views)

	// 4. Absent manga rejects
	require.Error(t, env.service.IncrementViews(context.Background(), "no-such-id"))
}

/*
TestService_ExternalLinks verifies append, positional removal, and the
out-of-range no-op.
*/
func TestService_ExternalLinks(t *testing.T) {
	env := newTestEnv(t)
	created := mustCreateManga(t, env, catalog.CreateMangaInput{Title: "Linked", Author: "Dai Ngo"})

	// 1. Append two links
	require.NoError(t, env.service.AddExternalLink(context.Background(), created.ID, catalog.ExternalLink{
		Name: "Publisher",
		URL:  "https://publisher.example.com",
	}))
	require.NoError(t, env.service.AddExternalLink(context.Background(), created.ID, catalog.ExternalLink{
		Name: "Wiki",
		URL:  "https://wiki.example.com",
	}))

	manga, err := env.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, manga.ExternalLinks, 2)

	// 2. Remove the first; the second shifts down
	require.NoError(t, env.service.RemoveExternalLink(context.Background(), created.ID, 0))
	manga, err = env.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, manga.ExternalLinks, 1)
	assert.Equal(t, "Wiki", manga.ExternalLinks[0].Name)

	// 3. Out-of-range index is a no-op
	require.NoError(t, env.service.RemoveExternalLink(context.Background(), created.ID, 5))
	manga, err = env.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, manga.ExternalLinks, 1)

	// 4. Invalid link rejects
	require.Error(t, env.service.AddExternalLink(context.Background(), created.ID, catalog.ExternalLink{
		Name: "Bad",
		URL:  "not-a-url",
	}))
}

/*
TestService_CreateChapter verifies chapter creation and that the parent
aggregate picks the new chapter up on the next read.
*/
func TestService_CreateChapter(t *testing.T) {
	env := newTestEnv(t)
	created := mustCreateManga(t, env, catalog.CreateMangaInput{Title: "Serialized", Author: "Emi Ota"})

	chapter, err := env.service.CreateChapter(context.Background(), catalog.CreateChapterInput{
		MangaID: created.ID,
		Number:  10.5,
		Title:   "Interlude",
		Pages:   []string{"p1.jpg", "p2.jpg"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chapter.ID)
	assert.Equal(t, 10.5, chapter.Number)
	assert.Equal(t, created.ID, chapter.MangaID)

	// The cached aggregate was purged, so the read reassembles
	manga, err := env.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, manga.Chapters, 1)
	assert.Equal(t, "Interlude", manga.Chapters[0].Title)

	// Empty pages reject
	_, err = env.service.CreateChapter(context.Background(), catalog.CreateChapterInput{
		MangaID: created.ID,
		Number:  11,
		Title:   "Empty",
	})
	require.Error(t, err)
}

/*
TestService_Categories verifies category creation, listing, and the bulk
wipe that also clears manga references.
*/
func TestService_Categories(t *testing.T) {
	env := newTestEnv(t)

	action, err := env.service.CreateCategory(context.Background(), "Action")
	require.NoError(t, err)
	assert.NotEmpty(t, action.ID)

	_, err = env.service.CreateCategory(context.Background(), "Drama")
	require.NoError(t, err)

	categories, err := env.service.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2)

	// A manga referencing a category
	created := mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:       "Tagged",
		Author:      "Gen Ho",
		CategoryIDs: []string{action.ID},
	})
	require.Len(t, created.Categories, 1)
	assert.Equal(t, "Action", created.Categories[0].Name)

	// Wipe everything
	require.NoError(t, env.service.DeleteAllCategories(context.Background()))

	categories, err = env.service.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories)

	manga, err := env.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, manga.Categories)
}

/*
TestService_BlobFailureDegrades verifies that a broken persistent cache
tier never fails reads: everything degrades to store round trips.
*/
func TestService_BlobFailureDegrades(t *testing.T) {
	env := newTestEnv(t)
	created := mustCreateManga(t, env, catalog.CreateMangaInput{Title: "Resilient", Author: "Ivy Ma"})

	// Break the blob tier both ways
	env.blobs.FailReads = true
	env.blobs.FailWrites = true
	env.blobs.FailErr = assert.AnError

	// Build a service whose in-process tier is empty, forcing tier-2 paths
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := catalog.NewCache(env.blobs, logger)
	service := catalog.NewService(env.store, catalog.NewAssembler(env.store, logger), cache, logger)

	manga, err := service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, manga)
	assert.Equal(t, "Resilient", manga.Title)

	mangas, err := service.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, mangas, 1)
}

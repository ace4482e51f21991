// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toshoapp/tosho/internal/catalog"
)

// categoryNames collects the names of a manga's categories.
func categoryNames(manga *catalog.Manga) []string {
	names := make([]string, len(manga.Categories))
	for i, category := range manga.Categories {
		names[i] = category.Name
	}
	return names
}

/*
TestCategorize_TitleAndAuthorChunks verifies the delimiter splitting: a
title broken on pipes and brackets plus a comma-separated author list
become the manga's category set.
*/
func TestCategorize_TitleAndAuthorChunks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:  "Foo | Bar (Baz)",
		Author: "Anna, Bert",
	})

	report, err := env.service.RegenerateCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0, report.Errors)

	manga, err := env.service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Foo", "Bar", "Baz", "Anna", "Bert"}, categoryNames(manga))
}

/*
TestCategorize_ReusesExistingCaseInsensitive verifies that a chunk
matching an existing category by lowercase name reuses it instead of
creating a duplicate.
*/
func TestCategorize_ReusesExistingCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	existing, err := env.service.CreateCategory(ctx, "ACTION")
	require.NoError(t, err)

	created := mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:  "Blade Saga (Action)",
		Author: "Ken Ide",
	})

	_, err = env.service.RegenerateCategories(ctx)
	require.NoError(t, err)

	manga, err := env.service.GetByID(ctx, created.ID)
	require.NoError(t, err)

	ids := make([]string, len(manga.Categories))
	for i, category := range manga.Categories {
		ids[i] = category.ID
	}
	assert.Contains(t, ids, existing.ID)

	// No duplicate "Action" category was created
	categories, err := env.service.ListCategories(ctx)
	require.NoError(t, err)
	for _, category := range categories {
		if category.ID != existing.ID {
			assert.False(t, strings.EqualFold("action", category.Name),
				"duplicate category %q created", category.Name)
		}
	}
}

/*
TestCategorize_DropsShortAndAnonymous verifies the chunk filters: single
characters disappear and an anonymous author contributes nothing.
*/
func TestCategorize_DropsShortAndAnonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:  "Yu | X (Go)",
		Author: "Anonymous",
	})

	_, err := env.service.RegenerateCategories(ctx)
	require.NoError(t, err)

	manga, err := env.service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	// "X" is too short, "Anonymous" is skipped entirely
	assert.ElementsMatch(t, []string{"Yu", "Go"}, categoryNames(manga))
}

/*
TestCategorize_NoChunksNoWrite verifies that a manga yielding no usable
chunks is left untouched and not counted as updated.
*/
func TestCategorize_NoChunksNoWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:  "A",
		Author: "Anónimo",
	})

	report, err := env.service.RegenerateCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Errors)

	categories, err := env.service.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

/*
TestCategorize_Deduplicates verifies that a chunk appearing in both
title and author resolves to a single category id.
*/
func TestCategorize_Deduplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:  "Vagrant | Vagrant",
		Author: "Vagrant",
	})

	_, err := env.service.RegenerateCategories(ctx)
	require.NoError(t, err)

	manga, err := env.service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vagrant"}, categoryNames(manga))
}

// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toshoapp/tosho/internal/catalog"
)

func mangaWithCategories(id, title string, categoryIDs ...string) *catalog.Manga {
	categories := make([]catalog.Category, len(categoryIDs))
	for i, categoryID := range categoryIDs {
		categories[i] = catalog.Category{ID: categoryID}
	}
	return &catalog.Manga{ID: id, Title: title, Categories: categories}
}

func titlesOf(mangas []*catalog.Manga) []string {
	titles := make([]string, len(mangas))
	for i, manga := range mangas {
		titles[i] = manga.Title
	}
	return titles
}

/*
TestRecommend_FilterAndAlphabeticalOrder verifies the core contract:
scoring selects the members, but the output order is alphabetical by
title, never by score.
*/
func TestRecommend_FilterAndAlphabeticalOrder(t *testing.T) {
	// Reference: category C1, title "Dragon King".
	// Candidate "Zeta" shares C1 (score 10), candidate "Alpha Dragon"
	// shares only the title token "dragon" (score 5), candidate "Nothing
	// Shared" scores 0.
	candidates := []*catalog.Manga{
		mangaWithCategories("m1", "Zeta", "C1"),
		mangaWithCategories("m2", "Alpha Dragon"),
		mangaWithCategories("m3", "Nothing Shared"),
	}

	result := catalog.Recommend(candidates, "ref", []string{"C1"}, "Dragon King", 0)

	// 1. Membership: the zero scorer is excluded
	require.Len(t, result, 2)

	// 2. Ordering: alphabetical, so the lower scorer comes first
	assert.Equal(t, []string{"Alpha Dragon", "Zeta"}, titlesOf(result))
}

/*
TestRecommend_ExcludesReference verifies the reference manga never
recommends itself, even on a perfect match.
*/
func TestRecommend_ExcludesReference(t *testing.T) {
	candidates := []*catalog.Manga{
		mangaWithCategories("ref", "Dragon King", "C1"),
		mangaWithCategories("m1", "Dragon Queen", "C1"),
	}

	result := catalog.Recommend(candidates, "ref", []string{"C1"}, "Dragon King", 0)
	require.Len(t, result, 1)
	assert.Equal(t, "m1", result[0].ID)
}

/*
TestRecommend_AuthorTokenMatch verifies that a reference title token
appearing in a candidate's author field is enough to include it.
*/
func TestRecommend_AuthorTokenMatch(t *testing.T) {
	candidate := mangaWithCategories("m1", "Unrelated Title")
	candidate.Author = "Dragon Studio"

	result := catalog.Recommend([]*catalog.Manga{candidate}, "ref", nil, "Dragon King", 0)
	require.Len(t, result, 1)
	assert.Equal(t, "m1", result[0].ID)
}

/*
TestRecommend_ShortTokensIgnored verifies that title tokens of two
characters or fewer never match.
*/
func TestRecommend_ShortTokensIgnored(t *testing.T) {
	candidates := []*catalog.Manga{
		mangaWithCategories("m1", "Go To War"),
	}

	// Only "war" is a usable token on either side; "go" and "to" are not
	result := catalog.Recommend(candidates, "ref", nil, "Go To School", 0)
	assert.Empty(t, result)

	result = catalog.Recommend(candidates, "ref", nil, "War Diary", 0)
	assert.Len(t, result, 1)
}

/*
TestRecommend_Limit verifies the result cap and that zero means no cap.
*/
func TestRecommend_Limit(t *testing.T) {
	candidates := []*catalog.Manga{
		mangaWithCategories("m1", "Charlie", "C1"),
		mangaWithCategories("m2", "Bravo", "C1"),
		mangaWithCategories("m3", "Alpha", "C1"),
	}

	capped := catalog.Recommend(candidates, "ref", []string{"C1"}, "Ref", 2)
	assert.Equal(t, []string{"Alpha", "Bravo"}, titlesOf(capped))

	uncapped := catalog.Recommend(candidates, "ref", []string{"C1"}, "Ref", 0)
	assert.Len(t, uncapped, 3)
}

/*
TestService_GetRecommendations verifies the service wrapper: reference
lookup, catalog load, and not-found rejection.
*/
func TestService_GetRecommendations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	action, err := env.service.CreateCategory(ctx, "Action")
	require.NoError(t, err)

	reference := mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:       "Dragon King",
		Author:      "Aki Tan",
		CategoryIDs: []string{action.ID},
	})
	mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:       "Zeta Fist",
		Author:      "Other",
		CategoryIDs: []string{action.ID},
	})
	mustCreateManga(t, env, catalog.CreateMangaInput{
		Title:  "Plain Tale",
		Author: "Other",
	})

	result, err := env.service.GetRecommendations(ctx, reference.ID, 0)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Zeta Fist", result[0].Title)

	_, err = env.service.GetRecommendations(ctx, "no-such-id", 0)
	require.Error(t, err)
}

// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/toshoapp/tosho/internal/platform/apperr"
	"github.com/toshoapp/tosho/pkg/slice"
)

// Relevance weights for recommendation scoring.
const (
	scoreSharedCategory = 10
	scoreSharedToken    = 5
	scoreAuthorToken    = 3
)

// recommendCollation configures the locale-aware, case-insensitive title
// ordering used for results. Collators are not safe for concurrent use,
// so Recommend builds a fresh one per call.
var recommendCollation = []collate.Option{collate.Loose}

/*
Description:

	Recommend scores every candidate against a reference manga and returns
	the relevant ones. Each category shared with the reference is worth 10
	points, each reference title token (length > 2, case-insensitive)
	found in the candidate's title 5, and each reference title token found
	in the candidate's author field 3. Candidates scoring zero are
	excluded.

	The score acts purely as a relevance filter: the surviving candidates
	are ordered alphabetically by title, not by score. Established clients
	depend on that ordering.

	The scorer is pure: it touches no store and no cache, so callers feed
	it whatever candidate set they already have loaded.

Parameters:

  - candidates: Candidate pool, typically the whole catalog.
  - currentID: Id of the reference manga; always excluded from results.
  - categoryIDs: Category ids of the reference manga.
  - title: Title of the reference manga.
  - limit: Maximum number of results; non-positive means no cap.

Returns:

  - []*Manga: Relevant candidates in alphabetical title order.
*/
func Recommend(candidates []*Manga, currentID string, categoryIDs []string, title string, limit int) []*Manga {
	referenceTokens := titleTokens(title)

	relevant := make([]*Manga, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == currentID {
			continue
		}
		if scoreCandidate(candidate, categoryIDs, referenceTokens) > 0 {
			relevant = append(relevant, candidate)
		}
	}

	collator := collate.New(language.Und, recommendCollation...)
	sort.SliceStable(relevant, func(i, j int) bool {
		return collator.CompareString(
			strings.ToLower(relevant[i].Title),
			strings.ToLower(relevant[j].Title)) < 0
	})

	if limit > 0 && len(relevant) > limit {
		relevant = relevant[:limit]
	}
	return relevant
}

// scoreCandidate computes the relevance score of one candidate against
// the reference manga's category ids and title tokens.
func scoreCandidate(candidate *Manga, categoryIDs []string, referenceTokens []string) int {
	candidateCategories := make(map[string]struct{}, len(candidate.Categories))
	for _, category := range candidate.Categories {
		candidateCategories[category.ID] = struct{}{}
	}
	candidateTokens := tokenSet(titleTokens(candidate.Title))
	candidateAuthorTokens := tokenSet(titleTokens(candidate.Author))

	score := 0
	for _, id := range categoryIDs {
		if _, ok := candidateCategories[id]; ok {
			score += scoreSharedCategory
		}
	}
	for _, token := range referenceTokens {
		if _, ok := candidateTokens[token]; ok {
			score += scoreSharedToken
		}
		if _, ok := candidateAuthorTokens[token]; ok {
			score += scoreAuthorToken
		}
	}
	return score
}

/*
Description:

	GetRecommendations loads the reference manga and the catalog and runs
	the scorer over them.

Parameters:

  - context: Request context for cancellation.
  - id: Reference manga id.
  - limit: Maximum number of results; non-positive means no cap.

Returns:

  - []*Manga: Relevant candidates in alphabetical title order.
  - error: *apperr.AppError when the reference manga does not exist,
    wrapped store error otherwise.
*/
func (service *Service) GetRecommendations(context context.Context, id string, limit int) ([]*Manga, error) {
	manga, err := service.GetByID(context, id)
	if err != nil {
		return nil, err
	}
	if manga == nil {
		return nil, apperr.NotFound("Manga")
	}

	candidates, err := service.ListAll(context)
	if err != nil {
		return nil, err
	}

	categoryIDs := slice.Map(manga.Categories, func(category Category) string {
		return category.ID
	})
	return Recommend(candidates, manga.ID, categoryIDs, manga.Title, limit), nil
}

// titleTokens lowercases a string and keeps the whitespace-separated
// words longer than two characters.
func titleTokens(value string) []string {
	return slice.Filter(strings.Fields(strings.ToLower(value)), func(word string) bool {
		return utf8.RuneCountInString(word) > 2
	})
}

// tokenSet turns a token list into a membership set.
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/toshoapp/tosho/internal/platform/constants"
	"github.com/toshoapp/tosho/pkg/slice"
)

// titleDelimiters are the characters that split a title into candidate
// category chunks.
const titleDelimiters = "|()[]{}"

// bareTokens are chunks that survive splitting but carry no meaning.
var bareTokens = map[string]struct{}{
	"-": {},
	"_": {},
	".": {},
	",": {},
}

// anonymousAuthors are author values that must never become categories.
var anonymousAuthors = map[string]struct{}{
	"anónimo":   {},
	"anonymous": {},
}

/*
Description:

	RegenerateCategories derives categories for every manga in the catalog
	from its own title and author and rewrites each manga's category-id
	list with the result.

	Title chunks come from splitting on |()[]{}, author chunks from
	splitting on commas and ampersands; chunks are trimmed, chunks of one
	character or less and bare punctuation are dropped, and anonymous
	authors are skipped entirely. Category names are matched and created
	case-insensitively, so "Action" and "action" share one document.

	Failures are isolated per manga: a bad item bumps the error count and
	the batch moves on. The cache is invalidated once at the end of the
	run, not per item.

Parameters:

  - context: Request context for cancellation.

Returns:

  - CategorizeReport: How many manga were updated and how many failed.
  - error: Wrapped store error when the catalog or category list itself
    cannot be loaded; per-item failures are reported, not returned.
*/
func (service *Service) RegenerateCategories(context context.Context) (CategorizeReport, error) {
	mangas, err := service.ListAll(context)
	if err != nil {
		return CategorizeReport{}, err
	}
	categories, err := service.ListCategories(context)
	if err != nil {
		return CategorizeReport{}, err
	}

	// Case-insensitive name index over the existing categories, extended
	// as the run creates new ones.
	index := make(map[string]string, len(categories))
	for _, category := range categories {
		index[strings.ToLower(category.Name)] = category.ID
	}

	var report CategorizeReport
	updated := make([]string, 0, len(mangas))

	for _, manga := range mangas {
		names := append(titleChunks(manga.Title), authorChunks(manga.Author)...)

		ids := make([]string, 0, len(names))
		seen := make(map[string]struct{}, len(names))
		for _, name := range names {
			id := service.categoryIDFor(context, index, name)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}

		if len(ids) == 0 {
			continue
		}

		fields := map[string]any{FieldCategories: ids}
		if err := service.store.Update(context, constants.CollectionMangas, manga.ID, fields); err != nil {
			service.logger.Warn("categorization failed for manga",
				slog.String("manga_id", manga.ID),
				slog.String("error", err.Error()))
			report.Errors++
			continue
		}
		report.Updated++
		updated = append(updated, manga.ID)
	}

	if len(updated) > 0 {
		service.cache.InvalidateCatalog(context)
		for _, id := range updated {
			service.cache.RemoveManga(context, id)
		}
	}

	service.logger.Info("categorization run finished",
		slog.Int("updated", report.Updated),
		slog.Int("errors", report.Errors))
	return report, nil
}

// categoryIDFor resolves a category name to its id, creating the
// category when it does not exist yet. Creation failures are logged and
// swallowed; the chunk is simply skipped for this run.
func (service *Service) categoryIDFor(context context.Context, index map[string]string, name string) string {
	key := strings.ToLower(name)
	if id, ok := index[key]; ok {
		return id
	}

	id, err := service.store.Create(context, constants.CollectionCategories, map[string]any{
		FieldName:      name,
		FieldCreatedAt: nowISO(),
	})
	if err != nil {
		service.logger.Warn("category creation failed",
			slog.String("name", name),
			slog.String("error", err.Error()))
		return ""
	}
	index[key] = id
	return id
}

// # Chunk Extraction

// titleChunks splits a title on its delimiter characters and keeps the
// meaningful pieces.
func titleChunks(title string) []string {
	parts := strings.FieldsFunc(title, func(r rune) bool {
		return strings.ContainsRune(titleDelimiters, r)
	})
	return cleanChunks(parts)
}

// authorChunks splits an author field on commas and ampersands. Unknown
// or anonymous authors contribute nothing.
func authorChunks(author string) []string {
	trimmed := strings.TrimSpace(author)
	if trimmed == "" {
		return nil
	}
	if _, anonymous := anonymousAuthors[strings.ToLower(trimmed)]; anonymous {
		return nil
	}
	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == '&'
	})
	return cleanChunks(parts)
}

// cleanChunks trims every chunk and drops the ones too short or too
// empty to be a category name.
func cleanChunks(parts []string) []string {
	return slice.Filter(slice.Map(parts, strings.TrimSpace), func(chunk string) bool {
		if utf8.RuneCountInString(chunk) <= 1 {
			return false
		}
		_, bare := bareTokens[chunk]
		return !bare
	})
}

// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/toshoapp/tosho/internal/platform/apperr"
	"github.com/toshoapp/tosho/internal/platform/constants"
	"github.com/toshoapp/tosho/internal/platform/docstore"
	"github.com/toshoapp/tosho/internal/platform/validate"
)

// Validation limits for catalog inputs.
const (
	maxTitleLength       = 300
	maxAuthorLength      = 200
	maxDescriptionLength = 10000
	maxNameLength        = 100
)

/*
Description:

	Service exposes the catalog operations: aggregate reads served through
	the cache, admin mutations with coarse invalidation, the bulk
	categorization engine, and recommendation queries.

	Every mutation follows the same discipline: write to the remote store
	first, then invalidate the whole-catalog snapshot and fix up the per-id
	cache entry for the touched manga. Reads that miss both cache tiers
	fall through to the assembler and backfill the cache on the way out.
*/
type Service struct {
	store     docstore.Store
	assembler *Assembler
	cache     *Cache
	logger    *slog.Logger
}

/*
Description:

	NewService creates the catalog service.

Parameters:

  - store: Remote document store (system of record).
  - assembler: Aggregate assembler over the same store.
  - cache: Two-tier read-through cache.
  - logger: Structured logger.

Returns:

  - *Service: Ready-to-use service.
*/
func NewService(store docstore.Store, assembler *Assembler, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		assembler: assembler,
		cache:     cache,
		logger:    logger,
	}
}

// # Reads

/*
Description:

	ListAll returns the whole catalog as denormalized aggregates, newest
	first. Served from the cached snapshot when present; otherwise the
	assembler rebuilds it from the store and the result backfills both
	cache tiers.

Parameters:

  - context: Request context for cancellation.

Returns:

  - []*Manga: Every manga in the catalog.
  - error: Wrapped store error.
*/
func (service *Service) ListAll(context context.Context) ([]*Manga, error) {
	if mangas, ok := service.cache.GetCatalog(context); ok {
		return mangas, nil
	}

	mangas, err := service.assembler.All(context)
	if err != nil {
		return nil, fmt.Errorf("assemble catalog: %w", err)
	}

	service.cache.SetCatalog(context, mangas)
	return mangas, nil
}

/*
Description:

	GetByID returns one manga aggregate. Served from the cache when
	present; otherwise assembled from the store and cached on the way out.

Parameters:

  - context: Request context for cancellation.
  - id: Manga id.

Returns:

  - *Manga: The aggregate, or nil when no such manga exists. Absence is
    not an error: the nil/nil return is part of the contract.
  - error: Wrapped store error.
*/
func (service *Service) GetByID(context context.Context, id string) (*Manga, error) {
	if manga, ok := service.cache.GetManga(context, id); ok {
		return manga, nil
	}

	manga, err := service.assembler.ByID(context, id)
	if err != nil {
		if err == docstore.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("assemble manga %s: %w", id, err)
	}

	service.cache.SetManga(context, manga)
	return manga, nil
}

// # Manga Mutations

/*
Description:

	Create registers a new manga. The returned aggregate is built from the
	locally-known input values rather than re-read from the store, which
	saves a round trip at the cost of trusting the write. Missing fields
	get their documented defaults: status "ongoing", zero views and
	rating, empty relations.

Parameters:

  - context: Request context for cancellation.
  - input: New manga fields; Title and Author are required.

Returns:

  - *Manga: The optimistic aggregate with the store-assigned id.
  - error: *apperr.AppError on validation failure, wrapped store error
    otherwise.
*/
func (service *Service) Create(context context.Context, input CreateMangaInput) (*Manga, error) {
	// 1. Validate input.
	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, maxTitleLength).
		Required(FieldAuthor, input.Author).
		MaxLen(FieldAuthor, input.Author, maxAuthorLength).
		MaxLen(FieldDescription, input.Description, maxDescriptionLength)
	if input.ThumbnailURL != "" {
		validator.URL(FieldThumbnailURL, input.ThumbnailURL)
	}
	if input.CoverURL != "" {
		validator.URL(FieldCoverURL, input.CoverURL)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Build the document with defaults.
	now := nowISO()
	status := input.Status
	if status == "" {
		status = StatusOngoing
	}
	categoryIDs := input.CategoryIDs
	if categoryIDs == nil {
		categoryIDs = []string{}
	}

	fields := map[string]any{
		FieldTitle:       input.Title,
		FieldAuthor:      input.Author,
		FieldDescription: input.Description,
		FieldStatus:      status,
		FieldCategories:  categoryIDs,
		FieldViews:       int64(0),
		FieldRating:      float64(0),
		FieldCreatedAt:   now,
		FieldUpdatedAt:   now,
	}
	if input.ThumbnailURL != "" {
		fields[FieldThumbnailURL] = input.ThumbnailURL
	}
	if input.CoverURL != "" {
		fields[FieldCoverURL] = input.CoverURL
	}

	id, err := service.store.Create(context, constants.CollectionMangas, fields)
	if err != nil {
		return nil, fmt.Errorf("create manga: %w", err)
	}

	// 3. Resolve the chosen categories locally; they were just picked from
	// the existing list, so point lookups are cheap and dangling ids are
	// simply dropped.
	categories := make([]Category, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		category, err := service.assembler.categoryByID(context, categoryID)
		if err != nil {
			if err == docstore.ErrNotFound {
				service.logger.Warn("skipping dangling category reference",
					slog.String("manga_id", id),
					slog.String("category_id", categoryID))
				continue
			}
			return nil, fmt.Errorf("resolve category %s: %w", categoryID, err)
		}
		categories = append(categories, category)
	}

	manga := &Manga{
		ID:           id,
		Title:        input.Title,
		Author:       input.Author,
		Description:  input.Description,
		Status:       status,
		Views:        0,
		Rating:       0,
		ThumbnailURL: input.ThumbnailURL,
		CoverURL:     input.CoverURL,
		Categories:   categories,
		Chapters:     []Chapter{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 4. Coarse invalidation, then seed the fresh entry.
	service.cache.InvalidateCatalog(context)
	service.cache.SetManga(context, manga)

	service.logger.Info("manga created",
		slog.String("manga_id", id),
		slog.String("title", input.Title))
	return manga, nil
}

/*
Description:

	Update edits an existing manga. The update document is deep-stripped
	of empty values before the write, so an absent or blank field leaves
	the stored value untouched (the store merges shallowly). After the
	write the aggregate is re-read from the store, making the returned
	state authoritative rather than optimistic.

Parameters:

  - context: Request context for cancellation.
  - id: Manga id.
  - input: Edited fields; Title and Author are required.

Returns:

  - *Manga: The authoritative post-update aggregate.
  - error: *apperr.AppError on validation failure or when the manga does
    not exist, wrapped store error otherwise.
*/
func (service *Service) Update(context context.Context, id string, input UpdateMangaInput) (*Manga, error) {
	// 1. Validate input.
	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, maxTitleLength).
		Required(FieldAuthor, input.Author).
		MaxLen(FieldAuthor, input.Author, maxAuthorLength)
	if input.Description != nil {
		validator.MaxLen(FieldDescription, *input.Description, maxDescriptionLength)
	}
	if input.ThumbnailURL != "" {
		validator.URL(FieldThumbnailURL, input.ThumbnailURL)
	}
	if input.CoverURL != "" {
		validator.URL(FieldCoverURL, input.CoverURL)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Build and strip the update document.
	fields := map[string]any{
		FieldTitle:        input.Title,
		FieldAuthor:       input.Author,
		FieldCategories:   input.CategoryIDs,
		FieldStatus:       input.Status,
		FieldThumbnailURL: input.ThumbnailURL,
		FieldCoverURL:     input.CoverURL,
		FieldUpdatedAt:    nowISO(),
	}
	if input.Description != nil {
		fields[FieldDescription] = *input.Description
	}

	if err := service.store.Update(context, constants.CollectionMangas, id, stripFields(fields)); err != nil {
		if err == docstore.ErrNotFound {
			return nil, apperr.NotFound("Manga")
		}
		return nil, fmt.Errorf("update manga %s: %w", id, err)
	}

	// 3. Re-read for authoritative state.
	manga, err := service.assembler.ByID(context, id)
	if err != nil {
		return nil, fmt.Errorf("assemble manga %s: %w", id, err)
	}

	service.cache.InvalidateCatalog(context)
	service.cache.SetManga(context, manga)

	service.logger.Info("manga updated", slog.String("manga_id", id))
	return manga, nil
}

/*
Description:

	Delete removes a manga and all of its chapters. Chapters are deleted
	first so that an interrupted run never leaves orphaned chapters whose
	parent is already gone.

Parameters:

  - context: Request context for cancellation.
  - id: Manga id; deleting an absent manga is a no-op.

Returns:

  - error: Wrapped store error.
*/
func (service *Service) Delete(context context.Context, id string) error {
	// 1. Cascade: chapters first.
	chapters, err := service.store.Query(context, constants.CollectionChapters, FieldMangaID, id)
	if err != nil {
		return fmt.Errorf("list chapters of manga %s: %w", id, err)
	}
	for _, chapter := range chapters {
		if err := service.store.Delete(context, constants.CollectionChapters, chapter.ID); err != nil {
			return fmt.Errorf("delete chapter %s: %w", chapter.ID, err)
		}
	}

	// 2. Then the root document.
	if err := service.store.Delete(context, constants.CollectionMangas, id); err != nil {
		return fmt.Errorf("delete manga %s: %w", id, err)
	}

	service.cache.InvalidateCatalog(context)
	service.cache.RemoveManga(context, id)

	service.logger.Info("manga deleted",
		slog.String("manga_id", id),
		slog.Int("chapters_deleted", len(chapters)))
	return nil
}

/*
Description:

	IncrementViews bumps a manga's view counter atomically at the store.
	The cache is deliberately left alone: view counts tolerate staleness,
	and invalidating the catalog on every page open would defeat the cache
	entirely.

Parameters:

  - context: Request context for cancellation.
  - id: Manga id.

Returns:

  - error: *apperr.AppError when the manga does not exist, wrapped store
    error otherwise.
*/
func (service *Service) IncrementViews(context context.Context, id string) error {
	if err := service.store.Increment(context, constants.CollectionMangas, id, FieldViews, 1); err != nil {
		if err == docstore.ErrNotFound {
			return apperr.NotFound("Manga")
		}
		return fmt.Errorf("increment views of manga %s: %w", id, err)
	}
	return nil
}

// # External Links

/*
Description:

	AddExternalLink appends a named URL to a manga's external link list.
	This is a read-modify-write of the whole list; concurrent editors can
	lose each other's appends, which is accepted for an admin-only,
	low-frequency operation.

Parameters:

  - context: Request context for cancellation.
  - id: Manga id.
  - link: Link to append; Name and URL are required and URL must be
    absolute http(s).

Returns:

  - error: *apperr.AppError on validation failure or absent manga,
    wrapped store error otherwise.
*/
func (service *Service) AddExternalLink(context context.Context, id string, link ExternalLink) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, link.Name).
		MaxLen(FieldName, link.Name, maxNameLength).
		Required("url", link.URL).
		URL("url", link.URL)
	if err := validator.Err(); err != nil {
		return err
	}

	links, err := service.externalLinks(context, id)
	if err != nil {
		return err
	}
	links = append(links, link)
	return service.writeExternalLinks(context, id, links)
}

/*
Description:

	RemoveExternalLink removes the link at the given position in a manga's
	external link list. An out-of-range index is a no-op, matching the
	forgiving contract of the rest of the delete operations.

Parameters:

  - context: Request context for cancellation.
  - id: Manga id.
  - index: Zero-based position in the current list.

Returns:

  - error: *apperr.AppError on absent manga, wrapped store error otherwise.
*/
func (service *Service) RemoveExternalLink(context context.Context, id string, index int) error {
	links, err := service.externalLinks(context, id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(links) {
		return nil
	}
	links = append(links[:index], links[index+1:]...)
	return service.writeExternalLinks(context, id, links)
}

// externalLinks reads the current link list off the stored document.
func (service *Service) externalLinks(context context.Context, id string) ([]ExternalLink, error) {
	document, err := service.store.Get(context, constants.CollectionMangas, id)
	if err != nil {
		if err == docstore.ErrNotFound {
			return nil, apperr.NotFound("Manga")
		}
		return nil, fmt.Errorf("load manga %s: %w", id, err)
	}

	var doc mangaDoc
	if err := json.Unmarshal(document.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode manga %s: %w", id, err)
	}
	return doc.ExternalLinks, nil
}

// writeExternalLinks persists the full link list and purges the manga
// from the cache so the next read reassembles it.
func (service *Service) writeExternalLinks(context context.Context, id string, links []ExternalLink) error {
	if links == nil {
		links = []ExternalLink{}
	}
	fields := map[string]any{
		FieldExternalLinks: links,
		FieldUpdatedAt:     nowISO(),
	}
	if err := service.store.Update(context, constants.CollectionMangas, id, fields); err != nil {
		if err == docstore.ErrNotFound {
			return apperr.NotFound("Manga")
		}
		return fmt.Errorf("update manga %s: %w", id, err)
	}

	service.cache.InvalidateCatalog(context)
	service.cache.RemoveManga(context, id)
	return nil
}

// # Chapters

/*
Description:

	CreateChapter uploads a new chapter under a manga. The created chapter
	is re-read from the store, and the parent manga is purged from the
	cache so its chapter list reassembles on the next read.

Parameters:

  - context: Request context for cancellation.
  - input: Chapter fields; MangaID and Title are required, Number must
    not be negative, and Pages must not be empty.

Returns:

  - *Chapter: The stored chapter.
  - error: *apperr.AppError on validation failure, wrapped store error
    otherwise.
*/
func (service *Service) CreateChapter(context context.Context, input CreateChapterInput) (*Chapter, error) {
	validator := &validate.Validator{}
	validator.Required(FieldMangaID, input.MangaID).
		Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, maxTitleLength).
		NonNegative(FieldNumber, input.Number).
		NotEmpty(FieldPages, len(input.Pages))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	now := nowISO()
	fields := map[string]any{
		FieldMangaID:       input.MangaID,
		FieldNumber:        input.Number,
		FieldTitle:         input.Title,
		FieldPages:         input.Pages,
		FieldPageFormats:   emptyIfNil(input.PageFormats),
		FieldOriginalPages: emptyIfNil(input.OriginalPages),
		FieldCreatedAt:     now,
		FieldUpdatedAt:     now,
	}

	id, err := service.store.Create(context, constants.CollectionChapters, fields)
	if err != nil {
		return nil, fmt.Errorf("create chapter: %w", err)
	}

	document, err := service.store.Get(context, constants.CollectionChapters, id)
	if err != nil {
		return nil, fmt.Errorf("load chapter %s: %w", id, err)
	}
	chapter, err := decodeChapter(document)
	if err != nil {
		return nil, err
	}

	service.cache.InvalidateCatalog(context)
	service.cache.RemoveManga(context, input.MangaID)

	service.logger.Info("chapter created",
		slog.String("chapter_id", id),
		slog.String("manga_id", input.MangaID),
		slog.Float64("number", input.Number))
	return &chapter, nil
}

// # Categories

/*
Description:

	ListCategories lists every category, straight from the store. The
	category list is small and mutation-adjacent, so it bypasses the
	aggregate cache entirely.

Parameters:

  - context: Request context for cancellation.

Returns:

  - []Category: All categories.
  - error: Wrapped store error.
*/
func (service *Service) ListCategories(context context.Context) ([]Category, error) {
	categories, err := service.assembler.Categories(context)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

/*
Description:

	CreateCategory registers a new category.

Parameters:

  - context: Request context for cancellation.
  - name: Category name; required.

Returns:

  - Category: The stored category with its assigned id.
  - error: *apperr.AppError on validation failure, wrapped store error
    otherwise.
*/
func (service *Service) CreateCategory(context context.Context, name string) (Category, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, name).
		MaxLen(FieldName, name, maxNameLength)
	if err := validator.Err(); err != nil {
		return Category{}, err
	}

	now := nowISO()
	id, err := service.store.Create(context, constants.CollectionCategories, map[string]any{
		FieldName:      name,
		FieldCreatedAt: now,
	})
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}

	service.logger.Info("category created",
		slog.String("category_id", id),
		slog.String("name", name))
	return Category{ID: id, Name: name, CreatedAt: now}, nil
}

/*
Description:

	DeleteAllCategories wipes every category document and clears the
	category-id list of every manga that referenced one. Intended as the
	reset step before a fresh categorization run.

	The per-manga writes bypass deep-stripping on purpose: an empty list
	must actually overwrite the stored one here.

Parameters:

  - context: Request context for cancellation.

Returns:

  - error: Wrapped store error.
*/
func (service *Service) DeleteAllCategories(context context.Context) error {
	// 1. Drop every category document.
	categories, err := service.store.List(context, constants.CollectionCategories)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, category := range categories {
		if err := service.store.Delete(context, constants.CollectionCategories, category.ID); err != nil {
			return fmt.Errorf("delete category %s: %w", category.ID, err)
		}
	}

	// 2. Clear stale references off every manga. Checked against the raw
	// documents: the ids are already dangling at this point, so assembled
	// aggregates would no longer show them.
	documents, err := service.store.List(context, constants.CollectionMangas)
	if err != nil {
		return fmt.Errorf("list mangas: %w", err)
	}
	cleared := 0
	for _, document := range documents {
		var doc mangaDoc
		if err := json.Unmarshal(document.Data, &doc); err != nil {
			return fmt.Errorf("decode manga %s: %w", document.ID, err)
		}
		if len(doc.CategoryIDs) == 0 {
			continue
		}
		fields := map[string]any{
			FieldCategories: []string{},
			FieldUpdatedAt:  nowISO(),
		}
		if err := service.store.Update(context, constants.CollectionMangas, document.ID, fields); err != nil {
			return fmt.Errorf("clear categories of manga %s: %w", document.ID, err)
		}
		service.cache.RemoveManga(context, document.ID)
		cleared++
	}

	service.cache.InvalidateCatalog(context)

	service.logger.Info("all categories deleted",
		slog.Int("categories_deleted", len(categories)),
		slog.Int("mangas_cleared", cleared))
	return nil
}

// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/toshoapp/tosho/internal/platform/constants"
	"github.com/toshoapp/tosho/internal/platform/docstore"
)

// # Stored Document Shapes

// mangaDoc mirrors the manga document as persisted in the remote store.
// Categories are persisted as a list of ids; resolution to full objects
// happens exclusively in the assembler.
type mangaDoc struct {
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Description   string         `json:"description"`
	Status        string         `json:"status"`
	Views         int64          `json:"views"`
	Rating        float64        `json:"rating"`
	ThumbnailURL  string         `json:"thumbnail_url"`
	CoverURL      string         `json:"cover_url"`
	CategoryIDs   []string       `json:"categories"`
	ExternalLinks []ExternalLink `json:"external_links"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// chapterDoc mirrors the chapter document as persisted in the remote store.
type chapterDoc struct {
	MangaID       string   `json:"manga_id"`
	Number        float64  `json:"number"`
	Title         string   `json:"title"`
	Pages         []string `json:"pages"`
	PageFormats   []string `json:"page_formats"`
	OriginalPages []string `json:"original_pages"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// categoryDoc mirrors the category document as persisted in the remote store.
type categoryDoc struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// # Assembler

/*
Description:

	Assembler joins raw documents from the remote store into denormalized
	Manga aggregates. It owns all cross-collection reads: a manga document
	plus its chapter sub-collection plus the categories its id list points
	at. Dangling category references (ids whose document was deleted) are
	skipped with a warning rather than failing the whole aggregate.
*/
type Assembler struct {
	store  docstore.Store
	logger *slog.Logger
}

/*
Description:

	NewAssembler creates an aggregate assembler over the given document
	store.

Parameters:

  - store: Remote document store holding mangas, chapters, and categories.
  - logger: Structured logger for dangling-reference warnings.

Returns:

  - *Assembler: Ready-to-use assembler.
*/
func NewAssembler(store docstore.Store, logger *slog.Logger) *Assembler {
	return &Assembler{
		store:  store,
		logger: logger,
	}
}

/*
Description:

	ByID assembles the full aggregate for a single manga: the manga
	document, its chapters sorted by number ascending, and its resolved
	categories.

Parameters:

  - context: Request context for cancellation.
  - id: Manga document id.

Returns:

  - *Manga: The assembled aggregate.
  - error: docstore.ErrNotFound when the manga document does not exist, or
    a wrapped store error.
*/
func (assembler *Assembler) ByID(context context.Context, id string) (*Manga, error) {
	// 1. Load the root document.
	document, err := assembler.store.Get(context, constants.CollectionMangas, id)
	if err != nil {
		return nil, err
	}

	var doc mangaDoc
	if err := json.Unmarshal(document.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode manga %s: %w", id, err)
	}

	// 2. Load the chapter sub-collection.
	chapters, err := assembler.chaptersFor(context, id)
	if err != nil {
		return nil, err
	}

	// 3. Resolve category ids with point lookups.
	categories := make([]Category, 0, len(doc.CategoryIDs))
	for _, categoryID := range doc.CategoryIDs {
		category, err := assembler.categoryByID(context, categoryID)
		if err != nil {
			if err == docstore.ErrNotFound {
				assembler.logger.Warn("skipping dangling category reference",
					slog.String("manga_id", id),
					slog.String("category_id", categoryID))
				continue
			}
			return nil, err
		}
		categories = append(categories, category)
	}

	return buildManga(id, doc, categories, chapters), nil
}

/*
Description:

	All assembles the aggregate list for the whole catalog. Categories are
	listed once up front and resolved from an in-memory index, so the cost
	is one list per collection plus one chapter query per manga.

Parameters:

  - context: Request context for cancellation.

Returns:

  - []*Manga: Every manga in the catalog, newest first.
  - error: Wrapped store error.
*/
func (assembler *Assembler) All(context context.Context) ([]*Manga, error) {
	documents, err := assembler.store.List(context, constants.CollectionMangas)
	if err != nil {
		return nil, err
	}

	categoryIndex, err := assembler.categoryIndex(context)
	if err != nil {
		return nil, err
	}

	mangas := make([]*Manga, 0, len(documents))
	for _, document := range documents {
		var doc mangaDoc
		if err := json.Unmarshal(document.Data, &doc); err != nil {
			return nil, fmt.Errorf("decode manga %s: %w", document.ID, err)
		}

		chapters, err := assembler.chaptersFor(context, document.ID)
		if err != nil {
			return nil, err
		}

		categories := make([]Category, 0, len(doc.CategoryIDs))
		for _, categoryID := range doc.CategoryIDs {
			category, ok := categoryIndex[categoryID]
			if !ok {
				assembler.logger.Warn("skipping dangling category reference",
					slog.String("manga_id", document.ID),
					slog.String("category_id", categoryID))
				continue
			}
			categories = append(categories, category)
		}

		mangas = append(mangas, buildManga(document.ID, doc, categories, chapters))
	}

	return mangas, nil
}

/*
Description:

	Categories lists every category document in the store.

Parameters:

  - context: Request context for cancellation.

Returns:

  - []Category: All categories.
  - error: Wrapped store error.
*/
func (assembler *Assembler) Categories(context context.Context) ([]Category, error) {
	documents, err := assembler.store.List(context, constants.CollectionCategories)
	if err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(documents))
	for _, document := range documents {
		category, err := decodeCategory(document)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// # Internal Helpers

// chaptersFor loads and decodes the chapter documents belonging to one
// manga, sorted by chapter number ascending.
func (assembler *Assembler) chaptersFor(context context.Context, mangaID string) ([]Chapter, error) {
	documents, err := assembler.store.Query(context, constants.CollectionChapters, FieldMangaID, mangaID)
	if err != nil {
		return nil, err
	}

	chapters := make([]Chapter, 0, len(documents))
	for _, document := range documents {
		chapter, err := decodeChapter(document)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Number < chapters[j].Number
	})
	return chapters, nil
}

// categoryByID loads and decodes a single category document.
func (assembler *Assembler) categoryByID(context context.Context, id string) (Category, error) {
	document, err := assembler.store.Get(context, constants.CollectionCategories, id)
	if err != nil {
		return Category{}, err
	}
	return decodeCategory(document)
}

// categoryIndex loads every category once and indexes it by id.
func (assembler *Assembler) categoryIndex(context context.Context) (map[string]Category, error) {
	categories, err := assembler.Categories(context)
	if err != nil {
		return nil, err
	}

	index := make(map[string]Category, len(categories))
	for _, category := range categories {
		index[category.ID] = category
	}
	return index, nil
}

// decodeChapter unmarshals a chapter document into its domain shape.
func decodeChapter(document docstore.Document) (Chapter, error) {
	var doc chapterDoc
	if err := json.Unmarshal(document.Data, &doc); err != nil {
		return Chapter{}, fmt.Errorf("decode chapter %s: %w", document.ID, err)
	}

	createdAt := fallbackTimestamp(doc.CreatedAt, nowISO())
	return Chapter{
		ID:            document.ID,
		MangaID:       doc.MangaID,
		Number:        doc.Number,
		Title:         doc.Title,
		Pages:         emptyIfNil(doc.Pages),
		PageFormats:   emptyIfNil(doc.PageFormats),
		OriginalPages: emptyIfNil(doc.OriginalPages),
		CreatedAt:     createdAt,
		UpdatedAt:     fallbackTimestamp(doc.UpdatedAt, createdAt),
	}, nil
}

// decodeCategory unmarshals a category document into its domain shape.
func decodeCategory(document docstore.Document) (Category, error) {
	var doc categoryDoc
	if err := json.Unmarshal(document.Data, &doc); err != nil {
		return Category{}, fmt.Errorf("decode category %s: %w", document.ID, err)
	}
	return Category{
		ID:        document.ID,
		Name:      doc.Name,
		CreatedAt: fallbackTimestamp(doc.CreatedAt, nowISO()),
	}, nil
}

// buildManga combines a decoded manga document with its resolved
// relations into the aggregate shape.
func buildManga(id string, doc mangaDoc, categories []Category, chapters []Chapter) *Manga {
	createdAt := fallbackTimestamp(doc.CreatedAt, nowISO())
	return &Manga{
		ID:            id,
		Title:         doc.Title,
		Author:        doc.Author,
		Description:   doc.Description,
		Status:        doc.Status,
		Views:         doc.Views,
		Rating:        doc.Rating,
		ThumbnailURL:  doc.ThumbnailURL,
		CoverURL:      doc.CoverURL,
		Categories:    categories,
		Chapters:      chapters,
		ExternalLinks: doc.ExternalLinks,
		CreatedAt:     createdAt,
		UpdatedAt:     fallbackTimestamp(doc.UpdatedAt, createdAt),
	}
}

// emptyIfNil normalizes a nil slice to an empty one so JSON responses
// always carry arrays.
func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

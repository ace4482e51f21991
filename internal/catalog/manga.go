// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

/*
Package catalog implements the manga catalog core: denormalized aggregates
assembled from the remote document store, a read-through two-tier cache in
front of it, and the service operations the reading UI consumes.

Core Responsibility:

  - Aggregation: Joins a manga document with its chapters and categories
    into one denormalized Manga aggregate.
  - Caching: Memoizes aggregates in-process and in a persistent local
    store, with coarse-grained invalidation on every mutation.
  - Maintenance: Bulk auto-categorization and recommendation scoring over
    the loaded catalog.

The remote store is the system of record for every entity here; the cache
only ever holds derived, disposable copies.
*/
package catalog

import "time"

// # Domain Enums

// StatusOngoing is the default publication status assigned at creation.
const StatusOngoing = "ongoing"

// # Core Entities

// Manga is the denormalized aggregate root served to the UI.
//
// Categories are resolved to full objects even though the store persists
// only their ids — the assembler is the single place that translates
// between the two shapes. Chapters are always sorted by number ascending.
// Timestamps are ISO-8601 strings; UpdatedAt falls back to CreatedAt when
// the stored document predates the field.
type Manga struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Description   string         `json:"description"`
	Status        string         `json:"status"`
	Views         int64          `json:"views"`
	Rating        float64        `json:"rating"`
	ThumbnailURL  string         `json:"thumbnail_url,omitempty"`
	CoverURL      string         `json:"cover_url,omitempty"`
	Categories    []Category     `json:"categories"`
	Chapters      []Chapter      `json:"chapters"`
	ExternalLinks []ExternalLink `json:"external_links,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// Chapter is a single released chapter of a manga.
//
// Number is the ordering key; it is neither guaranteed unique nor
// contiguous (half-chapters like 10.5 exist in the wild).
type Chapter struct {
	ID            string   `json:"id"`
	MangaID       string   `json:"manga_id"`
	Number        float64  `json:"number"`
	Title         string   `json:"title"`
	Pages         []string `json:"pages"`
	PageFormats   []string `json:"page_formats"`
	OriginalPages []string `json:"original_pages"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// Category is a free-text content classifier attached to a [Manga].
// Names are deduplicated case-insensitively by the categorization engine.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// ExternalLink is a named URL pointing at an external resource
// (publisher page, official translation, etc).
type ExternalLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// # Service Inputs

// CreateMangaInput carries the fields accepted when registering a manga.
type CreateMangaInput struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	ThumbnailURL string   `json:"thumbnail_url"`
	CoverURL     string   `json:"cover_url"`
	Status       string   `json:"status"`
	CategoryIDs  []string `json:"category_ids"`
}

// UpdateMangaInput carries the fields accepted when editing a manga.
//
// Description is a pointer so that an absent field can be told apart from
// an explicit empty string; every other optional field treats "" as absent.
type UpdateMangaInput struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  *string  `json:"description"`
	ThumbnailURL string   `json:"thumbnail_url"`
	CoverURL     string   `json:"cover_url"`
	Status       string   `json:"status"`
	CategoryIDs  []string `json:"category_ids"`
}

// CreateChapterInput carries the fields accepted when uploading a chapter.
type CreateChapterInput struct {
	MangaID       string   `json:"manga_id"`
	Number        float64  `json:"number"`
	Title         string   `json:"title"`
	Pages         []string `json:"pages"`
	PageFormats   []string `json:"page_formats"`
	OriginalPages []string `json:"original_pages"`
}

// CategorizeReport summarizes a bulk categorization run.
type CategorizeReport struct {
	// Updated counts manga whose category list was rewritten.
	Updated int `json:"updated"`
	// Errors counts manga whose processing failed; failures are isolated
	// per item and never abort the batch.
	Errors int `json:"errors"`
}

// # Field Identifiers

// Document field names shared by the service, assembler, and engine.
const (
	FieldTitle         = "title"
	FieldAuthor        = "author"
	FieldDescription   = "description"
	FieldStatus        = "status"
	FieldViews         = "views"
	FieldRating        = "rating"
	FieldThumbnailURL  = "thumbnail_url"
	FieldCoverURL      = "cover_url"
	FieldCategories    = "categories"
	FieldExternalLinks = "external_links"
	FieldMangaID       = "manga_id"
	FieldNumber        = "number"
	FieldPages         = "pages"
	FieldPageFormats   = "page_formats"
	FieldOriginalPages = "original_pages"
	FieldName          = "name"
	FieldCreatedAt     = "created_at"
	FieldUpdatedAt     = "updated_at"
)

// # Timestamp Handling

// nowISO returns the current UTC time as an ISO-8601 string, the one
// timestamp format stored and served by the catalog.
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// fallbackTimestamp returns value, or fallback when value is empty.
func fallbackTimestamp(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

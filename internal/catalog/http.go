// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/toshoapp/tosho/internal/platform/apperr"
	requestutil "github.com/toshoapp/tosho/internal/platform/request"
	"github.com/toshoapp/tosho/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for catalog browsing and management.
// It translates web requests into domain service calls.
type Handler struct {
	service   *Service
	adminOnly func(http.Handler) http.Handler
}

// NewHandler constructs a catalog [Handler].
//
// adminOnly is the authorization middleware guarding every mutating
// endpoint; pass middleware.RequireAdmin wired with the configured
// allow-list.
func NewHandler(service *Service, adminOnly func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:   service,
		adminOnly: adminOnly,
	}
}

// MangaRoutes returns a [chi.Router] with the manga endpoints.
//
// # Routing Strategy
//
//   - Browsing (Public): Catalog list, single aggregate, recommendations,
//     and the view-count ping fired when a reader opens a manga.
//   - Management (Restricted): State-mutating endpoints behind the admin
//     allow-list.
func (handler *Handler) MangaRoutes() chi.Router {
	router := chi.NewRouter()

	// ## Public Browsing Endpoints
	router.Get("/", handler.listMangas)
	router.Get("/{id}", handler.getManga)
	router.Get("/{id}/recommendations", handler.getRecommendations)
	router.Post("/{id}/views", handler.incrementViews)

	// ## Catalog Management (Admin Protected)
	router.Group(func(admin chi.Router) {
		admin.Use(handler.adminOnly)

		admin.Post("/", handler.createManga)
		admin.Put("/{id}", handler.updateManga)
		admin.Delete("/{id}", handler.deleteManga)

		admin.Post("/{id}/chapters", handler.createChapter)

		// External links
		admin.Post("/{id}/links", handler.addExternalLink)
		admin.Delete("/{id}/links/{index}", handler.removeExternalLink)
	})

	return router
}

// CategoryRoutes returns a [chi.Router] with the category endpoints.
func (handler *Handler) CategoryRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listCategories)

	router.Group(func(admin chi.Router) {
		admin.Use(handler.adminOnly)

		admin.Post("/", handler.createCategory)
		admin.Delete("/", handler.deleteAllCategories)
		admin.Post("/regenerate", handler.regenerateCategories)
	})

	return router
}

// # Browsing Endpoints

/*
GET /api/v1/mangas.

Description: Retrieves the whole catalog as denormalized aggregates,
newest first. Served from the cache whenever possible.

Response:
  - 200: []Manga: Full catalog
*/
func (handler *Handler) listMangas(writer http.ResponseWriter, request *http.Request) {
	mangas, err := handler.service.ListAll(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, mangas)
}

/*
GET /api/v1/mangas/{id}.

Description: Retrieves one manga aggregate with its chapters and
resolved categories.

Request:
  - id: string (Manga id)

Response:
  - 200: Manga: Success
  - 404: ErrNotFound: Manga not found
*/
func (handler *Handler) getManga(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	manga, err := handler.service.GetByID(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if manga == nil {
		respond.Error(writer, request, apperr.NotFound("Manga"))
		return
	}
	respond.OK(writer, manga)
}

/*
GET /api/v1/mangas/{id}/recommendations.

Description: Retrieves manga related to the given one by shared
categories and title/author tokens, in alphabetical title order.

Request:
  - id: string (Reference manga id)
  - limit: int (Maximum results; omitted means no cap)

Response:
  - 200: []Manga: Related manga
  - 404: ErrNotFound: Reference manga not found
*/
func (handler *Handler) getRecommendations(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	limit := 0
	if raw := request.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respond.Error(writer, request, apperr.ValidationError("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	mangas, err := handler.service.GetRecommendations(request.Context(), id, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, mangas)
}

/*
POST /api/v1/mangas/{id}/views.

Description: Bumps the manga's view counter. Fired by the reader UI when
a manga page opens; intentionally unauthenticated.

Request:
  - id: string (Manga id)

Response:
  - 204: View recorded
  - 404: ErrNotFound: Manga not found
*/
func (handler *Handler) incrementViews(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.service.IncrementViews(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Request Payloads

// createMangaRequest defines the inbound JSON schema for manga creation.
type createMangaRequest struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	ThumbnailURL string   `json:"thumbnail_url"`
	CoverURL     string   `json:"cover_url"`
	Status       string   `json:"status"`
	CategoryIDs  []string `json:"category_ids"`
}

// updateMangaRequest defines the inbound JSON schema for manga edits.
type updateMangaRequest struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  *string  `json:"description"`
	ThumbnailURL string   `json:"thumbnail_url"`
	CoverURL     string   `json:"cover_url"`
	Status       string   `json:"status"`
	CategoryIDs  []string `json:"category_ids"`
}

// externalLinkRequest defines the inbound JSON schema for link creation.
type externalLinkRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// createChapterRequest defines the inbound JSON schema for chapter uploads.
type createChapterRequest struct {
	Number        float64  `json:"number"`
	Title         string   `json:"title"`
	Pages         []string `json:"pages"`
	PageFormats   []string `json:"page_formats"`
	OriginalPages []string `json:"original_pages"`
}

// createCategoryRequest defines the inbound JSON schema for category creation.
type createCategoryRequest struct {
	Name string `json:"name"`
}

// # Mutation Endpoints

/*
POST /api/v1/mangas.

Description: Registers a new manga. The response carries the aggregate
built from the submitted values plus defaults, without a store re-read.

Request (Body):
  - createMangaRequest: JSON object

Response:
  - 201: Manga: Created aggregate
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Missing or invalid token
  - 403: ErrForbidden: Not on the admin allow-list
*/
func (handler *Handler) createManga(writer http.ResponseWriter, request *http.Request) {
	var input createMangaRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	manga, err := handler.service.Create(request.Context(), CreateMangaInput{
		Title:        input.Title,
		Author:       input.Author,
		Description:  input.Description,
		ThumbnailURL: input.ThumbnailURL,
		CoverURL:     input.CoverURL,
		Status:       input.Status,
		CategoryIDs:  input.CategoryIDs,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, manga)
}

/*
PUT /api/v1/mangas/{id}.

Description: Edits a manga. Blank optional fields are treated as absent
and leave the stored values untouched. The response carries the
authoritative post-update aggregate, re-read from the store.

Request:
  - id: string (Manga id)
  - updateMangaRequest: JSON object (Body)

Response:
  - 200: Manga: Updated aggregate
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 404: ErrNotFound: Manga not found
*/
func (handler *Handler) updateManga(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var input updateMangaRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	manga, err := handler.service.Update(request.Context(), id, UpdateMangaInput{
		Title:        input.Title,
		Author:       input.Author,
		Description:  input.Description,
		ThumbnailURL: input.ThumbnailURL,
		CoverURL:     input.CoverURL,
		Status:       input.Status,
		CategoryIDs:  input.CategoryIDs,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, manga)
}

/*
DELETE /api/v1/mangas/{id}.

Description: Removes a manga and every chapter under it. Deleting an
absent manga succeeds.

Request:
  - id: string (Manga id)

Response:
  - 204: Deleted
*/
func (handler *Handler) deleteManga(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.service.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/mangas/{id}/chapters.

Description: Uploads a new chapter under a manga.

Request:
  - id: string (Parent manga id)
  - createChapterRequest: JSON object (Body)

Response:
  - 201: Chapter: Stored chapter
  - 400: ErrInvalidJSON/Validation: Invalid input data
*/
func (handler *Handler) createChapter(writer http.ResponseWriter, request *http.Request) {
	mangaID := requestutil.ID(request, "id")

	var input createChapterRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.CreateChapter(request.Context(), CreateChapterInput{
		MangaID:       mangaID,
		Number:        input.Number,
		Title:         input.Title,
		Pages:         input.Pages,
		PageFormats:   input.PageFormats,
		OriginalPages: input.OriginalPages,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, chapter)
}

/*
POST /api/v1/mangas/{id}/links.

Description: Appends a named external URL to a manga.

Request:
  - id: string (Manga id)
  - externalLinkRequest: JSON object (Body)

Response:
  - 204: Link added
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 404: ErrNotFound: Manga not found
*/
func (handler *Handler) addExternalLink(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var input externalLinkRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.AddExternalLink(request.Context(), id, ExternalLink{
		Name: input.Name,
		URL:  input.URL,
	}); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
DELETE /api/v1/mangas/{id}/links/{index}.

Description: Removes the external link at the given position. An
out-of-range index succeeds without changing anything.

Request:
  - id: string (Manga id)
  - index: int (Zero-based position)

Response:
  - 204: Link removed (or nothing to remove)
  - 400: Validation: Index is not a non-negative integer
  - 404: ErrNotFound: Manga not found
*/
func (handler *Handler) removeExternalLink(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	index, err := strconv.Atoi(requestutil.ID(request, "index"))
	if err != nil || index < 0 {
		respond.Error(writer, request, apperr.ValidationError("index must be a non-negative integer"))
		return
	}

	if err := handler.service.RemoveExternalLink(request.Context(), id, index); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Category Endpoints

/*
GET /api/v1/categories.

Description: Retrieves every category.

Response:
  - 200: []Category: All categories
*/
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	categories, err := handler.service.ListCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, categories)
}

/*
POST /api/v1/categories.

Description: Registers a new category.

Request (Body):
  - createCategoryRequest: JSON object

Response:
  - 201: Category: Created category
  - 400: ErrInvalidJSON/Validation: Invalid input data
*/
func (handler *Handler) createCategory(writer http.ResponseWriter, request *http.Request) {
	var input createCategoryRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.CreateCategory(request.Context(), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, category)
}

/*
DELETE /api/v1/categories.

Description: Removes every category and clears the category list of
every manga. The reset step before a fresh categorization run.

Response:
  - 204: Categories wiped
*/
func (handler *Handler) deleteAllCategories(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteAllCategories(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/categories/regenerate.

Description: Runs the auto-categorization engine over the whole catalog,
deriving categories from titles and authors.

Response:
  - 200: CategorizeReport: Update and error counts
*/
func (handler *Handler) regenerateCategories(writer http.ResponseWriter, request *http.Request) {
	report, err := handler.service.RegenerateCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}

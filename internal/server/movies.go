package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/results"
	"github.com/desertthunder/cinx/internal/services"
	"github.com/desertthunder/cinx/internal/shared"
	"github.com/desertthunder/cinx/internal/store"
)

// StateStore is the store the API reads movies from and applies changes to.
type StateStore interface {
	store.Applier
	State() store.State
}

// MovieSource lists stored movies by category.
type MovieSource interface {
	Fetch(ctx context.Context, category models.Category) ([]models.StoredMovie, error)
}

// ImportLister lists recorded import runs.
type ImportLister interface {
	List(criteria map[string]any) ([]*models.ImportJob, error)
}

// MovieHandler serves the watchlist JSON API.
//
// Catalog, Imports and Search are optional; their routes answer 503 when unset.
// Search receives the query and page; an empty query lists upcoming releases.
type MovieHandler struct {
	Store   StateStore
	Movies  MovieSource
	Catalog services.Catalog
	Imports ImportLister
	Search  func(ctx context.Context, query string, page int) (*models.Page, error)
}

var _ Handler = (*MovieHandler)(nil)

func (h *MovieHandler) Routes() []string {
	return []string{
		"GET /health",
		"GET /api/movies",
		"POST /api/movies",
		"GET /api/movies/{id}",
		"DELETE /api/movies/{id}",
		"POST /api/movies/{id}/watch",
		"GET /api/search",
		"GET /api/imports",
	}
}

func (h *MovieHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET /health":
		h.health(w, r)
	case "GET /api/movies":
		h.list(w, r)
	case "POST /api/movies":
		h.save(w, r)
	case "GET /api/movies/{id}":
		h.get(w, r)
	case "DELETE /api/movies/{id}":
		h.remove(w, r)
	case "POST /api/movies/{id}/watch":
		h.watch(w, r)
	case "GET /api/search":
		h.search(w, r)
	case "GET /api/imports":
		h.imports(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *MovieHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"movies":  len(h.Store.State().Movies),
		"catalog": h.Catalog != nil,
	})
}

func (h *MovieHandler) list(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	movies, err := h.Movies.Fetch(r.Context(), category)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := results.Predicate{Category: category, Query: r.URL.Query().Get("q")}
	movies = p.Filter(movies)
	if movies == nil {
		movies = []models.StoredMovie{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category": category.String(),
		"total":    len(movies),
		"movies":   movies,
	})
}

func (h *MovieHandler) get(w http.ResponseWriter, r *http.Request) {
	movie, err := h.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

type saveRequest struct {
	ID      int64 `json:"id"`
	Watched bool  `json:"watched"`
}

// save adds a catalog movie to the collection by id.
func (h *MovieHandler) save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	if req.ID <= 0 {
		writeError(w, r, fmt.Errorf("%w: id is required", shared.ErrInvalidInput))
		return
	}
	if h.Catalog == nil {
		writeError(w, r, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable))
		return
	}

	movie, err := h.Catalog.Movie(r.Context(), req.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Store.Apply(store.SaveMovie{Movie: *movie, Watched: req.Watched}); err != nil {
		writeError(w, r, err)
		return
	}

	saved, _ := h.Store.State().Movie(req.ID)
	writeJSON(w, http.StatusCreated, saved)
}

func (h *MovieHandler) remove(w http.ResponseWriter, r *http.Request) {
	movie, err := h.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Store.Apply(store.DeleteMovie{ID: movie.ID}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type watchRequest struct {
	Watched *bool `json:"watched"`
}

// watch sets the watched flag; an empty body marks the movie as seen.
func (h *MovieHandler) watch(w http.ResponseWriter, r *http.Request) {
	movie, err := h.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	watched := true
	if r.ContentLength != 0 {
		var req watchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
			return
		}
		if req.Watched != nil {
			watched = *req.Watched
		}
	}

	if err := h.Store.Apply(store.MarkWatched{ID: movie.ID, Watched: watched}); err != nil {
		writeError(w, r, err)
		return
	}

	updated, _ := h.Store.State().Movie(movie.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (h *MovieHandler) search(w http.ResponseWriter, r *http.Request) {
	if h.Search == nil {
		writeError(w, r, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable))
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, fmt.Errorf("%w: page must be a positive integer", shared.ErrInvalidInput))
			return
		}
		page = n
	}

	res, err := h.Search(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MovieHandler) imports(w http.ResponseWriter, r *http.Request) {
	if h.Imports == nil {
		writeError(w, r, fmt.Errorf("%w: import history not available", shared.ErrServiceUnavailable))
		return
	}

	criteria := map[string]any{"status": r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: limit must be an integer", shared.ErrInvalidInput))
			return
		}
		criteria["limit"] = limit
	}

	jobs, err := h.Imports.List(criteria)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []*models.ImportJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *MovieHandler) lookup(r *http.Request) (models.StoredMovie, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return models.StoredMovie{}, fmt.Errorf("%w: invalid movie id %q", shared.ErrInvalidInput, r.PathValue("id"))
	}

	movie, ok := h.Store.State().Movie(id)
	if !ok {
		return models.StoredMovie{}, fmt.Errorf("%w: %d", shared.ErrMovieNotFound, id)
	}
	return movie, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	w.Write([]byte("\n"))
}

// StatusFor maps an error to the HTTP status the API answers with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrMovieNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrMissingCredentials), errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, StatusFor(err), map[string]string{
		"error":      err.Error(),
		"request_id": RequestID(r.Context()),
	})
}

package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/myflix/apiserver/internal/services"
	"github.com/myflix/apiserver/internal/store"
	"go.uber.org/zap"
)

// MovieHandler provides read-only catalog endpoints.
type MovieHandler struct {
	movieService *services.MovieService
	logger       *zap.Logger
}

// NewMovieHandler constructs a MovieHandler with the provided dependencies.
func NewMovieHandler(movieService *services.MovieService, logger *zap.Logger) *MovieHandler {
	return &MovieHandler{
		movieService: movieService,
		logger:       logger,
	}
}

// MovieRouter registers catalog routes on the given router. All catalog
// queries sit behind the token guard.
func MovieRouter(
	r chi.Router,
	movieService *services.MovieService,
	authMiddleware func(http.Handler) http.Handler,
	logger *zap.Logger,
) {
	handler := NewMovieHandler(movieService, logger)

	r.Use(authMiddleware)
	r.Get("/", handler.List)
	r.Route("/{title}", func(r chi.Router) {
		r.Get("/", handler.GetByTitle)
		r.Get("/poster", handler.Poster)
	})
}

// CatalogRouter registers the top-level genre and director lookups.
func CatalogRouter(
	r chi.Router,
	movieService *services.MovieService,
	authMiddleware func(http.Handler) http.Handler,
	logger *zap.Logger,
) {
	handler := NewMovieHandler(movieService, logger)

	r.With(authMiddleware).Get("/genres/{name}", handler.GenreByName)
	r.With(authMiddleware).Get("/directors/{name}", handler.DirectorByName)
}

// List returns all movies in the catalog.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movieService.List(r.Context())
	if err != nil {
		h.logger.Error("list movies failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list movies")
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GetByTitle returns a single movie by exact title match.
func (h *MovieHandler) GetByTitle(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")

	movie, err := h.movieService.GetByTitle(r.Context(), title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "movie not found")
			return
		}
		h.logger.Error("get movie failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch movie")
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// GenreByName returns the embedded genre record of the first matching movie.
func (h *MovieHandler) GenreByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	genre, err := h.movieService.GenreByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "genre not found")
			return
		}
		h.logger.Error("get genre failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch genre")
		return
	}

	writeJSON(w, http.StatusOK, genre)
}

// DirectorByName returns the embedded director record of the first matching movie.
func (h *MovieHandler) DirectorByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	director, err := h.movieService.DirectorByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "director not found")
			return
		}
		h.logger.Error("get director failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch director")
		return
	}

	writeJSON(w, http.StatusOK, director)
}

// Poster streams the movie's poster image from object storage.
func (h *MovieHandler) Poster(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")

	reader, key, err := h.movieService.Poster(r.Context(), title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "poster not found")
			return
		}
		h.logger.Error("get poster failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch poster")
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("poster stream interrupted", zap.String("key", key), zap.Error(err))
	}
}

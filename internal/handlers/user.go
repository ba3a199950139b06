package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/myflix/apiserver/internal/services"
	"github.com/myflix/apiserver/internal/store"
	"go.uber.org/zap"
)

// UserHandler provides registration, profile, and favorites endpoints.
type UserHandler struct {
	userService *services.UserService
	logger      *zap.Logger
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(userService *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// UserRouter registers user routes on the given router. Registration is
// public; everything else sits behind the token guard.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
	logger *zap.Logger,
) {
	handler := NewUserHandler(userService, logger)

	r.Post("/", handler.Register)
	r.With(authMiddleware).Get("/", handler.List)
	r.Route("/{username}", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Put("/", handler.Update)
		r.Delete("/", handler.Delete)
		r.Post("/movies/{movieID}", handler.AddFavorite)
		r.Delete("/movies/{movieID}", handler.RemoveFavorite)
	})
}

// Register creates a new user account.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		writeBirthdayViolation(w)
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		Email:    strings.TrimSpace(req.Email),
		Birthday: birthday,
	})
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeValidationError(w, validationErr)
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusConflict, "username already exists")
		default:
			h.logger.Error("register failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// List returns all users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Update applies a partial field set to the named user.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	in := services.UpdateInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	}
	if req.Birthday != nil {
		birthday, err := parseBirthday(*req.Birthday)
		if err != nil {
			writeBirthdayViolation(w)
			return
		}
		in.Birthday = birthday
	}

	user, err := h.userService.UpdateByUsername(r.Context(), username, in)
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeValidationError(w, validationErr)
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusConflict, "username already exists")
		default:
			h.logger.Error("update user failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Delete deregisters the named user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.userService.DeleteByUsername(r.Context(), username); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("delete user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": username + " was deleted"})
}

// AddFavorite adds a movie reference to the named user's favorite set.
func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	movieID, err := parseMovieID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.AddFavorite(r.Context(), username, movieID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user or movie not found")
			return
		}
		h.logger.Error("add favorite failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add favorite")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// RemoveFavorite removes a movie reference from the named user's favorite set.
func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	movieID, err := parseMovieID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.RemoveFavorite(r.Context(), username, movieID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("remove favorite failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Birthday string `json:"birthday"`
}

// UpdateRequest carries a partial field set; nil fields are left unchanged.
type UpdateRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
	Birthday *string `json:"birthday"`
}

func parseMovieID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "movieID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid movie id")
	}
	return id, nil
}

func parseBirthday(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid birthday")
}

func writeBirthdayViolation(w http.ResponseWriter) {
	writeValidationError(w, &services.ValidationError{
		Violations: []services.FieldViolation{
			{Field: "birthday", Message: "must be a date in YYYY-MM-DD format"},
		},
	})
}

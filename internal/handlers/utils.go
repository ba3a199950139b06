package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/myflix/apiserver/internal/services"
	"github.com/myflix/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationResponse reports per-field validation violations.
type ValidationResponse struct {
	Error      string                    `json:"error"`
	Violations []services.FieldViolation `json:"violations"`
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Welcome is the root landing handler.
func Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the myFlix API"})
}

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok {
		return types.User{}, errors.New("no authenticated user in context")
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, err *services.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{
		Error:      "validation failed",
		Violations: err.Violations,
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grocerly/authserver/internal/auth"
	"github.com/grocerly/authserver/internal/services"
	"github.com/grocerly/authserver/internal/store"
)

type contextKey string

const contextClaimsKey contextKey = "claims"

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(contextClaimsKey).(*auth.Claims)
	return claims
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service-layer errors to HTTP status codes. The
// three token failure kinds collapse to one outward message.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	var lockedErr *services.AccountLockedError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "user with the provided identity already exists")
	case errors.As(err, &lockedErr):
		writeError(w, http.StatusForbidden, lockedErr.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenBadSignature),
		errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrNoSigningSecret):
		writeError(w, http.StatusInternalServerError, "server configuration error")
	case errors.Is(err, services.ErrAvatarStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, "avatar storage is not configured")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

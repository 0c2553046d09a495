package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"soundwave/config"
	"soundwave/core/auth"
	"soundwave/core/mail"
	"soundwave/logger"
	"soundwave/repository"
	"soundwave/storage"
)

// APIHandler bundles the dependencies shared by all HTTP handlers.
type APIHandler struct {
	artistRepo repository.ArtistRepository
	genreRepo  repository.GenreRepository
	trackRepo  repository.TrackRepository
	userRepo   repository.UserRepository
	tokens     *auth.TokenIssuer
	mailer     *mail.Mailer
	store      storage.FileStore
	cfg        *config.Config
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(
	artistRepo repository.ArtistRepository,
	genreRepo repository.GenreRepository,
	trackRepo repository.TrackRepository,
	userRepo repository.UserRepository,
	tokens *auth.TokenIssuer,
	mailer *mail.Mailer,
	store storage.FileStore,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		artistRepo: artistRepo,
		genreRepo:  genreRepo,
		trackRepo:  trackRepo,
		userRepo:   userRepo,
		tokens:     tokens,
		mailer:     mailer,
		store:      store,
		cfg:        cfg,
	}
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("failed to encode response", logger.ErrorField(err))
		}
	}
}

// respondError writes a JSON error body; the HTTP status communicates
// the category.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxEmail  contextKey = "email"
)

// AuthMiddleware checks for a valid bearer token and puts the user
// identity into the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := h.tokens.ParseToken(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, claims.Subject)
		ctx = context.WithValue(ctx, ctxEmail, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(ctxUserID).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"soundwave/cache"
	"soundwave/logger"

	"github.com/gorilla/mux"
)

// GetQueueHandler handles GET /api/player/queue: the caller's persisted
// play queue, in order.
func (h *APIHandler) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, err := cache.GetQueue(r.Context(), userID)
	if err != nil {
		logger.Error("failed to get play queue", logger.String("userId", userID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get queue")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// AddToQueueHandler handles POST /api/player/queue.
func (h *APIHandler) AddToQueueHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var item cache.QueueItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(item.TrackID) == "" || strings.TrimSpace(item.AudioURL) == "" {
		respondError(w, http.StatusBadRequest, "Track id and audio URL are required")
		return
	}

	if err := cache.AddToQueue(r.Context(), userID, item); err != nil {
		logger.Error("failed to add to play queue", logger.String("userId", userID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to add to queue")
		return
	}

	items, err := cache.GetQueue(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get queue")
		return
	}
	respondJSON(w, http.StatusCreated, items)
}

// RemoveFromQueueHandler handles DELETE /api/player/queue/{trackId}.
func (h *APIHandler) RemoveFromQueueHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	trackID := mux.Vars(r)["trackId"]
	if err := cache.RemoveFromQueue(r.Context(), userID, trackID); err != nil {
		logger.Error("failed to remove from play queue", logger.String("userId", userID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to remove from queue")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearQueueHandler handles DELETE /api/player/queue.
func (h *APIHandler) ClearQueueHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := cache.ClearQueue(r.Context(), userID); err != nil {
		logger.Error("failed to clear play queue", logger.String("userId", userID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to clear queue")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

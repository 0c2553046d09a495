package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"soundwave/logger"
	"soundwave/model"
	"soundwave/repository"

	"github.com/gorilla/mux"
)

// CreateArtistHandler handles POST /api/artist.
func (h *APIHandler) CreateArtistHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CreateArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Artist name is required")
		return
	}

	artist := &model.Artist{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		BirthDate:   req.BirthDate,
	}

	if err := h.artistRepo.Create(r.Context(), artist); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			respondError(w, http.StatusConflict, "Artist with this name already exists")
			return
		}
		logger.Error("failed to create artist", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("artist created",
		logger.String("artistId", artist.ID),
		logger.String("name", artist.Name))
	respondJSON(w, http.StatusCreated, artist)
}

// GetArtistHandler handles GET /api/artist/{id}.
func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	artist, err := h.artistRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Artist not found")
			return
		}
		logger.Error("failed to get artist", logger.String("artistId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, artist)
}

// GetArtistByNameHandler handles GET /api/artist/name/{name}. The
// lookup is case-insensitive.
func (h *APIHandler) GetArtistByNameHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	artist, err := h.artistRepo.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Artist not found")
			return
		}
		logger.Error("failed to get artist by name", logger.String("name", name), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, artist)
}

// GetArtistsHandler handles GET /api/artist.
func (h *APIHandler) GetArtistsHandler(w http.ResponseWriter, r *http.Request) {
	artists, err := h.artistRepo.GetAll(r.Context())
	if err != nil {
		logger.Error("failed to list artists", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, artists)
}

// GetArtistsWithTracksHandler handles GET /api/artist/with-tracks.
func (h *APIHandler) GetArtistsWithTracksHandler(w http.ResponseWriter, r *http.Request) {
	artists, err := h.artistRepo.GetAllWithTracks(r.Context())
	if err != nil {
		logger.Error("failed to list artists with tracks", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, artists)
}

// SearchArtistsHandler handles GET /api/artist/search/{term}.
func (h *APIHandler) SearchArtistsHandler(w http.ResponseWriter, r *http.Request) {
	term := mux.Vars(r)["term"]
	if strings.TrimSpace(term) == "" {
		respondError(w, http.StatusBadRequest, "Search term is required")
		return
	}

	artists, err := h.artistRepo.Search(r.Context(), term)
	if err != nil {
		logger.Error("failed to search artists", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, artists)
}

// GetArtistTracksHandler handles GET /api/artist/{id}/tracks.
func (h *APIHandler) GetArtistTracksHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	tracks, err := h.artistRepo.GetTracks(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Artist not found")
			return
		}
		logger.Error("failed to get artist tracks", logger.String("artistId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

// UpdateArtistHandler handles PUT /api/artist/{id}.
func (h *APIHandler) UpdateArtistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.UpdateArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Artist name is required")
		return
	}

	artist := &model.Artist{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		BirthDate:   req.BirthDate,
	}

	if err := h.artistRepo.Update(r.Context(), artist); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			respondError(w, http.StatusNotFound, "Artist not found")
		case errors.Is(err, repository.ErrDuplicateName):
			respondError(w, http.StatusConflict, "Artist with this name already exists")
		default:
			logger.Error("failed to update artist", logger.String("artistId", id), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	updated, err := h.artistRepo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteArtistHandler handles DELETE /api/artist/{id}.
func (h *APIHandler) DeleteArtistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.artistRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Artist not found")
			return
		}
		logger.Error("failed to delete artist", logger.String("artistId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("artist deleted", logger.String("artistId", id))
	w.WriteHeader(http.StatusNoContent)
}

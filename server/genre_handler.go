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

// CreateGenreHandler handles POST /api/genre.
func (h *APIHandler) CreateGenreHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CreateGenreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Genre name is required")
		return
	}

	genre, err := h.genreRepo.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			respondError(w, http.StatusConflict, "Genre with this name already exists")
			return
		}
		logger.Error("failed to create genre", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("genre created",
		logger.String("genreId", genre.ID),
		logger.String("name", genre.Name))
	respondJSON(w, http.StatusCreated, genre)
}

// GetGenreHandler handles GET /api/genre/{id}.
func (h *APIHandler) GetGenreHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	genre, err := h.genreRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Genre not found")
			return
		}
		logger.Error("failed to get genre", logger.String("genreId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, genre)
}

// GetGenreByNameHandler handles GET /api/genre/name/{name}. The lookup
// is case-insensitive.
func (h *APIHandler) GetGenreByNameHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	genre, err := h.genreRepo.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Genre not found")
			return
		}
		logger.Error("failed to get genre by name", logger.String("name", name), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, genre)
}

// GetGenresHandler handles GET /api/genre.
func (h *APIHandler) GetGenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genreRepo.GetAll(r.Context())
	if err != nil {
		logger.Error("failed to list genres", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, genres)
}

// GetGenresWithTracksHandler handles GET /api/genre/with-tracks.
func (h *APIHandler) GetGenresWithTracksHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genreRepo.GetAllWithTracks(r.Context())
	if err != nil {
		logger.Error("failed to list genres with tracks", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, genres)
}

// SearchGenresHandler handles GET /api/genre/search/{term}.
func (h *APIHandler) SearchGenresHandler(w http.ResponseWriter, r *http.Request) {
	term := mux.Vars(r)["term"]
	if strings.TrimSpace(term) == "" {
		respondError(w, http.StatusBadRequest, "Search term is required")
		return
	}

	genres, err := h.genreRepo.Search(r.Context(), term)
	if err != nil {
		logger.Error("failed to search genres", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, genres)
}

// UpdateGenreHandler handles PUT /api/genre/{id}.
func (h *APIHandler) UpdateGenreHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.UpdateGenreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Genre name is required")
		return
	}

	genre, err := h.genreRepo.Update(r.Context(), id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			respondError(w, http.StatusNotFound, "Genre not found")
		case errors.Is(err, repository.ErrDuplicateName):
			respondError(w, http.StatusConflict, "Genre with this name already exists")
		default:
			logger.Error("failed to update genre", logger.String("genreId", id), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, genre)
}

// DeleteGenreHandler handles DELETE /api/genre/{id}. Tracks referencing
// the genre survive with their reference nulled.
func (h *APIHandler) DeleteGenreHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.genreRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Genre not found")
			return
		}
		logger.Error("failed to delete genre", logger.String("genreId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("genre deleted", logger.String("genreId", id))
	w.WriteHeader(http.StatusNoContent)
}

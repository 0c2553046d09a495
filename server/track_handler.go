package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"soundwave/logger"
	"soundwave/model"
	"soundwave/repository"
	"soundwave/storage"

	"github.com/gorilla/mux"
)

// CreateTrackHandler handles POST /api/track.
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "Track title is required")
		return
	}
	if strings.TrimSpace(req.AudioURL) == "" {
		respondError(w, http.StatusBadRequest, "Audio URL is required")
		return
	}

	track := &model.Track{
		Title:       req.Title,
		AudioURL:    req.AudioURL,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		ReleaseDate: req.ReleaseDate,
		GenreID:     req.GenreID,
	}

	if err := h.trackRepo.Create(r.Context(), track); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusBadRequest, "Genre not found")
			return
		}
		logger.Error("failed to create track", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, artistID := range req.ArtistIDs {
		if err := h.trackRepo.AttachArtist(r.Context(), track.ID, artistID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondError(w, http.StatusBadRequest, "Artist not found")
				return
			}
			logger.Error("failed to attach artist", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	created, err := h.trackRepo.GetByIDWithDetails(r.Context(), track.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("track created",
		logger.String("trackId", created.ID),
		logger.String("title", created.Title))
	respondJSON(w, http.StatusCreated, created)
}

// GetTrackHandler handles GET /api/track/{id}.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	track, err := h.trackRepo.GetByIDWithDetails(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("failed to get track", logger.String("trackId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// GetTrackByTitleHandler handles GET /api/track/title/{title}. The
// lookup is case-insensitive.
func (h *APIHandler) GetTrackByTitleHandler(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	track, err := h.trackRepo.GetByTitle(r.Context(), title)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("failed to get track by title", logger.String("title", title), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// GetTracksHandler handles GET /api/track.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetAll(r.Context())
	if err != nil {
		logger.Error("failed to list tracks", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

// GetTracksWithDetailsHandler handles GET /api/track/with-details.
func (h *APIHandler) GetTracksWithDetailsHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetAllWithDetails(r.Context())
	if err != nil {
		logger.Error("failed to list tracks with details", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

// SearchTracksHandler handles GET /api/track/search/{term}.
func (h *APIHandler) SearchTracksHandler(w http.ResponseWriter, r *http.Request) {
	term := mux.Vars(r)["term"]
	if strings.TrimSpace(term) == "" {
		respondError(w, http.StatusBadRequest, "Search term is required")
		return
	}

	tracks, err := h.trackRepo.Search(r.Context(), term)
	if err != nil {
		logger.Error("failed to search tracks", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

// GetTracksByGenreHandler handles GET /api/track/by-genre/{genreId}.
func (h *APIHandler) GetTracksByGenreHandler(w http.ResponseWriter, r *http.Request) {
	genreID := mux.Vars(r)["genreId"]

	tracks, err := h.trackRepo.GetByGenre(r.Context(), genreID)
	if err != nil {
		logger.Error("failed to list tracks by genre", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

// GetTracksByArtistHandler handles GET /api/track/by-artist/{artistId}.
func (h *APIHandler) GetTracksByArtistHandler(w http.ResponseWriter, r *http.Request) {
	artistID := mux.Vars(r)["artistId"]

	tracks, err := h.trackRepo.GetByArtist(r.Context(), artistID)
	if err != nil {
		logger.Error("failed to list tracks by artist", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

// UpdateTrackHandler handles PUT /api/track/{id}.
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.UpdateTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "Track title is required")
		return
	}
	if strings.TrimSpace(req.AudioURL) == "" {
		respondError(w, http.StatusBadRequest, "Audio URL is required")
		return
	}

	track := &model.Track{
		ID:          id,
		Title:       req.Title,
		AudioURL:    req.AudioURL,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		ReleaseDate: req.ReleaseDate,
		GenreID:     req.GenreID,
	}

	if err := h.trackRepo.Update(r.Context(), track); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Track or genre not found")
			return
		}
		logger.Error("failed to update track", logger.String("trackId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := h.trackRepo.GetByIDWithDetails(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteTrackHandler handles DELETE /api/track/{id}.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.trackRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("failed to delete track", logger.String("trackId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("track deleted", logger.String("trackId", id))
	w.WriteHeader(http.StatusNoContent)
}

// AttachArtistHandler handles POST /api/track/{trackId}/artists/{artistId}.
// Attaching an already associated artist is a no-op.
func (h *APIHandler) AttachArtistHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trackID, artistID := vars["trackId"], vars["artistId"]

	if err := h.trackRepo.AttachArtist(r.Context(), trackID, artistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Track or artist not found")
			return
		}
		logger.Error("failed to attach artist",
			logger.String("trackId", trackID),
			logger.String("artistId", artistID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Artist attached to track"})
}

// DetachArtistHandler handles DELETE /api/track/{trackId}/artists/{artistId}.
func (h *APIHandler) DetachArtistHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trackID, artistID := vars["trackId"], vars["artistId"]

	if err := h.trackRepo.DetachArtist(r.Context(), trackID, artistID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			respondError(w, http.StatusNotFound, "Track not found")
		case errors.Is(err, repository.ErrAssociationNotFound):
			respondError(w, http.StatusNotFound, "Artist association not found")
		default:
			logger.Error("failed to detach artist",
				logger.String("trackId", trackID),
				logger.String("artistId", artistID),
				logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Artist detached from track"})
}

// UploadTrackHandler handles POST /api/track/upload: a multipart form
// carrying the track metadata, the audio file and optionally a poster
// image. Files are validated before anything is written.
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAudioSize+storage.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(w, http.StatusBadRequest, "Track title is required")
		return
	}

	audioFile, audioHeader, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Audio file is required")
		return
	}
	defer audioFile.Close()

	audioExt, err := storage.ValidateUpload(storage.KindAudio, audioHeader.Filename, audioHeader.Size)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Validate the poster too before writing the audio, so a bad poster
	// never leaves an orphaned audio file behind.
	posterFile, posterHeader, posterErr := r.FormFile("poster")
	var posterExt string
	if posterErr == nil {
		defer posterFile.Close()
		posterExt, err = storage.ValidateUpload(storage.KindImage, posterHeader.Filename, posterHeader.Size)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	audioName := storage.NewFileName(audioExt)
	audioURL, err := h.store.Save(r.Context(), storage.KindAudio, audioName,
		audioFile, audioHeader.Size, audioHeader.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("failed to store audio file", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var posterURL *string
	if posterErr == nil {
		posterName := storage.NewFileName(posterExt)
		url, err := h.store.Save(r.Context(), storage.KindImage, posterName,
			posterFile, posterHeader.Size, posterHeader.Header.Get("Content-Type"))
		if err != nil {
			logger.Error("failed to store poster file", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		posterURL = &url
	} else if v := strings.TrimSpace(r.FormValue("posterUrl")); v != "" {
		posterURL = &v
	}

	track := &model.Track{
		Title:     title,
		AudioURL:  audioURL,
		PosterURL: posterURL,
	}
	if v := strings.TrimSpace(r.FormValue("description")); v != "" {
		track.Description = &v
	}
	if v := strings.TrimSpace(r.FormValue("genreId")); v != "" {
		track.GenreID = &v
	}
	if v := strings.TrimSpace(r.FormValue("releaseDate")); v != "" {
		t, err := parseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid release date")
			return
		}
		track.ReleaseDate = &t
	}

	if err := h.trackRepo.Create(r.Context(), track); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusBadRequest, "Genre not found")
			return
		}
		logger.Error("failed to create track", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if name := strings.TrimSpace(r.FormValue("artistName")); name != "" {
		artist, err := h.getOrCreateArtist(r, name)
		if err != nil {
			logger.Error("failed to resolve artist", logger.String("name", name), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := h.trackRepo.AttachArtist(r.Context(), track.ID, artist.ID); err != nil {
			logger.Error("failed to attach artist", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	created, err := h.trackRepo.GetByIDWithDetails(r.Context(), track.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("track uploaded",
		logger.String("trackId", created.ID),
		logger.String("title", created.Title),
		logger.String("audioUrl", created.AudioURL))
	respondJSON(w, http.StatusCreated, created)
}

// getOrCreateArtist resolves an artist by name, creating it when absent.
func (h *APIHandler) getOrCreateArtist(r *http.Request, name string) (*model.Artist, error) {
	artist, err := h.artistRepo.GetByName(r.Context(), name)
	if err == nil {
		return artist, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	artist = &model.Artist{Name: name}
	if err := h.artistRepo.Create(r.Context(), artist); err != nil {
		// A concurrent upload may have created it in the meantime.
		if errors.Is(err, repository.ErrDuplicateName) {
			return h.artistRepo.GetByName(r.Context(), name)
		}
		return nil, err
	}
	return artist, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

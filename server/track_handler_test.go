package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"soundwave/model"
	"soundwave/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTrackHandlerAttachesArtists(t *testing.T) {
	attached := []string{}
	tracks := &mockTrackRepo{
		createFn: func(ctx context.Context, track *model.Track) error {
			track.ID = "track-1"
			return nil
		},
		attachArtistFn: func(ctx context.Context, trackID, artistID string) error {
			assert.Equal(t, "track-1", trackID)
			attached = append(attached, artistID)
			return nil
		},
		getByIDWithDetailsFn: func(ctx context.Context, id string) (*model.Track, error) {
			return &model.Track{ID: id, Title: "Song"}, nil
		},
	}
	h, router := newTestHandler(t, testDeps{tracks: tracks})

	body, _ := json.Marshal(map[string]interface{}{
		"title":     "Song",
		"audioUrl":  "/uploads/audio/s.mp3",
		"artistIds": []string{"artist-1", "artist-2"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/track", bytes.NewReader(body))
	authorize(t, h, req, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"artist-1", "artist-2"}, attached)
}

func TestCreateTrackHandlerUnknownGenre(t *testing.T) {
	tracks := &mockTrackRepo{
		createFn: func(ctx context.Context, track *model.Track) error {
			return repository.ErrNotFound
		},
	}
	h, router := newTestHandler(t, testDeps{tracks: tracks})

	body, _ := json.Marshal(map[string]interface{}{
		"title":    "Song",
		"audioUrl": "/uploads/audio/s.mp3",
		"genreId":  "missing-genre",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/track", bytes.NewReader(body))
	authorize(t, h, req, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTrackHandlerRequiresTitleAndAudio(t *testing.T) {
	h, router := newTestHandler(t, testDeps{tracks: &mockTrackRepo{}})

	for _, body := range []map[string]string{
		{"audioUrl": "/uploads/audio/s.mp3"},
		{"title": "Song"},
	} {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/track", bytes.NewReader(raw))
		authorize(t, h, req, "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestDetachArtistHandlerMissingAssociation(t *testing.T) {
	tracks := &mockTrackRepo{
		detachArtistFn: func(ctx context.Context, trackID, artistID string) error {
			return repository.ErrAssociationNotFound
		},
	}
	h, router := newTestHandler(t, testDeps{tracks: tracks})

	req := httptest.NewRequest(http.MethodDelete, "/api/track/track-1/artists/artist-1", nil)
	authorize(t, h, req, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttachArtistHandler(t *testing.T) {
	var gotTrack, gotArtist string
	tracks := &mockTrackRepo{
		attachArtistFn: func(ctx context.Context, trackID, artistID string) error {
			gotTrack, gotArtist = trackID, artistID
			return nil
		},
	}
	h, router := newTestHandler(t, testDeps{tracks: tracks})

	req := httptest.NewRequest(http.MethodPost, "/api/track/track-1/artists/artist-1", nil)
	authorize(t, h, req, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "track-1", gotTrack)
	assert.Equal(t, "artist-1", gotArtist)
}

// multipartUpload builds a multipart body with the given form fields and
// files (field name -> file name + content).
func multipartUpload(t *testing.T, fields map[string]string, files map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for field, nameAndContent := range files {
		fw, err := w.CreateFormFile(field, nameAndContent[0])
		require.NoError(t, err)
		_, err = io.Copy(fw, strings.NewReader(nameAndContent[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadTrackHandler(t *testing.T) {
	var created *model.Track
	tracks := &mockTrackRepo{
		createFn: func(ctx context.Context, track *model.Track) error {
			track.ID = "track-1"
			created = track
			return nil
		},
		getByIDWithDetailsFn: func(ctx context.Context, id string) (*model.Track, error) {
			return created, nil
		},
	}
	h, router := newTestHandler(t, testDeps{tracks: tracks})

	body, contentType := multipartUpload(t,
		map[string]string{
			"title":       "Uploaded Song",
			"description": "demo take",
			"releaseDate": "2024-06-01",
		},
		map[string][2]string{
			"audio":  {"song.mp3", "fake audio bytes"},
			"poster": {"cover.png", "fake image bytes"},
		},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/track/upload", body)
	req.Header.Set("Content-Type", contentType)
	authorize(t, h, req, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, created)
	assert.Equal(t, "Uploaded Song", created.Title)
	assert.True(t, strings.HasPrefix(created.AudioURL, "/uploads/audio/"))
	assert.True(t, strings.HasSuffix(created.AudioURL, ".mp3"))
	require.NotNil(t, created.PosterURL)
	assert.True(t, strings.HasPrefix(*created.PosterURL, "/uploads/images/"))
	require.NotNil(t, created.Description)
	assert.Equal(t, "demo take", *created.Description)
	require.NotNil(t, created.ReleaseDate)
	assert.Equal(t, 2024, created.ReleaseDate.Year())
}

func TestUploadTrackHandlerRejectsBadAudioExtension(t *testing.T) {
	h, router := newTestHandler(t, testDeps{tracks: &mockTrackRepo{}})

	body, contentType := multipartUpload(t,
		map[string]string{"title": "Song"},
		map[string][2]string{"audio": {"song.txt", "not audio"}},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/track/upload", body)
	req.Header.Set("Content-Type", contentType)
	authorize(t, h, req, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTrackHandlerBadPosterWritesNothing(t *testing.T) {
	tracks := &mockTrackRepo{
		createFn: func(ctx context.Context, track *model.Track) error {
			t.Fatal("track must not be created when the poster is invalid")
			return nil
		},
	}
	h, router := newTestHandler(t, testDeps{tracks: tracks})

	body, contentType := multipartUpload(t,
		map[string]string{"title": "Song"},
		map[string][2]string{
			"audio":  {"song.mp3", "fake audio bytes"},
			"poster": {"cover.exe", "not an image"},
		},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/track/upload", body)
	req.Header.Set("Content-Type", contentType)
	authorize(t, h, req, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTrackHandlerCreatesArtistByName(t *testing.T) {
	artists := &mockArtistRepo{
		getByNameFn: func(ctx context.Context, name string) (*model.Artist, error) {
			return nil, repository.ErrNotFound
		},
		createFn: func(ctx context.Context, artist *model.Artist) error {
			artist.ID = "artist-new"
			return nil
		},
	}
	attachedArtist := ""
	tracks := &mockTrackRepo{
		createFn: func(ctx context.Context, track *model.Track) error {
			track.ID = "track-1"
			return nil
		},
		attachArtistFn: func(ctx context.Context, trackID, artistID string) error {
			attachedArtist = artistID
			return nil
		},
		getByIDWithDetailsFn: func(ctx context.Context, id string) (*model.Track, error) {
			return &model.Track{ID: id, Title: "Song"}, nil
		},
	}
	h, router := newTestHandler(t, testDeps{artists: artists, tracks: tracks})

	body, contentType := multipartUpload(t,
		map[string]string{"title": "Song", "artistName": "New Artist"},
		map[string][2]string{"audio": {"song.mp3", "fake audio bytes"}},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/track/upload", body)
	req.Header.Set("Content-Type", contentType)
	authorize(t, h, req, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "artist-new", attachedArtist)
}

func TestGetTrackByTitleHandler(t *testing.T) {
	tracks := &mockTrackRepo{
		getByTitleFn: func(ctx context.Context, title string) (*model.Track, error) {
			if title != "Creep" {
				return nil, repository.ErrNotFound
			}
			return &model.Track{ID: "track-1", Title: "Creep"}, nil
		},
	}
	_, router := newTestHandler(t, testDeps{tracks: tracks})

	req := httptest.NewRequest(http.MethodGet, "/api/track/title/Creep", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.Track
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "track-1", resp.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/track/title/Unknown", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

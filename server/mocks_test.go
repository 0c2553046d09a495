package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"soundwave/config"
	"soundwave/core/auth"
	"soundwave/core/mail"
	"soundwave/model"
	"soundwave/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Hand-rolled mocks with function fields; a test only fills in what the
// handler under test touches.

type mockArtistRepo struct {
	createFn           func(ctx context.Context, artist *model.Artist) error
	getByIDFn          func(ctx context.Context, id string) (*model.Artist, error)
	getAllFn           func(ctx context.Context) ([]model.Artist, error)
	getByNameFn        func(ctx context.Context, name string) (*model.Artist, error)
	existsByNameFn     func(ctx context.Context, name string) (bool, error)
	searchFn           func(ctx context.Context, term string) ([]model.Artist, error)
	getAllWithTracksFn func(ctx context.Context) ([]model.Artist, error)
	getTracksFn        func(ctx context.Context, artistID string) ([]model.Track, error)
	updateFn           func(ctx context.Context, artist *model.Artist) error
	deleteFn           func(ctx context.Context, id string) error
}

func (m *mockArtistRepo) Create(ctx context.Context, artist *model.Artist) error {
	return m.createFn(ctx, artist)
}
func (m *mockArtistRepo) GetByID(ctx context.Context, id string) (*model.Artist, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockArtistRepo) GetAll(ctx context.Context) ([]model.Artist, error) {
	return m.getAllFn(ctx)
}
func (m *mockArtistRepo) GetByName(ctx context.Context, name string) (*model.Artist, error) {
	return m.getByNameFn(ctx, name)
}
func (m *mockArtistRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return m.existsByNameFn(ctx, name)
}
func (m *mockArtistRepo) Search(ctx context.Context, term string) ([]model.Artist, error) {
	return m.searchFn(ctx, term)
}
func (m *mockArtistRepo) GetAllWithTracks(ctx context.Context) ([]model.Artist, error) {
	return m.getAllWithTracksFn(ctx)
}
func (m *mockArtistRepo) GetTracks(ctx context.Context, artistID string) ([]model.Track, error) {
	return m.getTracksFn(ctx, artistID)
}
func (m *mockArtistRepo) Update(ctx context.Context, artist *model.Artist) error {
	return m.updateFn(ctx, artist)
}
func (m *mockArtistRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type mockGenreRepo struct {
	createFn           func(ctx context.Context, name string) (*model.Genre, error)
	getByIDFn          func(ctx context.Context, id string) (*model.Genre, error)
	getAllFn           func(ctx context.Context) ([]model.Genre, error)
	getByNameFn        func(ctx context.Context, name string) (*model.Genre, error)
	existsByNameFn     func(ctx context.Context, name string) (bool, error)
	searchFn           func(ctx context.Context, term string) ([]model.Genre, error)
	getAllWithTracksFn func(ctx context.Context) ([]model.Genre, error)
	updateFn           func(ctx context.Context, id, name string) (*model.Genre, error)
	deleteFn           func(ctx context.Context, id string) error
}

func (m *mockGenreRepo) Create(ctx context.Context, name string) (*model.Genre, error) {
	return m.createFn(ctx, name)
}
func (m *mockGenreRepo) GetByID(ctx context.Context, id string) (*model.Genre, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockGenreRepo) GetAll(ctx context.Context) ([]model.Genre, error) {
	return m.getAllFn(ctx)
}
func (m *mockGenreRepo) GetByName(ctx context.Context, name string) (*model.Genre, error) {
	return m.getByNameFn(ctx, name)
}
func (m *mockGenreRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return m.existsByNameFn(ctx, name)
}
func (m *mockGenreRepo) Search(ctx context.Context, term string) ([]model.Genre, error) {
	return m.searchFn(ctx, term)
}
func (m *mockGenreRepo) GetAllWithTracks(ctx context.Context) ([]model.Genre, error) {
	return m.getAllWithTracksFn(ctx)
}
func (m *mockGenreRepo) Update(ctx context.Context, id, name string) (*model.Genre, error) {
	return m.updateFn(ctx, id, name)
}
func (m *mockGenreRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type mockTrackRepo struct {
	createFn             func(ctx context.Context, track *model.Track) error
	getByIDFn            func(ctx context.Context, id string) (*model.Track, error)
	getByIDWithDetailsFn func(ctx context.Context, id string) (*model.Track, error)
	getByTitleFn         func(ctx context.Context, title string) (*model.Track, error)
	getAllFn             func(ctx context.Context) ([]model.Track, error)
	getAllWithDetailsFn  func(ctx context.Context) ([]model.Track, error)
	searchFn             func(ctx context.Context, term string) ([]model.Track, error)
	getByGenreFn         func(ctx context.Context, genreID string) ([]model.Track, error)
	getByArtistFn        func(ctx context.Context, artistID string) ([]model.Track, error)
	updateFn             func(ctx context.Context, track *model.Track) error
	deleteFn             func(ctx context.Context, id string) error
	attachArtistFn       func(ctx context.Context, trackID, artistID string) error
	detachArtistFn       func(ctx context.Context, trackID, artistID string) error
}

func (m *mockTrackRepo) Create(ctx context.Context, track *model.Track) error {
	return m.createFn(ctx, track)
}
func (m *mockTrackRepo) GetByID(ctx context.Context, id string) (*model.Track, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockTrackRepo) GetByIDWithDetails(ctx context.Context, id string) (*model.Track, error) {
	return m.getByIDWithDetailsFn(ctx, id)
}
func (m *mockTrackRepo) GetByTitle(ctx context.Context, title string) (*model.Track, error) {
	return m.getByTitleFn(ctx, title)
}
func (m *mockTrackRepo) GetAll(ctx context.Context) ([]model.Track, error) {
	return m.getAllFn(ctx)
}
func (m *mockTrackRepo) GetAllWithDetails(ctx context.Context) ([]model.Track, error) {
	return m.getAllWithDetailsFn(ctx)
}
func (m *mockTrackRepo) Search(ctx context.Context, term string) ([]model.Track, error) {
	return m.searchFn(ctx, term)
}
func (m *mockTrackRepo) GetByGenre(ctx context.Context, genreID string) ([]model.Track, error) {
	return m.getByGenreFn(ctx, genreID)
}
func (m *mockTrackRepo) GetByArtist(ctx context.Context, artistID string) ([]model.Track, error) {
	return m.getByArtistFn(ctx, artistID)
}
func (m *mockTrackRepo) Update(ctx context.Context, track *model.Track) error {
	return m.updateFn(ctx, track)
}
func (m *mockTrackRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}
func (m *mockTrackRepo) AttachArtist(ctx context.Context, trackID, artistID string) error {
	return m.attachArtistFn(ctx, trackID, artistID)
}
func (m *mockTrackRepo) DetachArtist(ctx context.Context, trackID, artistID string) error {
	return m.detachArtistFn(ctx, trackID, artistID)
}

type mockUserRepo struct {
	createUserFn      func(user *model.User) error
	getUserByIDFn     func(id string) (*model.User, error)
	getUserByEmailFn  func(email string) (*model.User, error)
	emailExistsFn     func(email string) (bool, error)
	updateLastLoginFn func(id string) error
	confirmEmailFn    func(email, token string) (bool, error)
}

func (m *mockUserRepo) CreateUser(user *model.User) error {
	return m.createUserFn(user)
}
func (m *mockUserRepo) GetUserByID(id string) (*model.User, error) {
	return m.getUserByIDFn(id)
}
func (m *mockUserRepo) GetUserByEmail(email string) (*model.User, error) {
	return m.getUserByEmailFn(email)
}
func (m *mockUserRepo) EmailExists(email string) (bool, error) {
	return m.emailExistsFn(email)
}
func (m *mockUserRepo) UpdateLastLogin(id string) error {
	return m.updateLastLoginFn(id)
}
func (m *mockUserRepo) ConfirmEmail(email, token string) (bool, error) {
	return m.confirmEmailFn(email, token)
}

// testDeps are the handler dependencies a test can swap out.
type testDeps struct {
	artists *mockArtistRepo
	genres  *mockGenreRepo
	tracks  *mockTrackRepo
	users   *mockUserRepo
	store   storage.FileStore
}

// newTestHandler builds an APIHandler with mock repositories, a real
// token issuer and a local file store under a temp dir. SMTP is left
// unconfigured so emails fail silently.
func newTestHandler(t *testing.T, deps testDeps) (*APIHandler, *mux.Router) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTIssuer:          "soundwave",
		JWTAudience:        "soundwave-clients",
		JWTExpiryHours:     1,
		BcryptCost:         bcrypt.MinCost,
		SMTPFromName:       "Soundwave",
		AppURL:             "http://localhost:3000",
		CORSAllowedOrigins: []string{"*"},
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, time.Hour)
	require.NoError(t, err)

	store := deps.store
	if store == nil {
		local, err := storage.NewLocalStore(t.TempDir())
		require.NoError(t, err)
		store = local
	}

	h := NewAPIHandler(
		deps.artists, deps.genres, deps.tracks, deps.users,
		tokens, mail.NewMailer(cfg), store, cfg,
	)

	router := mux.NewRouter()
	registerRoutes(router, h)
	return h, router
}

// bearerToken issues a valid token for the given user id.
func bearerToken(t *testing.T, h *APIHandler, userID string) string {
	t.Helper()
	signed, _, err := h.tokens.GenerateToken(userID, "user@example.com", "Test", "User")
	require.NoError(t, err)
	return "Bearer " + signed
}

func authorize(t *testing.T, h *APIHandler, req *http.Request, userID string) {
	t.Helper()
	req.Header.Set("Authorization", bearerToken(t, h, userID))
}

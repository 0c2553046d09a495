package server

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soundwave/cache"
	"soundwave/config"
	"soundwave/core/auth"
	"soundwave/core/mail"
	"soundwave/db"
	"soundwave/logger"
	"soundwave/model"
	"soundwave/repository"
	"soundwave/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until an
// interrupt signal arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
	})

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect catalog store", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Artist{}, &model.Genre{}, &model.Track{}); err != nil {
		logger.Fatal("failed to migrate catalog models", logger.ErrorField(err))
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	store, err := newFileStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize file store", logger.ErrorField(err))
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience,
		time.Duration(cfg.JWTExpiryHours)*time.Hour)
	if err != nil {
		logger.Fatal("failed to initialize token issuer", logger.ErrorField(err))
	}
	mailer := mail.NewMailer(cfg)

	artistRepo := repository.NewGormArtistRepository(db.GormDB)
	genreRepo := repository.NewGormGenreRepository(db.GormDB)
	trackRepo := repository.NewGormTrackRepository(db.GormDB)
	userRepo := repository.NewMySQLUserRepository(db.DB)

	apiHandler := NewAPIHandler(artistRepo, genreRepo, trackRepo, userRepo, tokens, mailer, store, cfg)

	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))

	registerRoutes(router, apiHandler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

func newFileStore(cfg *config.Config) (storage.FileStore, error) {
	if cfg.StorageBackend == "minio" {
		return storage.NewMinioStore(cfg)
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

// registerRoutes wires the full API surface. Literal segments such as
// /search and /with-tracks are registered before the {id} routes so the
// router does not swallow them as identifiers.
func registerRoutes(router *mux.Router, h *APIHandler) {
	// auth
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/confirm-email", h.ConfirmEmailHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/resend-confirmation", h.ResendConfirmationHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/check-email/{email}", h.CheckEmailHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)

	// artists
	router.HandleFunc("/api/artist", h.GetArtistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artist", h.AuthMiddleware(h.CreateArtistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/artist/with-tracks", h.GetArtistsWithTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artist/search/{term}", h.SearchArtistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artist/name/{name}", h.GetArtistByNameHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artist/{id}", h.GetArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artist/{id}", h.AuthMiddleware(h.UpdateArtistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/artist/{id}", h.AuthMiddleware(h.DeleteArtistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/artist/{id}/tracks", h.GetArtistTracksHandler).Methods(http.MethodGet)

	// genres
	router.HandleFunc("/api/genre", h.GetGenresHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genre", h.AuthMiddleware(h.CreateGenreHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/genre/with-tracks", h.GetGenresWithTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genre/search/{term}", h.SearchGenresHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genre/name/{name}", h.GetGenreByNameHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genre/{id}", h.GetGenreHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genre/{id}", h.AuthMiddleware(h.UpdateGenreHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/genre/{id}", h.AuthMiddleware(h.DeleteGenreHandler)).Methods(http.MethodDelete)

	// tracks
	router.HandleFunc("/api/track", h.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/track", h.AuthMiddleware(h.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/track/with-details", h.GetTracksWithDetailsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/track/search/{term}", h.SearchTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/track/title/{title}", h.GetTrackByTitleHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/track/by-genre/{genreId}", h.GetTracksByGenreHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/track/by-artist/{artistId}", h.GetTracksByArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/track/upload", h.AuthMiddleware(h.UploadTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/track/{id}", h.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/track/{id}", h.AuthMiddleware(h.UpdateTrackHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/track/{id}", h.AuthMiddleware(h.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/track/{trackId}/artists/{artistId}", h.AuthMiddleware(h.AttachArtistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/track/{trackId}/artists/{artistId}", h.AuthMiddleware(h.DetachArtistHandler)).Methods(http.MethodDelete)

	// file uploads
	router.HandleFunc("/api/file/upload/audio", h.AuthMiddleware(h.UploadAudioHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/file/upload/image", h.AuthMiddleware(h.UploadImageHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/file/delete/{type}/{fileName}", h.AuthMiddleware(h.DeleteFileHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/uploads/{type}/{fileName}", h.ServeUploadHandler).Methods(http.MethodGet)

	// player
	router.HandleFunc("/api/player/queue", h.AuthMiddleware(h.GetQueueHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player/queue", h.AuthMiddleware(h.AddToQueueHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/queue", h.AuthMiddleware(h.ClearQueueHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/player/queue/{trackId}", h.AuthMiddleware(h.RemoveFromQueueHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/player/ws", h.PlayerSessionHandler).Methods(http.MethodGet)
}

// loggingMiddleware records every request with its status and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("duration", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}

// corsMiddleware applies the configured allowed origins and answers
// preflight requests.
func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

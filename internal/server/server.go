package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/myflix/apiserver/config"
	"github.com/myflix/apiserver/internal/db"
	"github.com/myflix/apiserver/internal/handlers"
	"github.com/myflix/apiserver/internal/services"
	"github.com/myflix/apiserver/internal/storage"
	"github.com/myflix/apiserver/internal/store"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	logger     *zap.Logger
}

// New constructs a Server with its full dependency graph: database, poster
// storage, services, and routes.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	posterStorage, err := BuildStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if posterStorage == nil {
		logger.Warn("poster storage disabled; poster endpoints will return 404")
	}

	userRepo := store.NewUserRepository(dbConn)
	movieRepo := store.NewMovieRepository(dbConn)

	userService := services.NewUserService(userRepo)
	movieService := services.NewMovieService(movieRepo, posterStorage)

	authHandler := handlers.NewAuthHandler(userService, cfg.Auth, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/", handlers.Welcome)
	router.Get("/healthz", handlers.Healthz)
	router.Post("/login", authHandler.Login)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, authHandler.RequireAuth, logger)
	})
	router.Route("/movies", func(r chi.Router) {
		handlers.MovieRouter(r, movieService, authHandler.RequireAuth, logger)
	})
	handlers.CatalogRouter(router, movieService, authHandler.RequireAuth, logger)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		logger:     logger,
	}, nil
}

// BuildStorage constructs the configured poster storage backend. A backend of
// "none" disables poster storage.
func BuildStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch cfg.Backend {
	case "none", "":
		return nil, nil
	case "minio":
		backend, err := storage.NewMinioBackend(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "gcs":
		backend, err := storage.NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("myFlix API listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/grocerly/authserver/config"
	"github.com/grocerly/authserver/internal/auth"
	"github.com/grocerly/authserver/internal/db"
	"github.com/grocerly/authserver/internal/events"
	"github.com/grocerly/authserver/internal/handlers"
	"github.com/grocerly/authserver/internal/services"
	"github.com/grocerly/authserver/internal/storage"
	"github.com/grocerly/authserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	closers    []io.Closer
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv := &Server{db: dbConn}

	userRepo := store.NewUserRepository(dbConn)
	eventRepo := store.NewEventRepository(dbConn)

	tracker, err := newTracker(cfg.Lockout)
	if err != nil {
		_ = srv.Shutdown()
		return nil, err
	}
	if closer, ok := tracker.(io.Closer); ok {
		srv.closers = append(srv.closers, closer)
	}

	if cfg.Auth.JWTSecret == "" {
		log.Printf("warning: JWT_SECRET is not set; logins will fail until it is configured")
	}
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret)

	authService := services.NewAuthService(userRepo, eventRepo, tracker, issuer, cfg.Auth)

	publisher, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		_ = srv.Shutdown()
		return nil, err
	}
	if publisher != nil {
		srv.closers = append(srv.closers, publisher)
		authService.SetPublisher(publisher)
	}

	avatars, err := newAvatarStore(ctx, cfg.Storage)
	if err != nil {
		_ = srv.Shutdown()
		return nil, err
	}
	if avatars != nil {
		if err := avatars.EnsureBucket(ctx); err != nil {
			_ = srv.Shutdown()
			return nil, err
		}
		authService.SetAvatarStore(avatars)
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.router = router
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

func newTracker(cfg config.LockoutConfig) (auth.Tracker, error) {
	switch cfg.Backend {
	case "", "memory":
		return auth.NewMemoryTracker(cfg), nil
	case "redis":
		return auth.NewRedisTracker(cfg), nil
	default:
		return nil, fmt.Errorf("unknown lockout backend %q", cfg.Backend)
	}
}

func newPublisher(ctx context.Context, cfg config.EventsConfig) (*events.Publisher, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := events.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Channel), nil
	case "pubsub":
		backend, err := events.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Channel), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

func newAvatarStore(ctx context.Context, cfg config.StorageConfig) (*storage.AvatarStore, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewAvatarStore(backend), nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewAvatarStore(backend), nil
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
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	for _, closer := range s.closers {
		_ = closer.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/cinevault-be/internal/auth"
	"github.com/hongminglow/cinevault-be/internal/config"
	"github.com/hongminglow/cinevault-be/internal/http/handlers"
	"github.com/hongminglow/cinevault-be/internal/metrics"
	"github.com/hongminglow/cinevault-be/internal/middleware"
	"github.com/hongminglow/cinevault-be/internal/omdb"
	"github.com/hongminglow/cinevault-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner  *http.Server
	auth   *auth.Service
	logger *slog.Logger
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.New()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	authService := auth.NewService(store, auth.NewBcryptHasher(cfg.BcryptCost), tokens, logger)
	upstream := omdb.NewClient(cfg.OMDBBaseURL, cfg.OMDBAPIKey, cfg.OMDBTimeout)

	api := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(api)
	cookie := handlers.CookieConfig{Secure: cfg.IsProduction(), MaxAge: tokens.TTL()}
	handlers.NewAuthHandler(authService, cookie, logger, m).Register(api)
	handlers.NewProxyHandler(authService, upstream, logger, m).Register(api)

	root := http.NewServeMux()
	root.Handle("/metrics", m.Handler())
	if cfg.APIPrefix == "" {
		root.Handle("/", api)
	} else {
		root.Handle(cfg.APIPrefix+"/", http.StripPrefix(cfg.APIPrefix, api))
	}

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, m, root))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.OMDBTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, auth: authService, logger: logger}
}

// Handler exposes the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// EnsureAdmin creates the configured administrator account if it is missing.
func (s *Server) EnsureAdmin(ctx context.Context, seed config.AdminSeed) error {
	if !seed.Enabled() {
		return nil
	}
	err := s.auth.EnsureAdmin(ctx, auth.RegisterInput{
		Username: seed.Username,
		Email:    seed.Email,
		Phone:    seed.Phone,
		Password: seed.Password,
	})
	if err == nil {
		s.logger.InfoContext(ctx, "admin account ensured", "username", seed.Username)
	}
	return err
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}

// Package httpserver wires routing, middleware, and handlers for the
// MovieHub API.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/auth"
	"github.com/moviehub/moviehub/internal/catalog"
	"github.com/moviehub/moviehub/internal/config"
	"github.com/moviehub/moviehub/internal/mailer"
	"github.com/moviehub/moviehub/internal/ratelimit"
	"github.com/moviehub/moviehub/internal/repository"
	"github.com/moviehub/moviehub/internal/store"
)

// Server carries the dependencies of every handler.
type Server struct {
	cfg      config.Config
	store    *store.Store
	catalog  catalogService
	movies   movieAdminStore
	users    userStore
	contacts contactStore
	tokens   *auth.Tokens
	mail     mailer.Mailer
	limiter  *ratelimit.Limiter
	loginLim *ratelimit.Limiter
	validate *validator.Validate
	logger   *zap.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, cat *catalog.Service, tokens *auth.Tokens, mail mailer.Mailer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mail == nil {
		mail = mailer.NewLog(logger)
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		catalog:  cat,
		movies:   repo.Movies,
		users:    repo.Users,
		contacts: repo.Contacts,
		tokens:   tokens,
		mail:     mail,
		limiter:  ratelimit.New(cfg.RateLimitPerMin, time.Minute),
		loginLim: ratelimit.New(cfg.AdminLoginPerWindow, 15*time.Minute),
		validate: validator.New(),
		logger:   logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.UploadsDir)))
	r.Get("/uploads/*", uploads.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit(s.limiter))

		r.Get("/", s.handleAPIInfo)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", s.handleListMovies)
			r.Get("/featured", s.handleFeatured)
			r.Get("/trending", s.handleTrending)
			r.Get("/genres", s.handleGenres)
			r.Get("/search/suggestions", s.handleSuggestions)
			r.Get("/{id}", s.handleGetMovie)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/forgot", s.handleForgotPassword)
			r.Post("/reset", s.handleResetPassword)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(s.userAuth)
			r.Get("/me", s.handleMe)
			r.Get("/favorites", s.handleListFavorites)
			r.Post("/favorites/{id}", s.handleAddFavorite)
			r.Delete("/favorites/{id}", s.handleRemoveFavorite)
			r.Get("/history", s.handleListHistory)
			r.Post("/history/{id}", s.handleAddHistory)
		})

		r.Post("/contact", s.handleContactSubmit)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.adminAuth)
				r.Get("/movies", s.handleAdminListMovies)
				r.Post("/movies", s.handleAdminCreateMovie)
				r.Put("/movies/{id}", s.handleAdminUpdateMovie)
				r.Delete("/movies/{id}", s.handleAdminDeleteMovie)

				r.Get("/contact/messages", s.handleAdminListContacts)
				r.Delete("/contact/messages/{id}", s.handleAdminDeleteContact)
				r.Get("/contact/messages/export", s.handleAdminExportContacts)
				r.Get("/contact/stats", s.handleAdminContactStats)
			})
		})
	})

	return r
}

// Start boots the HTTP server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.store == nil || s.store.HealthCheck(ctx) != nil {
		s.respondMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAPIInfo(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"name":    "MovieHub API",
		"version": "1.0",
	})
}

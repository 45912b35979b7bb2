// Package server exposes the RSVP API over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"

	"github.com/AlexTLDR/wedding-rsvp/internal/auth"
	"github.com/AlexTLDR/wedding-rsvp/internal/config"
	"github.com/AlexTLDR/wedding-rsvp/internal/notify"
	"github.com/AlexTLDR/wedding-rsvp/internal/ratelimit"
	"github.com/AlexTLDR/wedding-rsvp/internal/rsvp"
	"github.com/AlexTLDR/wedding-rsvp/internal/server/handlers"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

const sessionName = "auth-session"

type Server struct {
	config       *config.Config
	store        storage.Store
	engine       *rsvp.Engine
	admin        *rsvp.Admin
	notifier     notify.Notifier
	logger       *slog.Logger
	sessionStore *sessions.CookieStore
	issuer       *auth.Issuer
	credentials  auth.Credentials
	limiter      *ratelimit.Limiter
	router       chi.Router
	httpServer   *http.Server
	now          func() time.Time
}

// GetStore implements handlers.Server interface
func (s *Server) GetStore() storage.Store {
	return s.store
}

// GetConfig implements handlers.Server interface
func (s *Server) GetConfig() *config.Config {
	return s.config
}

func (s *Server) GetEngine() *rsvp.Engine {
	return s.engine
}

func (s *Server) GetAdmin() *rsvp.Admin {
	return s.admin
}

func (s *Server) GetNotifier() notify.Notifier {
	return s.notifier
}

func (s *Server) GetLogger() *slog.Logger {
	return s.logger
}

func (s *Server) Now() time.Time {
	return s.now()
}

func New(cfg *config.Config, store storage.Store, notifier notify.Notifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(auth.TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		config:       cfg,
		store:        store,
		engine:       rsvp.NewEngine(store, logger),
		admin:        rsvp.NewAdmin(store, logger),
		notifier:     notifier,
		logger:       logger,
		sessionStore: sessionStore,
		issuer:       auth.NewIssuer(cfg.JWTSecret),
		credentials: auth.Credentials{
			Username:     cfg.AdminUsername,
			Password:     cfg.AdminPassword,
			PasswordHash: cfg.AdminPasswordHash,
		},
		router: chi.NewRouter(),
		now:    time.Now,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", handlers.HandleHealth(s))

	// Google login for whitelisted admins
	s.router.Get("/auth/google", s.handleGoogleLogin)
	s.router.Get("/auth/google/callback", s.handleGoogleCallback)
	s.router.Get("/auth/logout", s.handleLogout)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/invites/{id}", handlers.HandleGetInvite(s))
		r.Get("/invites/{id}/calendar.ics", handlers.HandleCalendar(s))
		r.With(s.rateLimit).Post("/rsvp", handlers.HandleRSVPSubmit(s))

		r.Route("/admin", func(r chi.Router) {
			r.With(s.rateLimit).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleAdminLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/me", s.handleMe)

				r.Get("/invites", handlers.HandleAdminListInvites(s))
				r.Post("/invites", handlers.HandleAdminCreateInvite(s))
				r.Put("/invites/{id}", handlers.HandleAdminUpdateInvite(s))
				r.Delete("/invites/{id}", handlers.HandleAdminDeleteInvite(s))

				r.Get("/templates", handlers.HandleAdminTemplates(s))
				r.Post("/templates/{id}/repair", handlers.HandleAdminRepairTemplate(s))

				r.Get("/responses", handlers.HandleAdminListResponses(s))
				r.Get("/responses/export.csv", handlers.HandleAdminExportCSV(s))
				r.Post("/responses/send-welcome", handlers.HandleAdminSendWelcome(s))
				r.Post("/responses/send-confirmation", handlers.HandleAdminSendConfirmation(s))
				r.Post("/responses/send-welcome-bulk", handlers.HandleAdminSendWelcomeBulk(s))
				r.Put("/responses/{id}", handlers.HandleAdminUpdateResponse(s))
				r.Delete("/responses/{id}", handlers.HandleAdminDeleteResponse(s))

				r.Get("/stats", handlers.HandleAdminStats(s))
				r.Get("/search", handlers.HandleAdminSearch(s))
			})
		})
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr
	s.logger.Info("server starting", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

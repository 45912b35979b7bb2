package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/AlexTLDR/wedding-rsvp/internal/auth"
	"github.com/AlexTLDR/wedding-rsvp/internal/server/handlers"
)

type contextKey string

const adminKey contextKey = "admin"

// requestLogger logs one line per request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// rateLimit throttles by client IP. It is a no-op when no limiter is
// configured.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
			s.logger.Warn("rate limit exceeded", "ip", clientIP(r), "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			handlers.TooManyRequests(w, "Too many requests. Please try again later.", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request's client address. Forwarding headers only
// count when RealIP is installed for a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// adminIdentity resolves who is calling: a bearer token, the admin cookie,
// or a whitelisted Google session, in that order.
func (s *Server) adminIdentity(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		claims, err := s.issuer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err == nil {
			return claims.Username, true
		}
		s.logger.Debug("rejected bearer token", "error", err)
	}

	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		claims, err := s.issuer.Verify(cookie.Value)
		if err == nil {
			return claims.Username, true
		}
		s.logger.Debug("rejected admin cookie", "error", err)
	}

	if email, _ := s.getCurrentUser(r); auth.IsAdminEmail(s.config.AdminEmails, email) {
		return email, true
	}
	return "", false
}

// requireAdmin is a middleware that rejects unauthenticated admin calls
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, ok := s.adminIdentity(r)
		if !ok {
			handlers.Unauthorized(w, "Unauthorized", s.logger)
			return
		}
		ctx := context.WithValue(r.Context(), adminKey, who)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminFromContext returns the identity set by requireAdmin.
func adminFromContext(ctx context.Context) string {
	who, _ := ctx.Value(adminKey).(string)
	return who
}

package server

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/AlexTLDR/wedding-rsvp/internal/auth"
	"github.com/AlexTLDR/wedding-rsvp/internal/server/handlers"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func (s *Server) getGoogleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.config.GoogleClientID,
		ClientSecret: s.config.GoogleClientSecret,
		RedirectURL:  s.config.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

func newOAuthState() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", fmt.Errorf("failed to generate oauth state")
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.config.GoogleLoginEnabled() {
		handlers.NotFound(w, "Google login is not configured", s.logger)
		return
	}

	state, err := newOAuthState()
	if err != nil {
		s.logger.Error("oauth state", "error", err)
		handlers.InternalError(w, "Failed to start login", s.logger)
		return
	}

	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values["oauth_state"] = state
	if err := session.Save(r, w); err != nil {
		s.logger.Error("failed to save session", "error", err)
		handlers.InternalError(w, "Failed to start login", s.logger)
		return
	}

	url := s.getGoogleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, sessionName)
	want, _ := session.Values["oauth_state"].(string)
	got := r.URL.Query().Get("state")
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		handlers.BadRequest(w, "Invalid login state", s.logger)
		return
	}
	delete(session.Values, "oauth_state")

	code := r.URL.Query().Get("code")
	if code == "" {
		handlers.BadRequest(w, "Code not found", s.logger)
		return
	}

	ctx := r.Context()
	oauthConfig := s.getGoogleOAuthConfig()
	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("failed to exchange oauth code", "error", err)
		handlers.InternalError(w, "Failed to exchange token", s.logger)
		return
	}

	resp, err := oauthConfig.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		s.logger.Error("failed to get user info", "error", err)
		handlers.InternalError(w, "Failed to get user info", s.logger)
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		s.logger.Error("failed to parse user info", "error", err)
		handlers.InternalError(w, "Failed to parse user info", s.logger)
		return
	}

	if !auth.IsAdminEmail(s.config.AdminEmails, userInfo.Email) {
		s.logger.Warn("google login rejected", "email", userInfo.Email)
		handlers.Unauthorized(w, "Unauthorized: Your email is not whitelisted", s.logger)
		return
	}

	session.Values["email"] = userInfo.Email
	session.Values["name"] = userInfo.Name
	if err := session.Save(r, w); err != nil {
		s.logger.Error("failed to save session", "error", err)
		handlers.InternalError(w, "Failed to save session", s.logger)
		return
	}

	s.logger.Info("admin signed in", "email", userInfo.Email, "method", "google")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values["email"] = ""
	session.Values["name"] = ""
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.logger.Warn("failed to clear session", "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) getCurrentUser(r *http.Request) (email, name string) {
	session, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		return "", ""
	}
	if e, ok := session.Values["email"].(string); ok {
		email = e
	}
	if n, ok := session.Values["name"].(string); ok {
		name = n
	}
	return
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) adminCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
}

// handleLogin checks the admin credentials and sets the admin cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		handlers.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if !s.credentials.Check(req.Username, req.Password) {
		s.logger.Warn("admin login failed", "username", req.Username, "ip", clientIP(r))
		handlers.Unauthorized(w, "Invalid credentials", s.logger)
		return
	}

	token, exp, err := s.issuer.Issue(req.Username)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		handlers.InternalError(w, "Something went wrong. Please try again later.", s.logger)
		return
	}

	http.SetCookie(w, s.adminCookie(token, int(auth.TokenTTL/time.Second)))
	s.logger.Info("admin signed in", "username", req.Username, "method", "password")
	handlers.Message(w, "Login successful", loginResponse{Token: token, ExpiresAt: exp}, s.logger)
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.adminCookie("", -1))
	handlers.Message(w, "Logged out", nil, s.logger)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	handlers.Success(w, map[string]string{"admin": adminFromContext(r.Context())}, s.logger)
}

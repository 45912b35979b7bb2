package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding-rsvp/internal/auth"
	"github.com/AlexTLDR/wedding-rsvp/internal/config"
	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/logger"
	"github.com/AlexTLDR/wedding-rsvp/internal/notify"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage/kv"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingSender) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

type testServer struct {
	*Server
	store  storage.Store
	sender *recordingSender
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:   "test",
		BaseURL:       "https://rsvp.example.com",
		AdminUsername: "admin",
		AdminPassword: "admin",
		JWTSecret:     "test-secret",
		SessionSecret: "test-session-secret-0123456789ab",
		AdminEmails:   []string{"host@example.com"},
	}
}

func setupTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	db, err := kv.OpenBadger("", nil)
	require.NoError(t, err)
	store := kv.New(db, logger.Discard())

	sender := &recordingSender{}
	notifier := notify.NewService(store, sender, cfg.BaseURL, logger.Discard())
	s := New(cfg, store, notifier, logger.Discard())

	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
		_ = store.Close()
	})
	return &testServer{Server: s, store: store, sender: sender}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/api/admin/login", loginRequest{Username: "admin", Password: "admin"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out loginResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Token
}

func (ts *testServer) seed(t *testing.T, inv *domain.Invite) {
	t.Helper()
	now := time.Now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	require.NoError(t, ts.store.CreateInvite(context.Background(), inv))
}

func submission(inviteID string) map[string]any {
	return map[string]any{
		"name":              "Asha",
		"email":             "asha@x.com",
		"phone":             "(650) 253-0000",
		"inviteId":          inviteID,
		"additional_guests": 1,
		"events":            map[string]bool{"wedding": true},
	}
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, testConfig())
	rec, env := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestTemplateSubmissionOverHTTP(t *testing.T) {
	ts := setupTestServer(t, testConfig())
	ts.seed(t, &domain.Invite{
		ID:           "tmpl",
		Events:       domain.NewEventSet(domain.Wedding, domain.Reception),
		IsTemplate:   true,
		TemplateName: "Friends",
		Location:     domain.Houston,
		Responses:    []string{},
	})

	rec, env := ts.do(t, http.MethodPost, "/api/rsvp", submission("tmpl"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var resp domain.Response
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.NotEqual(t, "tmpl", resp.InviteID)
	assert.Equal(t, "6502530000", resp.Phone)

	rec, env = ts.do(t, http.MethodGet, "/api/invites/"+resp.InviteID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view inviteViewJSON
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Asha", view.Name)
	require.NotNil(t, view.Response)
	assert.Equal(t, resp.ID, view.Response.ID)

	// The template itself never exposes its children.
	rec, env = ts.do(t, http.MethodGet, "/api/invites/tmpl", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, string(env.Data), resp.InviteID)
}

type inviteViewJSON struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Response *domain.Response `json:"response"`
}

func TestSubmitErrors(t *testing.T) {
	ts := setupTestServer(t, testConfig())
	ts.seed(t, &domain.Invite{ID: "inv", Name: "Asha", Events: domain.NewEventSet(domain.Haldi)})

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"unknown invite", submission("missing"), http.StatusNotFound, "Invalid invitation ID."},
		{"event not on invite", submission("inv"), http.StatusBadRequest, "wedding"},
		{"unknown event key", map[string]any{"inviteId": "inv", "events": map[string]bool{"brunch": true}}, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodPost, "/api/rsvp", tt.body, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			assert.Contains(t, env.Message, tt.message)
		})
	}
}

func TestDeadline(t *testing.T) {
	cfg := testConfig()
	cfg.RSVPDeadline = time.Now().Add(-time.Hour)
	ts := setupTestServer(t, cfg)
	ts.seed(t, &domain.Invite{ID: "inv", Name: "Asha", Events: domain.NewEventSet(domain.Wedding)})

	rec, env := ts.do(t, http.MethodPost, "/api/rsvp", submission("inv"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "RSVP deadline has passed", env.Message)

	rec, env = ts.do(t, http.MethodGet, "/api/invites/inv", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"deadline_passed":true`)
}

func TestAdminAuth(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	rec, _ := ts.do(t, http.MethodGet, "/api/admin/invites", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := ts.do(t, http.MethodPost, "/api/admin/login", loginRequest{Username: "admin", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env.Error)

	rec, _ = ts.do(t, http.MethodPost, "/api/admin/login", loginRequest{Username: "admin", Password: "admin"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, strings.HasPrefix(cookie.Value, auth.TokenPrefix))
	assert.True(t, cookie.HttpOnly)

	// Cookie
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"admin":"admin"`)

	// Bearer
	rec, _ = ts.do(t, http.MethodGet, "/api/admin/invites", nil, cookie.Value)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/admin/invites", nil, "admin_not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminInviteLifecycle(t *testing.T) {
	ts := setupTestServer(t, testConfig())
	token := ts.login(t)

	rec, env := ts.do(t, http.MethodPost, "/api/admin/invites", map[string]any{
		"name":     "Ravi",
		"events":   map[string]bool{"haldi": true, "wedding": true},
		"location": "houston",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var inv domain.Invite
	require.NoError(t, json.Unmarshal(env.Data, &inv))

	// Moving to Colorado clears Houston events and turns on the reception.
	rec, env = ts.do(t, http.MethodPut, "/api/admin/invites/"+inv.ID, map[string]any{"location": "colorado"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var edited domain.Invite
	require.NoError(t, json.Unmarshal(env.Data, &edited))
	assert.Equal(t, []domain.Event{domain.ColoradoReception}, edited.Events.Selected())

	rec, env = ts.do(t, http.MethodPut, "/api/admin/invites/"+inv.ID, map[string]any{"events": map[string]bool{"wedding": true}}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, env.Error)

	rec, env = ts.do(t, http.MethodGet, "/api/admin/invites?view=pending", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), inv.ID)

	rec, _ = ts.do(t, http.MethodGet, "/api/admin/invites?view=bogus", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodDelete, "/api/admin/invites/"+inv.ID, nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = ts.do(t, http.MethodDelete, "/api/admin/invites/"+inv.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invite not found", env.Error)
}

func TestAdminResponsesAndMail(t *testing.T) {
	ts := setupTestServer(t, testConfig())
	token := ts.login(t)
	ts.seed(t, &domain.Invite{ID: "inv", Name: "Asha", Events: domain.NewEventSet(domain.Wedding)})

	rec, env := ts.do(t, http.MethodPost, "/api/rsvp", submission("inv"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.Response
	require.NoError(t, json.Unmarshal(env.Data, &resp))

	rec, env = ts.do(t, http.MethodGet, "/api/admin/stats?event=wedding", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"guests":2`)

	rec, env = ts.do(t, http.MethodGet, "/api/admin/search?q=asha", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), resp.ID)

	rec, env = ts.do(t, http.MethodPost, "/api/admin/responses/send-welcome", map[string]string{}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Response ID is required", env.Error)

	rec, env = ts.do(t, http.MethodPost, "/api/admin/responses/send-welcome", map[string]string{"responseId": "nope"}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Response not found", env.Error)

	rec, env = ts.do(t, http.MethodPost, "/api/admin/responses/send-welcome", map[string]string{"responseId": resp.ID}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome email sent successfully", env.Message)

	rec, env = ts.do(t, http.MethodPost, "/api/admin/responses/send-welcome", map[string]string{"responseId": resp.ID}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Welcome email has already been sent to this recipient", env.Error)

	rec, env = ts.do(t, http.MethodPost, "/api/admin/responses/send-confirmation", map[string]string{"responseId": resp.ID}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RSVP confirmation email sent successfully", env.Message)
	assert.Len(t, ts.sender.sent, 2)

	rec, _ = ts.do(t, http.MethodPut, "/api/admin/responses/"+resp.ID, map[string]any{"additional_guests": 3}, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodDelete, "/api/admin/responses/"+resp.ID, nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportCSV(t *testing.T) {
	ts := setupTestServer(t, testConfig())
	token := ts.login(t)
	ts.seed(t, &domain.Invite{ID: "inv", Name: "Asha", Events: domain.NewEventSet(domain.Wedding)})
	rec, _ := ts.do(t, http.MethodPost, "/api/rsvp", submission("inv"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/admin/responses/export.csv", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(rec.Body.String(), "\ufeff")), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Name,Email,Phone,Invite ID"))
	assert.Contains(t, lines[1], "Asha,asha@x.com,+16502530000,inv,1,2")
}

func TestCalendar(t *testing.T) {
	ts := setupTestServer(t, testConfig())
	ts.seed(t, &domain.Invite{ID: "inv", Name: "Asha", Events: domain.NewEventSet(domain.Haldi, domain.Wedding)})

	rec, _ := ts.do(t, http.MethodGet, "/api/invites/inv/calendar.ics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR\r\n"))
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "UID:inv-haldi@wedding-rsvp")
	assert.Contains(t, body, `Houston\, TX`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	ts := setupTestServer(t, cfg)

	rec, _ := ts.do(t, http.MethodPost, "/api/rsvp", submission("missing"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := ts.do(t, http.MethodPost, "/api/rsvp", submission("missing"), "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests. Please try again later.", env.Error)

	// Reads are not throttled.
	rec, _ = ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	guess := func(ts *testServer, forwarded string) int {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(loginRequest{Username: "admin", Password: "guess"}))
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		return rec.Code
	}

	tests := []struct {
		name       string
		trustProxy bool
		want       map[int]int
	}{
		{"direct clients share one bucket", false, map[int]int{http.StatusUnauthorized: 1, http.StatusTooManyRequests: 19}},
		{"trusted proxy keys on the forwarded address", true, map[int]int{http.StatusUnauthorized: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RateLimitRPS = 0.001
			cfg.RateLimitBurst = 1
			cfg.TrustProxy = tt.trustProxy
			ts := setupTestServer(t, cfg)

			counts := map[int]int{}
			for i := range 20 {
				counts[guess(ts, fmt.Sprintf("10.0.0.%d", i+1))]++
			}
			assert.Equal(t, tt.want, counts)
		})
	}
}

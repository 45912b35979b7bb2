package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "STORAGE_URL", "ADMIN_USERNAME", "SMTP_HOST", "SMTP_PORT", "RSVP_DEADLINE", "ADMIN_EMAILS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "badger://./data/rsvp", cfg.StorageURL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.RSVPDeadline.IsZero())
	assert.Nil(t, cfg.AdminEmails)
	assert.False(t, cfg.MailEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " a@x.com, b@x.com ,")
	t.Setenv("RSVP_DEADLINE", "2025-02-15T23:59:59-06:00")
	t.Setenv("BASE_URL", "https://rsvp.example.com/")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, cfg.AdminEmails)
	assert.Equal(t, "https://rsvp.example.com", cfg.BaseURL)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.True(t, cfg.RSVPDeadline.Equal(time.Date(2025, 2, 16, 5, 59, 59, 0, time.UTC)))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SMTP_PORT":        "smtp",
		"RSVP_DEADLINE":    "next week",
		"RATE_LIMIT_BURST": "lots",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestProductionRequiresSecrets(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "default jwt secret",
			env:     map[string]string{"JWT_SECRET": "", "SESSION_SECRET": "sess", "ADMIN_PASSWORD": "pw"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "default session secret",
			env:     map[string]string{"JWT_SECRET": "jwt", "SESSION_SECRET": "", "ADMIN_PASSWORD": "pw"},
			wantErr: "SESSION_SECRET",
		},
		{
			name:    "default admin password",
			env:     map[string]string{"JWT_SECRET": "jwt", "SESSION_SECRET": "sess", "ADMIN_PASSWORD": "", "ADMIN_PASSWORD_HASH": ""},
			wantErr: "ADMIN_PASSWORD",
		},
		{
			name: "hash replaces default password",
			env:  map[string]string{"JWT_SECRET": "jwt", "SESSION_SECRET": "sess", "ADMIN_PASSWORD": "", "ADMIN_PASSWORD_HASH": "$2a$10$hash"},
		},
		{
			name: "all set",
			env:  map[string]string{"JWT_SECRET": "jwt", "SESSION_SECRET": "sess", "ADMIN_PASSWORD": "pw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", "production")
			t.Setenv("ADMIN_PASSWORD_HASH", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, cfg.IsProduction())
		})
	}
}

func TestTrustProxy(t *testing.T) {
	t.Setenv("TRUST_PROXY", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.TrustProxy)

	t.Setenv("TRUST_PROXY", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxy)

	t.Setenv("TRUST_PROXY", "maybe")
	_, err = Load()
	assert.Error(t, err)
}

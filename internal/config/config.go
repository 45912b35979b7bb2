package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSecret        = "change-me-in-production"
	defaultAdminPassword = "admin"
)

type Config struct {
	// App
	Environment string
	LogLevel    string
	Port        string
	BaseURL     string
	CORSOrigins []string

	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that sets those headers.
	TrustProxy bool

	// Storage, e.g. badger://./data/rsvp or postgres://...
	StorageURL       string
	DynamoDBEndpoint string
	AWSRegion        string

	// Admin login
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AdminEmails        []string

	// Session
	SessionSecret string

	// RSVP
	RSVPDeadline   time.Time
	RateLimitRPS   float64
	RateLimitBurst int

	// Mail
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	EmailFrom     string
	EmailFromName string

	// Backups
	BackupBucket    string
	BackupEndpoint  string
	BackupRegion    string
	BackupAccessKey string
	BackupSecretKey string
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// GoogleLoginEnabled reports whether the Google admin login is configured.
func (c *Config) GoogleLoginEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment:        getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnv("PORT", "8080"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "")),
		StorageURL:         getEnv("STORAGE_URL", "badger://./data/rsvp"),
		DynamoDBEndpoint:   getEnv("DYNAMODB_ENDPOINT", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", defaultAdminPassword),
		AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:          getEnv("JWT_SECRET", defaultSecret),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		AdminEmails:        splitList(getEnv("ADMIN_EMAILS", "")),
		SessionSecret:      getEnv("SESSION_SECRET", defaultSecret),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		EmailFrom:          getEnv("EMAIL_FROM", "wedding@example.com"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Wedding RSVP"),
		BackupBucket:       getEnv("BACKUP_BUCKET", ""),
		BackupEndpoint:     getEnv("BACKUP_ENDPOINT", ""),
		BackupRegion:       getEnv("BACKUP_REGION", "auto"),
		BackupAccessKey:    getEnv("BACKUP_ACCESS_KEY", ""),
		BackupSecretKey:    getEnv("BACKUP_SECRET_KEY", ""),
	}

	var err error
	if cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	if cfg.TrustProxy, err = strconv.ParseBool(getEnv("TRUST_PROXY", "false")); err != nil {
		return nil, fmt.Errorf("invalid TRUST_PROXY: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "1"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	// An unset deadline means submissions are always accepted.
	if deadlineStr := getEnv("RSVP_DEADLINE", ""); deadlineStr != "" {
		deadline, err := time.Parse(time.RFC3339, deadlineStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RSVP_DEADLINE format: %w", err)
		}
		cfg.RSVPDeadline = deadline
	}

	if cfg.IsProduction() {
		if err := cfg.checkProductionSecrets(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// checkProductionSecrets rejects the development defaults that would let
// anyone sign tokens, forge sessions or log in as admin.
func (c *Config) checkProductionSecrets() error {
	if c.JWTSecret == defaultSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.SessionSecret == defaultSecret {
		return errors.New("SESSION_SECRET must be set in production")
	}
	if c.AdminPasswordHash == "" && c.AdminPassword == defaultAdminPassword {
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

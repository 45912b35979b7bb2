package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlexTLDR/wedding-rsvp/internal/app"
	"github.com/AlexTLDR/wedding-rsvp/internal/config"
	"github.com/AlexTLDR/wedding-rsvp/internal/logger"
	"github.com/AlexTLDR/wedding-rsvp/internal/notify"
	"github.com/AlexTLDR/wedding-rsvp/internal/server"
)

func main() {
	// Load .env file (ignore error if a file doesn't exist)
	// Use Overload to force to overwrite any existing environment variables
	if err := godotenv.Overload(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(logger.Config{
		Environment: cfg.Environment,
		Level:       logger.ParseLevel(cfg.LogLevel),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.StorageURL, l, app.WithAWS(cfg.AWSRegion, cfg.DynamoDBEndpoint))
	if err != nil {
		l.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Error("failed to close storage", "error", err)
		}
	}()

	var sender notify.Sender = notify.Disabled{}
	if cfg.MailEnabled() {
		mailer, err := notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		})
		if err != nil {
			l.Error("failed to configure mailer", "error", err)
			os.Exit(1)
		}
		sender = mailer
	} else {
		l.Warn("SMTP_HOST not set, e-mail delivery disabled")
	}
	notifier := notify.NewService(store, sender, cfg.BaseURL, l)

	srv := server.New(cfg, store, notifier, l)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			l.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		l.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("graceful shutdown failed", "error", err)
	}
}

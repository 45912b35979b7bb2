// Command rsvpctl runs maintenance tasks against the RSVP store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AlexTLDR/wedding-rsvp/internal/app"
	"github.com/AlexTLDR/wedding-rsvp/internal/config"
	"github.com/AlexTLDR/wedding-rsvp/internal/logger"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

type cli struct {
	cfg        *config.Config
	logger     *slog.Logger
	storageURL string
	logLevel   string
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "rsvpctl",
		Short:         "Maintenance tasks for the wedding RSVP store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			if c.storageURL == "" {
				c.storageURL = cfg.StorageURL
			}
			level := c.logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			c.logger = logger.New(logger.Config{
				Writer: cmd.ErrOrStderr(),
				Format: logger.FormatText,
				Level:  logger.ParseLevel(level),
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.storageURL, "storage", "", "storage URL (defaults to STORAGE_URL)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")

	root.AddCommand(
		c.migrateCmd(),
		c.normalizePhonesCmd(),
		c.repairTemplatesCmd(),
		c.backupCmd(),
		c.hashPasswordCmd(),
	)
	return root
}

// open connects to dsn with the AWS settings from the environment.
func (c *cli) open(ctx context.Context, dsn string) (storage.Store, error) {
	store, err := app.OpenStore(ctx, dsn, c.logger, app.WithAWS(c.cfg.AWSRegion, c.cfg.DynamoDBEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dsn, err)
	}
	return store, nil
}

func closeStore(store storage.Store, l *slog.Logger) {
	if err := store.Close(); err != nil {
		l.Error("failed to close store", "error", err)
	}
}

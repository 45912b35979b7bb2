// Package app wires configuration into concrete services shared by the
// server and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AlexTLDR/wedding-rsvp/internal/database"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage/kv"
)

// Backend names a storage implementation selected by DSN scheme.
type Backend string

const (
	BackendBadger   Backend = "badger"
	BackendSQLite   Backend = "sqlite3"
	BackendPostgres Backend = "postgres"
	BackendDynamoDB Backend = "dynamodb"
)

var ErrUnsupportedDSN = errors.New("unsupported storage url")

// Target is a parsed storage URL.
type Target struct {
	Backend Backend
	// Location is the directory, file, connection string or table name.
	Location string
}

// ParseDSN splits a storage URL into backend and location. Postgres URLs
// are kept whole since the driver parses them itself.
func ParseDSN(dsn string) (Target, error) {
	dsn = strings.TrimSpace(dsn)
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}

	switch strings.ToLower(scheme) {
	case "badger":
		return Target{Backend: BackendBadger, Location: rest}, nil
	case "sqlite", "sqlite3":
		if rest == "" {
			return Target{}, fmt.Errorf("%w: sqlite needs a file path", ErrUnsupportedDSN)
		}
		return Target{Backend: BackendSQLite, Location: rest}, nil
	case "postgres", "postgresql":
		return Target{Backend: BackendPostgres, Location: dsn}, nil
	case "dynamodb":
		if rest == "" {
			return Target{}, fmt.Errorf("%w: dynamodb needs a table name", ErrUnsupportedDSN)
		}
		return Target{Backend: BackendDynamoDB, Location: rest}, nil
	default:
		return Target{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedDSN, scheme)
	}
}

type storeOptions struct {
	awsRegion      string
	dynamoEndpoint string
}

// StoreOption tunes OpenStore.
type StoreOption func(*storeOptions)

// WithAWS sets the region and optional endpoint override for DynamoDB.
func WithAWS(region, endpoint string) StoreOption {
	return func(o *storeOptions) {
		o.awsRegion = region
		o.dynamoEndpoint = endpoint
	}
}

// OpenStore opens the store named by dsn. Relational stores are migrated
// before they are returned.
func OpenStore(ctx context.Context, dsn string, logger *slog.Logger, opts ...StoreOption) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}

	target, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	switch target.Backend {
	case BackendBadger:
		db, err := kv.OpenBadger(target.Location, logger)
		if err != nil {
			return nil, err
		}
		return kv.New(db, logger), nil

	case BackendSQLite, BackendPostgres:
		db, err := database.New(string(target.Backend), target.Location, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil

	case BackendDynamoDB:
		d, err := kv.OpenDynamo(ctx, target.Location, o.awsRegion, o.dynamoEndpoint)
		if err != nil {
			return nil, err
		}
		logger.Info("dynamodb store opened", "table", target.Location)
		return kv.New(d, logger), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
}

// Package migrate copies invites and responses between storage backends.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

// Stats summarizes a copy.
type Stats struct {
	Invites   int `json:"invites"`
	Responses int `json:"responses"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

func (s Stats) String() string {
	return fmt.Sprintf("invites=%d responses=%d skipped=%d errors=%d", s.Invites, s.Responses, s.Skipped, s.Errors)
}

// Copy writes every invite and then every response from src into dst.
// Records whose id already exists in dst are skipped, as are responses
// whose invite is missing from dst. Failures on single records are logged
// and counted; only listing failures abort the copy.
func Copy(ctx context.Context, src, dst storage.Store, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats Stats

	invites, err := src.ListInvites(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list source invites: %w", err)
	}
	responses, err := src.ListResponses(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list source responses: %w", err)
	}
	logger.Info("migration started", "invites", len(invites), "responses", len(responses))

	// Templates go first so children never reference a template that is
	// not there yet.
	slices.SortStableFunc(invites, func(a, b *domain.Invite) int {
		switch {
		case a.IsTemplate == b.IsTemplate:
			return a.CreatedAt.Compare(b.CreatedAt)
		case a.IsTemplate:
			return -1
		default:
			return 1
		}
	})

	for _, inv := range invites {
		err := dst.CreateInvite(ctx, inv.Detached())
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			logger.Debug("invite exists, skipping", "invite_id", inv.ID)
			stats.Skipped++
		case err != nil:
			logger.Error("failed to copy invite", "invite_id", inv.ID, "error", err)
			stats.Errors++
		default:
			stats.Invites++
		}
	}

	for _, resp := range responses {
		if _, err := dst.GetInvite(ctx, resp.InviteID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logger.Warn("response invite missing, skipping", "response_id", resp.ID, "invite_id", resp.InviteID)
				stats.Skipped++
			} else {
				logger.Error("failed to check response invite", "response_id", resp.ID, "error", err)
				stats.Errors++
			}
			continue
		}

		err := dst.CreateResponse(ctx, resp)
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			logger.Debug("response exists, skipping", "response_id", resp.ID)
			stats.Skipped++
		case err != nil:
			logger.Error("failed to copy response", "response_id", resp.ID, "error", err)
			stats.Errors++
		default:
			stats.Responses++
		}
	}

	logger.Info("migration finished",
		"invites", stats.Invites,
		"responses", stats.Responses,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
	)
	return stats, nil
}

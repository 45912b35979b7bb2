package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
	"github.com/AlexTLDR/wedding-rsvp/internal/utils"
	"github.com/AlexTLDR/wedding-rsvp/internal/validation"
)

// PhoneStats summarizes a phone normalization pass.
type PhoneStats struct {
	Total     int `json:"total"`
	Updated   int `json:"updated"`
	Invalid   int `json:"invalid"`
	Failed    int `json:"failed"`
	Unchanged int `json:"unchanged"`
}

func (s PhoneStats) String() string {
	return fmt.Sprintf("total=%d updated=%d invalid=%d failed=%d unchanged=%d",
		s.Total, s.Updated, s.Invalid, s.Failed, s.Unchanged)
}

// NormalizePhones rewrites every stored phone to its digits-only form.
// Numbers that do not parse as a valid phone number are counted as invalid
// but still normalized. With dryRun set nothing is written. Timestamps are
// left untouched.
func NormalizePhones(ctx context.Context, store storage.Store, dryRun bool, logger *slog.Logger) (PhoneStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats PhoneStats

	invites, err := store.ListInvites(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list invites: %w", err)
	}
	responses, err := store.ListResponses(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list responses: %w", err)
	}

	check := func(kind, id, phone string) (string, bool) {
		if phone == "" {
			return "", false
		}
		stats.Total++
		if _, err := utils.NormalizePhoneNumber(phone, utils.DefaultRegion); err != nil {
			logger.Warn("phone is not a valid number", "kind", kind, "id", id, "phone", phone)
			stats.Invalid++
		}
		normalized := validation.NormalizePhone(phone)
		if normalized == phone {
			stats.Unchanged++
			return "", false
		}
		return normalized, true
	}

	for _, inv := range invites {
		normalized, changed := check("invite", inv.ID, inv.Phone)
		if !changed {
			continue
		}
		logger.Info("normalizing invite phone", "invite_id", inv.ID, "from", inv.Phone, "to", normalized)
		if dryRun {
			stats.Updated++
			continue
		}
		updated := inv.Detached()
		updated.Phone = normalized
		if err := store.UpdateInvite(ctx, updated); err != nil {
			logger.Error("failed to update invite phone", "invite_id", inv.ID, "error", err)
			stats.Failed++
			continue
		}
		stats.Updated++
	}

	for _, resp := range responses {
		normalized, changed := check("response", resp.ID, resp.Phone)
		if !changed {
			continue
		}
		logger.Info("normalizing response phone", "response_id", resp.ID, "from", resp.Phone, "to", normalized)
		if dryRun {
			stats.Updated++
			continue
		}
		updated := *resp
		updated.Phone = normalized
		if err := store.UpdateResponse(ctx, &updated); err != nil {
			logger.Error("failed to update response phone", "response_id", resp.ID, "error", err)
			stats.Failed++
			continue
		}
		stats.Updated++
	}

	return stats, nil
}

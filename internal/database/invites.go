package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

const selectInvites = `SELECT ` + inviteColumns + `, ` + responseColumns + `
	FROM invites i
	LEFT JOIN responses r ON r.invite_id = i.id`

// GetInvite retrieves an invite with its response attached
func (db *DB) GetInvite(ctx context.Context, id string) (*domain.Invite, error) {
	inv, err := scanInviteWithResponse(db.QueryRowContext(ctx, selectInvites+` WHERE i.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("invite", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// CreateInvite inserts a new invite
func (db *DB) CreateInvite(ctx context.Context, inv *domain.Invite) error {
	return insertInvite(ctx, db, inv)
}

func insertInvite(ctx context.Context, q querier, inv *domain.Invite) error {
	taken, err := exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM invites WHERE id = $1)`, inv.ID)
	if err != nil {
		return err
	}
	if taken {
		return storage.AlreadyExists("invite", inv.ID)
	}

	events, err := encodeEvents(inv.Events)
	if err != nil {
		return err
	}
	responses, err := encodeIDs(inv.Responses)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO invites (id, name, email, phone, events, is_template, template_name, location,
			template_invite_id, responses, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		inv.ID, inv.Name, inv.Email, inv.Phone, events, inv.IsTemplate, inv.TemplateName, string(inv.Location),
		nullString(inv.TemplateInviteID), responses, inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

// UpdateInvite rewrites every mutable column of an invite
func (db *DB) UpdateInvite(ctx context.Context, inv *domain.Invite) error {
	return updateInvite(ctx, db, inv)
}

func updateInvite(ctx context.Context, q querier, inv *domain.Invite) error {
	events, err := encodeEvents(inv.Events)
	if err != nil {
		return err
	}
	responses, err := encodeIDs(inv.Responses)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx,
		`UPDATE invites SET name = $1, email = $2, phone = $3, events = $4, is_template = $5,
			template_name = $6, location = $7, template_invite_id = $8, responses = $9, updated_at = $10
		 WHERE id = $11`,
		inv.Name, inv.Email, inv.Phone, events, inv.IsTemplate,
		inv.TemplateName, string(inv.Location), nullString(inv.TemplateInviteID), responses, inv.UpdatedAt.UTC(),
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.NotFound("invite", inv.ID)
	}
	return nil
}

// DeleteInvite deletes an invite and its response
func (db *DB) DeleteInvite(ctx context.Context, id string) error {
	return db.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM responses WHERE invite_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete responses: %w", err)
		}

		res, err := q.ExecContext(ctx, `DELETE FROM invites WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete invite: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return storage.NotFound("invite", id)
		}
		return nil
	})
}

// ListInvites retrieves all invites with responses, newest first
func (db *DB) ListInvites(ctx context.Context) ([]*domain.Invite, error) {
	return db.queryInvites(ctx, selectInvites+` ORDER BY i.created_at DESC`)
}

// ListChildInvites retrieves the invites spawned from a template, oldest first
func (db *DB) ListChildInvites(ctx context.Context, templateID string) ([]*domain.Invite, error) {
	return db.queryInvites(ctx, selectInvites+` WHERE i.template_invite_id = $1 ORDER BY i.created_at ASC`, templateID)
}

func (db *DB) queryInvites(ctx context.Context, query string, args ...any) ([]*domain.Invite, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get invites: %w", err)
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		inv, err := scanInviteWithResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invites: %w", err)
	}
	return invites, nil
}

// SaveTemplateResponse stores the child invite and its response and updates
// the template in a single transaction
func (db *DB) SaveTemplateResponse(ctx context.Context, template, child *domain.Invite, resp *domain.Response) error {
	return db.withTx(ctx, func(q querier) error {
		if err := insertInvite(ctx, q, child); err != nil {
			return err
		}
		if err := insertResponse(ctx, q, resp); err != nil {
			return err
		}
		return updateInvite(ctx, q, template)
	})
}

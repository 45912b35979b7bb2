package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

const selectResponses = `SELECT ` + responseColumns + ` FROM responses r`

// GetResponse retrieves a response by ID
func (db *DB) GetResponse(ctx context.Context, id string) (*domain.Response, error) {
	resp, err := scanResponse(db.QueryRowContext(ctx, selectResponses+` WHERE r.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("response", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return resp, nil
}

// GetResponseByInvite retrieves the response linked to an invite
func (db *DB) GetResponseByInvite(ctx context.Context, inviteID string) (*domain.Response, error) {
	resp, err := scanResponse(db.QueryRowContext(ctx, selectResponses+` WHERE r.invite_id = $1`, inviteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("response for invite", inviteID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return resp, nil
}

// CreateResponse inserts a response; an invite holds at most one
func (db *DB) CreateResponse(ctx context.Context, resp *domain.Response) error {
	return insertResponse(ctx, db, resp)
}

func insertResponse(ctx context.Context, q querier, resp *domain.Response) error {
	taken, err := exists(ctx, q,
		`SELECT EXISTS(SELECT 1 FROM responses WHERE id = $1 OR invite_id = $2)`, resp.ID, resp.InviteID)
	if err != nil {
		return err
	}
	if taken {
		return storage.AlreadyExists("response", resp.ID)
	}

	events, err := encodeEvents(resp.Events)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO responses (id, invite_id, name, email, phone, additional_guests, events,
			welcome_email_sent, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		resp.ID, resp.InviteID, resp.Name, resp.Email, resp.Phone, resp.AdditionalGuests, events,
		resp.WelcomeEmailSent, resp.CreatedAt.UTC(), resp.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}
	return nil
}

// UpdateResponse rewrites the mutable columns of a response
func (db *DB) UpdateResponse(ctx context.Context, resp *domain.Response) error {
	events, err := encodeEvents(resp.Events)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE responses SET name = $1, email = $2, phone = $3, additional_guests = $4, events = $5,
			welcome_email_sent = $6, updated_at = $7
		 WHERE id = $8`,
		resp.Name, resp.Email, resp.Phone, resp.AdditionalGuests, events,
		resp.WelcomeEmailSent, resp.UpdatedAt.UTC(), resp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.NotFound("response", resp.ID)
	}
	return nil
}

// MarkWelcomeSent sets welcome_email_sent without touching other columns
func (db *DB) MarkWelcomeSent(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `UPDATE responses SET welcome_email_sent = $1 WHERE id = $2`, true, id)
	if err != nil {
		return fmt.Errorf("failed to mark welcome email sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.NotFound("response", id)
	}
	return nil
}

// DeleteResponse deletes a response by ID
func (db *DB) DeleteResponse(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM responses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.NotFound("response", id)
	}
	return nil
}

// ListResponses retrieves all responses, newest first
func (db *DB) ListResponses(ctx context.Context) ([]*domain.Response, error) {
	rows, err := db.QueryContext(ctx, selectResponses+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	defer rows.Close()

	var responses []*domain.Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}
	return responses, nil
}

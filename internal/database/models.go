package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const inviteColumns = `i.id, i.name, i.email, i.phone, i.events, i.is_template, i.template_name,
	i.location, i.template_invite_id, i.responses, i.created_at, i.updated_at`

const responseColumns = `r.id, r.invite_id, r.name, r.email, r.phone, r.additional_guests,
	r.events, r.welcome_email_sent, r.created_at, r.updated_at`

// inviteRow mirrors an invites row joined with its optional response.
type inviteRow struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	Events           string
	IsTemplate       bool
	TemplateName     string
	Location         string
	TemplateInviteID sql.NullString
	Responses        string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	RespID               sql.NullString
	RespInviteID         sql.NullString
	RespName             sql.NullString
	RespEmail            sql.NullString
	RespPhone            sql.NullString
	RespAdditionalGuests sql.NullInt64
	RespEvents           sql.NullString
	RespWelcomeSent      sql.NullBool
	RespCreatedAt        sql.NullTime
	RespUpdatedAt        sql.NullTime
}

func scanInviteWithResponse(row rowScanner) (*domain.Invite, error) {
	var r inviteRow
	err := row.Scan(
		&r.ID, &r.Name, &r.Email, &r.Phone, &r.Events, &r.IsTemplate, &r.TemplateName,
		&r.Location, &r.TemplateInviteID, &r.Responses, &r.CreatedAt, &r.UpdatedAt,
		&r.RespID, &r.RespInviteID, &r.RespName, &r.RespEmail, &r.RespPhone, &r.RespAdditionalGuests,
		&r.RespEvents, &r.RespWelcomeSent, &r.RespCreatedAt, &r.RespUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv := &domain.Invite{
		ID:               r.ID,
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		IsTemplate:       r.IsTemplate,
		TemplateName:     r.TemplateName,
		Location:         domain.Location(r.Location),
		TemplateInviteID: r.TemplateInviteID.String,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Events), &inv.Events); err != nil {
		return nil, fmt.Errorf("failed to decode events of invite %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Responses), &inv.Responses); err != nil {
		return nil, fmt.Errorf("failed to decode responses of invite %s: %w", r.ID, err)
	}
	if len(inv.Responses) == 0 {
		inv.Responses = nil
	}

	if r.RespID.Valid && !inv.IsTemplate {
		resp := &domain.Response{
			ID:               r.RespID.String,
			InviteID:         r.RespInviteID.String,
			Name:             r.RespName.String,
			Email:            r.RespEmail.String,
			Phone:            r.RespPhone.String,
			AdditionalGuests: int(r.RespAdditionalGuests.Int64),
			WelcomeEmailSent: r.RespWelcomeSent.Bool,
			CreatedAt:        r.RespCreatedAt.Time.UTC(),
			UpdatedAt:        r.RespUpdatedAt.Time.UTC(),
		}
		if err := json.Unmarshal([]byte(r.RespEvents.String), &resp.Events); err != nil {
			return nil, fmt.Errorf("failed to decode events of response %s: %w", resp.ID, err)
		}
		inv.Response = resp
	}

	return inv, nil
}

func scanResponse(row rowScanner) (*domain.Response, error) {
	resp := &domain.Response{}
	var events string
	err := row.Scan(&resp.ID, &resp.InviteID, &resp.Name, &resp.Email, &resp.Phone, &resp.AdditionalGuests,
		&events, &resp.WelcomeEmailSent, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(events), &resp.Events); err != nil {
		return nil, fmt.Errorf("failed to decode events of response %s: %w", resp.ID, err)
	}
	resp.CreatedAt = resp.CreatedAt.UTC()
	resp.UpdatedAt = resp.UpdatedAt.UTC()
	return resp, nil
}

func encodeEvents(s domain.EventSet) (string, error) {
	if s == nil {
		s = domain.EventSet{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode events: %w", err)
	}
	return string(b), nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode ids: %w", err)
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

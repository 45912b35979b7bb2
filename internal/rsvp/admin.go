package rsvp

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
	"github.com/AlexTLDR/wedding-rsvp/internal/validation"
)

// Admin holds the operations behind the admin API.
type Admin struct {
	settings
	store  storage.Store
	logger *slog.Logger
}

func NewAdmin(store storage.Store, logger *slog.Logger, opts ...Option) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Admin{settings: defaultSettings(), store: store, logger: logger}
	for _, opt := range opts {
		opt(&a.settings)
	}
	return a
}

// InviteDraft is the admin input for a new invite.
type InviteDraft struct {
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Events       domain.EventSet `json:"events"`
	IsTemplate   bool            `json:"is_template"`
	TemplateName string          `json:"template_name"`
	Location     domain.Location `json:"location"`
}

// ResponseEdit is a partial admin update of a response.
type ResponseEdit struct {
	Name             *string         `json:"name,omitempty"`
	Email            *string         `json:"email,omitempty"`
	Phone            *string         `json:"phone,omitempty"`
	AdditionalGuests *int            `json:"additional_guests,omitempty"`
	Events           domain.EventSet `json:"events,omitempty"`
}

// CreateInvite stores a new invite or template.
func (a *Admin) CreateInvite(ctx context.Context, d InviteDraft) (*domain.Invite, error) {
	if err := validation.ValidateInviteEvents(d.Location, d.Events); err != nil {
		return nil, err
	}
	if d.IsTemplate && strings.TrimSpace(d.TemplateName) == "" {
		return nil, &validation.Error{Kind: validation.MissingField, Field: "template_name"}
	}

	inviteID, err := a.newInviteID()
	if err != nil {
		return nil, err
	}
	now := a.timestamp()

	inv := &domain.Invite{
		ID:           inviteID,
		Name:         strings.TrimSpace(d.Name),
		Email:        strings.TrimSpace(d.Email),
		Phone:        validation.NormalizePhone(d.Phone),
		Events:       d.Events.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
		IsTemplate:   d.IsTemplate,
		TemplateName: strings.TrimSpace(d.TemplateName),
		Location:     d.Location,
	}
	if inv.IsTemplate {
		inv.Responses = []string{}
	}

	if err := a.store.CreateInvite(ctx, inv); err != nil {
		return nil, err
	}
	a.logger.Info("invite created", "invite_id", inv.ID, "template", inv.IsTemplate)
	return inv, nil
}

// EditInvite applies a partial edit, cascading location changes into the
// event flags. Children of a template keep their own events.
func (a *Admin) EditInvite(ctx context.Context, id string, edit InviteEdit) (*domain.Invite, error) {
	inv, err := a.store.GetInvite(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := ApplyEdit(*inv, edit)
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = after(a.timestamp(), inv.UpdatedAt)

	if err := a.store.UpdateInvite(ctx, &updated); err != nil {
		return nil, err
	}
	updated.Response = inv.Response
	a.logger.Info("invite updated", "invite_id", id, "location", updated.Location)
	return &updated, nil
}

// DeleteInvite removes an invite and its own response. Template children
// and template response lists are not touched.
func (a *Admin) DeleteInvite(ctx context.Context, id string) error {
	if err := a.store.DeleteInvite(ctx, id); err != nil {
		return err
	}
	a.logger.Info("invite deleted", "invite_id", id)
	return nil
}

// UpdateResponse applies a partial edit to a response, re-checking contact
// fields, guest count and event eligibility against the owning invite.
func (a *Admin) UpdateResponse(ctx context.Context, id string, edit ResponseEdit) (*domain.Response, error) {
	resp, err := a.store.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *resp
	if edit.Name != nil {
		updated.Name = *edit.Name
	}
	if edit.Email != nil {
		updated.Email = *edit.Email
	}
	if edit.Phone != nil {
		updated.Phone = *edit.Phone
	}
	if edit.AdditionalGuests != nil {
		updated.AdditionalGuests = *edit.AdditionalGuests
	}
	updated.Events = resp.Events.Merge(edit.Events)

	phone, err := validation.ValidateContactFields(updated.Name, updated.Email, updated.Phone)
	if err != nil {
		return nil, err
	}
	updated.Name = strings.TrimSpace(updated.Name)
	updated.Email = strings.TrimSpace(updated.Email)
	updated.Phone = phone
	if err := validation.ValidateGuestCount(updated.AdditionalGuests); err != nil {
		return nil, err
	}

	inv, err := a.store.GetInvite(ctx, resp.InviteID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		a.logger.Warn("response without invite", "response_id", id, "invite_id", resp.InviteID)
	case err != nil:
		return nil, err
	default:
		if bad := validation.ValidateEventEligibility(updated.Events, inv.Events); len(bad) > 0 {
			return nil, validation.EventsNotAllowed(bad)
		}
	}

	updated.UpdatedAt = after(a.timestamp(), resp.UpdatedAt)
	if err := a.store.UpdateResponse(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteResponse removes a response.
func (a *Admin) DeleteResponse(ctx context.Context, id string) error {
	if err := a.store.DeleteResponse(ctx, id); err != nil {
		return err
	}
	a.logger.Info("response deleted", "response_id", id)
	return nil
}

// RebuildTemplateResponses rewrites a template's response list from the
// back-references of its children. It reports whether the list changed.
func (a *Admin) RebuildTemplateResponses(ctx context.Context, templateID string) (bool, error) {
	tmpl, err := a.store.GetInvite(ctx, templateID)
	if err != nil {
		return false, err
	}
	if !tmpl.IsTemplate {
		return false, storage.NotFound("template", templateID)
	}

	children, err := a.store.ListChildInvites(ctx, templateID)
	if err != nil {
		return false, err
	}
	ids := make([]string, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	if slices.Equal(ids, tmpl.Responses) {
		return false, nil
	}

	a.logger.Warn("template response list drifted",
		"template_id", templateID,
		"listed", len(tmpl.Responses),
		"children", len(ids),
	)
	tmpl.Responses = ids
	tmpl.UpdatedAt = after(a.timestamp(), tmpl.UpdatedAt)
	if err := a.store.UpdateInvite(ctx, tmpl); err != nil {
		return false, err
	}
	return true, nil
}

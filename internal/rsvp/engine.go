// Package rsvp turns guest submissions into stored responses and applies
// admin edits to invites.
package rsvp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
	"github.com/AlexTLDR/wedding-rsvp/internal/validation"
)

const (
	MsgSuccess        = "Thank you for your response! We look forward to celebrating with you."
	MsgInvalidInvite  = "Invalid invitation ID."
	MsgStorageFailure = "Something went wrong. Please try again later."
)

// Kind classifies a submission outcome for the transport layer.
type Kind string

const (
	KindOK         Kind = ""
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
)

// Submission is a guest's RSVP as received from the public form.
type Submission struct {
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	InviteID         string          `json:"inviteId"`
	AdditionalGuests int             `json:"additional_guests"`
	Events           domain.EventSet `json:"events"`
}

// Result is the outcome of Submit. Expected failures are reported here and
// never as Go errors.
type Result struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    *domain.Response `json:"data,omitempty"`
	Kind    Kind             `json:"-"`
}

// Engine reconciles submissions against stored invites.
type Engine struct {
	settings
	store  storage.Store
	logger *slog.Logger
}

func NewEngine(store storage.Store, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{settings: defaultSettings(), store: store, logger: logger}
	for _, opt := range opts {
		opt(&e.settings)
	}
	return e
}

// guest is a submission after validation.
type guest struct {
	name             string
	email            string
	phone            string
	additionalGuests int
	events           domain.EventSet
}

// Submit validates a submission, loads its invite and records the response.
// Template invites spawn a child invite per submission; other invites get
// their single response created or updated in place.
func (e *Engine) Submit(ctx context.Context, sub Submission) Result {
	phone, err := validation.ValidateSubmission(sub.Name, sub.Email, sub.Phone, sub.InviteID, sub.AdditionalGuests)
	if err != nil {
		return invalid(err)
	}
	inviteID := strings.TrimSpace(sub.InviteID)

	inv, err := e.store.GetInvite(ctx, inviteID)
	if errors.Is(err, storage.ErrNotFound) {
		return Result{Message: MsgInvalidInvite, Kind: KindNotFound}
	}
	if err != nil {
		return e.storageFailure("load invite", inviteID, err)
	}

	if bad := validation.ValidateEventEligibility(sub.Events, inv.Events); len(bad) > 0 {
		return invalid(validation.EventsNotAllowed(bad))
	}

	g := guest{
		name:             strings.TrimSpace(sub.Name),
		email:            strings.TrimSpace(sub.Email),
		phone:            phone,
		additionalGuests: sub.AdditionalGuests,
		events:           sub.Events.Clone(),
	}

	var resp *domain.Response
	if inv.IsTemplate {
		resp, err = e.submitTemplate(ctx, inv, g)
	} else {
		resp, err = e.submitInvite(ctx, inv, g)
	}
	if err != nil {
		branch := "invite"
		if inv.IsTemplate {
			branch = "template"
		}
		return e.storageFailure("record "+branch+" response", inviteID, err)
	}

	e.logger.Info("rsvp recorded",
		"invite_id", inviteID,
		"response_id", resp.ID,
		"template", inv.IsTemplate,
		"party_size", resp.PartySize(),
	)
	return Result{Success: true, Message: MsgSuccess, Data: resp}
}

func (e *Engine) submitTemplate(ctx context.Context, tmpl *domain.Invite, g guest) (*domain.Response, error) {
	childID, err := e.newInviteID()
	if err != nil {
		return nil, err
	}
	respID, err := e.newResponseID()
	if err != nil {
		return nil, err
	}
	now := e.timestamp()

	child := &domain.Invite{
		ID:               childID,
		Name:             g.name,
		Email:            g.email,
		Phone:            g.phone,
		Events:           tmpl.Events.Clone(),
		CreatedAt:        now,
		UpdatedAt:        now,
		Location:         tmpl.Location,
		TemplateInviteID: tmpl.ID,
	}
	resp := &domain.Response{
		ID:               respID,
		Name:             g.name,
		Email:            g.email,
		Phone:            g.phone,
		InviteID:         childID,
		AdditionalGuests: g.additionalGuests,
		Events:           g.events,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	updated := tmpl.Detached()
	updated.IsTemplate = true
	updated.Responses = append(updated.Responses, childID)
	updated.UpdatedAt = after(now, tmpl.UpdatedAt)

	if err := e.store.SaveTemplateResponse(ctx, updated, child, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (e *Engine) submitInvite(ctx context.Context, inv *domain.Invite, g guest) (*domain.Response, error) {
	now := e.timestamp()

	var resp *domain.Response
	if existing := inv.Response; existing != nil {
		cp := *existing
		resp = &cp
		resp.Name = g.name
		resp.Email = g.email
		resp.Phone = g.phone
		resp.AdditionalGuests = g.additionalGuests
		resp.Events = g.events
		resp.UpdatedAt = after(now, existing.UpdatedAt)
		if err := e.store.UpdateResponse(ctx, resp); err != nil {
			return nil, fmt.Errorf("update response: %w", err)
		}
	} else {
		respID, err := e.newResponseID()
		if err != nil {
			return nil, err
		}
		resp = &domain.Response{
			ID:               respID,
			Name:             g.name,
			Email:            g.email,
			Phone:            g.phone,
			InviteID:         inv.ID,
			AdditionalGuests: g.additionalGuests,
			Events:           g.events,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := e.store.CreateResponse(ctx, resp); err != nil {
			return nil, fmt.Errorf("create response: %w", err)
		}
	}

	updated := inv.Detached()
	updated.Name = g.name
	updated.Email = g.email
	updated.Phone = g.phone
	updated.UpdatedAt = after(now, inv.UpdatedAt)
	if err := e.store.UpdateInvite(ctx, updated); err != nil {
		return nil, fmt.Errorf("refresh invite contact: %w", err)
	}
	return resp, nil
}

func invalid(err error) Result {
	return Result{Message: err.Error(), Kind: KindValidation}
}

func (e *Engine) storageFailure(op, inviteID string, err error) Result {
	e.logger.Error("rsvp storage failure",
		"op", op,
		"invite_id", inviteID,
		"error", err,
	)
	return Result{Message: MsgStorageFailure, Kind: KindStorage}
}

// Package storage defines the persistence contract used by the RSVP core.
// Concrete adapters live in storage/kv (key-value) and database (relational).
package storage

import (
	"context"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
)

// Store persists invites and responses.
//
// GetInvite attaches the linked response of non-template invites.
// SaveTemplateResponse writes a template submission as one unit where the
// backend supports it; otherwise it writes the child invite, then the
// response, then the template, so the template is never updated unless
// the child and response already exist.
// MarkWelcomeSent sets only the welcome flag and leaves every other field,
// updated_at included, as currently stored.
type Store interface {
	GetInvite(ctx context.Context, id string) (*domain.Invite, error)
	CreateInvite(ctx context.Context, inv *domain.Invite) error
	UpdateInvite(ctx context.Context, inv *domain.Invite) error
	DeleteInvite(ctx context.Context, id string) error
	ListInvites(ctx context.Context) ([]*domain.Invite, error)
	ListChildInvites(ctx context.Context, templateID string) ([]*domain.Invite, error)

	GetResponse(ctx context.Context, id string) (*domain.Response, error)
	GetResponseByInvite(ctx context.Context, inviteID string) (*domain.Response, error)
	CreateResponse(ctx context.Context, resp *domain.Response) error
	UpdateResponse(ctx context.Context, resp *domain.Response) error
	MarkWelcomeSent(ctx context.Context, id string) error
	DeleteResponse(ctx context.Context, id string) error
	ListResponses(ctx context.Context) ([]*domain.Response, error)

	SaveTemplateResponse(ctx context.Context, template, child *domain.Invite, resp *domain.Response) error

	Close() error
}

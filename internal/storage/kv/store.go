package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

// Store implements storage.Store over a KV backend.
type Store struct {
	kv     KV
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New wraps a KV backend.
func New(backend KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: backend, logger: logger}
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return true, nil
}

// GetInvite loads an invite and attaches its response, if any.
func (s *Store) GetInvite(ctx context.Context, id string) (*domain.Invite, error) {
	inv, err := s.loadInvite(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.IsTemplate {
		return inv, nil
	}

	resp, err := s.GetResponseByInvite(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		inv.Response = resp
	}
	return inv, nil
}

func (s *Store) loadInvite(ctx context.Context, id string) (*domain.Invite, error) {
	var inv domain.Invite
	if err := s.get(ctx, inviteKey(id), &inv); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.NotFound("invite", id)
		}
		return nil, err
	}
	return &inv, nil
}

// CreateInvite stores a new invite and, for children, the back-reference index.
func (s *Store) CreateInvite(ctx context.Context, inv *domain.Invite) error {
	ok, err := s.exists(ctx, inviteKey(inv.ID))
	if err != nil {
		return err
	}
	if ok {
		return storage.AlreadyExists("invite", inv.ID)
	}
	return s.writeInvite(ctx, inv)
}

// UpdateInvite overwrites an existing invite.
func (s *Store) UpdateInvite(ctx context.Context, inv *domain.Invite) error {
	ok, err := s.exists(ctx, inviteKey(inv.ID))
	if err != nil {
		return err
	}
	if !ok {
		return storage.NotFound("invite", inv.ID)
	}
	return s.writeInvite(ctx, inv)
}

func (s *Store) writeInvite(ctx context.Context, inv *domain.Invite) error {
	if err := s.put(ctx, inviteKey(inv.ID), inv.Detached()); err != nil {
		return err
	}
	if inv.TemplateInviteID != "" {
		key := childInviteKey(inv.TemplateInviteID, inv.ID)
		if err := s.kv.Put(ctx, key, []byte(inv.ID)); err != nil {
			return fmt.Errorf("failed to index child invite: %w", err)
		}
	}
	return nil
}

// DeleteInvite removes an invite together with its own response. Children
// of a deleted template are left untouched.
func (s *Store) DeleteInvite(ctx context.Context, id string) error {
	inv, err := s.loadInvite(ctx, id)
	if err != nil {
		return err
	}

	resp, err := s.GetResponseByInvite(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return err
	default:
		if err := s.DeleteResponse(ctx, resp.ID); err != nil {
			return err
		}
	}

	if inv.TemplateInviteID != "" {
		if err := s.kv.Delete(ctx, childInviteKey(inv.TemplateInviteID, id)); err != nil {
			return fmt.Errorf("failed to remove child index: %w", err)
		}
	}
	if err := s.kv.Delete(ctx, inviteKey(id)); err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	return nil
}

// ListInvites returns every invite, newest first, with responses attached.
func (s *Store) ListInvites(ctx context.Context) ([]*domain.Invite, error) {
	keys, err := s.kv.List(ctx, invitePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	responses, err := s.ListResponses(ctx)
	if err != nil {
		return nil, err
	}
	byInvite := make(map[string]*domain.Response, len(responses))
	for _, r := range responses {
		byInvite[r.InviteID] = r
	}

	invites := make([]*domain.Invite, 0, len(keys))
	for _, key := range keys {
		var inv domain.Invite
		if err := s.get(ctx, key, &inv); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !inv.IsTemplate {
			inv.Response = byInvite[inv.ID]
		}
		invites = append(invites, &inv)
	}
	sort.SliceStable(invites, func(i, j int) bool {
		return invites[i].CreatedAt.After(invites[j].CreatedAt)
	})
	return invites, nil
}

// ListChildInvites returns the invites spawned from a template, oldest first.
func (s *Store) ListChildInvites(ctx context.Context, templateID string) ([]*domain.Invite, error) {
	prefix := childInvitesPrefix(templateID)
	keys, err := s.kv.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list child invites: %w", err)
	}

	children := make([]*domain.Invite, 0, len(keys))
	for _, key := range keys {
		child, err := s.GetInvite(ctx, strings.TrimPrefix(key, prefix))
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("dangling child index", "template_id", templateID, "key", key)
			continue
		}
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].CreatedAt.Before(children[j].CreatedAt)
	})
	return children, nil
}

// GetResponse loads a response by id.
func (s *Store) GetResponse(ctx context.Context, id string) (*domain.Response, error) {
	var resp domain.Response
	if err := s.get(ctx, responseKey(id), &resp); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.NotFound("response", id)
		}
		return nil, err
	}
	return &resp, nil
}

// GetResponseByInvite loads the response linked to an invite.
func (s *Store) GetResponseByInvite(ctx context.Context, inviteID string) (*domain.Response, error) {
	id, err := s.kv.Get(ctx, responseByInviteKey(inviteID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, storage.NotFound("response for invite", inviteID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read response index: %w", err)
	}
	return s.GetResponse(ctx, string(id))
}

// CreateResponse stores a new response. An invite holds at most one response.
func (s *Store) CreateResponse(ctx context.Context, resp *domain.Response) error {
	ok, err := s.exists(ctx, responseKey(resp.ID))
	if err != nil {
		return err
	}
	if ok {
		return storage.AlreadyExists("response", resp.ID)
	}
	ok, err = s.exists(ctx, responseByInviteKey(resp.InviteID))
	if err != nil {
		return err
	}
	if ok {
		return storage.AlreadyExists("response for invite", resp.InviteID)
	}
	return s.writeResponse(ctx, resp)
}

// UpdateResponse overwrites an existing response.
func (s *Store) UpdateResponse(ctx context.Context, resp *domain.Response) error {
	ok, err := s.exists(ctx, responseKey(resp.ID))
	if err != nil {
		return err
	}
	if !ok {
		return storage.NotFound("response", resp.ID)
	}
	return s.writeResponse(ctx, resp)
}

// MarkWelcomeSent re-reads the response and flips only its welcome flag.
func (s *Store) MarkWelcomeSent(ctx context.Context, id string) error {
	resp, err := s.GetResponse(ctx, id)
	if err != nil {
		return err
	}
	if resp.WelcomeEmailSent {
		return nil
	}
	resp.WelcomeEmailSent = true
	return s.put(ctx, responseKey(id), resp)
}

func (s *Store) writeResponse(ctx context.Context, resp *domain.Response) error {
	if err := s.put(ctx, responseKey(resp.ID), resp); err != nil {
		return err
	}
	if err := s.kv.Put(ctx, responseByInviteKey(resp.InviteID), []byte(resp.ID)); err != nil {
		return fmt.Errorf("failed to index response: %w", err)
	}
	return nil
}

// DeleteResponse removes a response and its invite index entry.
func (s *Store) DeleteResponse(ctx context.Context, id string) error {
	resp, err := s.GetResponse(ctx, id)
	if err != nil {
		return err
	}

	idx, err := s.kv.Get(ctx, responseByInviteKey(resp.InviteID))
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to read response index: %w", err)
	case string(idx) == id:
		if err := s.kv.Delete(ctx, responseByInviteKey(resp.InviteID)); err != nil {
			return fmt.Errorf("failed to remove response index: %w", err)
		}
	}

	if err := s.kv.Delete(ctx, responseKey(id)); err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}
	return nil
}

// ListResponses returns every response, newest first.
func (s *Store) ListResponses(ctx context.Context) ([]*domain.Response, error) {
	keys, err := s.kv.List(ctx, responsePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	responses := make([]*domain.Response, 0, len(keys))
	for _, key := range keys {
		var resp domain.Response
		if err := s.get(ctx, key, &resp); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		responses = append(responses, &resp)
	}
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].CreatedAt.After(responses[j].CreatedAt)
	})
	return responses, nil
}

// SaveTemplateResponse writes the child invite, then the response, then
// the template. A failure leaves earlier records in place.
func (s *Store) SaveTemplateResponse(ctx context.Context, template, child *domain.Invite, resp *domain.Response) error {
	if err := s.CreateInvite(ctx, child); err != nil {
		return fmt.Errorf("failed to store child invite: %w", err)
	}
	if err := s.CreateResponse(ctx, resp); err != nil {
		return fmt.Errorf("failed to store template response: %w", err)
	}
	if err := s.UpdateInvite(ctx, template); err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

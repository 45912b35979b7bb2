package rsvp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/logger"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
	"github.com/AlexTLDR/wedding-rsvp/internal/validation"
)

func TestAdminCreateInvite(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	admin := NewAdmin(s, logger.Discard(), testOptions()...)

	tests := []struct {
		name    string
		draft   InviteDraft
		errKind validation.Kind
	}{
		{
			name:  "individual",
			draft: InviteDraft{Name: "Ravi", Phone: "555-123-4567", Events: domain.NewEventSet(domain.Wedding)},
		},
		{
			name: "template",
			draft: InviteDraft{
				IsTemplate:   true,
				TemplateName: "College Friends",
				Location:     domain.Colorado,
				Events:       domain.NewEventSet(domain.ColoradoReception),
			},
		},
		{
			name:    "no events",
			draft:   InviteDraft{Name: "Ravi", Events: domain.EventSet{domain.Wedding: false}},
			errKind: validation.NoEvents,
		},
		{
			name:    "template without name",
			draft:   InviteDraft{IsTemplate: true, Events: domain.NewEventSet(domain.Wedding)},
			errKind: validation.MissingField,
		},
		{
			name:    "event outside location",
			draft:   InviteDraft{Location: domain.Colorado, Events: domain.NewEventSet(domain.Haldi)},
			errKind: validation.LocationEvents,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := admin.CreateInvite(ctx, tt.draft)
			if tt.errKind != "" {
				require.Error(t, err)
				assert.True(t, validation.IsKind(err, tt.errKind), "got %v", err)
				return
			}
			require.NoError(t, err)

			stored, err := s.GetInvite(ctx, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.draft.IsTemplate, stored.IsTemplate)
			assert.Equal(t, tt.draft.Events.Selected(), stored.Events.Selected())
			assert.Equal(t, validation.NormalizePhone(tt.draft.Phone), stored.Phone)
			assert.False(t, stored.CreatedAt.IsZero())
		})
	}

	invites, err := s.ListInvites(ctx)
	require.NoError(t, err)
	assert.Len(t, invites, 2)
}

func TestAdminEditInviteCascades(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	seedInvite(t, s, &domain.Invite{
		ID:       "H",
		Location: domain.Houston,
		Events:   domain.NewEventSet(domain.Haldi, domain.Wedding),
	})
	admin := NewAdmin(s, logger.Discard(), testOptions()...)

	inv, err := admin.EditInvite(ctx, "H", InviteEdit{Location: ptr(domain.Colorado)})
	require.NoError(t, err)
	assert.Equal(t, []domain.Event{domain.ColoradoReception}, inv.Events.Selected())
	assert.True(t, inv.UpdatedAt.After(inv.CreatedAt))

	stored, err := s.GetInvite(ctx, "H")
	require.NoError(t, err)
	assert.Equal(t, domain.Colorado, stored.Location)
	assert.Equal(t, []domain.Event{domain.ColoradoReception}, stored.Events.Selected())
	assert.False(t, stored.Events.Has(domain.Haldi))
}

func TestAdminEditInviteRejected(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	seedInvite(t, s, &domain.Invite{ID: "H", Location: domain.Houston, Events: domain.NewEventSet(domain.Wedding)})
	admin := NewAdmin(s, logger.Discard(), testOptions()...)

	_, err := admin.EditInvite(ctx, "H", InviteEdit{Events: domain.EventSet{domain.Wedding: false}})
	assert.True(t, validation.IsKind(err, validation.NoEvents))

	stored, err := s.GetInvite(ctx, "H")
	require.NoError(t, err)
	assert.True(t, stored.Events.Has(domain.Wedding))

	_, err = admin.EditInvite(ctx, "missing", InviteEdit{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAdminEditTemplateLeavesChildren(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	seedInvite(t, s, &domain.Invite{
		ID:           "T",
		IsTemplate:   true,
		TemplateName: "Family",
		Location:     domain.Houston,
		Events:       domain.NewEventSet(domain.Wedding),
	})
	engine := NewEngine(s, logger.Discard(), testOptions()...)
	res := engine.Submit(ctx, asha("T", domain.NewEventSet(domain.Wedding)))
	require.True(t, res.Success, res.Message)

	admin := NewAdmin(s, logger.Discard(), testOptions()...)
	_, err := admin.EditInvite(ctx, "T", InviteEdit{Location: ptr(domain.Colorado)})
	require.NoError(t, err)

	child, err := s.GetInvite(ctx, res.Data.InviteID)
	require.NoError(t, err)
	assert.Equal(t, domain.Houston, child.Location)
	assert.Equal(t, []domain.Event{domain.Wedding}, child.Events.Selected())

	tmpl, err := s.GetInvite(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, []string{res.Data.InviteID}, tmpl.Responses)
}

func TestAdminUpdateResponse(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	seedInvite(t, s, &domain.Invite{ID: "J", Events: domain.NewEventSet(domain.Wedding, domain.Reception)})
	engine := NewEngine(s, logger.Discard(), testOptions()...)
	res := engine.Submit(ctx, asha("J", domain.NewEventSet(domain.Wedding)))
	require.True(t, res.Success, res.Message)
	admin := NewAdmin(s, logger.Discard(), testOptions()...)

	updated, err := admin.UpdateResponse(ctx, res.Data.ID, ResponseEdit{
		AdditionalGuests: ptr(4),
		Events:           domain.EventSet{domain.Reception: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.AdditionalGuests)
	assert.Equal(t, []domain.Event{domain.Wedding, domain.Reception}, updated.Events.Selected())
	assert.True(t, updated.UpdatedAt.After(res.Data.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(res.Data.CreatedAt))

	tests := []struct {
		name    string
		edit    ResponseEdit
		errKind validation.Kind
	}{
		{"too many guests", ResponseEdit{AdditionalGuests: ptr(6)}, validation.OutOfRange},
		{"bad email", ResponseEdit{Email: ptr("nope")}, validation.InvalidEmail},
		{"blank name", ResponseEdit{Name: ptr("  ")}, validation.MissingField},
		{"uninvited event", ResponseEdit{Events: domain.NewEventSet(domain.Haldi)}, validation.EventNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := admin.UpdateResponse(ctx, res.Data.ID, tt.edit)
			require.Error(t, err)
			assert.True(t, validation.IsKind(err, tt.errKind), "got %v", err)
		})
	}

	stored, err := s.GetResponse(ctx, res.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.AdditionalGuests)

	_, err = admin.UpdateResponse(ctx, "rsp-missing", ResponseEdit{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAdminDelete(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	seedInvite(t, s, &domain.Invite{ID: "J", Events: domain.NewEventSet(domain.Wedding)})
	engine := NewEngine(s, logger.Discard(), testOptions()...)
	res := engine.Submit(ctx, asha("J", domain.NewEventSet(domain.Wedding)))
	require.True(t, res.Success)
	admin := NewAdmin(s, logger.Discard(), testOptions()...)

	require.NoError(t, admin.DeleteResponse(ctx, res.Data.ID))
	inv, err := s.GetInvite(ctx, "J")
	require.NoError(t, err)
	assert.Nil(t, inv.Response)

	require.NoError(t, admin.DeleteInvite(ctx, "J"))
	_, err = s.GetInvite(ctx, "J")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, admin.DeleteInvite(ctx, "J"), storage.ErrNotFound)
}

func TestRebuildRejectsNonTemplate(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	seedInvite(t, s, &domain.Invite{ID: "J", Events: domain.NewEventSet(domain.Wedding)})
	admin := NewAdmin(s, logger.Discard(), testOptions()...)

	_, err := admin.RebuildTemplateResponses(ctx, "J")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

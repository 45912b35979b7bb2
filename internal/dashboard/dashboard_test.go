package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
)

var base = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func invite(id string, age int) *domain.Invite {
	return &domain.Invite{
		ID:        id,
		Events:    domain.NewEventSet(domain.Wedding),
		CreatedAt: base.Add(time.Duration(age) * time.Hour),
	}
}

func fixture() []*domain.Invite {
	tmpl := invite("T", 1)
	tmpl.IsTemplate = true
	tmpl.TemplateName = "College Friends"
	tmpl.Responses = []string{"C1"}

	c1 := invite("C1", 2)
	c1.Name = "Asha Patel"
	c1.TemplateInviteID = "T"
	c1.Response = &domain.Response{ID: "rsp-1", InviteID: "C1"}

	// C2 was written but the template list append was lost.
	c2 := invite("C2", 3)
	c2.Name = "Ravi Shah"
	c2.TemplateInviteID = "T"
	c2.Response = &domain.Response{ID: "rsp-2", InviteID: "C2"}

	pending := invite("P", 4)
	pending.Name = "Meera"

	return []*domain.Invite{tmpl, c1, c2, pending}
}

func ids(invites []*domain.Invite) []string {
	out := make([]string, len(invites))
	for i, inv := range invites {
		out[i] = inv.ID
	}
	return out
}

func TestGroup(t *testing.T) {
	g := Group(fixture())

	assert.Equal(t, []string{"P", "C2", "C1", "T"}, ids(g.All))
	assert.Equal(t, []string{"T"}, ids(g.Templates))
	assert.Equal(t, []string{"P", "C2", "C1"}, ids(g.Individual))
	assert.Equal(t, []string{"P"}, ids(g.Pending))
	assert.Equal(t, []string{"C2", "C1"}, ids(g.Responded))

	assert.Equal(t, g.Pending, g.Select(ViewPending))
	assert.Equal(t, g.All, g.Select(ViewAll))
}

func TestGroupEmpty(t *testing.T) {
	g := Group(nil)
	assert.NotNil(t, g.Templates)
	assert.Empty(t, g.Pending)
}

func TestParseView(t *testing.T) {
	tests := []struct {
		in      string
		want    View
		wantErr bool
	}{
		{"", ViewAll, false},
		{"templates", ViewTemplates, false},
		{"responded", ViewResponded, false},
		{"archived", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseView(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplatesReportsDerivedCount(t *testing.T) {
	summaries := Templates(fixture())
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "T", s.Invite.ID)
	assert.Equal(t, 1, s.Listed)
	assert.Equal(t, 2, s.Derived)
	assert.True(t, s.Drifted())
}

func TestComputeStats(t *testing.T) {
	responses := []*domain.Response{
		{ID: "a", AdditionalGuests: 2, Events: domain.NewEventSet(domain.Wedding, domain.Reception)},
		{ID: "b", AdditionalGuests: 0, Events: domain.NewEventSet(domain.Wedding)},
		{ID: "c", AdditionalGuests: 1, Events: domain.EventSet{domain.Haldi: false}},
	}

	s := ComputeStats(responses)
	assert.Equal(t, 3, s.TotalResponses)
	assert.Equal(t, 6, s.TotalGuests)
	assert.Equal(t, EventStats{Responses: 2, Guests: 4}, s.Events[domain.Wedding])
	assert.Equal(t, EventStats{Responses: 1, Guests: 3}, s.Events[domain.Reception])
	assert.Equal(t, EventStats{}, s.Events[domain.Haldi])
	assert.Len(t, s.Events, len(domain.AllEvents))

	filtered := FilterByEvent(responses, domain.Wedding)
	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].ID)
	assert.Empty(t, FilterByEvent(responses, domain.Haldi))
}

func TestSearchGuests(t *testing.T) {
	ctx := context.Background()
	invites := fixture()
	invites[3].Phone = "(713) 555-0199"
	responses := []*domain.Response{
		{ID: "rsp-1", InviteID: "C1", Name: "Asha Patel", Email: "asha@example.com", Phone: "5551234567"},
	}

	tests := []struct {
		name string
		q    string
		want string
	}{
		{"full name", "ravi", "invite:C2"},
		{"name prefix", "ash", "response:rsp-1"},
		{"template name", "college", "invite:T"},
		{"phone digits", "713-555", "invite:P"},
		{"email", "asha@example.com", "response:rsp-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := SearchGuests(ctx, invites, responses, tt.q, 0)
			require.NoError(t, err)

			var found []string
			for _, h := range hits {
				found = append(found, string(h.Kind)+":"+h.ID)
			}
			assert.Contains(t, found, tt.want)
		})
	}

	hits, err := SearchGuests(ctx, invites, responses, "  ", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// Package dashboard derives the admin views from stored invites and
// responses. Everything here is read-only.
package dashboard

import (
	"fmt"
	"slices"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
)

// View selects one of the invite groupings shown to admins.
type View string

const (
	ViewAll        View = "all"
	ViewTemplates  View = "templates"
	ViewIndividual View = "individual"
	ViewPending    View = "pending"
	ViewResponded  View = "responded"
)

// ParseView maps a query value to a View. Empty means ViewAll.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewTemplates, ViewIndividual, ViewPending, ViewResponded:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Groups partitions invites for the admin tabs. Pending and Responded split
// Individual by whether a response is attached.
type Groups struct {
	All        []*domain.Invite `json:"all"`
	Templates  []*domain.Invite `json:"templates"`
	Individual []*domain.Invite `json:"individual"`
	Pending    []*domain.Invite `json:"pending"`
	Responded  []*domain.Invite `json:"responded"`
}

// Group sorts invites newest first and partitions them.
func Group(invites []*domain.Invite) Groups {
	sorted := slices.Clone(invites)
	slices.SortStableFunc(sorted, newestFirst)

	g := Groups{
		All:        sorted,
		Templates:  []*domain.Invite{},
		Individual: []*domain.Invite{},
		Pending:    []*domain.Invite{},
		Responded:  []*domain.Invite{},
	}
	for _, inv := range sorted {
		if inv.IsTemplate {
			g.Templates = append(g.Templates, inv)
			continue
		}
		g.Individual = append(g.Individual, inv)
		if inv.Response != nil {
			g.Responded = append(g.Responded, inv)
		} else {
			g.Pending = append(g.Pending, inv)
		}
	}
	return g
}

// Select returns the invites for one view.
func (g Groups) Select(v View) []*domain.Invite {
	switch v {
	case ViewTemplates:
		return g.Templates
	case ViewIndividual:
		return g.Individual
	case ViewPending:
		return g.Pending
	case ViewResponded:
		return g.Responded
	default:
		return g.All
	}
}

func newestFirst(a, b *domain.Invite) int {
	return b.CreatedAt.Compare(a.CreatedAt)
}

// TemplateSummary pairs a template with its response counts. Listed is the
// length of the stored list; Derived counts children pointing back at it.
type TemplateSummary struct {
	Invite  *domain.Invite `json:"invite"`
	Listed  int            `json:"listed"`
	Derived int            `json:"derived"`
}

// Drifted reports whether the stored list disagrees with the children.
func (t TemplateSummary) Drifted() bool {
	return t.Listed != t.Derived
}

// Templates summarizes every template in invites, newest first.
func Templates(invites []*domain.Invite) []TemplateSummary {
	children := make(map[string]int)
	for _, inv := range invites {
		if inv.IsChild() {
			children[inv.TemplateInviteID]++
		}
	}

	out := []TemplateSummary{}
	for _, inv := range Group(invites).Templates {
		out = append(out, TemplateSummary{
			Invite:  inv,
			Listed:  len(inv.Responses),
			Derived: children[inv.ID],
		})
	}
	return out
}

// EventStats counts responses and guests attending a single event.
type EventStats struct {
	Responses int `json:"responses"`
	Guests    int `json:"guests"`
}

// Stats aggregates responses for the dashboard header.
type Stats struct {
	TotalResponses int                         `json:"total_responses"`
	TotalGuests    int                         `json:"total_guests"`
	Events         map[domain.Event]EventStats `json:"events"`
}

// ComputeStats totals party sizes overall and per attending event.
func ComputeStats(responses []*domain.Response) Stats {
	s := Stats{Events: make(map[domain.Event]EventStats, len(domain.AllEvents))}
	for _, e := range domain.AllEvents {
		s.Events[e] = EventStats{}
	}
	for _, r := range responses {
		size := r.PartySize()
		s.TotalResponses++
		s.TotalGuests += size
		for _, e := range r.Events.Selected() {
			es := s.Events[e]
			es.Responses++
			es.Guests += size
			s.Events[e] = es
		}
	}
	return s
}

// FilterByEvent keeps the responses attending e, preserving order.
func FilterByEvent(responses []*domain.Response, e domain.Event) []*domain.Response {
	out := []*domain.Response{}
	for _, r := range responses {
		if r.Events.Has(e) {
			out = append(out, r)
		}
	}
	return out
}

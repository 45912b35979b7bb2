package rsvp

import (
	"strings"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/validation"
)

// InviteEdit is a partial admin update. Nil fields are left unchanged and
// event keys override the stored flags one by one.
type InviteEdit struct {
	Name         *string          `json:"name,omitempty"`
	Email        *string          `json:"email,omitempty"`
	Phone        *string          `json:"phone,omitempty"`
	TemplateName *string          `json:"template_name,omitempty"`
	Location     *domain.Location `json:"location,omitempty"`
	Events       domain.EventSet  `json:"events,omitempty"`
}

// ApplyEdit merges an edit over an invite. Moving the invite to another
// location clears every event that location does not hold, and a location
// with a single event has that event switched on. The result is rejected
// if it would leave no events or events outside its location.
func ApplyEdit(existing domain.Invite, edit InviteEdit) (domain.Invite, error) {
	out := *existing.Detached()

	if edit.Name != nil {
		out.Name = strings.TrimSpace(*edit.Name)
	}
	if edit.Email != nil {
		out.Email = strings.TrimSpace(*edit.Email)
	}
	if edit.Phone != nil {
		out.Phone = validation.NormalizePhone(*edit.Phone)
	}
	if edit.TemplateName != nil {
		out.TemplateName = strings.TrimSpace(*edit.TemplateName)
	}

	out.Events = existing.Events.Merge(edit.Events)

	if edit.Location != nil {
		moved := *edit.Location != existing.Location
		out.Location = *edit.Location
		if moved && out.Location != domain.NoLocation {
			out.Events = cascadeLocation(out.Location, out.Events)
		}
	}

	if err := validation.ValidateInviteEvents(out.Location, out.Events); err != nil {
		return existing, err
	}
	return out, nil
}

func cascadeLocation(loc domain.Location, events domain.EventSet) domain.EventSet {
	out := events.Clone()
	for _, e := range domain.AllEvents {
		if !loc.Allows(e) {
			out[e] = false
		}
	}
	if allowed := loc.Events(); len(allowed) == 1 {
		out[allowed[0]] = true
	}
	return out
}

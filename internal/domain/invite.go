package domain

import "time"

// Invite authorizes one guest (or, as a template, any number of guests)
// to respond for a fixed set of events.
type Invite struct {
	ID               string    `json:"id"`
	Name             string    `json:"name,omitempty"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Events           EventSet  `json:"events"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	IsTemplate       bool      `json:"is_template"`
	TemplateName     string    `json:"template_name,omitempty"`
	Location         Location  `json:"location,omitempty"`
	TemplateInviteID string    `json:"template_invite_id,omitempty"`
	Responses        []string  `json:"responses,omitempty"`

	// Response is attached by the storage adapters on read and is never
	// persisted as part of the invite record.
	Response *Response `json:"response,omitempty"`
}

// IsChild reports whether the invite was spawned from a template.
func (i *Invite) IsChild() bool {
	return i.TemplateInviteID != ""
}

// DisplayName prefers the template name for templates.
func (i *Invite) DisplayName() string {
	if i.IsTemplate && i.TemplateName != "" {
		return i.TemplateName
	}
	return i.Name
}

// Detached returns a shallow copy without the attached response, suitable
// for persisting.
func (i *Invite) Detached() *Invite {
	cp := *i
	cp.Response = nil
	cp.Events = i.Events.Clone()
	cp.Responses = append([]string(nil), i.Responses...)
	return &cp
}

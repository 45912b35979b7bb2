package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlexTLDR/wedding-rsvp/internal/config"
	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/notify"
	"github.com/AlexTLDR/wedding-rsvp/internal/rsvp"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

// Server interface defines the methods needed by handlers
type Server interface {
	GetStore() storage.Store
	GetConfig() *config.Config
	GetEngine() *rsvp.Engine
	GetAdmin() *rsvp.Admin
	GetNotifier() notify.Notifier
	GetLogger() *slog.Logger
	Now() time.Time
}

// deadlinePassed reports whether submissions are closed. A zero deadline
// never passes.
func deadlinePassed(s Server) bool {
	deadline := s.GetConfig().RSVPDeadline
	return !deadline.IsZero() && s.Now().After(deadline)
}

type scheduleItem struct {
	Event   domain.Event `json:"event"`
	Name    string       `json:"name"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	Address string       `json:"address"`
}

func schedule(events domain.EventSet) []scheduleItem {
	infos := domain.Schedule(events)
	out := make([]scheduleItem, len(infos))
	for i, info := range infos {
		out[i] = scheduleItem{
			Event:   info.Event,
			Name:    info.Name,
			Start:   info.Start,
			End:     info.End,
			Address: info.Address,
		}
	}
	return out
}

// inviteView is what a guest sees when opening an invite link. Template
// response lists and child ids are never exposed.
type inviteView struct {
	ID             string           `json:"id"`
	Name           string           `json:"name,omitempty"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	Events         domain.EventSet  `json:"events"`
	Location       domain.Location  `json:"location,omitempty"`
	IsTemplate     bool             `json:"is_template"`
	TemplateName   string           `json:"template_name,omitempty"`
	Response       *domain.Response `json:"response,omitempty"`
	Schedule       []scheduleItem   `json:"schedule"`
	DeadlinePassed bool             `json:"deadline_passed"`
}

func newInviteView(inv *domain.Invite, closed bool) inviteView {
	v := inviteView{
		ID:             inv.ID,
		Events:         inv.Events,
		Location:       inv.Location,
		IsTemplate:     inv.IsTemplate,
		TemplateName:   inv.TemplateName,
		Schedule:       schedule(inv.Events),
		DeadlinePassed: closed,
	}
	if !inv.IsTemplate {
		v.Name = inv.Name
		v.Email = inv.Email
		v.Phone = inv.Phone
		v.Response = inv.Response
	}
	return v
}

// HandleHealth reports liveness.
func HandleHealth(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		Success(w, map[string]string{"status": "ok"}, s.GetLogger())
	}
}

// HandleGetInvite returns the guest view of an invite.
func HandleGetInvite(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		inv, err := s.GetStore().GetInvite(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			HandleError(w, err, rsvp.MsgInvalidInvite, logger)
			return
		}
		Success(w, newInviteView(inv, deadlinePassed(s)), logger)
	}
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AlexTLDR/wedding-rsvp/internal/dashboard"
	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/rsvp"
)

const (
	msgInviteNotFound   = "Invite not found"
	msgResponseNotFound = "Response not found"
	msgInvalidBody      = "Invalid request body"
)

// HandleAdminListInvites lists invites for one dashboard view.
func HandleAdminListInvites(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		view, err := dashboard.ParseView(r.URL.Query().Get("view"))
		if err != nil {
			BadRequest(w, err.Error(), logger)
			return
		}

		invites, err := s.GetStore().ListInvites(r.Context())
		if err != nil {
			HandleError(w, err, msgInviteNotFound, logger)
			return
		}
		Success(w, dashboard.Group(invites).Select(view), logger)
	}
}

// HandleAdminCreateInvite creates an invite or template.
func HandleAdminCreateInvite(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		var draft rsvp.InviteDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			BadRequest(w, msgInvalidBody, logger)
			return
		}

		inv, err := s.GetAdmin().CreateInvite(r.Context(), draft)
		if err != nil {
			HandleError(w, err, msgInviteNotFound, logger)
			return
		}
		Created(w, inv, logger)
	}
}

// HandleAdminUpdateInvite applies a partial edit, cascading location
// changes onto the invite's events.
func HandleAdminUpdateInvite(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		var edit rsvp.InviteEdit
		if err := decodeJSON(w, r, &edit); err != nil {
			BadRequest(w, msgInvalidBody, logger)
			return
		}

		inv, err := s.GetAdmin().EditInvite(r.Context(), chi.URLParam(r, "id"), edit)
		if err != nil {
			HandleError(w, err, msgInviteNotFound, logger)
			return
		}
		Success(w, inv, logger)
	}
}

// HandleAdminDeleteInvite removes an invite.
func HandleAdminDeleteInvite(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.GetAdmin().DeleteInvite(r.Context(), chi.URLParam(r, "id")); err != nil {
			HandleError(w, err, msgInviteNotFound, s.GetLogger())
			return
		}
		NoContent(w)
	}
}

type templateView struct {
	*domain.Invite
	Listed  int  `json:"listed"`
	Derived int  `json:"derived"`
	Drifted bool `json:"drifted"`
}

// HandleAdminTemplates lists templates with both the stored and the
// derived response counts.
func HandleAdminTemplates(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		invites, err := s.GetStore().ListInvites(r.Context())
		if err != nil {
			HandleError(w, err, msgInviteNotFound, logger)
			return
		}

		summaries := dashboard.Templates(invites)
		out := make([]templateView, len(summaries))
		for i, t := range summaries {
			out[i] = templateView{Invite: t.Invite, Listed: t.Listed, Derived: t.Derived, Drifted: t.Drifted()}
		}
		Success(w, out, logger)
	}
}

// HandleAdminRepairTemplate rebuilds a template's response list from its
// children.
func HandleAdminRepairTemplate(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		changed, err := s.GetAdmin().RebuildTemplateResponses(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			HandleError(w, err, "Template not found", logger)
			return
		}
		Success(w, map[string]bool{"changed": changed}, logger)
	}
}

// HandleAdminListResponses lists responses, optionally only those attending
// one event.
func HandleAdminListResponses(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		responses, err := s.GetStore().ListResponses(r.Context())
		if err != nil {
			HandleError(w, err, msgResponseNotFound, logger)
			return
		}

		if key := r.URL.Query().Get("event"); key != "" {
			e, err := domain.ParseEvent(key)
			if err != nil {
				BadRequest(w, err.Error(), logger)
				return
			}
			responses = dashboard.FilterByEvent(responses, e)
		}
		Success(w, responses, logger)
	}
}

// HandleAdminUpdateResponse edits a response in place.
func HandleAdminUpdateResponse(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		var edit rsvp.ResponseEdit
		if err := decodeJSON(w, r, &edit); err != nil {
			BadRequest(w, msgInvalidBody, logger)
			return
		}

		resp, err := s.GetAdmin().UpdateResponse(r.Context(), chi.URLParam(r, "id"), edit)
		if err != nil {
			HandleError(w, err, msgResponseNotFound, logger)
			return
		}
		Success(w, resp, logger)
	}
}

// HandleAdminDeleteResponse removes a response.
func HandleAdminDeleteResponse(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.GetAdmin().DeleteResponse(r.Context(), chi.URLParam(r, "id")); err != nil {
			HandleError(w, err, msgResponseNotFound, s.GetLogger())
			return
		}
		NoContent(w)
	}
}

// HandleAdminStats reports response and guest totals per event.
func HandleAdminStats(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		responses, err := s.GetStore().ListResponses(r.Context())
		if err != nil {
			HandleError(w, err, msgResponseNotFound, logger)
			return
		}

		stats := dashboard.ComputeStats(responses)
		if key := r.URL.Query().Get("event"); key != "" {
			e, err := domain.ParseEvent(key)
			if err != nil {
				BadRequest(w, err.Error(), logger)
				return
			}
			Success(w, map[string]any{
				"event":     e,
				"stats":     stats.Events[e],
				"responses": dashboard.FilterByEvent(responses, e),
			}, logger)
			return
		}
		Success(w, stats, logger)
	}
}

// HandleAdminSearch runs a full-text search over invites and responses.
func HandleAdminSearch(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()
		q := strings.TrimSpace(r.URL.Query().Get("q"))

		limit := dashboard.DefaultSearchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				BadRequest(w, "Invalid limit", logger)
				return
			}
			limit = min(n, 100)
		}

		ctx := r.Context()
		invites, err := s.GetStore().ListInvites(ctx)
		if err != nil {
			HandleError(w, err, msgInviteNotFound, logger)
			return
		}
		responses, err := s.GetStore().ListResponses(ctx)
		if err != nil {
			HandleError(w, err, msgResponseNotFound, logger)
			return
		}

		hits, err := dashboard.SearchGuests(ctx, invites, responses, q, limit)
		if err != nil {
			HandleError(w, err, msgResponseNotFound, logger)
			return
		}
		Success(w, hits, logger)
	}
}

type responseRequest struct {
	ResponseID string `json:"responseId"`
}

// decodeResponseID reads {responseId} and writes a 400 when it is missing.
func decodeResponseID(s Server, w http.ResponseWriter, r *http.Request) (string, bool) {
	var req responseRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.ResponseID) == "" {
		BadRequest(w, "Response ID is required", s.GetLogger())
		return "", false
	}
	return strings.TrimSpace(req.ResponseID), true
}

// HandleAdminSendWelcome e-mails the welcome message to one respondent.
func HandleAdminSendWelcome(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := decodeResponseID(s, w, r)
		if !ok {
			return
		}
		if err := s.GetNotifier().SendWelcome(r.Context(), id); err != nil {
			HandleError(w, err, msgResponseNotFound, s.GetLogger())
			return
		}
		Message(w, "Welcome email sent successfully", nil, s.GetLogger())
	}
}

// HandleAdminSendConfirmation e-mails an RSVP confirmation to one
// respondent.
func HandleAdminSendConfirmation(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := decodeResponseID(s, w, r)
		if !ok {
			return
		}
		if err := s.GetNotifier().SendConfirmation(r.Context(), id); err != nil {
			HandleError(w, err, msgResponseNotFound, s.GetLogger())
			return
		}
		Message(w, "RSVP confirmation email sent successfully", nil, s.GetLogger())
	}
}

// HandleAdminSendWelcomeBulk sends the welcome message to every respondent
// who has not received it yet.
func HandleAdminSendWelcomeBulk(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.GetNotifier().SendWelcomeBulk(r.Context())
		if err != nil {
			HandleError(w, err, msgResponseNotFound, s.GetLogger())
			return
		}
		Message(w, "Bulk welcome emails processed", res, s.GetLogger())
	}
}

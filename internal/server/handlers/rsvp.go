package handlers

import (
	"net/http"

	"github.com/AlexTLDR/wedding-rsvp/internal/rsvp"
)

// MsgDeadlinePassed is returned once submissions are closed.
const MsgDeadlinePassed = "RSVP deadline has passed"

// statusFor maps a submission outcome to its HTTP status.
func statusFor(res rsvp.Result) int {
	switch res.Kind {
	case rsvp.KindOK:
		return http.StatusOK
	case rsvp.KindValidation:
		return http.StatusBadRequest
	case rsvp.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HandleRSVPSubmit records a guest submission.
func HandleRSVPSubmit(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		if deadlinePassed(s) {
			writeEnvelope(w, http.StatusForbidden, Envelope{Message: MsgDeadlinePassed}, logger)
			return
		}

		var sub rsvp.Submission
		if err := decodeJSON(w, r, &sub); err != nil {
			logger.Debug("invalid rsvp body", "error", err)
			writeEnvelope(w, http.StatusBadRequest, Envelope{Message: "Invalid request body"}, logger)
			return
		}

		res := s.GetEngine().Submit(r.Context(), sub)
		env := Envelope{Success: res.Success, Message: res.Message}
		if res.Data != nil {
			env.Data = res.Data
		}
		writeEnvelope(w, statusFor(res), env, logger)
	}
}

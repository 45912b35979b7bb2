package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/rsvp"
)

const icsTime = "20060102T150405Z"

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

// buildCalendar renders an iCalendar feed with one VEVENT per event.
func buildCalendar(inviteID string, events []domain.EventInfo, stamp time.Time) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//wedding-rsvp//EN")
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")
	for _, e := range events {
		line("BEGIN:VEVENT")
		line("UID:%s-%s@wedding-rsvp", inviteID, e.Event)
		line("DTSTAMP:%s", stamp.UTC().Format(icsTime))
		line("DTSTART:%s", e.Start.UTC().Format(icsTime))
		line("DTEND:%s", e.End.UTC().Format(icsTime))
		line("SUMMARY:%s", icsEscaper.Replace(e.Name+" - Kaushal & Priyanka's Wedding"))
		line("LOCATION:%s", icsEscaper.Replace(e.Address))
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return b.String()
}

// HandleCalendar serves the events of an invite as an .ics file. Once the
// guest has responded only the events they attend are included.
func HandleCalendar(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := s.GetStore().GetInvite(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			HandleError(w, err, rsvp.MsgInvalidInvite, s.GetLogger())
			return
		}

		events := inv.Events
		if inv.Response != nil {
			events = inv.Response.Events
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="wedding.ics"`)
		_, _ = w.Write([]byte(buildCalendar(inv.ID, domain.Schedule(events), s.Now())))
	}
}

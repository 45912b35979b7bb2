package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/utils"
)

// csvHeader returns the export columns, one per event after the guest fields.
func csvHeader() []string {
	header := []string{"Name", "Email", "Phone", "Invite ID", "Additional Guests", "Party Size"}
	for _, e := range domain.AllEvents {
		header = append(header, domain.Info(e).Name)
	}
	return append(header, "Welcome Email Sent", "Responded At", "Updated At")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// formatResponseForCSV converts a response to a CSV row
func formatResponseForCSV(resp *domain.Response) []string {
	row := []string{
		resp.Name,
		resp.Email,
		utils.DisplayPhone(resp.Phone),
		resp.InviteID,
		strconv.Itoa(resp.AdditionalGuests),
		strconv.Itoa(resp.PartySize()),
	}
	for _, e := range domain.AllEvents {
		row = append(row, yesNo(resp.Events.Has(e)))
	}
	return append(row,
		yesNo(resp.WelcomeEmailSent),
		resp.CreatedAt.UTC().Format(time.RFC3339),
		resp.UpdatedAt.UTC().Format(time.RFC3339),
	)
}

// writeCSVHeaders sets HTTP headers and writes the BOM and header row
func writeCSVHeaders(w http.ResponseWriter, cw *csv.Writer) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=rsvp-responses.csv")

	// UTF-8 BOM for Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	return cw.Write(csvHeader())
}

// HandleAdminExportCSV exports all responses as CSV.
func HandleAdminExportCSV(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.GetLogger()

		responses, err := s.GetStore().ListResponses(r.Context())
		if err != nil {
			HandleError(w, err, msgResponseNotFound, logger)
			return
		}

		cw := csv.NewWriter(w)
		if err := writeCSVHeaders(w, cw); err != nil {
			logger.Error("failed to write csv header", "error", err)
			return
		}
		for _, resp := range responses {
			if err := cw.Write(formatResponseForCSV(resp)); err != nil {
				logger.Error("failed to write csv row", "response_id", resp.ID, "error", err)
				return
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			logger.Error("failed to flush csv", "error", err)
		}
	}
}

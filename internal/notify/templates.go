package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/utils"
)

const (
	confirmationSubject = "Your RSVP Confirmation - Kaushal & Priyanka's Wedding"
	welcomeSubject      = "Welcome to Kaushal & Priyanka's Wedding"
)

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Monday, January 2, 2006") },
	"time": func(t time.Time) string { return t.Format("3:04 PM") },
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>RSVP Confirmation - Kaushal &amp; Priyanka's Wedding</title></head>
<body style="font-family: Helvetica, Arial, sans-serif; color: #333;">
  <h1>RSVP Confirmation</h1>
  <p>Dear <strong>{{.Name}}</strong>,</p>
  <p>We're delighted that you'll be joining us for our special day! Below are the details of the events you'll be attending:</p>
  {{range .Events}}
  <div style="margin-bottom: 20px; padding: 20px; border: 1px solid #e1e1e1; border-radius: 8px;">
    <h3 style="margin-top: 0;">{{.Name}}</h3>
    <p><strong>Date:</strong> {{date .Start}}</p>
    <p><strong>Time:</strong> {{time .Start}} - {{time .End}}</p>
    <p><strong>Location:</strong> {{.Address}}</p>
  </div>
  {{end}}
  <p>Party size: {{.PartySize}}{{if .Phone}} &middot; Phone on file: {{.Phone}}{{end}}</p>
  <p><a href="{{.EditURL}}" style="display: inline-block; padding: 12px 24px; background: #e91e63; color: #fff; text-decoration: none; border-radius: 4px;">{{.EditLabel}}</a></p>
  <p>With love,<br>Kaushal &amp; Priyanka</p>
</body>
</html>`))

var welcomeTmpl = template.Must(template.New("welcome").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Welcome</title></head>
<body style="font-family: Helvetica, Arial, sans-serif; color: #333;">
  <h1>Welcome, {{.Name}}!</h1>
  <p>Thank you for your RSVP. We can't wait to celebrate with you.</p>
  {{if .Events}}<p>You're joining us for:</p>
  <ul>{{range .Events}}<li>{{.Name}} on {{date .Start}}</li>{{end}}</ul>{{end}}
  <p>You can review or change your response at any time: <a href="{{.EditURL}}">{{.EditURL}}</a></p>
  <p>With love,<br>Kaushal &amp; Priyanka</p>
</body>
</html>`))

type emailData struct {
	Name      string
	Phone     string
	PartySize int
	Events    []domain.EventInfo
	EditURL   string
	EditLabel string
}

func newEmailData(resp *domain.Response, baseURL string) emailData {
	label := "Edit Your RSVP"
	if !resp.UpdatedAt.Equal(resp.CreatedAt) {
		label = "Update Your RSVP"
	}
	return emailData{
		Name:      resp.Name,
		Phone:     utils.DisplayPhone(resp.Phone),
		PartySize: resp.PartySize(),
		Events:    domain.Schedule(resp.Events),
		EditURL:   EditURL(baseURL, resp.InviteID),
		EditLabel: label,
	}
}

// EditURL is the guest-facing link back to an invite.
func EditURL(baseURL, inviteID string) string {
	return strings.TrimRight(baseURL, "/") + "/invite/" + inviteID
}

// RenderConfirmation builds the RSVP confirmation for resp.
func RenderConfirmation(resp *domain.Response, baseURL string) (Message, error) {
	return render(confirmationTmpl, confirmationSubject, resp, baseURL)
}

// RenderWelcome builds the welcome message for resp.
func RenderWelcome(resp *domain.Response, baseURL string) (Message, error) {
	return render(welcomeTmpl, welcomeSubject, resp, baseURL)
}

func render(tmpl *template.Template, subject string, resp *domain.Response, baseURL string) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newEmailData(resp, baseURL)); err != nil {
		return Message{}, fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return Message{
		To:      resp.Email,
		ToName:  resp.Name,
		Subject: subject,
		HTML:    buf.String(),
	}, nil
}

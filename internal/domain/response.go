package domain

import "time"

// MaxAdditionalGuests bounds how many extra people a response may bring.
const MaxAdditionalGuests = 5

// Response is a guest's submitted attendance for one non-template invite.
type Response struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	InviteID         string    `json:"inviteId"`
	AdditionalGuests int       `json:"additional_guests"`
	Events           EventSet  `json:"events"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	WelcomeEmailSent bool      `json:"welcome_email_sent"`
}

// PartySize counts the respondent plus additional guests.
func (r *Response) PartySize() int {
	return 1 + r.AdditionalGuests
}

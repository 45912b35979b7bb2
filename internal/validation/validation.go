// Package validation checks guest-submitted RSVP fields. Every function is
// pure and has no access to storage.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
)

// Kind classifies a validation failure.
type Kind string

const (
	MissingField    Kind = "missing_field"
	InvalidEmail    Kind = "invalid_email"
	InvalidPhone    Kind = "invalid_phone"
	OutOfRange      Kind = "out_of_range"
	EventNotAllowed Kind = "event_not_allowed"
	NoEvents        Kind = "no_events"
	LocationEvents  Kind = "location_events"
)

// MinPhoneDigits is the minimum digit count of an acceptable phone number.
const MinPhoneDigits = 10

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Error is a validation failure whose message is safe to show to guests.
type Error struct {
	Kind     Kind
	Field    string
	Events   []domain.Event
	Location domain.Location
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingField:
		return "All fields are required"
	case InvalidEmail:
		return "Please enter a valid email address"
	case InvalidPhone:
		return "Please enter a valid phone number"
	case OutOfRange:
		return "Additional guests must be between 0 and 5"
	case EventNotAllowed:
		return "You are not invited to the following events: " + joinEvents(e.Events)
	case NoEvents:
		return "At least one event must be selected"
	case LocationEvents:
		return "The following events are not held in " + string(e.Location) + ": " + joinEvents(e.Events)
	default:
		return "invalid input"
	}
}

func joinEvents(events []domain.Event) string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = string(ev)
	}
	return strings.Join(names, ", ")
}

// IsKind reports whether err is a validation Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == kind
}

type contactFields struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,guestemail"`
	Phone string `json:"phone" validate:"required,guestphone"`
}

type guestCount struct {
	AdditionalGuests int `json:"additional_guests" validate:"gte=0,lte=5"`
}

// submissionFields orders the guest count ahead of the contact formats so
// an out-of-range count is reported first.
type submissionFields struct {
	AdditionalGuests int    `json:"additional_guests" validate:"gte=0,lte=5"`
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required,guestemail"`
	Phone            string `json:"phone" validate:"required,guestphone"`
	InviteID         string `json:"inviteId" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("guestemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("guestphone", func(fl validator.FieldLevel) bool {
		return len(NormalizePhone(fl.Field().String())) >= MinPhoneDigits
	})
	return v
}

// NormalizePhone keeps only the digits of phone. It is idempotent.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateContactFields checks name, email and phone and returns the
// digits-only phone. A missing field is reported before any format error.
func ValidateContactFields(name, email, phone string) (string, error) {
	in := contactFields{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
		Phone: strings.TrimSpace(phone),
	}
	if err := validate.Struct(in); err != nil {
		return "", fromValidator(err)
	}
	return NormalizePhone(in.Phone), nil
}

// ValidateSubmission checks a guest submission and returns the digits-only
// phone. Missing fields (the invite id included) come first, then the guest
// count, then the email and phone formats.
func ValidateSubmission(name, email, phone, inviteID string, additionalGuests int) (string, error) {
	in := submissionFields{
		AdditionalGuests: additionalGuests,
		Name:             strings.TrimSpace(name),
		Email:            strings.TrimSpace(email),
		Phone:            strings.TrimSpace(phone),
		InviteID:         strings.TrimSpace(inviteID),
	}
	if err := validate.Struct(in); err != nil {
		return "", fromValidator(err)
	}
	return NormalizePhone(in.Phone), nil
}

// ValidateGuestCount checks that n additional guests is within 0..5.
func ValidateGuestCount(n int) error {
	if err := validate.Struct(guestCount{AdditionalGuests: n}); err != nil {
		return fromValidator(err)
	}
	return nil
}

// ValidateEventEligibility returns every event requested as true that the
// invite does not allow, in canonical order. An empty result means success.
func ValidateEventEligibility(requested, allowed domain.EventSet) []domain.Event {
	var out []domain.Event
	for _, e := range requested.Selected() {
		if !allowed.Has(e) {
			out = append(out, e)
		}
	}
	return out
}

// EventsNotAllowed builds the error naming every disallowed event.
func EventsNotAllowed(events []domain.Event) *Error {
	return &Error{Kind: EventNotAllowed, Field: "events", Events: events}
}

// EventsNotAtLocation builds the error for events an invite's location forbids.
func EventsNotAtLocation(loc domain.Location, events []domain.Event) *Error {
	return &Error{Kind: LocationEvents, Field: "events", Events: events, Location: loc}
}

// ValidateInviteEvents checks that an invite selects at least one event and
// only events held at its location.
func ValidateInviteEvents(loc domain.Location, events domain.EventSet) error {
	if !events.Any() {
		return &Error{Kind: NoEvents, Field: "events"}
	}
	if bad := loc.Disallowed(events); len(bad) > 0 {
		return EventsNotAtLocation(loc, bad)
	}
	return nil
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var first *Error
	for _, fe := range verrs {
		e := &Error{Field: fe.Field()}
		switch fe.Tag() {
		case "required":
			// Missing fields take precedence over format problems.
			return &Error{Kind: MissingField, Field: fe.Field()}
		case "guestemail":
			e.Kind = InvalidEmail
		case "guestphone":
			e.Kind = InvalidPhone
		case "gte", "lte":
			e.Kind = OutOfRange
		default:
			e.Kind = Kind(fe.Tag())
		}
		if first == nil {
			first = e
		}
	}
	if first == nil {
		return err
	}
	return first
}

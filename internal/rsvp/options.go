package rsvp

import (
	"time"

	"github.com/AlexTLDR/wedding-rsvp/internal/id"
)

type settings struct {
	now           func() time.Time
	newInviteID   func() (string, error)
	newResponseID func() (string, error)
}

func defaultSettings() settings {
	return settings{
		now:           time.Now,
		newInviteID:   id.NewInviteID,
		newResponseID: id.NewResponseID,
	}
}

// Option customizes an Engine or Admin.
type Option func(*settings)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithIDs replaces the invite and response id generators.
func WithIDs(invite, response func() (string, error)) Option {
	return func(s *settings) {
		if invite != nil {
			s.newInviteID = invite
		}
		if response != nil {
			s.newResponseID = response
		}
	}
}

func (s settings) timestamp() time.Time {
	return s.now().UTC()
}

// after returns now, or the smallest representable instant after prev when
// the clock has not advanced past it.
func after(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

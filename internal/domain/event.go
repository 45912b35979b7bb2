// Package domain holds the invite and response records shared by the
// reconciliation engine, the storage adapters and the HTTP layer.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event is one of the wedding events a guest can be invited to.
type Event string

const (
	Haldi             Event = "haldi"
	Sangeet           Event = "sangeet"
	Wedding           Event = "wedding"
	Reception         Event = "reception"
	ColoradoReception Event = "coloradoReception"
)

// AllEvents lists every event in canonical order.
var AllEvents = []Event{Haldi, Sangeet, Wedding, Reception, ColoradoReception}

// ErrUnknownEvent is returned when an event key outside the closed set is decoded.
var ErrUnknownEvent = errors.New("unknown event")

// ParseEvent converts a raw key into an Event.
func ParseEvent(s string) (Event, error) {
	for _, e := range AllEvents {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// EventSet maps events to an invited/attending flag. Absent keys read as false.
type EventSet map[Event]bool

// NewEventSet returns a set with the given events flagged true.
func NewEventSet(events ...Event) EventSet {
	s := make(EventSet, len(events))
	for _, e := range events {
		s[e] = true
	}
	return s
}

// Has reports whether e is flagged true.
func (s EventSet) Has(e Event) bool {
	return s[e]
}

// Selected returns the events flagged true in canonical order.
func (s EventSet) Selected() []Event {
	var out []Event
	for _, e := range AllEvents {
		if s[e] {
			out = append(out, e)
		}
	}
	return out
}

// Any reports whether at least one event is flagged true.
func (s EventSet) Any() bool {
	for _, v := range s {
		if v {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (s EventSet) Clone() EventSet {
	out := make(EventSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns a copy of s with every key of overrides applied on top.
func (s EventSet) Merge(overrides EventSet) EventSet {
	out := s.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// String renders the selected events as a comma separated list.
func (s EventSet) String() string {
	sel := s.Selected()
	parts := make([]string, len(sel))
	for i, e := range sel {
		parts[i] = string(e)
	}
	return strings.Join(parts, ", ")
}

// UnmarshalJSON rejects keys outside the closed event set.
func (s *EventSet) UnmarshalJSON(data []byte) error {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(EventSet, len(raw))
	for k, v := range raw {
		e, err := ParseEvent(k)
		if err != nil {
			return err
		}
		out[e] = v
	}
	*s = out
	return nil
}

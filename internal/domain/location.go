package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Location is the venue region of an invite.
type Location string

const (
	NoLocation Location = ""
	Houston    Location = "houston"
	Colorado   Location = "colorado"
)

// ErrUnknownLocation is returned for a location outside the known set.
var ErrUnknownLocation = errors.New("unknown location")

// locationEvents is the legality table: an invite at a location may only
// have the listed events set.
var locationEvents = map[Location][]Event{
	Houston:  {Haldi, Sangeet, Wedding, Reception},
	Colorado: {ColoradoReception},
}

// ParseLocation validates a raw location. The empty string means no location.
func ParseLocation(s string) (Location, error) {
	l := Location(s)
	if l == NoLocation {
		return l, nil
	}
	if _, ok := locationEvents[l]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLocation, s)
	}
	return l, nil
}

// UnmarshalText lets JSON decoding reject unknown locations.
func (l *Location) UnmarshalText(b []byte) error {
	parsed, err := ParseLocation(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Events returns the events allowed at the location. NoLocation allows all.
func (l Location) Events() []Event {
	if evs, ok := locationEvents[l]; ok {
		return evs
	}
	return AllEvents
}

// Allows reports whether e may be set on an invite at this location.
func (l Location) Allows(e Event) bool {
	return slices.Contains(l.Events(), e)
}

// Disallowed returns the events flagged true in s that the location forbids.
func (l Location) Disallowed(s EventSet) []Event {
	var out []Event
	for _, e := range s.Selected() {
		if !l.Allows(e) {
			out = append(out, e)
		}
	}
	return out
}

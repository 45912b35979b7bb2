package domain

import "time"

// EventInfo describes when and where an event takes place.
type EventInfo struct {
	Event   Event
	Name    string
	Start   time.Time
	End     time.Time
	Address string
}

var (
	central  = time.FixedZone("CST", -6*60*60)
	mountain = time.FixedZone("MST", -7*60*60)
)

var catalog = map[Event]EventInfo{
	Haldi: {
		Event:   Haldi,
		Name:    "Haldi",
		Start:   time.Date(2025, time.March, 4, 10, 0, 0, 0, central),
		End:     time.Date(2025, time.March, 4, 12, 0, 0, 0, central),
		Address: "123 Haldi Venue, Houston, TX 77001",
	},
	Sangeet: {
		Event:   Sangeet,
		Name:    "Sangeet",
		Start:   time.Date(2025, time.March, 5, 18, 0, 0, 0, central),
		End:     time.Date(2025, time.March, 5, 22, 0, 0, 0, central),
		Address: "456 Sangeet Venue, Houston, TX 77002",
	},
	Wedding: {
		Event:   Wedding,
		Name:    "Wedding",
		Start:   time.Date(2025, time.March, 6, 11, 0, 0, 0, central),
		End:     time.Date(2025, time.March, 6, 14, 0, 0, 0, central),
		Address: "789 Wedding Venue, Houston, TX 77003",
	},
	Reception: {
		Event:   Reception,
		Name:    "Reception",
		Start:   time.Date(2025, time.March, 6, 18, 0, 0, 0, central),
		End:     time.Date(2025, time.March, 6, 23, 0, 0, 0, central),
		Address: "789 Reception Venue, Houston, TX 77003",
	},
	ColoradoReception: {
		Event:   ColoradoReception,
		Name:    "Colorado Reception",
		Start:   time.Date(2025, time.March, 8, 18, 0, 0, 0, mountain),
		End:     time.Date(2025, time.March, 8, 23, 0, 0, 0, mountain),
		Address: "101 Colorado Reception Venue, Denver, CO 80001",
	},
}

// Info returns the schedule entry for an event.
func Info(e Event) EventInfo {
	return catalog[e]
}

// Schedule returns the entries for the selected events of s in canonical order.
func Schedule(s EventSet) []EventInfo {
	sel := s.Selected()
	out := make([]EventInfo, 0, len(sel))
	for _, e := range sel {
		out = append(out, catalog[e])
	}
	return out
}

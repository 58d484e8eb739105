package model

import "time"

// Event is a single date-ranged calendar entry as consumed by the grid
// layout. From and To are both inclusive and compared at day granularity;
// From must not be after To.
type Event struct {
	// ID must be unique within one layout call. Events coming from ICS
	// sources use "<sourceID>/<UID>".
	ID string `json:"id"`

	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Summary string `json:"summary"`

	// Descriptive fields carried through to the rendered slots untouched.
	SourceID string `json:"source_id,omitempty"`
	Location string `json:"location,omitempty"`
	AllDay   bool   `json:"all_day"`
}

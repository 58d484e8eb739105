package grid

import (
	"strconv"

	"monthgrid/internal/model"
)

// SlotKind discriminates the three slot variants a day cell can hold.
type SlotKind string

const (
	SlotEvent SlotKind = "event"
	SlotEmpty SlotKind = "empty"
	SlotInfo  SlotKind = "info"
)

// Slot is one positional entry in a cell's lane array. Which fields are
// meaningful depends on Kind:
//
//   - SlotEvent: Event and the four continuity flags.
//   - SlotEmpty: nothing beyond CellID.
//   - SlotInfo:  Summary ("<n> more").
type Slot struct {
	Kind   SlotKind `json:"type"`
	CellID string   `json:"cell_id"`

	Event *model.Event `json:"event,omitempty"`

	// Continuity within the current 7-day row.
	HeadInCurrentRow bool `json:"head_in_current_row,omitempty"`
	TailInCurrentRow bool `json:"tail_in_current_row,omitempty"`
	// Continuity against the calendar day before/after, ignoring rows.
	Head bool `json:"head,omitempty"`
	Tail bool `json:"tail,omitempty"`

	Summary string `json:"summary,omitempty"`
}

// EventID returns the ID of the carried event, or "" for non-event slots.
func (s Slot) EventID() string {
	if s.Kind != SlotEvent || s.Event == nil {
		return ""
	}
	return s.Event.ID
}

func emptySlot(cellID string) Slot {
	return Slot{Kind: SlotEmpty, CellID: cellID}
}

func infoSlot(cellID string, hidden int) Slot {
	return Slot{
		Kind:    SlotInfo,
		CellID:  cellID,
		Summary: strconv.Itoa(hidden) + " more",
	}
}

package grid

// fillLanes rewrites one row's cells so that every cell holds exactly
// Capacity positional slots (plus an optional overflow info slot).
//
// An event's lane is the deepest position it reached in any single cell of
// the row, so a multi-day bar keeps one lane across the whole row instead of
// moving up when an event above it ends. Events whose lane falls at or past
// Capacity are not drawn, although they still count toward the "<n> more"
// summary of cells that overflow.
func fillLanes(cells []Cell) []Cell {
	maxPos := make(map[string]int)
	for _, cell := range cells {
		for pos, s := range cell.Events {
			if s.Kind != SlotEvent {
				continue
			}
			id := s.EventID()
			cur, ok := maxPos[id]
			if !ok {
				cur = 1
			}
			maxPos[id] = max(cur, pos+1)
		}
	}

	out := make([]Cell, len(cells))
	for i, cell := range cells {
		slots := make([]Slot, Capacity, Capacity+1)
		for lane := range slots {
			slots[lane] = emptySlot(cell.CellID)
		}

		visible := cell.Events
		if len(visible) > Capacity {
			visible = visible[:Capacity]
		}
		for _, s := range visible {
			if s.Kind != SlotEvent {
				continue
			}
			lane := maxPos[s.EventID()] - 1
			if lane >= Capacity {
				continue
			}
			slots[lane] = s
		}

		if n := len(cell.Events); n > Capacity {
			slots = append(slots, infoSlot(cell.CellID, n-Capacity))
		}

		cell.Events = slots
		out[i] = cell
	}
	return out
}

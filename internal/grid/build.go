// Package grid lays out date-ranged events onto a month-view day grid.
//
// Build is a pure function: it buckets events into day cells, derives the
// continuity flags that let multi-day events render as unbroken bars, and
// assigns every event a lane that stays constant across the days it spans
// within a row. Nothing is cached or shared between calls.
package grid

import (
	"time"

	"monthgrid/internal/model"
)

// Params is the input of a single layout call.
type Params struct {
	// Month is any date inside the primary displayed month; cells from
	// other months are marked Shaded.
	Month time.Time
	// StartOf is the date of the first (top-left) cell.
	StartOf time.Time
	// Rows is the number of 7-day rows to produce.
	Rows int
	// Events is the full candidate list. Order matters: within a day,
	// events are stacked in the order they appear here.
	Events []model.Event
	// Now is the reference instant for the Active flag. A zero value means
	// time.Now().
	Now time.Time
}

// span is an event's inclusive day range in the grid's location.
type span struct {
	ev       *model.Event
	from, to time.Time
}

func (s span) covers(day time.Time) bool {
	return !day.Before(s.from) && !day.After(s.to)
}

// Build computes the full grid: Rows*7 cells in row-major order, each with a
// lane-positioned event list.
func Build(p Params) []Cell {
	if p.Rows <= 0 {
		return []Cell{}
	}

	loc := p.StartOf.Location()
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := startOfDay(now.In(loc))

	// Copy so the returned slots never alias the caller's slice.
	events := make([]model.Event, len(p.Events))
	copy(events, p.Events)

	spans := make([]span, len(events))
	for i := range events {
		spans[i] = span{
			ev:   &events[i],
			from: startOfDay(events[i].From.In(loc)),
			to:   startOfDay(events[i].To.In(loc)),
		}
	}

	cells := make([]Cell, 0, p.Rows*DaysInRow)
	for row := 0; row < p.Rows; row++ {
		rowCells := buildRow(p, row, spans, today)
		cells = append(cells, fillLanes(rowCells)...)
	}
	return cells
}

// buildRow produces one row of cells with their in-range events in input
// order. Slots are not lane-positioned yet.
func buildRow(p Params, row int, spans []span, today time.Time) []Cell {
	mainMonth := p.Month.Month()
	rowCells := make([]Cell, 0, DaysInRow)

	// IDs already seen in this row; drives HeadInCurrentRow.
	seen := make(map[string]bool)

	for col := 0; col < DaysInRow; col++ {
		offset := row*DaysInRow + col
		date := p.StartOf.AddDate(0, 0, offset)
		day := startOfDay(date)
		prevDay := day.AddDate(0, 0, -1)
		nextDay := day.AddDate(0, 0, 1)

		cellID := CellID(date)
		slots := make([]Slot, 0)
		for _, s := range spans {
			if !s.covers(day) {
				continue
			}
			slots = append(slots, Slot{
				Kind:             SlotEvent,
				CellID:           cellID,
				Event:            s.ev,
				HeadInCurrentRow: !seen[s.ev.ID],
				TailInCurrentRow: col == DaysInRow-1,
				Head:             !s.covers(prevDay),
				Tail:             !s.covers(nextDay),
			})
			seen[s.ev.ID] = true
		}

		rowCells = append(rowCells, Cell{
			Date:      date,
			CellID:    cellID,
			Active:    day.Equal(today),
			Weekend:   isWeekend(date),
			Shaded:    date.Month() != mainMonth,
			LastInRow: col == DaysInRow-1,
			BottomRow: row == p.Rows-1,
			Events:    slots,
		})
	}
	return rowCells
}

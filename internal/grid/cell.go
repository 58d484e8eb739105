package grid

import "time"

const (
	// DaysInRow is the width of one grid row (one week).
	DaysInRow = 7
	// Capacity is the number of visible lanes per day cell.
	Capacity = 6

	cellIDLayout = "2006_01_02_15_04_05"
)

// Cell is one calendar day of the month grid.
type Cell struct {
	Date   time.Time `json:"date"`
	CellID string    `json:"cell_id"`

	Active  bool `json:"active"`
	Weekend bool `json:"weekend"`
	Shaded  bool `json:"shaded"`

	LastInRow bool `json:"last_in_row"`
	BottomRow bool `json:"bottom_row"`

	// Events is always Capacity long after layout, plus at most one
	// trailing SlotInfo.
	Events []Slot `json:"events"`
}

// CellID derives the identifier used for a cell dated d.
func CellID(d time.Time) string {
	return d.Format(cellIDLayout)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

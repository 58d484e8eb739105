package grid

import (
	"strings"
	"time"
)

// MaxRows bounds the row count accepted from callers such as the HTTP API.
const MaxRows = 12

// ParseWeekStart maps a config value ("monday" or "sunday") to the weekday
// shown in the first column. Anything else falls back to Monday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// Window returns the first cell date and row count needed to display the
// month containing month.
//
// startOf is the last weekStart weekday on or before the 1st of the month,
// at midnight in month's location. When fixedRows > 0 it is returned as-is
// (month views commonly pin 6 rows so the layout never jumps); otherwise the
// smallest row count that reaches the month's last day is used.
func Window(month time.Time, weekStart time.Weekday, fixedRows int) (time.Time, int) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	lead := (int(first.Weekday()) - int(weekStart) + DaysInRow) % DaysInRow
	startOf := first.AddDate(0, 0, -lead)

	if fixedRows > 0 {
		return startOf, fixedRows
	}

	last := first.AddDate(0, 1, -1)
	days := lead + last.Day()
	rows := (days + DaysInRow - 1) / DaysInRow
	return startOf, rows
}

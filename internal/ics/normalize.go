package ics

import (
	"errors"
	"sort"
	"time"

	appLog "monthgrid/internal/log"
	"monthgrid/internal/model"
)

// NormalizeConfig controls how parsed VEVENTs become grid events.
type NormalizeConfig struct {
	// DisplayLocation is the zone in which days are bucketed. If nil,
	// time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the kept events (inclusive overlap).
	RangeStart time.Time
	RangeEnd   time.Time
}

// NormalizeResult wraps the normalized events and what was left out.
type NormalizeResult struct {
	Events []model.Event
	// Recurring lists IDs of recurring masters laid out as a single
	// instance; expanding RRULEs is out of scope.
	Recurring []string
	// Overrides counts dropped RECURRENCE-ID instances.
	Overrides int
	// Duplicates counts events dropped because their ID was already seen.
	Duplicates int
}

// Normalize converts parsed events into model.Events with inclusive,
// display-zone day ranges, drops events outside the range and sorts the
// result so that lane assignment is deterministic: earlier start first,
// then longer events first, then by ID.
//
// RFC 5545 end times are exclusive, so:
//   - all-day events end on the day before DTEND (a missing DTEND means a
//     single day);
//   - timed events ending exactly at midnight end on the previous day.
func Normalize(events []ParsedEvent, cfg NormalizeConfig) (NormalizeResult, error) {
	var result NormalizeResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("normalize: RangeEnd is before RangeStart")
	}
	loc := cfg.DisplayLocation
	if loc == nil {
		loc = time.Local
	}

	seen := make(map[string]bool, len(events))
	out := make([]model.Event, 0, len(events))

	for _, ev := range events {
		if ev.IsOverride {
			result.Overrides++
			continue
		}

		id := ev.Source.ID + "/" + ev.UID
		if seen[id] {
			result.Duplicates++
			continue
		}

		from, to := inclusiveRange(ev, loc)
		if to.Before(cfg.RangeStart) || cfg.RangeEnd.Before(from) {
			continue
		}
		seen[id] = true

		if ev.Recurring {
			result.Recurring = append(result.Recurring, id)
		}

		out = append(out, model.Event{
			ID:       id,
			From:     from,
			To:       to,
			Summary:  ev.Summary,
			SourceID: ev.Source.ID,
			Location: ev.Location,
			AllDay:   ev.AllDay,
		})
	}

	SortEvents(out)
	result.Events = out

	if len(result.Recurring) > 0 || result.Overrides > 0 {
		appLog.Debug("normalize: recurring events laid out as single instances",
			"recurring", len(result.Recurring),
			"overrides_dropped", result.Overrides,
		)
	}
	return result, nil
}

// inclusiveRange returns [from, to] in loc with an inclusive end.
func inclusiveRange(ev ParsedEvent, loc *time.Location) (time.Time, time.Time) {
	if ev.AllDay {
		// DATE values are floating: keep the calendar date, not the instant.
		from := dateIn(ev.Start, loc)
		if ev.End.IsZero() {
			return from, from
		}
		to := dateIn(ev.End, loc).AddDate(0, 0, -1)
		if to.Before(from) {
			to = from
		}
		return from, to
	}

	from := ev.Start.In(loc)
	if ev.End.IsZero() {
		return from, from
	}
	to := ev.End.In(loc)
	if !to.After(from) {
		return from, from
	}
	if to.Equal(dateIn(to, loc)) {
		// Ends at 00:00: the last covered day is the one before.
		to = to.AddDate(0, 0, -1)
		if to.Before(from) {
			to = from
		}
	}
	return from, to
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SortEvents orders events by start, then longer first, then ID.
func SortEvents(items []model.Event) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].From.Equal(items[j].From) {
			return items[i].From.Before(items[j].From)
		}
		if !items[i].To.Equal(items[j].To) {
			return items[i].To.After(items[j].To)
		}
		return items[i].ID < items[j].ID
	})
}

package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "monthgrid/internal/log"
)

var (
	ErrEmptyBody  = errors.New("empty ICS body")
	ErrMissingUID = errors.New("missing UID")
	ErrNoStart    = errors.New("missing DTSTART")
)

// ParsedEvent is a VEVENT reduced to the fields the month grid needs.
// Start/End keep the zone the feed declared; Normalize converts them.
type ParsedEvent struct {
	Source Source

	UID      string
	Summary  string
	Location string

	Start  time.Time
	End    time.Time // exclusive, per RFC 5545; zero when DTEND is absent
	AllDay bool

	// Recurring is set when the VEVENT carries an RRULE. Only the base
	// instance is laid out.
	Recurring bool
	// IsOverride marks a RECURRENCE-ID instance of a recurring series.
	IsOverride bool
}

// ParseICS parses one ICS payload. Malformed VEVENTs are logged and skipped
// so a single bad entry never hides the rest of the feed.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, fmt.Errorf("ics %s: parse: %w", src.ID, err)
	}

	vevents := cal.Events()
	events := make([]ParsedEvent, 0, len(vevents))
	for _, ve := range vevents {
		ev, perr := parseVEvent(src, ve)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{Source: src}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return out, ErrMissingUID
	}
	out.UID = strings.TrimSpace(uid.Value)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("%w (uid %s)", ErrNoStart, out.UID)
	}
	out.AllDay = isDateValue(dtStart)

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("uid %s: DTSTART: %w", out.UID, err)
	}
	out.Start = start

	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		end, err := ve.GetEndAt()
		if err != nil {
			return out, fmt.Errorf("uid %s: DTEND: %w", out.UID, err)
		}
		out.End = end
	}

	out.Recurring = ve.GetProperty(ical.ComponentPropertyRrule) != nil
	out.IsOverride = ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")) != nil

	return out, nil
}

// isDateValue reports an all-day DTSTART: VALUE=DATE or a bare YYYYMMDD.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

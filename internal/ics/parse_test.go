package ics

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appLog "monthgrid/internal/log"
)

func TestMain(m *testing.M) {
	appLog.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

var sampleICS = strings.ReplaceAll(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//monthgrid//test//EN
BEGIN:VEVENT
UID:trip
SUMMARY:Trip
DTSTART;VALUE=DATE:20260105
DTEND;VALUE=DATE:20260108
END:VEVENT
BEGIN:VEVENT
UID:standup
SUMMARY:Standup
LOCATION:Room 1
DTSTART:20260106T010000Z
DTEND:20260106T013000Z
END:VEVENT
BEGIN:VEVENT
UID:weekly
SUMMARY:Weekly
DTSTART:20260107T090000Z
DTEND:20260107T100000Z
RRULE:FREQ=WEEKLY
END:VEVENT
BEGIN:VEVENT
UID:weekly
RECURRENCE-ID:20260114T090000Z
SUMMARY:Weekly moved
DTSTART:20260114T110000Z
DTEND:20260114T120000Z
END:VEVENT
BEGIN:VEVENT
SUMMARY:No UID
DTSTART:20260106T010000Z
END:VEVENT
END:VCALENDAR
`, "\n", "\r\n")

var workSource = Source{ID: "work", URL: "https://example.com/work.ics"}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(workSource, []byte(sampleICS))
	require.NoError(t, err)
	require.Len(t, events, 4, "VEVENT without UID is skipped")

	trip := events[0]
	assert.Equal(t, "trip", trip.UID)
	assert.True(t, trip.AllDay)
	assert.Equal(t, 5, trip.Start.Day())
	assert.Equal(t, 8, trip.End.Day())
	assert.Equal(t, workSource, trip.Source)

	standup := events[1]
	assert.False(t, standup.AllDay)
	assert.Equal(t, "Room 1", standup.Location)
	assert.True(t, standup.Start.Equal(time.Date(2026, time.January, 6, 1, 0, 0, 0, time.UTC)))
	assert.True(t, standup.End.Equal(time.Date(2026, time.January, 6, 1, 30, 0, 0, time.UTC)))

	assert.True(t, events[2].Recurring)
	assert.False(t, events[2].IsOverride)
	assert.True(t, events[3].IsOverride)
}

func TestParseICS_Errors(t *testing.T) {
	_, err := ParseICS(workSource, nil)
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestIsDateValue(t *testing.T) {
	events, err := ParseICS(workSource, []byte(strings.ReplaceAll(`BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:bare-date
DTSTART:20260301
END:VEVENT
END:VCALENDAR
`, "\n", "\r\n")))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
	assert.True(t, events[0].End.IsZero())
}

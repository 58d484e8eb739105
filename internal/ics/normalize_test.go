package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthgrid/internal/grid"
)

var kst = time.FixedZone("KST", 9*60*60)

func kstDate(m time.Month, d, h, min int) time.Time {
	return time.Date(2026, m, d, h, min, 0, 0, kst)
}

func januaryWindow() NormalizeConfig {
	return NormalizeConfig{
		DisplayLocation: kst,
		RangeStart:      kstDate(time.January, 1, 0, 0),
		RangeEnd:        kstDate(time.January, 31, 0, 0),
	}
}

func TestNormalize_FromParsedFeed(t *testing.T) {
	parsed, err := ParseICS(workSource, []byte(sampleICS))
	require.NoError(t, err)

	res, err := Normalize(parsed, januaryWindow())
	require.NoError(t, err)
	require.Len(t, res.Events, 3)

	trip, standup, weekly := res.Events[0], res.Events[1], res.Events[2]

	assert.Equal(t, "work/trip", trip.ID)
	assert.True(t, trip.AllDay)
	assert.True(t, trip.From.Equal(kstDate(time.January, 5, 0, 0)), "from %s", trip.From)
	assert.True(t, trip.To.Equal(kstDate(time.January, 7, 0, 0)), "exclusive DTEND becomes inclusive: %s", trip.To)

	assert.Equal(t, "work/standup", standup.ID)
	assert.True(t, standup.From.Equal(kstDate(time.January, 6, 10, 0)))
	assert.Equal(t, kst, standup.From.Location())
	assert.Equal(t, "work", standup.SourceID)

	assert.Equal(t, "work/weekly", weekly.ID)
	assert.Equal(t, "Weekly", weekly.Summary)
	assert.Equal(t, []string{"work/weekly"}, res.Recurring)
	assert.Equal(t, 1, res.Overrides)
}

func TestNormalize_FeedOnGrid(t *testing.T) {
	parsed, err := ParseICS(workSource, []byte(sampleICS))
	require.NoError(t, err)
	res, err := Normalize(parsed, januaryWindow())
	require.NoError(t, err)

	start := kstDate(time.January, 5, 0, 0) // Monday
	cells := grid.Build(grid.Params{Month: start, StartOf: start, Rows: 1, Events: res.Events, Now: start})

	var tripDays []int
	for i, c := range cells {
		for _, s := range c.Events {
			if s.EventID() == "work/trip" {
				tripDays = append(tripDays, i)
				assert.Equal(t, 0, indexOf(c.Events, s), "trip keeps lane 0")
			}
		}
	}
	assert.Equal(t, []int{0, 1, 2}, tripDays)
}

func indexOf(slots []grid.Slot, want grid.Slot) int {
	for i, s := range slots {
		if s.EventID() == want.EventID() {
			return i
		}
	}
	return -1
}

func TestNormalize_EndBoundaries(t *testing.T) {
	src := Source{ID: "s"}
	events := []ParsedEvent{
		{Source: src, UID: "midnight", Start: kstDate(time.January, 10, 22, 0), End: kstDate(time.January, 11, 0, 0)},
		{Source: src, UID: "overnight", Start: kstDate(time.January, 12, 22, 0), End: kstDate(time.January, 13, 2, 0)},
		{Source: src, UID: "no-end", Start: kstDate(time.January, 14, 9, 0)},
		{Source: src, UID: "no-end-allday", AllDay: true, Start: time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{Source: src, UID: "inverted", Start: kstDate(time.January, 16, 9, 0), End: kstDate(time.January, 16, 8, 0)},
	}

	res, err := Normalize(events, januaryWindow())
	require.NoError(t, err)
	require.Len(t, res.Events, 5)

	byID := make(map[string][2]time.Time)
	for _, e := range res.Events {
		assert.False(t, e.To.Before(e.From), "%s has From > To", e.ID)
		byID[e.ID] = [2]time.Time{e.From, e.To}
	}

	assert.Equal(t, 10, byID["s/midnight"][1].Day(), "midnight end stays on the start day")
	assert.Equal(t, 13, byID["s/overnight"][1].Day())
	assert.True(t, byID["s/no-end"][0].Equal(byID["s/no-end"][1]))
	assert.True(t, byID["s/no-end-allday"][1].Equal(kstDate(time.January, 15, 0, 0)))
	assert.True(t, byID["s/inverted"][0].Equal(byID["s/inverted"][1]))
}

func TestNormalize_RangeAndDuplicates(t *testing.T) {
	src := Source{ID: "s"}
	events := []ParsedEvent{
		{Source: src, UID: "dec", Start: kstDate(time.December, 1, 9, 0), End: kstDate(time.December, 1, 10, 0)},
		{Source: src, UID: "late", Start: time.Date(2026, time.February, 3, 9, 0, 0, 0, kst), End: time.Date(2026, time.February, 3, 10, 0, 0, 0, kst)},
		{Source: src, UID: "dup", Summary: "first", Start: kstDate(time.January, 3, 9, 0), End: kstDate(time.January, 3, 10, 0)},
		{Source: src, UID: "dup", Summary: "second", Start: kstDate(time.January, 3, 9, 0), End: kstDate(time.January, 3, 10, 0)},
		{Source: Source{ID: "other"}, UID: "dup", Start: kstDate(time.January, 2, 9, 0), End: kstDate(time.January, 2, 10, 0)},
	}

	res, err := Normalize(events, januaryWindow())
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "other/dup", res.Events[0].ID)
	assert.Equal(t, "s/dup", res.Events[1].ID)
	assert.Equal(t, "first", res.Events[1].Summary)
	assert.Equal(t, 1, res.Duplicates)

	_, err = Normalize(nil, NormalizeConfig{RangeStart: kstDate(time.January, 2, 0, 0), RangeEnd: kstDate(time.January, 1, 0, 0)})
	assert.Error(t, err)
}

func TestSortEvents_LongerFirstOnSameStart(t *testing.T) {
	res, err := Normalize([]ParsedEvent{
		{Source: Source{ID: "s"}, UID: "b-short", AllDay: true, Start: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), End: time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC)},
		{Source: Source{ID: "s"}, UID: "a-long", AllDay: true, Start: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), End: time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC)},
	}, januaryWindow())
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "s/a-long", res.Events[0].ID)
}

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calendarReply = `Here are your upcoming events:

1. **Daughter's Birthday**
   - **Date:** 2025-12-10
   - **Time:** 10:00 AM - 11:00 AM
   - **Location:** Hyderabad
   - [View Event](https://calendar.example.com/evt1)

2. **Team Lunch**
   - **Date:** December 12, 2025
   - **Location:** Cafe
`

func TestEventsNumberedBlocks(t *testing.T) {
	events := Events(statusEnvelope(calendarReply))
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "Daughter's Birthday", first.Summary)
	assert.Equal(t, "2025-12-10", first.Start.Date)
	assert.Equal(t, "2025-12-10T10:00:00Z", first.Start.DateTime)
	assert.Equal(t, "Hyderabad", first.Location)
	assert.Equal(t, "https://calendar.example.com/evt1", first.HTMLLink)
	assert.Contains(t, first.Description, "Time: 10:00 AM - 11:00 AM")
	assert.Contains(t, first.Description, "Location: Hyderabad")

	second := events[1]
	assert.Equal(t, "Team Lunch", second.Summary)
	assert.Equal(t, "December 12, 2025", second.Start.Date)
	assert.Equal(t, "2025-12-12T00:00:00Z", second.Start.DateTime)
	assert.Equal(t, "Cafe", second.Location)

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, second.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestEventsRoundTrip(t *testing.T) {
	text := "1. **Team Lunch**\n- **Location:** Cafe\n"
	events := Events(statusEnvelope(text))
	require.Len(t, events, 1)
	assert.Equal(t, "Team Lunch", events[0].Summary)
	assert.Equal(t, "Cafe", events[0].Location)
}

func TestEventsUnparsableDateStaysPlain(t *testing.T) {
	text := "1. **Planning Sync**\n- **Date:** TBD\n"
	events := Events(statusEnvelope(text))
	require.Len(t, events, 1)
	assert.Equal(t, "TBD", events[0].Start.Date)
	assert.Empty(t, events[0].Start.DateTime)
}

func TestEventsDateTimeCombination(t *testing.T) {
	text := "1. **Review**\n- **Date:** 2025-12-10\n- **Time:** 10:00 AM\n"
	events := Events(statusEnvelope(text))
	require.Len(t, events, 1)
	assert.Equal(t, "2025-12-10T10:00:00Z", events[0].Start.DateTime)
}

func TestEventsEndDateAndStatus(t *testing.T) {
	text := strings.Join([]string{
		"1. **Offsite**",
		"- **Start Date:** 2025-12-01",
		"- **End Date:** 2025-12-03",
		"- **Status:** confirmed",
		"- **Event Link:** https://example.com/offsite",
	}, "\n")

	events := Events(statusEnvelope(text))
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "2025-12-01", ev.Start.Date)
	require.NotNil(t, ev.End)
	assert.Equal(t, "2025-12-03", ev.End.Date)
	assert.Equal(t, "2025-12-03T00:00:00Z", ev.End.DateTime)
	assert.Equal(t, "confirmed", ev.Status)
	assert.Equal(t, "https://example.com/offsite", ev.HTMLLink)
}

func TestEventsLinkLabelWithMarkdownValue(t *testing.T) {
	text := "1. **Party**\n- **Link to Event:** [open](https://example.com/party)\n"
	events := Events(statusEnvelope(text))
	require.Len(t, events, 1)
	assert.Equal(t, "https://example.com/party", events[0].HTMLLink)
}

func TestEventsBulletedEventTitleMarker(t *testing.T) {
	text := strings.Join([]string{
		"- **Event Title:** Anniversary Dinner",
		"- **Date:** 2025-11-20",
		"- **Event:** Movie Night",
		"- **Location:** Home",
	}, "\n")

	events := Events(statusEnvelope(text))
	require.Len(t, events, 2)
	assert.Equal(t, "Anniversary Dinner", events[0].Summary)
	assert.Equal(t, "2025-11-20", events[0].Start.Date)
	assert.Equal(t, "Movie Night", events[1].Summary)
	assert.Equal(t, "Home", events[1].Location)
}

func TestEventsLetteredMarkersAndPrefixStripping(t *testing.T) {
	text := "a) **Event: Graduation**\nb) Title: Rehearsal\n"
	events := Events(statusEnvelope(text))
	require.Len(t, events, 2)
	assert.Equal(t, "Graduation", events[0].Summary)
	assert.Equal(t, "Rehearsal", events[1].Summary)
}

func TestEventsPreambleIgnored(t *testing.T) {
	text := "- **Location:** orphaned detail\nSome intro text.\n1. **Real Event**\n"
	events := Events(statusEnvelope(text))
	require.Len(t, events, 1)
	assert.Equal(t, "Real Event", events[0].Summary)
	assert.Empty(t, events[0].Location)
}

func TestEventsEmbeddedJSONFallback(t *testing.T) {
	text := `No markdown here, but raw data: [{"summary": "From JSON", "start": {"date": "2025-12-01"}}]`
	events := Events(statusEnvelope(text))
	require.Len(t, events, 1)
	assert.Equal(t, "From JSON", events[0].Summary)
	assert.Equal(t, "2025-12-01", events[0].Start.Date)
	assert.NotEmpty(t, events[0].ID)
}

func TestEventsEmbeddedJSONRepaired(t *testing.T) {
	// Trailing comma is invalid JSON; the repair pass should recover it.
	text := `data: [{"summary": "Repaired",},]`
	events := Events(statusEnvelope(text))
	require.Len(t, events, 1)
	assert.Equal(t, "Repaired", events[0].Summary)
}

func TestEventsMalformedJSONFallsBackEmpty(t *testing.T) {
	text := "events: [ this is not json { at all"
	assert.Empty(t, Events(statusEnvelope(text)))
}

func TestEventsRawArrayFallback(t *testing.T) {
	raw := []any{
		map[string]any{"id": "abc", "summary": "Existing", "start": map[string]any{"date": "2025-01-01"}},
		map[string]any{"summary": "No ID"},
	}
	events := Events(raw)
	require.Len(t, events, 2)
	assert.Equal(t, "abc", events[0].ID)
	assert.Equal(t, "Existing", events[0].Summary)
	assert.NotEmpty(t, events[1].ID)
}

func TestEventsItemsFallback(t *testing.T) {
	raw := map[string]any{
		"items": []any{map[string]any{"summary": "Wrapped"}},
	}
	events := Events(raw)
	require.Len(t, events, 1)
	assert.Equal(t, "Wrapped", events[0].Summary)
}

func TestEventsUnrecognizedShapesYieldEmpty(t *testing.T) {
	cases := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"empty map", map[string]any{}},
		{"items not array", map[string]any{"items": "nope"}},
		{"number", 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := Events(tc.raw)
			assert.NotNil(t, events)
			assert.Empty(t, events)
		})
	}
}

func TestEventsIdempotentExceptIDs(t *testing.T) {
	first := Events(statusEnvelope(calendarReply))
	second := Events(statusEnvelope(calendarReply))
	require.Equal(t, len(first), len(second))

	for i := range first {
		assert.NotEqual(t, first[i].ID, second[i].ID)
		a, b := first[i], second[i]
		a.ID, b.ID = "", ""
		assert.Equal(t, a, b)
	}
}

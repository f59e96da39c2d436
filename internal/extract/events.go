package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"otto/internal/jsonx"
	"otto/internal/utils/id"
)

// EventTime holds one end of an event's time range. DateTime is set only
// when the raw date string parses to a real calendar date.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
}

// CalendarEvent is one event assembled from an agent's calendar reply.
// The ID is minted per parse; events carry no identity across calls.
type CalendarEvent struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Start       EventTime  `json:"start"`
	End         *EventTime `json:"end,omitempty"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Status      string     `json:"status,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
}

// Line rules, in priority order: new-item markers are always checked before
// detail-line markers so a "- **Event Title:** ..." line opens an event
// instead of being swallowed as a detail of the previous one.
var (
	ordinalTitleRe = regexp.MustCompile(`^(?:\d+|[A-Za-z])[.)]\s+(.+)$`)
	eventLabelRe   = regexp.MustCompile(`(?i)^[-*]\s*\*\*\s*(?:event\s*title|event)\s*:?\s*\*\*\s*:?\s*(.+)$`)
	detailLineRe   = regexp.MustCompile(`^[-*]\s*\*\*\s*([^*]+?)\s*:?\s*\*\*\s*:?\s*(.*)$`)
	viewEventRe    = regexp.MustCompile(`\[View Event\]\((.*?)\)`)
	linkValueRe    = regexp.MustCompile(`\[[^\]]*\]\(([^)]*)\)`)
	leadingBoldRe  = regexp.MustCompile(`^\*\*(.*?)\*\*`)
	titlePrefixRe  = regexp.MustCompile(`(?i)^(?:event|title)\s*:\s*`)
)

// Events parses a raw agent response into calendar events.
//
// Fallback chain: structured markdown, then an embedded JSON array, then the
// raw response itself when it is already an array (or carries an "items"
// array), then empty. Never returns an error.
func Events(raw any) []CalendarEvent {
	decoded := decode(raw)
	text := Text(decoded)
	if text == "" {
		return eventsFromValue(decoded)
	}
	if events := eventsFromMarkdown(text); len(events) > 0 {
		return events
	}
	if events := eventsFromEmbeddedJSON(text); len(events) > 0 {
		return events
	}
	return []CalendarEvent{}
}

func eventsFromMarkdown(text string) []CalendarEvent {
	events := []CalendarEvent{}
	var current *CalendarEvent
	flush := func() {
		if current != nil {
			events = append(events, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if title, ok := matchNewEvent(line); ok {
			flush()
			current = &CalendarEvent{ID: id.NewEventID(), Summary: title}
			continue
		}
		if current == nil {
			// Preamble before the first event marker is ignored.
			continue
		}
		if label, value, ok := matchDetail(line); ok {
			applyDetail(current, label, value)
		}
		if m := viewEventRe.FindStringSubmatch(line); m != nil && current.HTMLLink == "" {
			current.HTMLLink = m[1]
		}
	}
	flush()
	return events
}

// matchNewEvent reports whether the line introduces a new event and returns
// the cleaned title. Both marker styles coexist because agents vary between
// numbered lists and bulleted "Event Title:" blocks.
func matchNewEvent(line string) (string, bool) {
	if m := ordinalTitleRe.FindStringSubmatch(line); m != nil {
		return cleanTitle(m[1]), true
	}
	if m := eventLabelRe.FindStringSubmatch(line); m != nil {
		return cleanTitle(m[1]), true
	}
	return "", false
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if m := leadingBoldRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else {
		s = strings.ReplaceAll(s, "**", "")
	}
	s = titlePrefixRe.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}

func matchDetail(line string) (label, value string, ok bool) {
	m := detailLineRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// applyDetail routes a recognized label to the event field it sets. Labels
// compare case-insensitively with internal whitespace ignored; anything
// unrecognized is dropped without complaint.
func applyDetail(ev *CalendarEvent, label, value string) {
	switch normalizeLabel(label) {
	case "date", "startdate":
		ev.Start.Date = value
		if t, ok := parseDate(value); ok {
			ev.Start.DateTime = t.Format(time.RFC3339)
		}
	case "enddate":
		if ev.End == nil {
			ev.End = &EventTime{}
		}
		ev.End.Date = value
		if t, ok := parseDate(value); ok {
			ev.End.DateTime = t.Format(time.RFC3339)
		}
	case "time":
		ev.Description += "Time: " + value + "\n"
		if ev.Start.Date != "" {
			if t, ok := combineDateTime(ev.Start.Date, value); ok {
				ev.Start.DateTime = t.Format(time.RFC3339)
			}
		}
	case "location":
		ev.Location = value
		ev.Description += "Location: " + value + "\n"
	case "status":
		ev.Status = value
	case "linktoevent", "eventlink":
		if m := linkValueRe.FindStringSubmatch(value); m != nil {
			ev.HTMLLink = m[1]
		} else if value != "" {
			ev.HTMLLink = value
		}
	}
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), ""))
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006",
	"01/02/2006",
	"2006/01/02",
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var timeLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"15:04",
	"3 PM",
	"3PM",
	"15:04:05",
}

// combineDateTime merges a parsed date with a clock time. Ranges such as
// "9:00 AM - 10:00 AM" contribute their opening time.
func combineDateTime(dateValue, timeValue string) (time.Time, bool) {
	date, ok := parseDate(dateValue)
	if !ok {
		return time.Time{}, false
	}
	first := timeValue
	for _, sep := range []string{" - ", " – ", " to "} {
		if idx := strings.Index(first, sep); idx >= 0 {
			first = first[:idx]
			break
		}
	}
	first = strings.TrimSpace(first)
	for _, layout := range timeLayouts {
		clock, err := time.Parse(layout, strings.ToUpper(first))
		if err != nil {
			continue
		}
		return time.Date(date.Year(), date.Month(), date.Day(),
			clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), true
	}
	return time.Time{}, false
}

// eventsFromEmbeddedJSON hunts for a bracketed array-of-objects inside the
// reply text. Agents occasionally emit near-JSON, so a jsonrepair pass runs
// before giving up. Failures are swallowed.
func eventsFromEmbeddedJSON(text string) []CalendarEvent {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}
	candidate := text[start : end+1]
	if !strings.Contains(candidate, "{") {
		return nil
	}

	var events []CalendarEvent
	if err := jsonx.Unmarshal([]byte(candidate), &events); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			return nil
		}
		events = nil
		if err := jsonx.Unmarshal([]byte(repaired), &events); err != nil {
			return nil
		}
	}
	return fillEventIDs(events)
}

// eventsFromValue handles responses that skipped the envelope entirely:
// a bare array of event objects or a wrapper with an "items" array.
func eventsFromValue(decoded any) []CalendarEvent {
	switch v := decoded.(type) {
	case []any:
		return eventsFromList(v)
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return eventsFromList(items)
		}
	}
	return []CalendarEvent{}
}

func eventsFromList(list []any) []CalendarEvent {
	data, err := jsonx.Marshal(list)
	if err != nil {
		return []CalendarEvent{}
	}
	var events []CalendarEvent
	if err := jsonx.Unmarshal(data, &events); err != nil {
		return []CalendarEvent{}
	}
	return fillEventIDs(events)
}

func fillEventIDs(events []CalendarEvent) []CalendarEvent {
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = id.NewEventID()
		}
	}
	if events == nil {
		events = []CalendarEvent{}
	}
	return events
}

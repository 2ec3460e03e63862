package domain

import "time"

// Source describes where a result set came from. It is assigned by the query
// service for observability and never persisted on the remote calendar.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "local-fallback"
	SourceSeed     Source = "seed"
)

// ISOLayout is the timestamp layout used everywhere inside the core:
// second precision, no zone designator.
const ISOLayout = "2006-01-02T15:04:05"

// CalendarEvent is a single calendar entry. The ID doubles as the iCalendar
// UID and is immutable once assigned.
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Start       string `json:"start"` // ISOLayout
	End         string `json:"end"`   // ISOLayout
	IsPersonal  bool   `json:"isPersonal"`
	AgentID     string `json:"agentId,omitempty"` // meaningful only when IsPersonal
	Source      Source `json:"source,omitempty"`
}

// StartTime parses the start timestamp. Returns the zero time when the value
// does not conform to ISOLayout (the codec passes malformed values through
// unchanged, so this can happen for events decoded from foreign servers).
func (e *CalendarEvent) StartTime() time.Time {
	t, err := time.Parse(ISOLayout, e.Start)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EndTime parses the end timestamp, zero time on malformed input.
func (e *CalendarEvent) EndTime() time.Time {
	t, err := time.Parse(ISOLayout, e.End)
	if err != nil {
		return time.Time{}
	}
	return t
}

// InMonth reports whether the event starts in the given year and month.
func (e *CalendarEvent) InMonth(year int, month time.Month) bool {
	t := e.StartTime()
	return t.Year() == year && t.Month() == month
}

// VisibleTo reports whether the event may appear in the view scoped to the
// given agent. General events are visible to everyone; personal events only
// to their owner.
func (e *CalendarEvent) VisibleTo(agentID string) bool {
	if !e.IsPersonal {
		return true
	}
	return agentID != "" && e.AgentID == agentID
}


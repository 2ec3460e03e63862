// Package ics converts between CalendarEvent records and iCalendar text.
package ics

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/arfacturas8-ai/crm-calendar/internal/domain"
)

const (
	// ProductID identifies this system in generated VCALENDAR documents.
	ProductID = "-//Arfacturas CRM//Calendar Sync//EN"

	// PropPersonal and PropAgentID are extension properties carrying the
	// ownership model across the CalDAV boundary.
	PropPersonal = "X-PERSONAL"
	PropAgentID  = "X-AGENT-ID"
)

// maxLineLen bounds a single content line during decoding.
const maxLineLen = 1 << 20

// Decode scans raw iCalendar text and returns every well-formed VEVENT block
// as a CalendarEvent. Unknown properties are ignored and a block without a
// closing END:VEVENT is dropped. Decode never fails: garbage in, fewer events
// out.
func Decode(data string) []domain.CalendarEvent {
	var events []domain.CalendarEvent
	var cur *domain.CalendarEvent

	sc := bufio.NewScanner(strings.NewReader(data))
	// The default 64KB line limit would abort the scan and drop every
	// trailing block behind one oversized line.
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		switch {
		case line == "BEGIN:VEVENT":
			cur = &domain.CalendarEvent{}
			continue
		case line == "END:VEVENT":
			if cur != nil {
				events = append(events, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch {
		case key == "UID":
			cur.ID = value
		case key == "SUMMARY":
			cur.Title = unescapeText(value)
		case key == "DESCRIPTION":
			cur.Description = unescapeText(value)
		case key == "LOCATION":
			cur.Location = unescapeText(value)
		case strings.HasPrefix(key, "DTSTART"):
			// Prefix match: the property may carry parameters (DTSTART;TZID=...).
			cur.Start = ParseCompactTime(value)
		case strings.HasPrefix(key, "DTEND"):
			cur.End = ParseCompactTime(value)
		case key == PropPersonal:
			cur.IsPersonal = value == "TRUE"
		case key == PropAgentID:
			cur.AgentID = value
		}
	}

	return events
}

// unescapeText reverses RFC 5545 TEXT escaping. Encode escapes the display
// fields through go-ical, so commas, semicolons, backslashes and newlines
// must be folded back here or they reach the dashboard corrupted.
func unescapeText(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c != '\\' || i+1 == len(v) {
			b.WriteByte(c)
			continue
		}
		i++
		switch v[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte(v[i])
		}
	}
	return b.String()
}

// ParseCompactTime converts a compact iCalendar timestamp (20260128T100000 or
// 20260128T100000Z) into ISOLayout form (2026-01-28T10:00:00) by positional
// decomposition. Anything shorter than 15 characters is returned unchanged.
func ParseCompactTime(v string) string {
	if len(v) < 15 {
		return v
	}
	return fmt.Sprintf("%s-%s-%sT%s:%s:%s",
		v[0:4], v[4:6], v[6:8], v[9:11], v[11:13], v[13:15])
}

// FormatCompactTime converts an ISOLayout timestamp back into the compact
// iCalendar form by stripping date and time punctuation.
func FormatCompactTime(v string) string {
	v = strings.ReplaceAll(v, "-", "")
	return strings.ReplaceAll(v, ":", "")
}

// Calendar builds a single-event VCALENDAR document for the given event.
func Calendar(e *domain.CalendarEvent) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, e.ID)
	vevent.Props.SetText(ical.PropSummary, e.Title)

	setCompactTime(vevent.Props, ical.PropDateTimeStart, e.Start)
	setCompactTime(vevent.Props, ical.PropDateTimeEnd, e.End)

	if e.Description != "" {
		vevent.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Location != "" {
		vevent.Props.SetText(ical.PropLocation, e.Location)
	}

	// Extension properties are written raw: SetText would tag them with a
	// VALUE=TEXT parameter, which the text-level feed filter does not expect.
	if e.IsPersonal {
		setRaw(vevent.Props, PropPersonal, "TRUE")
	} else {
		setRaw(vevent.Props, PropPersonal, "FALSE")
	}
	if e.AgentID != "" {
		setRaw(vevent.Props, PropAgentID, e.AgentID)
	}

	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}

// Encode serializes the event into iCalendar text.
func Encode(e *domain.CalendarEvent) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(Calendar(e)); err != nil {
		return "", fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return buf.String(), nil
}

// setCompactTime writes a date-time property with the compact wire value,
// bypassing go-ical's time.Time formatting so that timestamps survive
// byte-for-byte round trips.
func setCompactTime(props ical.Props, name, iso string) {
	setRaw(props, name, FormatCompactTime(iso))
}

func setRaw(props ical.Props, name, value string) {
	p := ical.NewProp(name)
	p.Value = value
	props.Set(p)
}

package ics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arfacturas8-ai/crm-calendar/internal/domain"
)

func TestParseCompactTime(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"utc suffix", "20260128T100000Z", "2026-01-28T10:00:00"},
		{"no suffix", "20260128T100000", "2026-01-28T10:00:00"},
		{"too short passes through", "20260128T1000", "20260128T1000"},
		{"date only passes through", "20260128", "20260128"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCompactTime(tc.in))
		})
	}
}

func TestFormatCompactTime(t *testing.T) {
	assert.Equal(t, "20260315T140000", FormatCompactTime("2026-03-15T14:00:00"))
}

func TestDecode(t *testing.T) {
	input := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Remote//Server//EN",
		"BEGIN:VEVENT",
		"UID:abc-1@example.com",
		"SUMMARY:Handover appointment",
		"DESCRIPTION:Keys and documents",
		"LOCATION:Unit 1204",
		"DTSTART;TZID=Asia/Dubai:20260312T093000",
		"DTEND;TZID=Asia/Dubai:20260312T100000",
		"X-PERSONAL:TRUE",
		"X-AGENT-ID:42",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:abc-2@example.com",
		"SUMMARY:Team standup",
		"DTSTART:20260313T080000Z",
		"DTEND:20260313T081500Z",
		"X-PERSONAL:FALSE",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	events := Decode(input)
	require.Len(t, events, 2)

	assert.Equal(t, domain.CalendarEvent{
		ID:          "abc-1@example.com",
		Title:       "Handover appointment",
		Description: "Keys and documents",
		Location:    "Unit 1204",
		Start:       "2026-03-12T09:30:00",
		End:         "2026-03-12T10:00:00",
		IsPersonal:  true,
		AgentID:     "42",
	}, events[0])

	assert.Equal(t, "abc-2@example.com", events[1].ID)
	assert.False(t, events[1].IsPersonal)
	assert.Empty(t, events[1].AgentID)
	assert.Equal(t, "2026-03-13T08:00:00", events[1].Start)
}

func TestDecodeDropsUnterminatedBlock(t *testing.T) {
	input := strings.Join([]string{
		"BEGIN:VEVENT",
		"UID:complete@example.com",
		"SUMMARY:Complete",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:truncated@example.com",
		"SUMMARY:Truncated",
	}, "\n")

	events := Decode(input)
	require.Len(t, events, 1)
	assert.Equal(t, "complete@example.com", events[0].ID)
}

func TestDecodeIgnoresGarbage(t *testing.T) {
	assert.Empty(t, Decode("not ical at all"))
	assert.Empty(t, Decode(""))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := domain.CalendarEvent{
		ID:          "1757000000000-a1b2c3d4@crm.arfacturas.ai",
		Title:       "Site visit",
		Description: "Second viewing with buyer",
		Location:    "Palm Gardens villa 7",
		Start:       "2026-03-15T14:00:00",
		End:         "2026-03-15T15:30:00",
		IsPersonal:  true,
		AgentID:     "42",
	}

	text, err := Encode(&original)
	require.NoError(t, err)

	assert.Contains(t, text, "BEGIN:VCALENDAR")
	assert.Contains(t, text, "UID:"+original.ID)
	assert.Contains(t, text, "DTSTART:20260315T140000")
	assert.Contains(t, text, "X-PERSONAL:TRUE")

	decoded := Decode(text)
	require.Len(t, decoded, 1)
	assert.Equal(t, original, decoded[0])
}

func TestEncodeDecodeRoundTripReservedCharacters(t *testing.T) {
	original := domain.CalendarEvent{
		ID:          "1757000000001-e5f6a7b8@crm.arfacturas.ai",
		Title:       "Handover: keys, documents",
		Description: "Bring ID; originals only\nSecond viewing optional",
		Location:    `Plot 7\Block C`,
		Start:       "2026-03-16T09:00:00",
		End:         "2026-03-16T09:30:00",
	}

	text, err := Encode(&original)
	require.NoError(t, err)
	assert.Contains(t, text, `keys\, documents`)

	decoded := Decode(text)
	require.Len(t, decoded, 1)
	assert.Equal(t, original, decoded[0])
}

func TestDecodeUnescapesTextValues(t *testing.T) {
	input := strings.Join([]string{
		"BEGIN:VEVENT",
		"UID:esc@example.com",
		`SUMMARY:Handover: keys\, documents`,
		`DESCRIPTION:Bring ID\; originals only\nSecond line`,
		`LOCATION:Plot 7\\Block C`,
		"END:VEVENT",
	}, "\r\n")

	events := Decode(input)
	require.Len(t, events, 1)
	assert.Equal(t, "Handover: keys, documents", events[0].Title)
	assert.Equal(t, "Bring ID; originals only\nSecond line", events[0].Description)
	assert.Equal(t, `Plot 7\Block C`, events[0].Location)
}

func TestDecodeSurvivesOversizedLine(t *testing.T) {
	input := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"X-BULK-PAYLOAD:" + strings.Repeat("x", 100*1024),
		"BEGIN:VEVENT",
		"UID:after-long-line@example.com",
		"SUMMARY:Still decoded",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	events := Decode(input)
	require.Len(t, events, 1)
	assert.Equal(t, "after-long-line@example.com", events[0].ID)
}

func TestEncodeOmitsEmptyOptionalFields(t *testing.T) {
	event := domain.CalendarEvent{
		ID:    "general-1@crm.arfacturas.ai",
		Title: "Quarterly kickoff",
		Start: "2026-04-01T09:00:00",
		End:   "2026-04-01T10:00:00",
	}

	text, err := Encode(&event)
	require.NoError(t, err)

	assert.NotContains(t, text, "DESCRIPTION")
	assert.NotContains(t, text, "LOCATION")
	assert.NotContains(t, text, "X-AGENT-ID")
	assert.Contains(t, text, "X-PERSONAL:FALSE")
}

package service

import (
	"fmt"
	"time"

	"github.com/arfacturas8-ai/crm-calendar/internal/domain"
)

// seedEvents returns a deterministic set of general events for the given
// month, used to keep the dashboard populated when both the remote calendar
// and the fallback store come up empty. Every seed event carries
// Source=seed so callers can tell synthetic data from a real empty month.
func seedEvents(year int, month time.Month) []domain.CalendarEvent {
	day := func(d, h, m int) string {
		return time.Date(year, month, d, h, m, 0, 0, time.UTC).Format(domain.ISOLayout)
	}
	id := func(n int) string {
		return fmt.Sprintf("seed-%04d%02d-%d@%s", year, int(month), n, uidDomain)
	}

	return []domain.CalendarEvent{
		{
			ID:     id(1),
			Title:  "Team sales sync",
			Start:  day(3, 9, 30),
			End:    day(3, 10, 0),
			Source: domain.SourceSeed,
		},
		{
			ID:       id(2),
			Title:    "Portfolio review",
			Location: "Head office",
			Start:    day(12, 15, 0),
			End:      day(12, 16, 0),
			Source:   domain.SourceSeed,
		},
		{
			ID:          id(3),
			Title:       "Open house at Marina Residences",
			Description: "Walk-in viewing, all agents welcome",
			Location:    "Marina Residences, Tower B",
			Start:       day(18, 11, 0),
			End:         day(18, 13, 0),
			Source:      domain.SourceSeed,
		},
	}
}

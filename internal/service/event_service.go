package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arfacturas8-ai/crm-calendar/internal/domain"
	"github.com/arfacturas8-ai/crm-calendar/internal/ics"
	"github.com/arfacturas8-ai/crm-calendar/internal/storage"
)

// uidDomain is the fixed suffix of every generated event id.
const uidDomain = "crm.arfacturas.ai"

// RemoteCalendar is the slice of the CalDAV client the services depend on.
type RemoteCalendar interface {
	Query(ctx context.Context, from, to time.Time) ([]string, error)
	Create(ctx context.Context, event *domain.CalendarEvent) error
	Delete(ctx context.Context, id string) error
}

// EventService orchestrates calendar reads and writes: remote calendar first,
// local fallback store second, seed data last. Read failures are absorbed, a
// caller always gets a list back.
type EventService struct {
	remote RemoteCalendar
	store  *storage.FallbackStore
	logger *slog.Logger
}

// NewEventService creates an event service.
func NewEventService(logger *slog.Logger, remote RemoteCalendar, store *storage.FallbackStore) *EventService {
	return &EventService{
		remote: remote,
		store:  store,
		logger: logger,
	}
}

// Events returns the events of the given month. When agentID is non-empty the
// result is scoped to that agent: personal events of other agents are dropped,
// general events always pass. The Source field on each event records which
// tier produced the result set.
func (s *EventService) Events(ctx context.Context, year int, month time.Month, agentID string) []domain.CalendarEvent {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	blocks, err := s.remote.Query(ctx, from, to)
	if err == nil {
		var events []domain.CalendarEvent
		for _, block := range blocks {
			events = append(events, ics.Decode(block)...)
		}
		return tagSource(filterVisible(events, agentID), domain.SourceRemote)
	}
	s.logger.Warn("remote calendar unavailable, using fallback store", "year", year, "month", int(month), "error", err)

	stored, err := s.store.ForMonth(year, month)
	if err != nil {
		s.logger.Error("read fallback store", "error", err)
	}
	if events := tagSource(filterVisible(stored, agentID), domain.SourceFallback); len(events) > 0 {
		return events
	}

	// Both tiers came up empty: keep the dashboard populated with
	// deterministic seed events, marked as such.
	return seedEvents(year, month)
}

// CreateInput is the write-service request.
type CreateInput struct {
	Title       string
	Description string
	Location    string
	Start       string
	End         string
	IsPersonal  bool
	AgentID     string
}

// CreateResult reports where the created event ended up.
type CreateResult struct {
	ID             string
	StoredRemotely bool
}

// Create validates the input, generates an id and stores the event on the
// remote calendar, falling back to the local store when the remote is
// unreachable. Invalid input fails outright; there is nothing valid to store.
func (s *EventService) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	event, err := s.validate(in)
	if err != nil {
		return CreateResult{}, err
	}
	event.ID = newEventID()

	err = s.remote.Create(ctx, &event)
	if err == nil {
		return CreateResult{ID: event.ID, StoredRemotely: true}, nil
	}
	s.logger.Warn("remote create failed, writing to fallback store", "id", event.ID, "error", err)

	if err := s.store.Append(event); err != nil {
		// Last line of defense failed; the event is lost.
		s.logger.Error("fallback store append failed, event lost", "id", event.ID, "error", err)
	}
	return CreateResult{ID: event.ID, StoredRemotely: false}, nil
}

// Delete removes an event from the remote calendar. Deletion has no offline
// path: when the remote is unreachable this simply reports failure.
func (s *EventService) Delete(ctx context.Context, id string) bool {
	if err := s.remote.Delete(ctx, id); err != nil {
		s.logger.Warn("remote delete failed", "id", id, "error", err)
		return false
	}
	return true
}

// validate checks required fields and time ordering at the write boundary and
// normalizes timestamps to ISOLayout.
func (s *EventService) validate(in CreateInput) (domain.CalendarEvent, error) {
	var event domain.CalendarEvent

	if in.Title == "" {
		return event, fmt.Errorf("title is required")
	}

	start, err := normalizeTime(in.Start)
	if err != nil {
		return event, fmt.Errorf("invalid start: %w", err)
	}
	end, err := normalizeTime(in.End)
	if err != nil {
		return event, fmt.Errorf("invalid end: %w", err)
	}
	if end.Before(start) {
		return event, fmt.Errorf("end precedes start")
	}

	if in.IsPersonal && in.AgentID == "" {
		return event, fmt.Errorf("agentId is required for a personal event")
	}

	event = domain.CalendarEvent{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Start:       start.Format(domain.ISOLayout),
		End:         end.Format(domain.ISOLayout),
		IsPersonal:  in.IsPersonal,
	}
	if in.IsPersonal {
		event.AgentID = in.AgentID
	}
	return event, nil
}

// normalizeTime accepts minute- or second-precision ISO timestamps.
func normalizeTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	if t, err := time.Parse(domain.ISOLayout, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", v)
}

// filterVisible applies the agent-scoped view. An empty agentID is the
// unscoped team view and passes everything through unchanged.
func filterVisible(events []domain.CalendarEvent, agentID string) []domain.CalendarEvent {
	if agentID == "" {
		return events
	}
	var visible []domain.CalendarEvent
	for _, e := range events {
		if e.VisibleTo(agentID) {
			visible = append(visible, e)
		}
	}
	return visible
}

func tagSource(events []domain.CalendarEvent, src domain.Source) []domain.CalendarEvent {
	for i := range events {
		events[i].Source = src
	}
	return events
}

// newEventID generates an immutable event id: creation timestamp plus a
// random suffix under a fixed domain.
func newEventID() string {
	return fmt.Sprintf("%d-%s@%s", time.Now().UnixMilli(), uuid.NewString()[:8], uidDomain)
}

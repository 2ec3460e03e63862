// Package caldav talks to the remote calendar server over the CalDAV
// protocol. It is the only component with network access to the calendar.
package caldav

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/arfacturas8-ai/crm-calendar/internal/domain"
	"github.com/arfacturas8-ai/crm-calendar/internal/ics"
)

// Client is a CalDAV client bound to a single calendar collection. All
// callers share one set of Basic Auth credentials; per-agent separation is
// enforced by the services on top, not by the remote server.
type Client struct {
	calendarPath string
	logger       *slog.Logger
	client       *caldav.Client
}

// NewClient creates a CalDAV client for the given server and collection.
func NewClient(logger *slog.Logger, baseURL, username, password, calendarPath string) (*Client, error) {
	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: username,
			password: password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	return &Client{
		calendarPath: calendarPath,
		logger:       logger,
		client:       client,
	}, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "crm-calendar/1.0")
	return http.DefaultTransport.RoundTrip(req)
}

// Query issues a time-ranged calendar-query REPORT and returns the raw
// iCalendar text of every object in the range. Callers decode the blocks
// themselves; the feed publisher filters them at the text level instead.
func (c *Client) Query(ctx context.Context, from, to time.Time) ([]string, error) {
	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: from,
					End:   to,
				},
			},
		},
	}

	objects, err := c.client.QueryCalendar(ctx, c.calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	blocks := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		text, err := serializeCalendar(obj.Data)
		if err != nil {
			c.logger.Warn("skipping unserializable calendar object", "path", obj.Path, "error", err)
			continue
		}
		blocks = append(blocks, text)
	}

	return blocks, nil
}

// Create stores the event on the remote calendar under {uid}.ics.
func (c *Client) Create(ctx context.Context, event *domain.CalendarEvent) error {
	if event.ID == "" {
		return fmt.Errorf("create event: missing id")
	}

	if _, err := c.client.PutCalendarObject(ctx, c.eventPath(event.ID), ics.Calendar(event)); err != nil {
		return fmt.Errorf("create event %s: %w", event.ID, err)
	}
	return nil
}

// Delete removes the event with the given id from the remote calendar.
// There is no offline path for deletion.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.client.RemoveAll(ctx, c.eventPath(id)); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

// eventPath returns the per-event resource path inside the collection.
func (c *Client) eventPath(uid string) string {
	path := c.calendarPath
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + uid + ".ics"
}

// serializeCalendar renders a parsed calendar back into iCalendar text.
func serializeCalendar(cal *ical.Calendar) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", err
	}
	return buf.String(), nil
}

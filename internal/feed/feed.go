// Package feed serves the subscribable iCalendar feed polled by external
// calendar clients.
package feed

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/arfacturas8-ai/crm-calendar/internal/ics"
)

// Query windows are deliberately wide: calendar clients pre-fetch well past
// the visible range on every poll.
const (
	windowPastMonths   = 6
	windowFutureMonths = 12
)

// RemoteCalendar is the read-only slice of the CalDAV client the feed needs.
type RemoteCalendar interface {
	Query(ctx context.Context, from, to time.Time) ([]string, error)
}

// Publisher is the HTTP handler behind GET /feed. It authenticates with a
// shared-secret token and emits a complete VCALENDAR document, filtered to
// either the team-wide view or a single agent's personal events.
type Publisher struct {
	token  string
	remote RemoteCalendar
	logger *slog.Logger
}

// NewPublisher creates a feed publisher.
func NewPublisher(logger *slog.Logger, remote RemoteCalendar, token string) *Publisher {
	return &Publisher{
		token:  token,
		remote: remote,
		logger: logger,
	}
}

// veventBlock matches one VEVENT block inside raw iCalendar text. Filtering
// happens at the text level; blocks are relayed into the feed byte-for-byte.
var veventBlock = regexp.MustCompile(`(?s)BEGIN:VEVENT.*?END:VEVENT`)

func (p *Publisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if subtle.ConstantTimeCompare([]byte(q.Get("token")), []byte(p.token)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	feedType := q.Get("type")
	if feedType != "general" && feedType != "personal" {
		http.Error(w, "type must be general or personal", http.StatusBadRequest)
		return
	}
	personal := feedType == "personal"
	agentID := q.Get("agentId")
	if personal && agentID == "" {
		http.Error(w, "agentId is required for a personal feed", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, -windowPastMonths, 0)
	to := now.AddDate(0, windowFutureMonths, 0)

	raw, err := p.remote.Query(r.Context(), from, to)
	if err != nil {
		// A transient upstream failure must not look like a deleted
		// calendar to subscribers; serve an empty document instead.
		p.logger.Warn("feed query failed, serving empty calendar", "error", err)
		writeCalendar(w, feedName(personal, agentID), feedFilename(personal), nil)
		return
	}

	var kept []string
	for _, doc := range raw {
		for _, block := range veventBlock.FindAllString(doc, -1) {
			if keepBlock(block, personal, agentID) {
				kept = append(kept, block)
			}
		}
	}

	writeCalendar(w, feedName(personal, agentID), feedFilename(personal), kept)
}

// keepBlock decides feed membership from the X-PERSONAL / X-AGENT-ID lines of
// a raw VEVENT block. The general feed never carries a personal event; the
// personal feed carries only the requested agent's own events.
func keepBlock(block string, personal bool, agentID string) bool {
	isPersonal := blockProp(block, ics.PropPersonal) == "TRUE"
	if !personal {
		return !isPersonal
	}
	return isPersonal && blockProp(block, ics.PropAgentID) == agentID
}

// blockProp returns the value of the first line starting with "key:".
func blockProp(block, key string) string {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if v, ok := strings.CutPrefix(line, key+":"); ok {
			return v
		}
	}
	return ""
}

func feedName(personal bool, agentID string) string {
	if personal {
		return fmt.Sprintf("Arfacturas CRM Agent %s", agentID)
	}
	return "Arfacturas CRM Team"
}

func feedFilename(personal bool) string {
	if personal {
		return "crm-personal.ics"
	}
	return "crm-team.ics"
}

// writeCalendar assembles the final VCALENDAR document around the kept VEVENT
// blocks and writes it with feed-appropriate headers.
func writeCalendar(w http.ResponseWriter, name, filename string, blocks []string) {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ics.ProductID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + name,
		"X-WR-TIMEZONE:" + feedTZID,
		timezoneBlock,
	}
	lines = append(lines, blocks...)
	lines = append(lines, "END:VCALENDAR")

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, strings.Join(lines, "\r\n")+"\r\n")
}

// feedTZID is the fixed display zone of the feed. The CRM operates in one
// market; subscribers get Gulf Standard Time regardless of locale.
const feedTZID = "Asia/Dubai"

const timezoneBlock = "BEGIN:VTIMEZONE\r\n" +
	"TZID:Asia/Dubai\r\n" +
	"BEGIN:STANDARD\r\n" +
	"DTSTART:19700101T000000\r\n" +
	"TZOFFSETFROM:+0400\r\n" +
	"TZOFFSETTO:+0400\r\n" +
	"TZNAME:GST\r\n" +
	"END:STANDARD\r\n" +
	"END:VTIMEZONE"

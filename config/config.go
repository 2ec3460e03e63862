package config

import (
	"fmt"
	"os"
)

// Config carries every externally-provided setting. Components receive it (or
// individual fields) at construction; nothing reads the environment at call
// time.
type Config struct {
	CalDAVURL      string // base URL of the remote calendar server
	CalDAVUsername string
	CalDAVPassword string
	CalendarPath   string // path of the calendar collection on the server
	FeedToken      string // shared secret for the published feed
	FallbackPath   string // JSON file backing the local fallback store
	ServerPort     string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	caldavURL := os.Getenv("CALDAV_URL")
	if caldavURL == "" {
		return nil, fmt.Errorf("CALDAV_URL is required")
	}

	username := os.Getenv("CALDAV_USERNAME")
	if username == "" {
		return nil, fmt.Errorf("CALDAV_USERNAME is required")
	}

	password := os.Getenv("CALDAV_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("CALDAV_PASSWORD is required")
	}

	calendarPath := os.Getenv("CALDAV_CALENDAR_PATH")
	if calendarPath == "" {
		return nil, fmt.Errorf("CALDAV_CALENDAR_PATH is required")
	}

	feedToken := os.Getenv("FEED_TOKEN")
	if feedToken == "" {
		return nil, fmt.Errorf("FEED_TOKEN is required")
	}

	fallbackPath := os.Getenv("FALLBACK_PATH")
	if fallbackPath == "" {
		fallbackPath = "./data/calendar-fallback.json"
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	return &Config{
		CalDAVURL:      caldavURL,
		CalDAVUsername: username,
		CalDAVPassword: password,
		CalendarPath:   calendarPath,
		FeedToken:      feedToken,
		FallbackPath:   fallbackPath,
		ServerPort:     serverPort,
	}, nil
}

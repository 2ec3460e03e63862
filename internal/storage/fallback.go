// Package storage implements the local fallback store: a flat JSON file of
// events written when the remote calendar is unreachable. It is a parallel
// best-effort record, not a write-ahead buffer; nothing ever promotes its
// contents back to the remote calendar.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arfacturas8-ai/crm-calendar/internal/domain"
)

// FallbackStore persists events as a single JSON array on disk. The whole
// read-modify-write cycle runs under one mutex so concurrent writers
// serialize instead of losing appends.
type FallbackStore struct {
	mu   sync.Mutex
	path string
}

// NewFallbackStore creates the store and its parent directory.
func NewFallbackStore(path string) (*FallbackStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create fallback dir: %w", err)
	}
	return &FallbackStore{path: path}, nil
}

// ReadAll returns every stored event. A missing file reads as empty.
func (s *FallbackStore) ReadAll() ([]domain.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// ForMonth returns the stored events starting in the given month. There is no
// date index; the whole collection is loaded and filtered.
func (s *FallbackStore) ForMonth(year int, month time.Month) ([]domain.CalendarEvent, error) {
	all, err := s.ReadAll()
	if err != nil {
		return nil, err
	}

	var events []domain.CalendarEvent
	for _, e := range all {
		if e.InMonth(year, month) {
			events = append(events, e)
		}
	}
	return events, nil
}

// Append adds one event to the collection and rewrites the file.
func (s *FallbackStore) Append(event domain.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	all = append(all, event)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fallback store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write fallback store: %w", err)
	}
	return nil
}

// load reads the file without locking; callers hold the mutex.
func (s *FallbackStore) load() ([]domain.CalendarEvent, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read fallback store: %w", err)
	}

	var events []domain.CalendarEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse fallback store: %w", err)
	}
	return events, nil
}

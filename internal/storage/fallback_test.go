package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arfacturas8-ai/crm-calendar/internal/domain"
)

func newTestStore(t *testing.T) *FallbackStore {
	t.Helper()
	store, err := NewFallbackStore(filepath.Join(t.TempDir(), "data", "fallback.json"))
	require.NoError(t, err)
	return store
}

func TestReadAllMissingFile(t *testing.T) {
	store := newTestStore(t)

	events, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAppendAndReadBack(t *testing.T) {
	store := newTestStore(t)

	event := domain.CalendarEvent{
		ID:    "e1@crm.arfacturas.ai",
		Title: "Valuation meeting",
		Start: "2026-03-10T11:00:00",
		End:   "2026-03-10T11:45:00",
	}
	require.NoError(t, store.Append(event))

	events, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event, events[0])
}

func TestForMonthFiltersByStart(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Append(domain.CalendarEvent{
		ID: "march@x", Title: "March", Start: "2026-03-05T09:00:00", End: "2026-03-05T10:00:00",
	}))
	require.NoError(t, store.Append(domain.CalendarEvent{
		ID: "april@x", Title: "April", Start: "2026-04-05T09:00:00", End: "2026-04-05T10:00:00",
	}))

	events, err := store.ForMonth(2026, time.March)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "march@x", events[0].ID)

	events, err = store.ForMonth(2026, time.May)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestConcurrentAppendsAllSurvive(t *testing.T) {
	store := newTestStore(t)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Append(domain.CalendarEvent{
				ID:    fmt.Sprintf("e%d@x", i),
				Title: fmt.Sprintf("Event %d", i),
				Start: "2026-03-01T09:00:00",
				End:   "2026-03-01T10:00:00",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	events, err := store.ReadAll()
	require.NoError(t, err)
	assert.Len(t, events, writers)
}

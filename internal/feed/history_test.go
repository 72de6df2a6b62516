package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/feedhook/internal/storage"
)

func TestPruneExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	entries := []storage.Entry{
		{Title: "expired", TTL: now.Add(-time.Minute)},
		{Title: "alive", TTL: now.Add(time.Hour)},
		{Title: "exactly now", TTL: now},
		{Title: "alive too", TTL: now.Add(time.Second)},
	}

	got := PruneExpired(entries, now)

	// Entries at or before now are gone, survivors keep their order.
	assert.Equal(t, []string{"alive", "alive too"}, Titles(got))
}

func TestPruneExpired_Empty(t *testing.T) {
	assert.Empty(t, PruneExpired(nil, time.Now()))
	assert.Empty(t, PruneExpired([]storage.Entry{}, time.Now()))
}

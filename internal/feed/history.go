package feed

import (
	"time"

	"github.com/samber/lo"

	"github.com/pders01/feedhook/internal/storage"
)

// PruneExpired keeps only history entries whose TTL is still in the
// future, preserving order. Expired entries simply drop out of the next
// persisted record; there is no tombstoning.
func PruneExpired(entries []storage.Entry, now time.Time) []storage.Entry {
	return lo.Filter(entries, func(e storage.Entry, _ int) bool {
		return e.TTL.After(now)
	})
}

// Titles projects history entries to their titles for duplicate checks.
func Titles(entries []storage.Entry) []string {
	return lo.Map(entries, func(e storage.Entry, _ int) string {
		return e.Title
	})
}

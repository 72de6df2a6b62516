// Package search scores stored history titles against a free-text query.
// It backs the titles API; the corpus is at most a few hundred short
// strings per deployment, so scanning beats maintaining an index.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/feedhook/internal/storage"
)

// Result is one matching history entry with its owning subscription id.
type Result struct {
	SubscriptionID string        `json:"subscription_id"`
	Entry          storage.Entry `json:"entry"`
	Score          float64       `json:"score"`
}

// Engine searches delivery histories in memory.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Search returns entries matching the query, best first. An entry matches
// when the whole query appears as a phrase or when every query term
// appears somewhere in the title or keyword tag.
func (e *Engine) Search(records []storage.Record, query string, limit int) []Result {
	query = strings.TrimSpace(strings.ToLower(query))
	terms := tokenize(query)
	if len(terms) == 0 {
		return []Result{}
	}

	results := []Result{}
	for _, rec := range records {
		for _, entry := range rec.Feeds {
			if score := scoreEntry(entry, query, terms); score > 0 {
				results = append(results, Result{
					SubscriptionID: rec.ID,
					Entry:          entry,
					Score:          score,
				})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func scoreEntry(entry storage.Entry, query string, terms []string) float64 {
	title := strings.ToLower(entry.Title)
	keyword := strings.ToLower(entry.Keyword)

	// Phrase hit beats any per-term combination.
	if strings.Contains(title, query) {
		return 2.0
	}

	matched := 0
	for _, term := range terms {
		if strings.Contains(title, term) || keyword == term {
			matched++
		}
	}
	if matched < len(terms) {
		return 0
	}
	return 1.0 + float64(matched)/float64(len(terms)+1)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

package storage

import (
	"time"
)

// Subscription binds a webhook URL to the keyword queries whose matching
// feed items it receives. The ID is the hex SHA-256 of the webhook URL and
// doubles as the document key in both buckets.
type Subscription struct {
	ID         string   `json:"id"`
	WebhookURL string   `json:"webhook_url"`
	Keywords   []string `json:"keywords"`
}

// Entry is one delivered title, retained to suppress near-duplicate
// re-sends until its TTL passes. The TTL is fixed at creation and never
// renewed.
type Entry struct {
	Title   string    `json:"title"`
	Keyword string    `json:"keyword"`
	TTL     time.Time `json:"ttl"`
}

// Record is a subscription's delivery history: every title that was handed
// to the dispatcher, with expired entries pruned on each pass. Records are
// read and written as whole documents, never patched.
type Record struct {
	ID    string  `json:"id"`
	Feeds []Entry `json:"feeds"`
}

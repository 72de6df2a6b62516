package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/pders01/feedhook/internal/config"
	"github.com/pders01/feedhook/internal/feed"
	"github.com/pders01/feedhook/internal/storage"
)

type SubscriptionLister interface {
	Subscriptions(ctx context.Context) ([]storage.Subscription, error)
}

type HistoryStore interface {
	History(ctx context.Context, id string) (*storage.Record, error)
	SaveHistory(ctx context.Context, rec *storage.Record) error
}

type Fetcher interface {
	Search(ctx context.Context, kw feed.Keyword) ([]feed.Item, error)
	Defaults() feed.KeywordDefaults
}

type Dispatcher interface {
	Deliver(ctx context.Context, webhookURL string, items []feed.KeywordItem) int
}

// Pipeline runs one full pass over all subscriptions: prune history, fetch
// and deduplicate new items, persist the merged history, then dispatch.
// Passes never run concurrently; the store is the only state carried
// between them.
type Pipeline struct {
	subs       SubscriptionLister
	history    HistoryStore
	fetcher    Fetcher
	dispatcher Dispatcher

	threshold  float64
	historyTTL time.Duration
	fetchDelay time.Duration

	now func() time.Time
}

func New(subs SubscriptionLister, history HistoryStore, fetcher Fetcher, dispatcher Dispatcher, cfg config.DedupeConfig, fetchDelay time.Duration) *Pipeline {
	return &Pipeline{
		subs:       subs,
		history:    history,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		threshold:  cfg.Threshold,
		historyTTL: cfg.HistoryTTL,
		fetchDelay: fetchDelay,
		now:        time.Now,
	}
}

// RunOnePass processes every subscription sequentially. Nothing that goes
// wrong inside a pass escapes it; failures are logged and the next
// subscription (or the next tick) proceeds.
func (p *Pipeline) RunOnePass(ctx context.Context) {
	subs, err := p.subs.Subscriptions(ctx)
	if err != nil {
		slog.Error("listing subscriptions failed", "phase", "pass", "error", err)
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		p.processSubscription(ctx, sub)
	}
}

func (p *Pipeline) processSubscription(ctx context.Context, sub storage.Subscription) {
	now := p.now()

	rec, err := p.history.History(ctx, sub.ID)
	if err != nil {
		// Fail open: a broken read means no history, at worst we re-send
		// something the subscriber already saw.
		slog.Error("history read failed, assuming empty",
			"phase", "persist", "subscription", sub.ID, "error", err)
		rec = nil
	}

	var stored []storage.Entry
	if rec != nil {
		stored = rec.Feeds
	}
	kept := feed.PruneExpired(stored, now)
	pruned := len(stored) - len(kept)

	fresh := p.collect(ctx, sub, feed.Titles(kept))
	fresh = feed.DedupeBatch(fresh, p.threshold)
	fresh = feed.UniqueByTitle(fresh)

	if len(fresh) == 0 && pruned == 0 {
		return
	}

	// History is written before delivery: it records "seen", not
	// "successfully delivered". The write also happens when only pruning
	// changed the record, so expired entries disappear even on quiet passes.
	merged := append(kept, lo.Map(fresh, func(item feed.KeywordItem, _ int) storage.Entry {
		return storage.Entry{
			Title:   item.Title,
			Keyword: item.Keyword,
			TTL:     now.Add(p.historyTTL),
		}
	})...)

	if err := p.history.SaveHistory(ctx, &storage.Record{ID: sub.ID, Feeds: merged}); err != nil {
		// Dispatching items we could not record would re-send them forever.
		slog.Error("history write failed, skipping dispatch",
			"phase", "persist", "subscription", sub.ID, "error", err)
		return
	}

	if len(fresh) == 0 {
		return
	}

	sent := p.dispatcher.Deliver(ctx, sub.WebhookURL, fresh)
	slog.Info("feeds delivered",
		"phase", "pass", "subscription", sub.ID, "delivered", sent, "selected", len(fresh))
}

// collect fetches and filters items for each keyword in declared order:
// normalize titles, drop anything too close to the stored history, dedupe
// within the keyword's own batch, then cap at the keyword's limit. A
// failing keyword contributes nothing and does not block its siblings.
func (p *Pipeline) collect(ctx context.Context, sub storage.Subscription, storedTitles []string) []feed.KeywordItem {
	var out []feed.KeywordItem

	for i, raw := range sub.Keywords {
		kw := feed.ParseKeyword(raw, p.fetcher.Defaults())

		items, err := p.fetcher.Search(ctx, kw)
		if err != nil {
			slog.Error("keyword fetch failed",
				"phase", "fetch", "subscription", sub.ID, "keyword", kw.Key, "error", err)
		} else {
			out = append(out, p.filterKeywordBatch(kw, items, storedTitles)...)
		}

		if i < len(sub.Keywords)-1 && !sleepCtx(ctx, p.fetchDelay) {
			return out
		}
	}

	return out
}

func (p *Pipeline) filterKeywordBatch(kw feed.Keyword, items []feed.Item, storedTitles []string) []feed.KeywordItem {
	batch := lo.FilterMap(items, func(item feed.Item, _ int) (feed.KeywordItem, bool) {
		item.Title = feed.Normalize(item.Title, item.Source)
		if feed.MaxRatio(storedTitles, item.Title) >= p.threshold {
			return feed.KeywordItem{}, false
		}
		return feed.KeywordItem{Item: item, Keyword: kw.Key}, true
	})

	batch = feed.DedupeBatch(batch, p.threshold)
	if kw.Limit > 0 && len(batch) > kw.Limit {
		batch = batch[:kw.Limit]
	}
	return batch
}

func sleepCtx(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

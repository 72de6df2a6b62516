package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"
	"github.com/sethvargo/go-retry"

	"github.com/pders01/feedhook/internal/config"
)

// Fetcher runs keyword search queries against a Google-News-style RSS
// search endpoint and returns the parsed items.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	ua       string
	parser   *rss.Parser
	defaults KeywordDefaults
}

func NewFetcher(cfg config.FeedConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		baseURL: cfg.SearchBaseURL,
		ua:      cfg.UserAgent,
		parser:  &rss.Parser{},
		defaults: KeywordDefaults{
			Lang:  cfg.DefaultLang,
			When:  cfg.DefaultWhen,
			Limit: cfg.DefaultLimit,
		},
	}
}

// Defaults returns the configured fallback values for keyword fields.
func (f *Fetcher) Defaults() KeywordDefaults {
	return f.defaults
}

// Search fetches one keyword's feed. Transient failures (network errors,
// 5xx) are retried with a short fibonacci backoff before giving up; the
// caller treats any returned error as "this keyword contributes nothing
// this pass".
func (f *Fetcher) Search(ctx context.Context, kw Keyword) ([]Item, error) {
	reqURL := f.searchURL(kw)

	var body []byte
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", f.ua)
		req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

		resp, err := f.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("fetching feed: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("HTTP error: %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP error: %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("reading response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		parsed := Item{
			Title:   item.Title,
			Link:    item.Link,
			PubDate: item.PubDate,
		}
		if item.Source != nil {
			parsed.Source = item.Source.Title
		}
		items = append(items, parsed)
	}

	return items, nil
}

// searchURL builds the search query from the keyword fields. The key is
// quoted so multi-word keys match as a phrase; site and when narrow the
// query the way the upstream search syntax expects.
func (f *Fetcher) searchURL(kw Keyword) string {
	var parts []string
	if kw.Key != "" {
		parts = append(parts, `"`+kw.Key+`"`)
	}
	if kw.Site != "" {
		parts = append(parts, "site:"+kw.Site)
	}
	if kw.When != "" {
		parts = append(parts, "when:"+kw.When)
	}

	params := url.Values{}
	params.Set("q", strings.Join(parts, " "))
	params.Set("hl", kw.Lang)

	return f.baseURL + "?" + params.Encode()
}

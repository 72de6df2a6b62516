package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pders01/feedhook/internal/config"
	"github.com/pders01/feedhook/internal/feed"
)

// Dispatcher delivers surviving feed items to a subscription's webhook,
// one at a time with a fixed delay between posts so the receiving side
// doesn't rate-limit us.
type Dispatcher struct {
	client    *http.Client
	sendDelay time.Duration
}

func NewDispatcher(cfg config.DispatchConfig) *Dispatcher {
	return &Dispatcher{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		sendDelay: cfg.SendDelay,
	}
}

// Deliver posts each item to the webhook in order and returns how many
// posts succeeded. A failed post is logged and does not stop the rest of
// the batch; cancellation stops between items, never mid-request cleanup.
func (d *Dispatcher) Deliver(ctx context.Context, webhookURL string, items []feed.KeywordItem) int {
	sent := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return sent
		}

		link := d.ResolveLink(ctx, item.Link)

		if err := d.post(ctx, webhookURL, formatMessage(item, link)); err != nil {
			slog.Error("webhook delivery failed",
				"phase", "dispatch", "webhook", webhookURL, "link", item.Link, "error", err)
		} else {
			sent++
		}

		if !sleepCtx(ctx, d.sendDelay) {
			return sent
		}
	}
	return sent
}

// ResolveLink follows a feed link and, when the response is a redirect
// wrapper page, extracts the destination from the first anchor's inner
// text. Best effort: any failure falls back to the original link.
func (d *Dispatcher) ResolveLink(ctx context.Context, link string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return link
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return link
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return link
	}

	real := strings.TrimSpace(doc.Find("a").First().Text())
	if real == "" {
		return link
	}
	return real
}

type webhookPayload struct {
	Text string `json:"text"`
}

func (d *Dispatcher) post(ctx context.Context, webhookURL, text string) error {
	body, err := json.Marshal(webhookPayload{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// formatMessage renders the chat-style message: linked bold title on the
// first line, keyword and source tags on the second.
func formatMessage(item feed.KeywordItem, link string) string {
	var tags strings.Builder
	if item.Keyword != "" {
		tags.WriteString("📍" + item.Keyword + "  ")
	}
	if item.Source != "" {
		tags.WriteString("🗞️ " + item.Source)
	}

	return fmt.Sprintf("<%s|*%s*>\n%s", link, item.Title, tags.String())
}

// sleepCtx waits for the delay unless the context is canceled first.
// Reports whether the full delay elapsed.
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

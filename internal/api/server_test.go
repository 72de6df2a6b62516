package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/feedhook/internal/storage"
	"github.com/pders01/feedhook/internal/validation"
)

func setupTestServer(t *testing.T) (*httptest.Server, *storage.Store) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := NewServer(0, store, validation.NewPermissiveWebhookURLValidator())
	srv := httptest.NewServer(s.Handler)
	t.Cleanup(srv.Close)

	return srv, store
}

func doRequest(t *testing.T, method, rawURL string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, rawURL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestPutSubscription(t *testing.T) {
	srv, store := setupTestServer(t)

	webhook := "https://hooks.example/T000/B000"
	resp := doRequest(t, http.MethodPut, srv.URL+"/api/subscriptions?webhookurl="+
		url.QueryEscape(webhook)+"&keyword="+url.QueryEscape("openai@en,golang"))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sub storage.Subscription
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sub))
	assert.Equal(t, SubscriptionID(webhook), sub.ID)
	assert.Equal(t, webhook, sub.WebhookURL)
	assert.Equal(t, []string{"openai@en", "golang"}, sub.Keywords)

	stored, err := store.Subscription(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, webhook, stored.WebhookURL)
}

func TestPutSubscription_SameURLOverwrites(t *testing.T) {
	srv, store := setupTestServer(t)

	webhook := url.QueryEscape("https://hooks.example/T000/B000")
	resp := doRequest(t, http.MethodPut, srv.URL+"/api/subscriptions?webhookurl="+webhook+"&keyword=a")
	resp.Body.Close()
	resp = doRequest(t, http.MethodPut, srv.URL+"/api/subscriptions?webhookurl="+webhook+"&keyword=b")
	resp.Body.Close()

	subs, err := store.Subscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, []string{"b"}, subs[0].Keywords)
}

func TestPutSubscription_Validation(t *testing.T) {
	srv, _ := setupTestServer(t)

	// Missing keyword.
	resp := doRequest(t, http.MethodPut, srv.URL+"/api/subscriptions?webhookurl="+
		url.QueryEscape("https://hooks.example/x"))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing webhook URL.
	resp = doRequest(t, http.MethodPut, srv.URL+"/api/subscriptions?keyword=a")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteSubscription(t *testing.T) {
	srv, store := setupTestServer(t)

	webhook := "https://hooks.example/T000/B000"
	id := SubscriptionID(webhook)
	require.NoError(t, store.SaveSubscription(context.Background(), &storage.Subscription{
		ID: id, WebhookURL: webhook, Keywords: []string{"a"},
	}))

	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/subscriptions?webhookurl="+url.QueryEscape(webhook))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := store.Subscription(context.Background(), id)
	assert.Error(t, err)
}

func TestDeleteSubscription_NotFound(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/subscriptions?webhookurl="+
		url.QueryEscape("https://hooks.example/never"))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubscriptions_MethodNotAllowed(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, err := http.Post(srv.URL+"/api/subscriptions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListSubscriptions_EmptyIsArray(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/subscriptions")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var subs []storage.Subscription
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&subs))
	assert.Empty(t, subs)
}

func TestTitles(t *testing.T) {
	srv, store := setupTestServer(t)

	require.NoError(t, store.SaveHistory(context.Background(), &storage.Record{
		ID: "sub1",
		Feeds: []storage.Entry{
			{Title: "OpenAI launches X", Keyword: "openai", TTL: time.Now().Add(time.Hour)},
			{Title: "Market rallies on rate cut", Keyword: "markets", TTL: time.Now().Add(time.Hour)},
		},
	}))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/titles")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []storage.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Len(t, records[0].Feeds, 2)
}

func TestTitles_Search(t *testing.T) {
	srv, store := setupTestServer(t)

	require.NoError(t, store.SaveHistory(context.Background(), &storage.Record{
		ID: "sub1",
		Feeds: []storage.Entry{
			{Title: "OpenAI launches X", Keyword: "openai"},
			{Title: "Market rallies on rate cut", Keyword: "markets"},
		},
	}))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/titles?q=market+rallies")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 1)
}

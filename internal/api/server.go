// Package api is the management surface: it registers and removes
// subscriptions and exposes the delivery history. The pipeline never calls
// into it; both sides meet only at the store.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pders01/feedhook/internal/search"
	"github.com/pders01/feedhook/internal/storage"
	"github.com/pders01/feedhook/internal/validation"
)

type SubscriptionStore interface {
	SaveSubscription(ctx context.Context, sub *storage.Subscription) error
	Subscription(ctx context.Context, id string) (*storage.Subscription, error)
	Subscriptions(ctx context.Context) ([]storage.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error
	Histories(ctx context.Context) ([]storage.Record, error)
}

type Server struct {
	http.Server

	store     SubscriptionStore
	engine    *search.Engine
	validator *validation.WebhookURLValidator
}

func NewServer(port int, store SubscriptionStore, validator *validation.WebhookURLValidator) *Server {
	s := &Server{
		store:     store,
		engine:    search.NewEngine(),
		validator: validator,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/subscriptions", s.handlePutSubscription).Methods(http.MethodPut)
	r.HandleFunc("/api/subscriptions", s.handleListSubscriptions).Methods(http.MethodGet)
	r.HandleFunc("/api/subscriptions", s.handleDeleteSubscription).Methods(http.MethodDelete)
	r.HandleFunc("/api/titles", s.handleTitles).Methods(http.MethodGet)

	s.Server = http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		Handler:      accessLog{inner: r},
	}

	return s
}

// SubscriptionID derives the document id from the webhook URL, so
// re-registering the same URL overwrites instead of duplicating.
func SubscriptionID(webhookURL string) string {
	sum := sha256.Sum256([]byte(webhookURL))
	return hex.EncodeToString(sum[:])
}

func (s *Server) handlePutSubscription(w http.ResponseWriter, r *http.Request) {
	webhookURL, err := s.validator.Validate(r.URL.Query().Get("webhookurl"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rawKeywords := r.URL.Query().Get("keyword")
	if rawKeywords == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("keyword parameter is required"))
		return
	}

	sub := &storage.Subscription{
		ID:         SubscriptionID(webhookURL),
		WebhookURL: webhookURL,
		Keywords:   strings.Split(rawKeywords, ","),
	}

	if err := s.store.SaveSubscription(r.Context(), sub); err != nil {
		slog.Error("saving subscription failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("saving subscription"))
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.Subscriptions(r.Context())
	if err != nil {
		slog.Error("listing subscriptions failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("listing subscriptions"))
		return
	}
	if subs == nil {
		subs = []storage.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	webhookURL := strings.TrimSpace(r.URL.Query().Get("webhookurl"))
	if webhookURL == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("webhookurl parameter is required"))
		return
	}

	id := SubscriptionID(webhookURL)
	if _, err := s.store.Subscription(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("subscription not found"))
		return
	}

	if err := s.store.DeleteSubscription(r.Context(), id); err != nil {
		slog.Error("deleting subscription failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("deleting subscription"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleTitles dumps all stored histories, or searches them when q is set.
func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Histories(r.Context())
	if err != nil {
		slog.Error("listing histories failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("listing histories"))
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, s.engine.Search(records, q, 50))
		return
	}

	if records == nil {
		records = []storage.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// accessLog wraps each call with request/response log lines.
type accessLog struct {
	inner http.Handler
}

func (a accessLog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	writer := &statusWriter{ResponseWriter: w, code: http.StatusOK}
	a.inner.ServeHTTP(writer, r)

	slog.Info("request completed",
		"method", r.Method,
		"path", r.URL.Path,
		"duration", time.Since(start),
		"status_code", writer.code,
	)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

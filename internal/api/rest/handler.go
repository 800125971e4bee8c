// Package rest exposes the subscription listing API over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"subgrid/internal/events"
	"subgrid/internal/query"
	"subgrid/internal/storage"
	"subgrid/pkg/model"
)

// Default body size limit
const DefaultMaxBodySize = 1 << 20 // 1MB

// Default request timeout
const DefaultRequestTimeout = 30 * time.Second

type Handler struct {
	engine *query.Engine
	store  storage.SubscriptionStore
	events events.Publisher
}

func NewHandler(engine *query.Engine, store storage.SubscriptionStore, publisher events.Publisher) *Handler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Handler{
		engine: engine,
		store:  store,
		events: publisher,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/subscriptions", withTimeout(h.handleList, DefaultRequestTimeout))
	mux.HandleFunc("GET /v1/subscriptions/{id}", withTimeout(h.handleGet, DefaultRequestTimeout))
	mux.HandleFunc("GET /v1/subscriptions/{id}/paths", withTimeout(h.handlePaths, DefaultRequestTimeout))
	mux.HandleFunc("PATCH /v1/subscriptions/{id}", withTimeout(maxBodySize(h.handlePatch, DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// writeModelError maps model errors onto HTTP responses. Client-input
// failures keep their descriptive message; everything else is a 500 with the
// detail kept server-side.
func writeModelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrBadRequest):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, model.ClientMessage(err))
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Subscription not found")
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// withTimeout bounds request handling with a context deadline.
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// maxBodySize limits the request body size.
func maxBodySize(next http.HandlerFunc, limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next(w, r)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

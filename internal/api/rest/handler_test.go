package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subgrid/internal/events"
	"subgrid/internal/query"
	"subgrid/internal/storage/memory"
	"subgrid/pkg/model"
)

func newTestServer(t *testing.T, subs ...*model.Subscription) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	for _, sub := range subs {
		require.NoError(t, store.Upsert(context.Background(), sub))
	}

	mux := http.NewServeMux()
	engine := query.NewEngine(store, query.DefaultFilterOptions())
	NewHandler(engine, store, events.NoopPublisher{}).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func makeSubs(n int) []*model.Subscription {
	subs := make([]*model.Subscription, n)
	for i := range subs {
		status := "active"
		if i%2 == 0 {
			status = "terminated"
		}
		subs[i] = &model.Subscription{
			SubscriptionID: uuid.New(),
			CustomerID:     uuid.New(),
			Description:    fmt.Sprintf("link %02d", i),
			Status:         status,
			Note:           "original",
			Product: model.Product{
				ProductID: uuid.New(),
				Name:      "Fiber",
				Tag:       "lp",
			},
			SearchText: fmt.Sprintf("link %02d %s fiber", i, status),
		}
	}
	return subs
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestListSubscriptions(t *testing.T) {
	srv, _ := newTestServer(t, makeSubs(5)...)

	resp, err := http.Get(srv.URL + "/v1/subscriptions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Range"))

	page := decodeBody[[]model.Subscription](t, resp)
	assert.Len(t, page, 5)
}

func TestListSubscriptionsWithRange(t *testing.T) {
	srv, _ := newTestServer(t, makeSubs(25)...)

	resp, err := http.Get(srv.URL + "/v1/subscriptions?range=0&range=10")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "subscriptions 0-10/25", resp.Header.Get("Content-Range"))

	page := decodeBody[[]model.Subscription](t, resp)
	assert.Len(t, page, 10)
}

func TestListSubscriptionsFiltered(t *testing.T) {
	srv, _ := newTestServer(t, makeSubs(6)...)

	resp, err := http.Get(srv.URL + "/v1/subscriptions?filter=status&filter=active")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	page := decodeBody[[]model.Subscription](t, resp)
	require.Len(t, page, 3)
	for _, sub := range page {
		assert.Equal(t, "active", sub.Status)
	}
}

func TestListSubscriptionsInvalidRange(t *testing.T) {
	srv, _ := newTestServer(t, makeSubs(3)...)

	resp, err := http.Get(srv.URL + "/v1/subscriptions?range=10&range=3")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	apiErr := decodeBody[APIError](t, resp)
	assert.Equal(t, ErrCodeBadRequest, apiErr.Code)
}

func TestListSubscriptionsInvalidOrganisation(t *testing.T) {
	srv, _ := newTestServer(t, makeSubs(1)...)

	resp, err := http.Get(srv.URL + "/v1/subscriptions?filter=organisation&filter=not-a-uuid")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	apiErr := decodeBody[APIError](t, resp)
	assert.Contains(t, apiErr.Message, "must be a UUID")
}

func TestListSubscriptionsEmptyResultIsArray(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/subscriptions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
}

func TestGetSubscription(t *testing.T) {
	subs := makeSubs(2)
	srv, _ := newTestServer(t, subs...)

	resp, err := http.Get(srv.URL + "/v1/subscriptions/" + subs[0].SubscriptionID.String())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[model.Subscription](t, resp)
	assert.Equal(t, subs[0].SubscriptionID, got.SubscriptionID)

	resp, err = http.Get(srv.URL + "/v1/subscriptions/" + uuid.NewString())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSubscriptionPaths(t *testing.T) {
	subs := makeSubs(1)
	srv, _ := newTestServer(t, subs...)

	resp, err := http.Get(srv.URL + "/v1/subscriptions/" + subs[0].SubscriptionID.String() + "/paths")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[[]string](t, resp)
	assert.Contains(t, got, "note")
	assert.Contains(t, got, "product.name")
	assert.Contains(t, got, "product")
	assert.NotContains(t, got, "search_text")
}

func patchSubscription(t *testing.T, srv *httptest.Server, id string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/v1/subscriptions/"+id, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestPatchSubscription(t *testing.T) {
	subs := makeSubs(1)
	srv, store := newTestServer(t, subs...)
	id := subs[0].SubscriptionID.String()

	resp := patchSubscription(t, srv, id, `{"path": "note", "value": "updated note"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[model.Subscription](t, resp)
	assert.Equal(t, "updated note", got.Note)

	// The change is persisted and the search projection survives untouched.
	stored, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "updated note", stored.Note)
	assert.Equal(t, subs[0].SearchText, stored.SearchText)
}

func TestPatchSubscriptionNestedPath(t *testing.T) {
	subs := makeSubs(1)
	srv, store := newTestServer(t, subs...)
	id := subs[0].SubscriptionID.String()

	resp := patchSubscription(t, srv, id, `{"path": "product.tag", "value": "msp"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	stored, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "msp", stored.Product.Tag)
}

func TestPatchSubscriptionRejectsBadInput(t *testing.T) {
	subs := makeSubs(1)
	srv, _ := newTestServer(t, subs...)
	id := subs[0].SubscriptionID.String()

	tests := []struct {
		name string
		body string
	}{
		{"missing path", `{"value": "x"}`},
		{"unknown path", `{"path": "no.such.path", "value": "x"}`},
		{"not json", `{{{`},
		{"value does not fit", `{"path": "insync", "value": "not-a-bool"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := patchSubscription(t, srv, id, tt.body)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestPatchSubscriptionNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := patchSubscription(t, srv, uuid.NewString(), `{"path": "note", "value": "x"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", got["status"])
}

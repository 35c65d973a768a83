package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/model"
)

func TestWebhookDeliver(t *testing.T) {
	var got OrderEvent
	var gotAuth, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "hook-token")
	err := ch.Deliver(context.Background(), OrderEvent{
		Type:    EventOrderCreated,
		OrderID: 42,
		Status:  model.OrderStatusPending,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer hook-token", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, EventOrderCreated, got.Type)
	assert.Equal(t, int64(42), got.OrderID)
}

func TestWebhookDeliverErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookChannel(srv.URL, "").Deliver(context.Background(), OrderEvent{OrderID: 1})
	assert.ErrorContains(t, err, "502")
}

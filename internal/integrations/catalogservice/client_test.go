package catalogservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, _ := newCountingClient(t)
	return client
}

func newCountingClient(t *testing.T) (*Client, *atomic.Int32) {
	t.Helper()

	requests := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/internal/services/1":
			_, _ = w.Write([]byte(`{"id":1,"user_id":20,"name":"Corte de cabelo","duration_hours":2}`))
		case "/internal/services/2":
			_, _ = w.Write([]byte(`{"id":2,"user_id":21,"name":"Faxina"}`))
		case "/internal/services/3":
			_, _ = w.Write([]byte(`{"id":3,"user_id":22,"name":"Escova","duration_hours":0}`))
		case "/internal/services/4":
			_, _ = w.Write([]byte(`{"id":4,"name":"Orphan"}`))
		case "/internal/services/500":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, time.Second, logger.NewNop()), requests
}

func TestClient_GetServiceProvider(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	providerID, err := client.GetServiceProvider(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), providerID)

	_, err = client.GetServiceProvider(ctx, 99)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = client.GetServiceProvider(ctx, 4)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = client.GetServiceProvider(ctx, 500)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_GetServiceDuration(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		serviceID int64
		want      int
	}{
		{serviceID: 1, want: 2},
		{serviceID: 2, want: 1}, // длительность не задана
		{serviceID: 3, want: 1}, // ноль поднимается до минимума
	}

	for _, tt := range tests {
		got, err := client.GetServiceDuration(ctx, tt.serviceID)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "service %d", tt.serviceID)
	}

	_, err := client.GetServiceDuration(ctx, 99)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestClient_GetServiceSlot(t *testing.T) {
	client, requests := newCountingClient(t)
	ctx := context.Background()

	providerID, duration, err := client.GetServiceSlot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), providerID)
	assert.Equal(t, 2, duration)
	assert.Equal(t, int32(1), requests.Load())

	providerID, duration, err = client.GetServiceSlot(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(21), providerID)
	assert.Equal(t, 1, duration)

	_, _, err = client.GetServiceSlot(ctx, 99)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

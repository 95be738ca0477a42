package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send_PostsMessage(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"Ana"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.now = func() time.Time {
		return time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("BRT", -3*3600))
	}

	resp, err := client.Send(context.Background(), "find leads")
	require.NoError(t, err)

	assert.Equal(t, "find leads", got.Message)
	assert.Equal(t, "2026-03-04T08:06:07.890Z", got.SentAt)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, resp.Raw)
	assert.True(t, resp.Value.IsArray())
}

func TestClient_Send_WrapsPlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Workflow started"))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Send(context.Background(), "hi")
	require.NoError(t, err)

	assert.True(t, resp.Raw)
	assert.Equal(t, "Workflow started", resp.Value.Get("rawResponse").String())
}

func TestClient_Send_StatusErrorUsesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Send(context.Background(), "hi")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Detail)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_Send_StatusErrorTruncatesBody(t *testing.T) {
	body := strings.Repeat("x", 150)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(body))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Send(context.Background(), "hi")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "Response: "+strings.Repeat("x", 100)+"...", statusErr.Detail)
}

func TestClient_Send_StatusErrorJSONWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"missing"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Send(context.Background(), "hi")
	assert.EqualError(t, err, `webhook request failed: Status: 404. Response: {"error":"missing"}`)
}

func TestClient_Send_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL + "/webhook/secret-id"
	server.Close()

	_, err := NewClient(url).Send(context.Background(), "hi")

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.NotContains(t, err.Error(), "secret-id")
}

func TestClient_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewClient(server.URL, WithTimeout(50*time.Millisecond)).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRatePerMinute(1), WithTimeout(50*time.Millisecond))
	_, err := client.Send(context.Background(), "one")
	require.NoError(t, err)

	_, err = client.Send(context.Background(), "two")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RateLimitCancelledContext(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", WithRatePerMinute(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Send(ctx, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestClient_ResponseSizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"leads":"` + strings.Repeat("x", 64) + `"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, WithMaxResponseBytes(32)).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)

	// exactly at the cap is fine
	resp, err := NewClient(server.URL, WithMaxResponseBytes(76)).Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Len(t, resp.Value.Get("leads").String(), 64)
}

func TestDecode(t *testing.T) {
	resp := Decode(200, `  {"a":1} `)
	assert.False(t, resp.Raw)
	assert.Equal(t, int64(1), resp.Value.Get("a").Int())

	resp = Decode(200, "")
	assert.True(t, resp.Raw)
	assert.Equal(t, "", resp.Value.Get("rawResponse").String())
	assert.True(t, resp.Value.IsObject())
}

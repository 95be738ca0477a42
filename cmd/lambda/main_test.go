package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/leadcatalyst/leadchat/pkg/config"
	"github.com/leadcatalyst/leadchat/pkg/webhook"
)

func fakeWebhook(t *testing.T, status int, body string) webhook.Sender {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return webhook.NewClient(server.URL, webhook.WithTimeout(5*time.Second))
}

func post(body string, headers map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: body, Headers: headers}
}

func TestHandle_JSON(t *testing.T) {
	s := fakeWebhook(t, http.StatusOK, `{"data":{"leads":[{"name":"Ana","score":9},{"name":"Bia","score":7}]}}`)

	resp, err := handle(context.Background(), post(`{"message":"find leads"}`, nil), s, config.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := gjson.Parse(resp.Body)
	assert.Equal(t, "array_records", body.Get("kind").String())
	assert.Contains(t, body.Get("status").String(), "'leads'")
	assert.Equal(t, `["name","score"]`, body.Get("columns").Raw)
	assert.Equal(t, `[{"name":"Ana","score":9},{"name":"Bia","score":7}]`, body.Get("rows").Raw)
}

func TestHandle_CSV(t *testing.T) {
	s := fakeWebhook(t, http.StatusOK, `[{"a":1,"b":"x,y"}]`)

	resp, err := handle(context.Background(), post(`{"message":"x"}`, map[string]string{"accept": "text/csv"}), s, config.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv;charset=utf-8", resp.Headers["Content-Type"])
	assert.Equal(t, "a,b\r\n1,\"x,y\"", resp.Body)
}

func TestHandle_CSVWithoutRows(t *testing.T) {
	s := fakeWebhook(t, http.StatusOK, `[]`)

	resp, err := handle(context.Background(), post(`{"message":"x"}`, map[string]string{"Accept": "text/csv"}), s, config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHandle_EmptyRowsStillJSON(t *testing.T) {
	s := fakeWebhook(t, http.StatusOK, `{"message":"find leads"}`)

	resp, err := handle(context.Background(), post(`{"message":"find leads in SP"}`, nil), s, config.DefaultConfig())
	require.NoError(t, err)
	body := gjson.Parse(resp.Body)
	assert.Equal(t, "object_echo", body.Get("kind").String())
	assert.Equal(t, `[]`, body.Get("rows").Raw)
	assert.Equal(t, `[]`, body.Get("columns").Raw)
}

func TestHandle_BadRequests(t *testing.T) {
	s := fakeWebhook(t, http.StatusOK, `[]`)
	cfg := config.DefaultConfig()

	for _, body := range []string{`{"message":"   "}`, `{}`, `not json`} {
		resp, err := handle(context.Background(), post(body, nil), s, cfg)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}

	resp, err := handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet}, s, cfg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandle_WebhookFailure(t *testing.T) {
	s := fakeWebhook(t, http.StatusInternalServerError, `{"message":"boom"}`)

	resp, err := handle(context.Background(), post(`{"message":"x"}`, nil), s, config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	msg := gjson.Get(resp.Body, "error").String()
	assert.Contains(t, msg, "500")
	assert.Contains(t, msg, "boom")
}

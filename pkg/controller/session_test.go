package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadcatalyst/leadchat/pkg/webhook"
)

type fakeSender struct {
	resp  *webhook.Response
	err   error
	calls []string
	// block, when set, is waited on before answering.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, text string) (*webhook.Response, error) {
	f.calls = append(f.calls, text)
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.resp, f.err
}

func TestSubmit_BlankIsNoop(t *testing.T) {
	sender := &fakeSender{resp: webhook.Decode(200, `[]`)}
	s := NewSession("c1", sender, time.Minute)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Empty(t, sender.calls)
	assert.Empty(t, s.Snapshot().Messages)
}

func TestSubmit_RecordsExchangeAndRows(t *testing.T) {
	sender := &fakeSender{resp: webhook.Decode(200, `{"leads":[{"name":"Ana"},{"name":"Bia"}]}`)}
	s := NewSession("c1", sender, time.Minute)

	reply, err := s.Submit(context.Background(), "  find leads in SP ")
	require.NoError(t, err)

	assert.Equal(t, []string{"find leads in SP"}, sender.calls)
	assert.Contains(t, reply.Text, "'leads'")

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, SenderUser, snap.Messages[0].Sender)
	assert.Equal(t, "find leads in SP", snap.Messages[0].Text)
	assert.Equal(t, SenderBot, snap.Messages[1].Sender)
	assert.False(t, snap.Loading)
	assert.Equal(t, "idle", snap.State)

	data, err := json.Marshal(snap.Rows)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Ana"},{"name":"Bia"}]`, string(data))
	assert.Equal(t, []string{"Name"}, snap.Grid.Headers)
}

func TestSubmit_ClearsRowsAndShowsThinkingWhileAwaiting(t *testing.T) {
	first := &fakeSender{resp: webhook.Decode(200, `[{"a":1}]`)}
	s := NewSession("c1", first, time.Minute)
	_, err := s.Submit(context.Background(), "first")
	require.NoError(t, err)
	require.Len(t, s.Rows(), 1)

	blocked := &fakeSender{
		resp:    webhook.Decode(200, `{"message":"second"}`),
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	s.sender = blocked

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "second")
		done <- err
	}()
	<-blocked.started

	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Rows)
	last := snap.Messages[len(snap.Messages)-1]
	assert.True(t, last.Thinking)

	_, err = s.Submit(context.Background(), "third")
	assert.ErrorIs(t, err, ErrBusy)

	close(blocked.block)
	require.NoError(t, <-done)

	snap = s.Snapshot()
	assert.False(t, snap.Loading)
	for _, m := range snap.Messages {
		assert.False(t, m.Thinking)
	}
	// echo acknowledgement leaves the table empty
	assert.Empty(t, snap.Rows)
	assert.Len(t, snap.Messages, 4)
}

func TestSubmit_StatusErrorBecomesBotMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer server.Close()

	s := NewSession("c1", webhook.NewClient(server.URL), time.Minute)
	reply, err := s.Submit(context.Background(), "hello")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, reply.Error)
	assert.Contains(t, reply.Detail, "500")
	assert.Contains(t, reply.Detail, "boom")

	notes := s.TakeNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "destructive", notes[0].Variant)
	assert.Empty(t, s.TakeNotifications())

	assert.Equal(t, Idle, s.State())
	assert.Len(t, s.Snapshot().Messages, 2)
}

func TestSubmit_NetworkFailureReturnsToIdle(t *testing.T) {
	sender := &fakeSender{err: &webhook.NetworkError{URL: "http://x", Err: errors.New("refused")}}
	s := NewSession("c1", sender, time.Minute)

	reply, err := s.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, reply.Detail, "Could not connect")
	assert.Equal(t, Idle, s.State())

	// the session stays usable
	sender.err = nil
	sender.resp = webhook.Decode(200, `["a","b"]`)
	_, err = s.Submit(context.Background(), "again")
	require.NoError(t, err)
	assert.Len(t, s.Rows(), 2)
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "The webhook did not respond within 2m0s.",
		DescribeError(context.DeadlineExceeded, 2*time.Minute))
	assert.Equal(t, "The webhook did not respond in time.",
		DescribeError(context.DeadlineExceeded, 0))
	assert.Contains(t, DescribeError(&webhook.NetworkError{Err: context.DeadlineExceeded}, time.Second), "did not respond")
	assert.Equal(t, "Error while processing: odd", DescribeError(errors.New("odd"), 0))
	assert.Contains(t, DescribeError(context.Canceled, 0), "cancelled")
	assert.Equal(t, "Too many requests to the webhook. Wait a moment and try again.",
		DescribeError(fmt.Errorf("%w: rate: Wait(n=1) would exceed context deadline", webhook.ErrRateLimited), time.Minute))
	assert.Equal(t, "The webhook response was too large to process.",
		DescribeError(fmt.Errorf("%w: more than 10 bytes", webhook.ErrResponseTooLarge), 0))
}

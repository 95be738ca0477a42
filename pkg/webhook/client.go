// Package webhook posts user text to the external webhook and decodes whatever comes back.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/time/rate"

	"github.com/leadcatalyst/leadchat/pkg/logger"
	"github.com/leadcatalyst/leadchat/pkg/shaper"
)

// DefaultTimeout bounds a request when no timeout is configured.
const DefaultTimeout = 120 * time.Second

// DefaultMaxResponseBytes caps how much of a reply body is read.
const DefaultMaxResponseBytes = 10 << 20

// sentAtLayout is ISO-8601 in UTC with millisecond precision.
const sentAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Sender delivers one message and returns the decoded response.
type Sender interface {
	Send(ctx context.Context, text string) (*Response, error)
}

type Request struct {
	Message string `json:"message"`
	SentAt  string `json:"sentAt"`
}

// Response is a successful webhook reply.
type Response struct {
	StatusCode int
	Body       string
	// Value is the parsed body, or {"rawResponse": body} when Raw is set.
	Value gjson.Result
	Raw   bool
}

type Client struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	maxBody    int64
	limiter    *rate.Limiter
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxResponseBytes caps the reply body; larger replies fail with
// ErrResponseTooLarge. n <= 0 keeps the default.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithRatePerMinute spaces outbound requests; 0 disables the limit.
func WithRatePerMinute(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		maxBody:    DefaultMaxResponseBytes,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts {message, sentAt} and returns the decoded reply. A non-2xx status is
// returned as *StatusError, transport failures as *NetworkError.
func (c *Client) Send(ctx context.Context, text string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("waiting for webhook rate limit: %w", ctxErr)
			}
			// The next slot is past the deadline.
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	payload, err := json.Marshal(Request{
		Message: text,
		SentAt:  c.now().UTC().Format(sentAtLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WarnCF("webhook", "Webhook request failed", map[string]interface{}{
			"url":   c.url,
			"error": err.Error(),
		})
		return nil, &NetworkError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading webhook response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		logger.WarnCF("webhook", "Webhook response too large", map[string]interface{}{
			"status": resp.StatusCode,
			"limit":  c.maxBody,
		})
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxBody)
	}

	out := Decode(resp.StatusCode, string(body))
	logger.InfoCF("webhook", "Webhook responded", map[string]interface{}{
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"raw":      out.Raw,
		"duration": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(out)
	}
	return out, nil
}

// Decode parses body as JSON, falling back to the {"rawResponse": body} wrapper.
func Decode(status int, body string) *Response {
	out := &Response{StatusCode: status, Body: body}
	if gjson.Valid(body) {
		out.Value = gjson.Parse(body)
		return out
	}
	wrapped, err := sjson.Set("{}", shaper.RawResponseKey, body)
	if err != nil {
		// sjson only fails on malformed paths; the key is constant.
		wrapped = "{}"
	}
	out.Value = gjson.Parse(wrapped)
	out.Raw = true
	return out
}

package webhook

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/leadcatalyst/leadchat/pkg/table"
)

const snippetChars = 100

var (
	// ErrRateLimited means the outbound rate limit left no slot before the deadline.
	ErrRateLimited = errors.New("webhook rate limit reached")
	// ErrResponseTooLarge means the reply body exceeded the configured cap.
	ErrResponseTooLarge = errors.New("webhook response too large")
)

// StatusError is returned for a non-2xx reply.
type StatusError struct {
	StatusCode int
	// Detail is the reply's "message" field or a snippet of its body.
	Detail   string
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook request failed: Status: %d. %s", e.StatusCode, e.Detail)
}

func newStatusError(resp *Response) *StatusError {
	return &StatusError{
		StatusCode: resp.StatusCode,
		Detail:     statusDetail(resp),
		Response:   resp,
	}
}

func statusDetail(resp *Response) string {
	if resp.Value.IsObject() && !resp.Raw {
		if msg, ok := table.FromObject(resp.Value).Get("message"); ok && truthy(msg) {
			return truncate(msg.String(), snippetChars)
		}
	}
	if resp.Body == "" {
		return ""
	}
	return "Response: " + truncate(resp.Body, snippetChars)
}

// truthy mirrors how the page decided whether a "message" field was worth showing.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// NetworkError wraps a transport-level failure reaching the webhook.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	// url.Error repeats the full URL, so report its cause instead.
	cause := e.Err
	var ue *url.Error
	if errors.As(cause, &ue) {
		cause = ue.Err
	}
	return fmt.Sprintf("webhook unreachable (%s): %v", redact(e.URL), cause)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// redact keeps the scheme and host of a webhook URL; the path often carries a secret id.
func redact(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host
}

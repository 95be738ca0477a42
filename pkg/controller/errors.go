package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leadcatalyst/leadchat/pkg/webhook"
)

// DescribeError turns a failed submission into the text shown to the user.
func DescribeError(err error, timeout time.Duration) string {
	var (
		statusErr *webhook.StatusError
		netErr    *webhook.NetworkError
	)
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.Is(err, webhook.ErrRateLimited):
		return "Too many requests to the webhook. Wait a moment and try again."
	case errors.Is(err, webhook.ErrResponseTooLarge):
		return "The webhook response was too large to process."
	case errors.Is(err, context.DeadlineExceeded):
		if timeout > 0 {
			return fmt.Sprintf("The webhook did not respond within %s.", timeout)
		}
		return "The webhook did not respond in time."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled before the webhook responded."
	case errors.As(err, &netErr):
		return "Could not connect to the webhook server. Check your connection or whether the server is online."
	default:
		return fmt.Sprintf("Error while processing: %v", err)
	}
}

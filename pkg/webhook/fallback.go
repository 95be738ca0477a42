package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/leadcatalyst/leadchat/pkg/logger"
)

// FallbackSender tries the primary webhook first, then the fallbacks in order.
// Only unreachable endpoints trigger a fallback; a reply with an error status is final.
type FallbackSender struct {
	primary   Sender
	fallbacks []Sender
}

func NewFallbackSender(primary Sender, fallbacks ...Sender) *FallbackSender {
	return &FallbackSender{
		primary:   primary,
		fallbacks: fallbacks,
	}
}

func (s *FallbackSender) Send(ctx context.Context, text string) (*Response, error) {
	resp, err := s.primary.Send(ctx, text)
	if err == nil || !shouldFallback(ctx, err) || len(s.fallbacks) == 0 {
		return resp, err
	}

	logger.WarnCF("webhook", fmt.Sprintf("Primary webhook failed: %v, trying fallbacks", err), nil)

	lastErr := err
	for i, fb := range s.fallbacks {
		logger.InfoCF("webhook", fmt.Sprintf("Trying fallback #%d", i+1), nil)

		resp, lastErr = fb.Send(ctx, text)
		if lastErr == nil {
			logger.InfoCF("webhook", fmt.Sprintf("Fallback #%d succeeded", i+1), nil)
			return resp, nil
		}
		if !shouldFallback(ctx, lastErr) {
			return nil, lastErr
		}

		logger.WarnCF("webhook", fmt.Sprintf("Fallback #%d failed: %v", i+1, lastErr), nil)
	}

	return nil, fmt.Errorf("all webhooks failed, last error: %w", lastErr)
}

func shouldFallback(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

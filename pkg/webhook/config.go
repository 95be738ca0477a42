package webhook

import (
	"github.com/leadcatalyst/leadchat/pkg/config"
)

// NewSenderFromConfig builds the client for cfg.URL, wrapped in a FallbackSender
// when fallback URLs are configured. All clients share the timeout and rate limit
// settings.
func NewSenderFromConfig(cfg config.WebhookConfig) Sender {
	opts := []Option{
		WithTimeout(cfg.Timeout.Duration),
		WithRatePerMinute(cfg.RatePerMinute),
		WithMaxResponseBytes(cfg.MaxResponseBytes),
	}
	primary := NewClient(cfg.URL, opts...)
	if len(cfg.FallbackURLs) == 0 {
		return primary
	}

	fallbacks := make([]Sender, 0, len(cfg.FallbackURLs))
	for _, u := range cfg.FallbackURLs {
		if u == "" {
			continue
		}
		fallbacks = append(fallbacks, NewClient(u, opts...))
	}
	return NewFallbackSender(primary, fallbacks...)
}

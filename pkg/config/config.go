package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultWebhookURL is the endpoint the lead catalyst page has always posted to.
const DefaultWebhookURL = "https://n8n.automacaocomia.pro/webhook/05d50243-be01-4324-9a66-b8bc6a580dd5"

type Config struct {
	Webhook WebhookConfig `json:"webhook" yaml:"webhook" toml:"webhook"`
	WebChat WebChatConfig `json:"webchat" yaml:"webchat" toml:"webchat"`
	Export  ExportConfig  `json:"export" yaml:"export" toml:"export"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
}

type WebhookConfig struct {
	URL          string   `json:"url" yaml:"url" toml:"url" env:"LEADCHAT_WEBHOOK_URL"`
	Timeout      Duration `json:"timeout" yaml:"timeout" toml:"timeout" env:"LEADCHAT_WEBHOOK_TIMEOUT"`
	FallbackURLs []string `json:"fallback_urls,omitempty" yaml:"fallback_urls,omitempty" toml:"fallback_urls,omitempty" env:"LEADCHAT_WEBHOOK_FALLBACK_URLS"`
	// Outbound requests per minute, 0 means unlimited.
	RatePerMinute int `json:"rate_per_minute" yaml:"rate_per_minute" toml:"rate_per_minute" env:"LEADCHAT_WEBHOOK_RATE_PER_MINUTE"`
	// Largest reply body read from the webhook, in bytes.
	MaxResponseBytes int64 `json:"max_response_bytes" yaml:"max_response_bytes" toml:"max_response_bytes" env:"LEADCHAT_WEBHOOK_MAX_RESPONSE_BYTES"`
}

type WebChatConfig struct {
	Host       string   `json:"host" yaml:"host" toml:"host" env:"LEADCHAT_WEBCHAT_HOST"`
	Port       int      `json:"port" yaml:"port" toml:"port" env:"LEADCHAT_WEBCHAT_PORT"`
	Username   string   `json:"username" yaml:"username" toml:"username" env:"LEADCHAT_WEBCHAT_USERNAME"`
	Password   string   `json:"password" yaml:"password" toml:"password" env:"LEADCHAT_WEBCHAT_PASSWORD"`
	SessionTTL Duration `json:"session_ttl" yaml:"session_ttl" toml:"session_ttl" env:"LEADCHAT_WEBCHAT_SESSION_TTL"`
}

type ExportConfig struct {
	Filename string `json:"filename" yaml:"filename" toml:"filename" env:"LEADCHAT_EXPORT_FILENAME"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" toml:"level" env:"LEADCHAT_LOG_LEVEL"`
}

// Duration accepts "90s"-style strings in every config format and in env vars.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Webhook: WebhookConfig{
			URL:              DefaultWebhookURL,
			Timeout:          Duration{120 * time.Second},
			FallbackURLs:     []string{},
			RatePerMinute:    0,
			MaxResponseBytes: 10 << 20,
		},
		WebChat: WebChatConfig{
			Host:       "0.0.0.0",
			Port:       18800,
			SessionTTL: Duration{24 * time.Hour},
		},
		Export: ExportConfig{
			Filename: "dados_exportados.csv",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads path (JSON, YAML or TOML by extension) over the defaults and then
// applies LEADCHAT_* environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Full config from env var, for containers and lambda.
	if cfgJSON := os.Getenv("LEADCHAT_CONFIG_JSON"); cfgJSON != "" {
		if err := json.Unmarshal([]byte(cfgJSON), cfg); err != nil {
			return nil, fmt.Errorf("parsing LEADCHAT_CONFIG_JSON: %w", err)
		}
		if err := env.Parse(cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return json.Unmarshal(data, cfg)
	}
}

// SaveConfig writes cfg to path in the format its extension names, creating
// parent directories as needed.
func SaveConfig(path string, cfg *Config) error {
	data, err := encode(path, cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func encode(path string, cfg *Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Webhook.URL) == "" {
		return fmt.Errorf("webhook.url is required")
	}
	if c.Webhook.Timeout.Duration < 0 {
		return fmt.Errorf("webhook.timeout must not be negative")
	}
	if c.Webhook.RatePerMinute < 0 {
		return fmt.Errorf("webhook.rate_per_minute must not be negative")
	}
	if c.Webhook.MaxResponseBytes < 0 {
		return fmt.Errorf("webhook.max_response_bytes must not be negative")
	}
	if c.WebChat.Port < 0 || c.WebChat.Port > 65535 {
		return fmt.Errorf("webchat.port out of range: %d", c.WebChat.Port)
	}
	return nil
}

// AuthEnabled reports whether the web chat requires a login.
func (c *WebChatConfig) AuthEnabled() bool {
	return c.Username != "" && c.Password != ""
}

func (c *WebChatConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ExportFilename returns the configured download name, falling back to the default.
func (c *Config) ExportFilename() string {
	if c.Export.Filename == "" {
		return "dados_exportados.csv"
	}
	return c.Export.Filename
}

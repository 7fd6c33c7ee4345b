package goAuthClient

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config defines every tunable of a [Manager].
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Session SessionConfig
	Events  EventsConfig
	Metrics MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the remote auth service.
//
// BaseURL wins over the Platform default when set. PathPrefix is appended
// to whichever base is chosen.
type APIConfig struct {
	BaseURL    string        `env:"GOAUTHCLIENT_API_URL"`
	Platform   Platform      `env:"GOAUTHCLIENT_PLATFORM"`
	PathPrefix string        `env:"GOAUTHCLIENT_API_PREFIX"`
	Timeout    time.Duration `env:"GOAUTHCLIENT_API_TIMEOUT"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig names the two persisted entries.
type StorageConfig struct {
	TokenKey string `env:"GOAUTHCLIENT_TOKEN_KEY"`
	UserKey  string `env:"GOAUTHCLIENT_USER_KEY"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls restore behaviour.
//
// With DiscardExpiredTokens set, a stored JWT whose exp is older than
// now-ExpiryLeeway is treated as absent. Opaque tokens are always kept.
type SessionConfig struct {
	DiscardExpiredTokens bool          `env:"GOAUTHCLIENT_DISCARD_EXPIRED_TOKENS"`
	ExpiryLeeway         time.Duration `env:"GOAUTHCLIENT_EXPIRY_LEEWAY"`
}

/*
====================================
EVENTS / METRICS CONFIG
====================================
*/

// EventsConfig controls the asynchronous session event dispatcher.
type EventsConfig struct {
	Enabled    bool `env:"GOAUTHCLIENT_EVENTS_ENABLED"`
	BufferSize int  `env:"GOAUTHCLIENT_EVENTS_BUFFER_SIZE"`
	DropIfFull bool `env:"GOAUTHCLIENT_EVENTS_DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"GOAUTHCLIENT_METRICS_ENABLED"`
	EnableLatencyHistograms bool `env:"GOAUTHCLIENT_METRICS_LATENCY_HISTOGRAMS"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

const (
	defaultWebBaseURL    = "http://localhost:5000"
	defaultDeviceBaseURL = "http://10.0.2.2:5000"
)

// DefaultConfig returns the configuration used by [New].
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Platform:   PlatformWeb,
			PathPrefix: "/api",
			Timeout:    10 * time.Second,
		},
		Storage: StorageConfig{
			TokenKey: "token",
			UserKey:  "user",
		},
		Session: SessionConfig{
			ExpiryLeeway: 30 * time.Second,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// LoadConfigFromEnv overlays GOAUTHCLIENT_* variables on [DefaultConfig].
// Unset variables keep their defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ServiceURL returns the resolved service root including PathPrefix.
func (c *Config) ServiceURL() string {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		switch c.API.Platform {
		case PlatformDevice:
			base = defaultDeviceBaseURL
		default:
			base = defaultWebBaseURL
		}
	}
	base = strings.TrimRight(base, "/")

	prefix := strings.Trim(c.API.PathPrefix, "/")
	if prefix == "" {
		return base
	}
	return base + "/" + prefix
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field. Every returned error matches
// [ErrValidation].
func (c *Config) Validate() error {
	// API
	switch c.API.Platform {
	case "", PlatformWeb, PlatformDevice:
	default:
		return invalid("API Platform must be %q or %q", PlatformWeb, PlatformDevice)
	}
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return invalid("API BaseURL must be an absolute http(s) URL")
		}
	}
	if c.API.Timeout < 0 {
		return invalid("API Timeout must be >= 0")
	}

	// Storage
	if strings.TrimSpace(c.Storage.TokenKey) == "" {
		return invalid("Storage TokenKey must be set")
	}
	if strings.TrimSpace(c.Storage.UserKey) == "" {
		return invalid("Storage UserKey must be set")
	}
	if c.Storage.TokenKey == c.Storage.UserKey {
		return invalid("Storage TokenKey and UserKey must differ")
	}

	// Session
	if c.Session.ExpiryLeeway < 0 {
		return invalid("Session ExpiryLeeway must be >= 0")
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return invalid("Events BufferSize must be > 0 when Events are enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalid("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

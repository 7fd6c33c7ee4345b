package goAuthClient

import (
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goAuthClient/store"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Storage.TokenKey != "token" || cfg.Storage.UserKey != "user" {
		t.Fatalf("unexpected default keys %+v", cfg.Storage)
	}
}

func TestServiceURL(t *testing.T) {
	tests := []struct {
		name string
		api  APIConfig
		want string
	}{
		{name: "web default", api: APIConfig{Platform: PlatformWeb, PathPrefix: "/api"}, want: "http://localhost:5000/api"},
		{name: "device default", api: APIConfig{Platform: PlatformDevice, PathPrefix: "/api"}, want: "http://10.0.2.2:5000/api"},
		{name: "explicit wins", api: APIConfig{BaseURL: "https://auth.example.com/", Platform: PlatformDevice, PathPrefix: "api/"}, want: "https://auth.example.com/api"},
		{name: "no prefix", api: APIConfig{BaseURL: "http://h:1"}, want: "http://h:1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{API: tc.api}
			if got := cfg.ServiceURL(); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "platform", mutate: func(c *Config) { c.API.Platform = "desktop" }},
		{name: "relative url", mutate: func(c *Config) { c.API.BaseURL = "/api" }},
		{name: "ftp url", mutate: func(c *Config) { c.API.BaseURL = "ftp://x" }},
		{name: "negative timeout", mutate: func(c *Config) { c.API.Timeout = -time.Second }},
		{name: "empty token key", mutate: func(c *Config) { c.Storage.TokenKey = " " }},
		{name: "same keys", mutate: func(c *Config) { c.Storage.UserKey = c.Storage.TokenKey }},
		{name: "negative leeway", mutate: func(c *Config) { c.Session.ExpiryLeeway = -1 }},
		{name: "events buffer", mutate: func(c *Config) { c.Events.Enabled = true; c.Events.BufferSize = 0 }},
		{name: "histograms without metrics", mutate: func(c *Config) { c.Metrics.Enabled = false; c.Metrics.EnableLatencyHistograms = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GOAUTHCLIENT_API_URL", "http://auth.internal:8080")
	t.Setenv("GOAUTHCLIENT_PLATFORM", "device")
	t.Setenv("GOAUTHCLIENT_API_TIMEOUT", "3s")
	t.Setenv("GOAUTHCLIENT_DISCARD_EXPIRED_TOKENS", "true")
	t.Setenv("GOAUTHCLIENT_EVENTS_ENABLED", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Platform != PlatformDevice || cfg.API.Timeout != 3*time.Second {
		t.Fatalf("unexpected api config %+v", cfg.API)
	}
	if got := cfg.ServiceURL(); got != "http://auth.internal:8080/api" {
		t.Fatalf("explicit url must win, got %q", got)
	}
	if !cfg.Session.DiscardExpiredTokens || !cfg.Events.Enabled {
		t.Fatalf("bool overlays not applied %+v", cfg)
	}
	if cfg.Storage.TokenKey != "token" || cfg.Events.BufferSize != 256 {
		t.Fatal("unset variables must keep defaults")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("env config invalid: %v", err)
	}
}

func TestLoadConfigFromEnvBadValue(t *testing.T) {
	t.Setenv("GOAUTHCLIENT_API_TIMEOUT", "soon")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBuilderRequiresStoreAndSingleUse(t *testing.T) {
	if _, err := New().Build(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected missing store error, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Storage.TokenKey = ""
	if _, err := New().WithStore(store.NewMemory()).WithConfig(cfg).Build(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected config error, got %v", err)
	}

	b := New().WithStore(store.NewMemory())
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer m.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("second Build must fail")
	}
}

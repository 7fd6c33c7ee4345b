package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type globalOptions struct {
	storeKind   string
	dbPath      string
	redisAddr   string
	redisPrefix string
	apiURL      string
	platform    string
	logLevel    string
	events      bool
	otlp        string
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "goauthclient", "session.db")
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// openStore returns the selected backend and a cleanup func.
func openStore(opts globalOptions, logger *slog.Logger) (store.Store, func(), error) {
	switch strings.ToLower(opts.storeKind) {
	case "memory":
		return store.NewMemory(), func() {}, nil

	case "sqlite", "":
		if err := os.MkdirAll(filepath.Dir(opts.dbPath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create store dir: %w", err)
		}
		st, err := store.OpenSQLite(opts.dbPath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil

	case "redis":
		addr := opts.redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}

		var (
			client  redis.UniversalClient
			cleanup func()
		)
		if addr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				return nil, nil, fmt.Errorf("start miniredis: %w", err)
			}
			client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
			cleanup = func() {
				_ = client.Close()
				mr.Close()
			}
			logger.Warn("no redis address configured, using ephemeral miniredis", "addr", mr.Addr())
		} else {
			client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
			cleanup = func() { _ = client.Close() }
		}
		return store.NewRedis(client, opts.redisPrefix), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown --store %q (want sqlite, redis or memory)", opts.storeKind)
	}
}

// openManager builds and restores a Manager. The returned cleanup closes the
// manager and the store.
func openManager(ctx context.Context, opts globalOptions, stderr io.Writer) (*goAuthClient.Manager, func(), error) {
	logger, err := newLogger(stderr, opts.logLevel)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := goAuthClient.LoadConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.platform != "" {
		cfg.API.Platform = goAuthClient.Platform(opts.platform)
	}

	st, closeStore, err := openStore(opts, logger)
	if err != nil {
		return nil, nil, err
	}

	b := goAuthClient.New().
		WithConfig(cfg).
		WithStore(st).
		WithLogger(logger)
	var sink *goAuthClient.JSONWriterSink
	if opts.events {
		sink = goAuthClient.NewJSONWriterSink(stderr)
		b = b.WithEventSink(sink)
	}

	endpoint := opts.otlp
	if endpoint == "" {
		endpoint = os.Getenv("GOAUTHCLIENT_OTLP_ENDPOINT")
	}
	tp, shutdownTracing, err := setupTracing(ctx, endpoint)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("setup tracing: %w", err)
	}
	if tp != nil {
		b = b.WithTracerProvider(tp)
	}

	m, err := b.Build()
	if err != nil {
		_ = shutdownTracing(context.Background())
		closeStore()
		return nil, nil, err
	}
	m.Restore(ctx)

	return m, func() {
		m.Close()
		if err := sink.Err(); err != nil {
			logger.Warn("session events lost", "err", err)
		}
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flush traces failed", "err", err)
		}
		closeStore()
	}, nil
}

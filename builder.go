package goAuthClient

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/events"
	"github.com/MrEthical07/goAuthClient/internal/metrics"
	"github.com/MrEthical07/goAuthClient/store"
	"github.com/MrEthical07/goAuthClient/transport"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Builder collects dependencies for a [Manager].
//
// Builder instances are intended to be configured during initialization and
// used once.
type Builder struct {
	config Config
	store  store.Store

	httpClient     *http.Client
	logger         *slog.Logger
	eventSink      EventSink
	tracerProvider trace.TracerProvider
	now            func() time.Time

	built bool
}

// New starts a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the durable credential store. Required.
func (b *Builder) WithStore(st store.Store) *Builder {
	b.store = st
	return b
}

// WithBaseURL overrides the platform default service address.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithHTTPClient sets the base HTTP client. Its Transport is wrapped by the
// adapter, not replaced.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithLogger sets the structured logger. The default discards output.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithEventSink sets the destination for session events and enables the
// dispatcher.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	b.config.Events.Enabled = sink != nil
	return b
}

// WithTracerProvider sets the OpenTelemetry provider used for operation
// spans. The default is a no-op provider. With a provider set, requests to
// the service also carry a W3C traceparent header.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) withClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the Manager. A Builder can
// only be built once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, fmt.Errorf("%w: credential store required", ErrValidation)
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		config:  cfg,
		store:   b.store,
		logger:  logger,
		metrics: metrics.New(metrics.Config{Enabled: cfg.Metrics.Enabled, EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms}),
		tracer:  newTracer(b.tracerProvider),
		now:     now,
		ready:   make(chan struct{}),
		loading: true,
	}
	m.events = events.NewDispatcher(events.Config{
		Enabled:    cfg.Events.Enabled,
		BufferSize: cfg.Events.BufferSize,
		DropIfFull: cfg.Events.DropIfFull,
	}, b.eventSink)

	// -------- TRANSPORT --------
	opts := []transport.Option{
		transport.WithHTTPClient(b.httpClient),
		transport.WithTimeout(cfg.API.Timeout),
		transport.WithKeys(cfg.Storage.TokenKey, cfg.Storage.UserKey),
		transport.WithLogger(logger),
		transport.WithLatencyObserver(func(d time.Duration) {
			m.metrics.Observe(MetricRequestLatency, d)
		}),
		transport.WithUnauthorizedHandler(m.handleUnauthorized),
	}
	if b.tracerProvider != nil {
		opts = append(opts, transport.WithPropagator(propagation.TraceContext{}))
	}
	client, err := transport.New(cfg.ServiceURL(), b.store, opts...)
	if err != nil {
		m.events.Close()
		return nil, err
	}
	m.client = client
	m.api = client.Auth()

	// -------- FLOWS --------
	m.flows = m.buildFlowDeps()

	b.built = true

	return m, nil
}

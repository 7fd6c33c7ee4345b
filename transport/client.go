package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goAuthClient/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
)

const (
	defaultTokenKey = "token"
	defaultUserKey  = "user"
	maxResponseSize = 1 << 20
)

// UnauthorizedHandler is invoked after a 401 response has cleared the
// persisted credentials. req is the request that was rejected.
type UnauthorizedHandler func(ctx context.Context, req *http.Request)

// Option configures a [Client].
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	tokenKey   string
	userKey    string
	logger     *slog.Logger
	observe    func(time.Duration)
	propagator propagation.TextMapPropagator
	handlers   []UnauthorizedHandler
}

// WithHTTPClient sets the base client. Its Transport is wrapped, not replaced.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds each request. Zero keeps the base client's timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithKeys overrides the store keys holding the token and serialized user.
func WithKeys(tokenKey, userKey string) Option {
	return func(o *options) {
		if tokenKey != "" {
			o.tokenKey = tokenKey
		}
		if userKey != "" {
			o.userKey = userKey
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLatencyObserver receives the duration of every completed round trip.
func WithLatencyObserver(fn func(time.Duration)) Option {
	return func(o *options) { o.observe = fn }
}

// WithPropagator injects the trace context carried by each request's context
// (for example traceparent) into its headers.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(o *options) { o.propagator = p }
}

// WithUnauthorizedHandler registers a handler at construction time.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(o *options) {
		if h != nil {
			o.handlers = append(o.handlers, h)
		}
	}
}

// Client is the HTTP Client Adapter. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	store    store.Store
	tokenKey string
	userKey  string
	logger   *slog.Logger
	observe  func(time.Duration)
	prop     propagation.TextMapPropagator

	mu       sync.RWMutex
	handlers []UnauthorizedHandler
}

// New builds an adapter that talks to baseURL and reads credentials from st.
func New(baseURL string, st store.Store, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("base url required")
	}
	if st == nil {
		return nil, errors.New("credential store required")
	}

	o := options{
		tokenKey: defaultTokenKey,
		userKey:  defaultUserKey,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	base := o.httpClient
	if base == nil {
		base = &http.Client{}
	}
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		store:    st,
		tokenKey: o.tokenKey,
		userKey:  o.userKey,
		logger:   o.logger,
		observe:  o.observe,
		prop:     o.propagator,
		handlers: o.handlers,
	}

	hc := *base
	hc.Transport = &authRoundTripper{client: c, next: next}
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}
	c.http = &hc

	return c, nil
}

// BaseURL returns the resolved service root (including any API prefix).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the wrapped client so other protected endpoints share
// the same bearer and invalidation behaviour.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// OnUnauthorized registers h and returns a function that unregisters it.
func (c *Client) OnUnauthorized(h UnauthorizedHandler) (remove func()) {
	if h == nil {
		return func() {}
	}

	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	idx := len(c.handlers) - 1
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if idx < len(c.handlers) {
				c.handlers[idx] = nil
			}
		})
	}
}

// Do sends a JSON request and decodes a JSON response into out.
//
// Network and decoding failures return *TransportError; non-2xx statuses
// return *RemoteError. out may be nil when the body is irrelevant.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Method: method, Path: path, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.observe != nil {
		c.observe(time.Since(start))
	}
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    messageFromBody(data),
		}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("%w: empty body", ErrMalformedResponse)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// invalidate clears the persisted pair and notifies handlers. Both removals
// are attempted even when the first fails.
func (c *Client) invalidate(ctx context.Context, req *http.Request) {
	for _, key := range []string{c.tokenKey, c.userKey} {
		if err := c.store.Remove(ctx, key); err != nil {
			c.logger.WarnContext(ctx, "clear credential after 401 failed",
				"key", key,
				"err", err,
			)
		}
	}
	c.logger.InfoContext(ctx, "session invalidated by 401",
		"method", req.Method,
		"path", req.URL.Path,
	)

	c.mu.RLock()
	handlers := make([]UnauthorizedHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.RUnlock()

	for _, h := range handlers {
		if h != nil {
			h(ctx, req)
		}
	}
}

func messageFromBody(data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Message
}

type authRoundTripper struct {
	client *Client
	next   http.RoundTripper
}

func (rt *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	c := rt.client
	out := req.Clone(ctx)

	token, found, err := c.store.Get(ctx, c.tokenKey)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "read token for request failed", "err", err)
	case found && token != "":
		out.Header.Set("Authorization", "Bearer "+token)
	}

	if out.Header.Get(RequestIDHeader) == "" {
		id := RequestIDFromContext(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		out.Header.Set(RequestIDHeader, id)
	}
	if c.prop != nil {
		c.prop.Inject(ctx, propagation.HeaderCarrier(out.Header))
	}

	resp, err := rt.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidate(ctx, out)
	}
	return resp, nil
}

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/goAuthClient/store"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type failingStore struct {
	store.Memory
	failGet    bool
	failRemove bool
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, store.ErrUnavailable
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingStore) Remove(ctx context.Context, key string) error {
	if f.failRemove {
		return store.ErrUnavailable
	}
	return f.Memory.Remove(ctx, key)
}

func newTestClient(t *testing.T, h http.Handler, st store.Store) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", st)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBearerHeaderFromStore(t *testing.T) {
	var seen atomic.Value
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	st := store.NewMemory()
	c := newTestClient(t, h, st)
	ctx := context.Background()

	if _, err := c.Auth().Me(ctx); err != nil {
		t.Fatalf("me without token: %v", err)
	}
	if got := seen.Load().(string); got != "" {
		t.Fatalf("expected no authorization header, got %q", got)
	}

	_ = st.Set(ctx, "token", "abc")
	if _, err := c.Auth().Me(ctx); err != nil {
		t.Fatalf("me with token: %v", err)
	}
	if got := seen.Load().(string); got != "Bearer abc" {
		t.Fatalf("expected bearer header, got %q", got)
	}

	_ = st.Set(ctx, "token", "rotated-elsewhere")
	if _, err := c.Auth().Me(ctx); err != nil {
		t.Fatalf("me after store change: %v", err)
	}
	if got := seen.Load().(string); got != "Bearer rotated-elsewhere" {
		t.Fatalf("token must be read from store per request, got %q", got)
	}
}

func TestStoreReadFailureSendsWithoutHeader(t *testing.T) {
	var seen atomic.Value
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	st := &failingStore{failGet: true}
	c := newTestClient(t, h, st)

	if _, err := c.Auth().Me(context.Background()); err != nil {
		t.Fatalf("request must proceed: %v", err)
	}
	if got := seen.Load().(string); got != "" {
		t.Fatalf("expected no header, got %q", got)
	}
}

func TestUnauthorizedClearsPersistedPairFromAnyEndpoint(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "token expired"})
	})
	st := store.NewMemory()
	ctx := context.Background()
	_ = st.Set(ctx, "token", "abc")
	_ = st.Set(ctx, "user", `{"id":"1"}`)
	c := newTestClient(t, h, st)

	var notified atomic.Int32
	var path atomic.Value
	c.OnUnauthorized(func(_ context.Context, req *http.Request) {
		notified.Add(1)
		path.Store(req.URL.Path)
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+"/notes", nil)
	resp, err := c.HTTPClient().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()

	if st.Len() != 0 {
		t.Fatalf("expected persisted entries cleared, %d remain", st.Len())
	}
	if notified.Load() != 1 {
		t.Fatalf("expected one notification, got %d", notified.Load())
	}
	if got := path.Load().(string); got != "/api/notes" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestUnauthorizedSurfacesRemoteError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "not authorized"})
	})
	c := newTestClient(t, h, store.NewMemory())

	_, err := c.Auth().Me(context.Background())
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %T %v", err, err)
	}
	if remote.StatusCode != http.StatusUnauthorized || remote.Message != "not authorized" {
		t.Fatalf("unexpected remote error %+v", remote)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected ErrUnauthorized match")
	}
}

func TestRemovalFailureStillNotifies(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	st := &failingStore{failRemove: true}
	c := newTestClient(t, h, st)

	var notified atomic.Bool
	c.OnUnauthorized(func(context.Context, *http.Request) { notified.Store(true) })

	_, _ = c.Auth().Me(context.Background())
	if !notified.Load() {
		t.Fatal("handler must run even when clearing the store fails")
	}
}

func TestOtherErrorStatusesPassThrough(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "bad creds"})
	})
	st := store.NewMemory()
	ctx := context.Background()
	_ = st.Set(ctx, "token", "abc")
	c := newTestClient(t, h, st)

	var notified atomic.Bool
	c.OnUnauthorized(func(context.Context, *http.Request) { notified.Store(true) })

	_, err := c.Auth().Login(ctx, LoginRequest{Email: "a@a.com", Password: "pw"})
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Message != "bad creds" {
		t.Fatalf("expected remote error with message, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("400 must not match ErrUnauthorized")
	}
	if notified.Load() {
		t.Fatal("400 must not trigger invalidation")
	}
	if _, found, _ := st.Get(ctx, "token"); !found {
		t.Fatal("token must survive non-401 errors")
	}
}

func TestMalformedResponse(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	})
	c := newTestClient(t, h, store.NewMemory())

	_, err := c.Auth().Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	if !errors.Is(err, ErrMalformedResponse) || !errors.Is(err, ErrTransport) {
		t.Fatalf("expected malformed transport error, got %v", err)
	}
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, store.NewMemory())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = c.Auth().Register(context.Background(), RegisterRequest{Name: "A", Email: "a", Password: "b"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestRequestIDForwarded(t *testing.T) {
	var seen atomic.Value
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get(RequestIDHeader))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	c := newTestClient(t, h, store.NewMemory())

	ctx := WithRequestID(context.Background(), "req-42")
	if _, err := c.Auth().Me(ctx); err != nil {
		t.Fatalf("me: %v", err)
	}
	if got := seen.Load().(string); got != "req-42" {
		t.Fatalf("expected forwarded request id, got %q", got)
	}

	if _, err := c.Auth().Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
	if got := seen.Load().(string); got == "" || got == "req-42" {
		t.Fatalf("expected generated request id, got %q", got)
	}
}

func TestOnUnauthorizedRemove(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := newTestClient(t, h, store.NewMemory())

	var calls atomic.Int32
	remove := c.OnUnauthorized(func(context.Context, *http.Request) { calls.Add(1) })
	remove()
	remove()

	_, _ = c.Auth().Me(context.Background())
	if calls.Load() != 0 {
		t.Fatalf("removed handler must not run, got %d calls", calls.Load())
	}
}

func TestLoginDecodesPayload(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, LoginResponse{
			Success: true,
			Token:   "t1",
			User:    &UserRecord{ID: "1", Name: "A", Email: body.Email, CreatedAt: "2024-01-01"},
		})
	})
	c := newTestClient(t, h, store.NewMemory())

	resp, err := c.Auth().Login(context.Background(), LoginRequest{Email: "a@a.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !resp.Success || resp.Token != "t1" || resp.User == nil || resp.User.Email != "a@a.com" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := New("", store.NewMemory()); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := New("http://x", nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestTraceContextPropagated(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Traceparent"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, store.NewMemory(), WithPropagator(propagation.TraceContext{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "me")
	defer span.End()

	if _, err := c.Auth().Me(ctx); err != nil {
		t.Fatalf("me: %v", err)
	}
	got, _ := seen.Load().(string)
	if want := span.SpanContext().TraceID().String(); got == "" || !strings.Contains(got, want) {
		t.Fatalf("expected traceparent with trace id %s, got %q", want, got)
	}
}

package goAuthClient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/events"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/internal/metrics"
	"github.com/MrEthical07/goAuthClient/store"
	"github.com/MrEthical07/goAuthClient/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Manager is the Session Manager. It owns the in-memory session and keeps it
// in step with the credential store and the remote service.
//
// Manager instances are created by [Builder.Build] and are safe for
// concurrent use.
type Manager struct {
	config  Config
	store   store.Store
	client  *transport.Client
	api     *transport.AuthAPI
	logger  *slog.Logger
	metrics *metrics.Metrics
	events  *events.Dispatcher
	tracer  trace.Tracer
	now     func() time.Time
	flows   flows.Deps

	restoreOnce sync.Once
	ready       chan struct{}

	mu      sync.RWMutex
	token   string
	user    *User
	loading bool
	// generation advances on every in-memory transition, and when a login
	// starts writing, so Restore can tell whether it was overtaken.
	generation uint64

	// persistMu orders login writes against Restore's expired-pair removal.
	persistMu sync.Mutex

	subMu   sync.Mutex
	subs    map[uint64]func(Snapshot)
	nextSub uint64
}

// Close stops the event dispatcher after draining buffered events.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.events.Close()
}

// EventsDropped reports events discarded because the buffer was full.
func (m *Manager) EventsDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.events.Dropped()
}

// MetricsSnapshot returns a copy of the Manager's counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// Client returns the HTTP Client Adapter so other protected endpoints share
// the bearer header and 401 handling.
func (m *Manager) Client() *transport.Client {
	if m == nil {
		return nil
	}
	return m.client
}

/*
====================================
DERIVED READS
====================================
*/

// Snapshot returns an immutable copy of the session.
func (m *Manager) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		User:    cloneUser(m.user),
		Token:   m.token,
		Loading: m.loading,
	}
}

// IsAuthenticated reports whether both a token and a user are held.
func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().IsAuthenticated()
}

// Loading reports whether the initial Restore is still pending.
func (m *Manager) Loading() bool {
	return m.Snapshot().Loading
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *User {
	return m.Snapshot().User
}

// Token returns the bearer token, or "".
func (m *Manager) Token() string {
	return m.Snapshot().Token
}

// State returns the derived session state.
func (m *Manager) State() State {
	return m.Snapshot().State()
}

// Ready is closed once the first Restore has completed.
func (m *Manager) Ready() <-chan struct{} {
	if m == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return m.ready
}

// Subscribe registers fn to receive the new Snapshot after every in-memory
// transition. fn runs synchronously on the goroutine that caused the change
// and must not block. The returned cancel func is idempotent.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	if m == nil || fn == nil {
		return func() {}
	}

	m.subMu.Lock()
	if m.subs == nil {
		m.subs = make(map[uint64]func(Snapshot))
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) notify(s Snapshot) {
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

/*
====================================
TRANSITIONS
====================================
*/

func (m *Manager) apply(token string, user *User) {
	m.mu.Lock()
	m.token = token
	m.user = cloneUser(user)
	m.generation++
	s := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(s)
}

// clear drops the pair and reports whether a session was held.
func (m *Manager) clear() bool {
	m.mu.Lock()
	had := m.token != "" || m.user != nil
	m.token = ""
	m.user = nil
	m.generation++
	s := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(s)
	return had
}

/*
====================================
OPERATIONS
====================================
*/

// Restore loads the persisted session. It runs once per Manager; later
// calls perform no I/O and return the current Snapshot. Restore never
// fails: unreadable or corrupt entries leave the session empty and are
// reported as storage warnings. Loading is false afterwards in every case.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.restoreOnce.Do(func() {
		m.restore(ctx)
	})
	return m.Snapshot()
}

func (m *Manager) restore(ctx context.Context) {
	ctx, span := m.startSpan(ctx, "Restore")

	m.mu.RLock()
	startGen := m.generation
	m.mu.RUnlock()

	res := flows.RunRestore(ctx, m.flows.Restore)

	if res.Outcome == flows.RestoreExpired {
		m.discardExpired(ctx, startGen)
	}

	m.mu.Lock()
	applied := false
	if res.Outcome == flows.RestoreHit && m.generation == startGen {
		m.token = res.Token
		m.user = res.User
		applied = true
	}
	m.loading = false
	m.generation++
	s := m.snapshotLocked()
	m.mu.Unlock()

	close(m.ready)
	m.notify(s)

	userID := ""
	switch res.Outcome {
	case flows.RestoreHit:
		m.metrics.Inc(MetricSessionRestored)
		userID = res.User.ID
	case flows.RestoreCorrupt:
		m.metrics.Inc(MetricRestoreCorrupt)
	default:
		m.metrics.Inc(MetricRestoreMiss)
	}

	m.logger.DebugContext(ctx, "session restore finished",
		"outcome", res.Outcome.String(),
		"applied", applied,
	)
	m.emit(ctx, EventSessionRestored, res.Outcome == flows.RestoreHit, userID, nil, func() map[string]string {
		return map[string]string{"outcome": res.Outcome.String()}
	})
	endSpan(span, nil,
		attribute.String("session.restore.outcome", res.Outcome.String()),
		attribute.Bool("session.authenticated", s.IsAuthenticated()),
	)
}

// Login exchanges credentials for a session. Input shape is not checked.
//
// On success the token and user are persisted (token first) and then
// published in memory before Login returns. On failure nothing changes and
// the returned *Error carries the service's message or "Login failed".
func (m *Manager) Login(ctx context.Context, email, password string) (Snapshot, error) {
	if m == nil {
		return Snapshot{}, ErrNotReady
	}
	ctx, span := m.startSpan(ctx, "Login")

	res, err := flows.RunLogin(ctx, email, password, m.flows.Login)
	if err != nil {
		e := m.toError("login", err)
		m.metrics.Inc(MetricLoginFailure)
		m.recordFailure(ctx, e)
		m.emit(ctx, EventSessionLogin, false, "", e, nil)
		endSpan(span, e)
		return m.Snapshot(), e
	}

	m.metrics.Inc(MetricLoginSuccess)
	m.emit(ctx, EventSessionLogin, true, res.User.ID, nil, nil)
	endSpan(span, nil, attribute.String("user.id", res.User.ID))
	return m.Snapshot(), nil
}

// Register creates an account and then logs in with the same credentials.
//
// A refused registration returns an *Error matching [ErrRegistration]. When
// the account was created but the follow-up login failed, the *Error
// carries the login's message and kind, has AccountCreated set, and matches
// [ErrLoginAfterRegister].
func (m *Manager) Register(ctx context.Context, name, email, password string) (Snapshot, error) {
	if m == nil {
		return Snapshot{}, ErrNotReady
	}
	ctx, span := m.startSpan(ctx, "Register")

	res, err := flows.RunRegister(ctx, name, email, password, m.flows.Register)
	if err != nil {
		e := m.toError("register", err)
		if e.AccountCreated {
			m.metrics.Inc(MetricRegisterSuccess)
			m.metrics.Inc(MetricLoginFailure)
		} else {
			m.metrics.Inc(MetricRegisterFailure)
		}
		m.recordFailure(ctx, e)
		m.emit(ctx, EventSessionRegister, false, "", e, func() map[string]string {
			if e.AccountCreated {
				return map[string]string{"account_created": "true"}
			}
			return nil
		})
		endSpan(span, e, attribute.Bool("account.created", e.AccountCreated))
		return m.Snapshot(), e
	}

	m.metrics.Inc(MetricRegisterSuccess)
	m.metrics.Inc(MetricLoginSuccess)
	m.emit(ctx, EventSessionRegister, true, res.User.ID, nil, nil)
	endSpan(span, nil, attribute.String("user.id", res.User.ID))
	return m.Snapshot(), nil
}

// Logout removes the persisted pair and clears memory. It never fails;
// store errors are reported in LogoutResult.StorageErr.
func (m *Manager) Logout(ctx context.Context) LogoutResult {
	if m == nil {
		return LogoutResult{}
	}
	ctx, span := m.startSpan(ctx, "Logout")

	userID := ""
	if u := m.User(); u != nil {
		userID = u.ID
	}

	storageErr := flows.RunLogout(ctx, m.flows.Logout)

	m.metrics.Inc(MetricLogout)
	m.emit(ctx, EventSessionLogout, storageErr == nil, userID, storageErr, nil)
	endSpan(span, nil, attribute.Bool("storage.clean", storageErr == nil))

	return LogoutResult{
		Snapshot:   m.Snapshot(),
		StorageErr: storageErr,
	}
}

// Me asks the service who the current bearer token belongs to. It does not
// modify the session, except that a 401 invalidates it through the adapter.
func (m *Manager) Me(ctx context.Context) (*User, error) {
	if m == nil {
		return nil, ErrNotReady
	}
	ctx, span := m.startSpan(ctx, "Me")

	resp, err := m.api.Me(ctx)
	if err != nil {
		e := &Error{Op: "me", Kind: ErrTransport, Message: meFallbackMessage, Err: err}
		var remote *transport.RemoteError
		if errors.As(err, &remote) {
			e.Kind = ErrAuthentication
			if remote.Message != "" {
				e.Message = remote.Message
			}
		}
		m.recordFailure(ctx, e)
		endSpan(span, e)
		return nil, e
	}
	if !resp.Success || resp.User == nil {
		e := &Error{Op: "me", Kind: ErrAuthentication, Message: resp.Message}
		if e.Message == "" {
			e.Message = meFallbackMessage
		}
		endSpan(span, e)
		return nil, e
	}

	endSpan(span, nil, attribute.String("user.id", resp.User.ID))
	return cloneUser(resp.User), nil
}

const meFallbackMessage = "Request failed"

/*
====================================
HOOKS
====================================
*/

// handleUnauthorized runs after the adapter has cleared the persisted pair
// in response to a 401.
func (m *Manager) handleUnauthorized(ctx context.Context, req *http.Request) {
	m.mu.RLock()
	userID := ""
	if m.user != nil {
		userID = m.user.ID
	}
	m.mu.RUnlock()

	if !m.clear() {
		return
	}

	m.metrics.Inc(MetricSessionInvalidated)
	m.logger.InfoContext(ctx, "session cleared after unauthorized response",
		"path", req.URL.Path,
		"user_id", userID,
	)
	m.emit(ctx, EventSessionInvalidated, true, userID, nil, func() map[string]string {
		return map[string]string{"path": req.URL.Path}
	})
}

func (m *Manager) storageWarning(ctx context.Context, op, key string, err error) {
	m.metrics.Inc(MetricStorageWarning)
	m.logger.WarnContext(ctx, "credential storage failure",
		"op", op,
		"key", key,
		"err", err,
	)
	m.emit(ctx, EventStorageWarning, false, "", errors.Join(ErrStorage, err), func() map[string]string {
		return map[string]string{"op": op, "key": key}
	})
}

func (m *Manager) recordFailure(ctx context.Context, e *Error) {
	if !errors.Is(e, ErrTransport) {
		return
	}
	m.metrics.Inc(MetricTransportFailure)
	m.logger.ErrorContext(ctx, "auth service request failed",
		"op", e.Op,
		"err", e.Err,
	)
}

func (m *Manager) toError(op string, err error) *Error {
	f, ok := flows.IsFailure(err)
	if !ok {
		return &Error{Op: op, Kind: ErrTransport, Message: err.Error(), Err: err}
	}

	kind := ErrTransport
	if f.Kind == flows.KindRejected {
		kind = ErrAuthentication
		if f.Stage == flows.StageRegister {
			kind = ErrRegistration
		}
	}
	return &Error{
		Op:             op,
		Kind:           kind,
		Message:        f.Message,
		AccountCreated: f.AccountCreated,
		Err:            f.Err,
	}
}

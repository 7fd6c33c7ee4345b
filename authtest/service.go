package authtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAuthClient/transport"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// PathPrefix is where the service mounts its routes.
	PathPrefix = "/api"

	MessageFieldsRequired    = "Please provide all required fields"
	MessageUserExists        = "User already exists"
	MessageRegistered        = "User registered successfully"
	MessageInvalidCredential = "Invalid credentials"
)

// Option configures a [Service].
type Option func(*Service)

// WithTokenTTL sets the lifetime of issued tokens. Default one hour.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Service) { s.tokens.ttl = d }
}

// WithSecret sets the HS256 signing secret.
func WithSecret(secret []byte) Option {
	return func(s *Service) { s.tokens.secret = secret }
}

// WithClock replaces time.Now for token issuance and verification.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.tokens.now = now }
}

type account struct {
	user         transport.UserRecord
	passwordHash string
}

type failure struct {
	status  int
	message string
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Token   string                `json:"token,omitempty"`
	User    *transport.UserRecord `json:"user,omitempty"`
}

// Service is a fake Remote Auth Service. It is safe for concurrent use.
type Service struct {
	router *mux.Router
	hasher hasher
	tokens tokenIssuer

	mu         sync.Mutex
	accounts   map[string]*account // by lower-cased email
	issued     map[string]string   // token id -> user id
	revokedIDs map[string]bool
	failures   map[string][]failure
	calls      map[string]int
	lastAuth   map[string]string
}

// New returns a Service with no accounts.
func New(opts ...Option) *Service {
	s := &Service{
		hasher: hasher{config: defaultHasherConfig},
		tokens: tokenIssuer{
			secret: []byte("authtest-secret"),
			ttl:    time.Hour,
			issuer: "authtest",
			now:    time.Now,
		},
		accounts:   make(map[string]*account),
		issued:     make(map[string]string),
		revokedIDs: make(map[string]bool),
		failures:   make(map[string][]failure),
		calls:      make(map[string]int),
		lastAuth:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	api := r.PathPrefix(PathPrefix).Subrouter()
	api.Use(s.record)
	api.HandleFunc(transport.PathRegister, s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc(transport.PathLogin, s.handleLogin).Methods(http.MethodPost)
	api.Handle(transport.PathMe, s.guard(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)
	s.router = r

	return s
}

// Start serves s on a loopback httptest server closed at test cleanup and
// returns the base URL (without the /api prefix).
func Start(tb testing.TB, opts ...Option) (*Service, string) {
	tb.Helper()
	s := New(opts...)
	srv := httptest.NewServer(s)
	tb.Cleanup(srv.Close)
	return s, srv.URL
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SeedUser creates an account directly, bypassing the register endpoint.
func (s *Service) SeedUser(name, email, password string) (transport.UserRecord, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return transport.UserRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := s.accounts[key]; exists {
		return transport.UserRecord{}, fmt.Errorf("authtest: %s", MessageUserExists)
	}
	acct := &account{
		user: transport.UserRecord{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			CreatedAt: s.tokens.now().UTC().Format(time.RFC3339),
		},
		passwordHash: hash,
	}
	s.accounts[key] = acct
	return acct.user, nil
}

// FailNext makes the next request to path (e.g. transport.PathLogin) answer
// with status and {"success":false,"message":message}. Queued failures are
// consumed in order.
func (s *Service) FailNext(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], failure{status: status, message: message})
}

// RevokeAll invalidates every token issued so far. Later /me calls with
// those tokens receive 401.
func (s *Service) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.issued {
		s.revokedIDs[id] = true
	}
}

// Calls reports how many requests reached path.
func (s *Service) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// LastAuthorization returns the Authorization header of the latest request
// to path.
func (s *Service) LastAuthorization(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[path]
}

func (s *Service) revoked(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokedIDs[tokenID]
}

// record counts calls and serves queued failures before routing.
func (s *Service) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, PathPrefix)

		s.mu.Lock()
		s.calls[path]++
		s.lastAuth[path] = r.Header.Get("Authorization")
		var f *failure
		if queue := s.failures[path]; len(queue) > 0 {
			f = &queue[0]
			s.failures[path] = queue[1:]
		}
		s.mu.Unlock()

		if f != nil {
			writeJSON(w, f.status, envelope{Message: f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body transport.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: MessageFieldsRequired})
		return
	}
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Message: MessageFieldsRequired})
		return
	}

	if _, err := s.SeedUser(body.Name, body.Email, body.Password); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: MessageUserExists})
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: MessageRegistered})
}

// handleLogin answers bad credentials with 400, never 401, so a failed
// sign-in does not look like an expired session to the client.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body transport.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Message: MessageFieldsRequired})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(body.Email)]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, envelope{Message: MessageInvalidCredential})
		return
	}

	match, err := s.hasher.Verify(body.Password, acct.passwordHash)
	if err != nil || !match {
		writeJSON(w, http.StatusBadRequest, envelope{Message: MessageInvalidCredential})
		return
	}

	token, id, err := s.tokens.Issue(acct.user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Message: "Server error"})
		return
	}

	s.mu.Lock()
	s.issued[id] = acct.user.ID
	s.mu.Unlock()

	user := acct.user
	writeJSON(w, http.StatusOK, envelope{Success: true, Token: token, User: &user})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{Message: "Not authorized"})
		return
	}

	s.mu.Lock()
	var found *transport.UserRecord
	for _, acct := range s.accounts {
		if acct.user.ID == userID {
			u := acct.user
			found = &u
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeJSON(w, http.StatusNotFound, envelope{Message: "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: found})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package goAuthClient

import "github.com/MrEthical07/goAuthClient/transport"

// User is the account record returned by the remote service and persisted
// under the user key.
type User = transport.UserRecord

// State is the coarse session state derived from a [Snapshot].
type State uint8

const (
	// StateInitializing holds until the first Restore completes.
	StateInitializing State = iota
	// StateAnonymous means no token/user pair is held.
	StateAnonymous
	// StateAuthenticated means both a token and a user are held.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of the session handed to consumers.
type Snapshot struct {
	User    *User
	Token   string
	Loading bool
}

// IsAuthenticated reports whether both a token and a user are present.
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// State derives the session state.
func (s Snapshot) State() State {
	switch {
	case s.Loading:
		return StateInitializing
	case s.IsAuthenticated():
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// LogoutResult is returned by [Manager.Logout]. Logout itself never fails;
// StorageErr reports store removals that did not succeed.
type LogoutResult struct {
	Snapshot   Snapshot
	StorageErr error
}

// Platform selects the default service address when none is configured.
type Platform string

const (
	// PlatformWeb targets a service on the same host.
	PlatformWeb Platform = "web"
	// PlatformDevice targets the host machine from an emulator.
	PlatformDevice Platform = "device"
)

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

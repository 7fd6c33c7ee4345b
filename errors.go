package goAuthClient

import "errors"

var (
	// ErrValidation marks an invalid Config or Builder input.
	ErrValidation = errors.New("invalid configuration")
	// ErrAuthentication marks a login the remote service refused.
	ErrAuthentication = errors.New("authentication failed")
	// ErrRegistration marks a registration the remote service refused.
	ErrRegistration = errors.New("registration failed")
	// ErrTransport marks a service that could not be reached or answered with
	// an unreadable payload.
	ErrTransport = errors.New("transport failure")
	// ErrLoginAfterRegister matches a Register whose account was created but
	// whose follow-up login failed.
	ErrLoginAfterRegister = errors.New("login after registration failed")
	// ErrStorage is the kind carried by storage warnings. Public operations
	// never return it.
	ErrStorage = errors.New("credential storage failure")
	// ErrNotReady is returned by methods called on a nil Manager.
	ErrNotReady = errors.New("session manager not initialized")
)

// Error is returned by Login, Register and Me.
//
// Error() is the human-readable message (the service's own message when it
// sent one). Kind is one of the sentinels above and is matched by errors.Is.
type Error struct {
	Op             string
	Kind           error
	Message        string
	AccountCreated bool
	Err            error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if target == e.Kind {
		return true
	}
	return e.AccountCreated && target == ErrLoginAfterRegister
}

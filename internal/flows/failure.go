package flows

import (
	"errors"

	"github.com/MrEthical07/goAuthClient/transport"
)

// Stage names the remote call that failed.
type Stage uint8

const (
	StageLogin Stage = iota
	StageRegister
)

// Kind classifies a failure for the caller.
type Kind uint8

const (
	// KindRejected: the service answered and refused the request.
	KindRejected Kind = iota
	// KindTransport: the service was unreachable or answered with garbage.
	KindTransport
)

const (
	LoginFallbackMessage    = "Login failed"
	RegisterFallbackMessage = "Registration failed"
)

// Failure is the flow-level error shape. The root package maps it onto its
// public error kinds.
type Failure struct {
	Stage   Stage
	Kind    Kind
	Message string
	// AccountCreated is set when registration succeeded and the follow-up
	// login failed.
	AccountCreated bool
	Err            error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// classify turns an AuthAPI error into a Failure, preferring the service's
// message over the fallback.
func classify(stage Stage, err error, fallback string) *Failure {
	f := &Failure{Stage: stage, Kind: KindRejected, Message: fallback, Err: err}

	var remote *transport.RemoteError
	if errors.As(err, &remote) {
		if remote.Message != "" {
			f.Message = remote.Message
		}
		return f
	}
	f.Kind = KindTransport
	return f
}

func rejected(stage Stage, message, fallback string) *Failure {
	if message == "" {
		message = fallback
	}
	return &Failure{Stage: stage, Kind: KindRejected, Message: message}
}

package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAuthClient/transport"
)

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	TokenKey string
	UserKey  string

	Login      func(context.Context, transport.LoginRequest) (*transport.LoginResponse, error)
	Set        func(ctx context.Context, key, value string) error
	EncodeUser func(*transport.UserRecord) (string, error)
	Warn       WarnFunc
	// Guard, when set, wraps the persist step so the caller can order it
	// against other store writers.
	Guard func(persist func())
	// Apply publishes the new session in memory. It runs only after both
	// persist attempts have settled.
	Apply func(token string, user *transport.UserRecord)
}

type LoginResult struct {
	Token string
	User  *transport.UserRecord
}

// RunLogin exchanges credentials for a session. Input shape is not checked;
// that is the caller's responsibility. On failure nothing is persisted and
// Apply is not called.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (LoginResult, error) {
	resp, err := deps.Login(ctx, transport.LoginRequest{Email: email, Password: password})
	if err != nil {
		return LoginResult{}, classify(StageLogin, err, LoginFallbackMessage)
	}
	if resp == nil || !resp.Success {
		msg := ""
		if resp != nil {
			msg = resp.Message
		}
		return LoginResult{}, rejected(StageLogin, msg, LoginFallbackMessage)
	}
	if resp.Token == "" || resp.User == nil {
		return LoginResult{}, &Failure{
			Stage:   StageLogin,
			Kind:    KindTransport,
			Message: LoginFallbackMessage,
			Err:     fmt.Errorf("%w: success without token or user", transport.ErrMalformedResponse),
		}
	}

	write := func() { persist(ctx, deps, resp.Token, resp.User) }
	if deps.Guard != nil {
		deps.Guard(write)
	} else {
		write()
	}
	if deps.Apply != nil {
		deps.Apply(resp.Token, resp.User)
	}

	return LoginResult{Token: resp.Token, User: resp.User}, nil
}

// persist writes token then user. Failures are absorbed; the in-memory
// session stays authoritative until the next restore.
func persist(ctx context.Context, deps LoginDeps, token string, user *transport.UserRecord) {
	if err := deps.Set(ctx, deps.TokenKey, token); err != nil {
		warn(deps.Warn, ctx, "login", deps.TokenKey, err)
	}

	encoded, err := deps.EncodeUser(user)
	if err != nil {
		warn(deps.Warn, ctx, "login", deps.UserKey, err)
		return
	}
	if err := deps.Set(ctx, deps.UserKey, encoded); err != nil {
		warn(deps.Warn, ctx, "login", deps.UserKey, err)
	}
}

// IsFailure reports whether err came from a flow and returns it.
func IsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

package flows

import (
	"context"

	"github.com/MrEthical07/goAuthClient/transport"
)

// RegisterDeps captures register flow dependencies.
type RegisterDeps struct {
	Register func(context.Context, transport.RegisterRequest) (*transport.RegisterResponse, error)
	// Login is the full login flow, so a registered account ends up with a
	// persisted session exactly as if the user had signed in.
	Login func(ctx context.Context, email, password string) (LoginResult, error)
}

// RunRegister creates the account and then signs in with the same
// credentials. A login failure after a successful registration is returned
// with AccountCreated set and the login's own message.
func RunRegister(ctx context.Context, name, email, password string, deps RegisterDeps) (LoginResult, error) {
	resp, err := deps.Register(ctx, transport.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return LoginResult{}, classify(StageRegister, err, RegisterFallbackMessage)
	}
	if resp == nil || !resp.Success {
		msg := ""
		if resp != nil {
			msg = resp.Message
		}
		return LoginResult{}, rejected(StageRegister, msg, RegisterFallbackMessage)
	}

	result, err := deps.Login(ctx, email, password)
	if err != nil {
		f, ok := IsFailure(err)
		if !ok {
			f = classify(StageLogin, err, LoginFallbackMessage)
		}
		out := *f
		out.AccountCreated = true
		return LoginResult{}, &out
	}
	return result, nil
}

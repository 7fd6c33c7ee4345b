package flows

import "context"

// Deps groups flow dependency sets. The root Manager builds this once and
// delegates each public method to the matching flow.
type Deps struct {
	Restore  RestoreDeps
	Login    LoginDeps
	Register RegisterDeps
	Logout   LogoutDeps
}

// WarnFunc reports an absorbed storage failure.
type WarnFunc func(ctx context.Context, op, key string, err error)

func warn(fn WarnFunc, ctx context.Context, op, key string, err error) {
	if fn != nil && err != nil {
		fn(ctx, op, key, err)
	}
}

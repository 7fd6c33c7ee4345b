package flows

import (
	"context"
	"errors"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	TokenKey string
	UserKey  string

	Remove func(ctx context.Context, key string) error
	Warn   WarnFunc
	Clear  func()
}

// RunLogout removes the persisted pair and then clears memory. Clear runs
// whatever the store says; the joined storage error is returned for
// reporting only.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	var errs []error
	for _, key := range []string{deps.TokenKey, deps.UserKey} {
		if err := deps.Remove(ctx, key); err != nil {
			warn(deps.Warn, ctx, "logout", key, err)
			errs = append(errs, err)
		}
	}

	if deps.Clear != nil {
		deps.Clear()
	}
	return errors.Join(errs...)
}

package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAuthClient/transport"
)

// RestoreOutcome records why a restore produced (or did not produce) a session.
type RestoreOutcome uint8

const (
	RestoreHit RestoreOutcome = iota
	RestoreMiss
	RestoreCorrupt
	RestoreExpired
	RestoreStorageError
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreHit:
		return "hit"
	case RestoreMiss:
		return "miss"
	case RestoreCorrupt:
		return "corrupt"
	case RestoreExpired:
		return "expired"
	case RestoreStorageError:
		return "storage_error"
	default:
		return "unknown"
	}
}

// ErrTokenExpired is reported through Warn when an expired token is discarded.
var ErrTokenExpired = errors.New("stored token expired")

// RestoreDeps captures restore flow dependencies.
type RestoreDeps struct {
	TokenKey string
	UserKey  string

	Get        func(ctx context.Context, key string) (string, bool, error)
	DecodeUser func(string) (*transport.UserRecord, error)
	// TokenExpired may be nil, in which case stored tokens are always accepted.
	TokenExpired func(token string) bool
	Warn         WarnFunc
}

type RestoreResult struct {
	Token   string
	User    *transport.UserRecord
	Outcome RestoreOutcome
}

// RunRestore reads the persisted pair. It never fails: every problem is
// reported through Warn and yields an empty result.
func RunRestore(ctx context.Context, deps RestoreDeps) RestoreResult {
	token, tokenFound, err := deps.Get(ctx, deps.TokenKey)
	if err != nil {
		warn(deps.Warn, ctx, "restore", deps.TokenKey, err)
		return RestoreResult{Outcome: RestoreStorageError}
	}

	rawUser, userFound, err := deps.Get(ctx, deps.UserKey)
	if err != nil {
		warn(deps.Warn, ctx, "restore", deps.UserKey, err)
		return RestoreResult{Outcome: RestoreStorageError}
	}

	if !tokenFound || token == "" || !userFound || rawUser == "" {
		return RestoreResult{Outcome: RestoreMiss}
	}

	user, err := deps.DecodeUser(rawUser)
	if err != nil {
		warn(deps.Warn, ctx, "restore", deps.UserKey, err)
		return RestoreResult{Outcome: RestoreCorrupt}
	}

	if deps.TokenExpired != nil && deps.TokenExpired(token) {
		warn(deps.Warn, ctx, "restore", deps.TokenKey, ErrTokenExpired)
		return RestoreResult{Outcome: RestoreExpired}
	}

	return RestoreResult{Token: token, User: user, Outcome: RestoreHit}
}

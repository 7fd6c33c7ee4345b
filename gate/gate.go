// Package gate decides where a client should send the user based on the
// session: wait while the session is restoring, go home when signed in,
// otherwise show the sign-in screen.
package gate

import (
	"context"

	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// Route is the destination chosen for a session snapshot.
type Route uint8

const (
	// RoutePending means restore has not finished. Callers must not redirect.
	RoutePending Route = iota
	RouteHome
	RouteLogin
)

func (r Route) String() string {
	switch r {
	case RoutePending:
		return "pending"
	case RouteHome:
		return "home"
	case RouteLogin:
		return "login"
	default:
		return "unknown"
	}
}

// Decide maps a snapshot to a route.
func Decide(s goAuthClient.Snapshot) Route {
	switch {
	case s.Loading:
		return RoutePending
	case s.IsAuthenticated():
		return RouteHome
	default:
		return RouteLogin
	}
}

// Await blocks until m has restored its session, then decides. It does not
// start Restore itself.
func Await(ctx context.Context, m *goAuthClient.Manager) (Route, error) {
	select {
	case <-m.Ready():
		return Decide(m.Snapshot()), nil
	case <-ctx.Done():
		return RoutePending, ctx.Err()
	}
}

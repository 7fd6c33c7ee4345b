// Package flows contains the orchestration logic behind every Manager
// operation: restore, login, register, and logout.
//
// Each flow is a plain function taking a context, its inputs, and a Deps struct
// of function fields. The root package builds the Deps once and delegates, so
// flows stay free of locking, logging backends, and metrics plumbing.
//
// # Ordering
//
// Login persists token then user before calling Apply; Logout removes token
// then user before calling Clear. In-memory state therefore never claims a
// session that was not at least attempted durably.
//
// # What this package must NOT do
//
//   - Import goAuthClient (no upward imports).
//   - Hold state between calls.
//   - Return storage failures to callers as operation errors.
package flows

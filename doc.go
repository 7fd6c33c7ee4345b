// Package goAuthClient keeps a client application's view of "who is signed
// in" consistent across restarts and remote responses.
//
// A [Manager] owns the in-memory session (token, user, loading flag) and
// mirrors it to a durable [store.Store]. Every request to the remote auth
// service goes through a [transport.Client], which attaches the bearer token
// and clears the session when the service answers 401.
//
// Managers are created once per process with [New] and [Builder.Build] and
// passed to consumers by reference. All Manager methods are safe to call
// from multiple goroutines.
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Manager], [Builder],
// [Config], [Snapshot] and the error kinds. Flow orchestration, event
// dispatch and counters live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Validate the shape of credentials (callers do that before Login).
//   - Return storage failures from public operations. They are logged,
//     counted and emitted as events.
//   - Hold package-level session state. Two Managers never share memory.
package goAuthClient

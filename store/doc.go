// Package store provides the durable key/value backends the session manager
// persists credentials through.
//
// # Backends
//
//   - [Memory]: process-local map, used by tests and ephemeral sessions.
//   - [Redis]: go-redis backed store for shared or daemonised clients.
//   - [SQLite]: single-file store for on-device persistence across restarts.
//
// All backends implement [Store]. A missing key is reported through the found
// flag of [Store.Get], never as an error, and removing a missing key succeeds.
//
// # Architecture boundaries
//
// This package owns raw string persistence only. It does NOT know which keys
// the manager uses, how the user record is serialised, or what a token means.
//
// # What this package must NOT do
//
//   - Import goAuthClient, transport, or jwt (no upward imports).
//   - Interpret or validate stored values.
//   - Offer multi-key transactions; callers sequence writes themselves.
package store

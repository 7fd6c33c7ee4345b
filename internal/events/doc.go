// Package events implements asynchronous delivery of session lifecycle events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered relay that numbers events, drops or blocks when
//     full, and survives a panicking sink.
//   - [Event]: structured record of a restore, login, register, logout,
//     invalidation, or storage warning.
//
// # Architecture boundaries
//
// This package owns buffering and sink delivery. It does NOT decide which events
// to emit; the Manager and flow functions do.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on session logic.
//   - Import goAuthClient or any sibling internal package.
//   - Perform I/O beyond what a caller-supplied Sink does.
package events

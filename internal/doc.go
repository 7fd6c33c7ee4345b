// Package internal holds the pieces of goAuthClient that are not part of its
// public API.
//
// # Sub-packages
//
//   - events: async event dispatch (Dispatcher + Sink implementations)
//   - flows: function-field orchestrators for restore, login, register, logout
//   - metrics: lock-free counters and latency histograms
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAuthClient API other than
//     through aliases declared in the root package.
//   - Be imported by any package outside the goAuthClient module.
package internal

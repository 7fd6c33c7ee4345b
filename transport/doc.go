// Package transport is the single HTTP entry point between the client and the
// remote authentication service.
//
// # Cross-cutting behaviour
//
//   - Outbound: every request reads the current token from the credential
//     store (never from in-memory session state) and carries it as
//     "Authorization: Bearer <token>" when present. Requests also carry an
//     X-Request-ID taken from the context or freshly generated.
//   - Inbound: a 401 from any endpoint removes the persisted token and user
//     entries, then notifies every registered [UnauthorizedHandler]. All other
//     responses pass through untouched.
//
// # Architecture boundaries
//
// This package translates HTTP into typed results and errors. It does NOT own
// session state; the manager reacts to invalidation through the handler hook.
//
// # What this package must NOT do
//
//   - Import goAuthClient (no upward imports).
//   - Swallow transport or remote errors; every failure reaches the caller.
//   - Retry, refresh, or queue requests.
package transport

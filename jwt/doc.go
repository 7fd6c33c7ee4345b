// Package jwt reads the public claims of bearer tokens on the client side.
//
// The client never holds signing keys, so nothing here verifies a signature.
// [Inspect] only decodes the registered claims (subject, issued-at, expiry) so
// the session manager can recognise a token that has already expired before
// presenting it. Tokens that are not JWTs are reported with [ErrNotJWT] and are
// otherwise treated as opaque credentials by callers.
package jwt

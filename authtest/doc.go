// Package authtest runs an in-process Remote Auth Service for tests and the
// demo CLI.
//
// The service speaks the same JSON contract as the real backend:
//
//	POST /api/auth/register  {name,email,password}  -> {success, message?}
//	POST /api/auth/login     {email,password}       -> {success, token?, user?, message?}
//	GET  /api/auth/me        Authorization: Bearer  -> {success, user?} or 401
//
// Passwords are stored as argon2id PHC strings and tokens are HS256 JWTs.
// Knobs such as [Service.FailNext] and [Service.RevokeAll] let tests drive
// the client through failure paths without a real backend.
package authtest

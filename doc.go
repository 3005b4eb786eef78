// Package auth implements the authentication and session lifecycle for
// admin-style web applications: issuance, validation, refresh, and
// revocation of signed bearer tokens; double-submit CSRF protection; a
// stateless password-reset token flow; and an edge middleware that
// versions API paths and applies CORS policy before route dispatch.
//
// Token lifecycle:
//   - TokenService signs and verifies HMAC JWTs carrying identity claims.
//     Access and refresh tokens share the codec and differ only in TTL
//     and a kind discriminator.
//   - TokenRegistry keeps a persistent record of every issued token so
//     the server can revoke sessions despite stateless signing. Callers
//     must run both checks: a well-signed token that was invalidated is
//     still rejected.
//   - Auther composes codec, registry, and the user store into the
//     login/validate/refresh/logout pipeline, plus the password reset
//     request/confirm flow.
//
// HTTP surface:
//   - AuthController exposes the pipeline as a JSON API with a uniform
//     {success, message, data} envelope. Mutating routes are wrapped by
//     the middleware/csrf double-submit guard.
//   - middleware/apigate rewrites unversioned API paths to the current
//     version segment and answers CORS preflight before any route
//     handler runs.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther to
//     describe login, logout, refresh, and password reset events. Sinks
//     run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking authentication.
package auth

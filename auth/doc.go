// Package auth implements the storefront's bearer credential subsystem.
//
// Tokens:
//   - TokenService signs and verifies JWT claims carrying the user id as
//     "sub", a "type" claim that is absent for access tokens and "refresh"
//     for refresh tokens, and the issued/expiry timestamps. Expired, forged
//     and malformed tokens all decode to ErrInvalidToken.
//
// Resolution:
//   - Resolver turns a raw bearer token into a user under three policies:
//     ResolveRequired, ResolveOptional and ResolveActive. Required failures
//     collapse into a single Unauthorized error, optional failures collapse
//     into an anonymous OptionalIdentity that records the reason.
//
// Sessions:
//   - Auther logs users in and rotates refresh tokens into new pairs. Tokens
//     are never stored server side, so logout cannot revoke them early.
//   - Accounts owns registration, lookups and account flag changes.
package auth

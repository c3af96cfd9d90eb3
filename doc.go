// Package identity provides a minimal credential-and-token authentication
// core: account registration, password verification, signed bearer tokens,
// and token-gated account operations backed by a Bun repository.
//
// Tokens:
//   - Tokens are HMAC-signed JWTs whose claims bind an account's username to
//     a fingerprint of its stored credential. They carry no server-side
//     session state; every use is re-resolved against the live account
//     record, so rotating a credential (or renaming an account) invalidates
//     every previously issued token for that identity.
//   - TokenClaims are strongly typed and validated right after signature
//     verification. Callers never inspect token internals; the codec owns
//     the wire format.
//
// Account lifecycle:
//   - Accounts move Absent -> Registered -> (possibly renamed) -> Absent.
//     Registration and login are separate steps; registering never issues a
//     token. Deletion requires an explicit confirmation flag and removes the
//     record with a single credential-qualified delete.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and
//     SessionOps to describe registration, login, profile update, and
//     deletion events. Sinks run best-effort (errors are logged) so you can
//     forward to a database or queue without blocking authentication.
package identity

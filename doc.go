// Package storyhub implements the identity and authorization core of the
// storyhub platform: account lifecycle, credential handling, bearer token
// issuance/verification, and the capability checks every privileged route
// passes through.
//
// Account lifecycle:
//   - Accounts carry two orthogonal state flags: EmailConfirmed (flipped once
//     by the confirmation handshake, never backward) and Active (flipped by an
//     administrator). Login requires both; the checks stay independent because
//     they are set by different actors on different triggers.
//   - Lifecycle owns registration, the email-confirmation handshake, password
//     change, and the administrative activate/role operations. The identity
//     store is consumed through the narrow AccountStore interface so any keyed
//     record service can back it.
//
// Tokens:
//   - A single HS256 signing secret backs two token intents, confirmation and
//     session. Claims carry an explicit Purpose tag and authorization
//     attributes (Admin, UserRole) are only ever honored on session-purpose
//     tokens, so a confirmation token can never clear a capability gate.
//   - Tokens expire after one hour by default and are not revocable; there is
//     no server-side session state.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Authenticator and
//     Lifecycle to describe registration, confirmation, login, and account
//     administration events. Sinks run best-effort (errors are logged) so you
//     can forward to a database or queue without blocking authentication.
package storyhub

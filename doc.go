// Package auth implements session-backed JWT authentication.
//
// Tokens and sessions:
//   - Every login creates or reuses a durable session row keyed by
//     (subject, device name, ip). Logins from the same device coalesce
//     onto one row instead of piling up; revoking the row kills every
//     token minted against it.
//   - TokenService issues RS256-signed access and refresh tokens. The
//     two are structurally identical but typed, short-lived access
//     tokens authorize requests while the refresh token re-mints them
//     for as long as its session stays active.
//
// Revocation:
//   - Logout disables the calling session. A session holding the
//     can_abort grant may also disable sibling sessions of the same
//     subject through AbortSession, which is how "log out that other
//     device" works.
//
// Storage and caching:
//   - Users and Sessions persist through Bun repositories. Wrap them
//     with NewCachedRepositoryManager to put a Redis read-through cache
//     in front; writes invalidate the namespace before returning, and a
//     dead cache degrades to plain repository reads.
//
// Federated login:
//   - LoginFederated accepts a verified third-party id token and maps
//     its subject onto a local passwordless account. See the
//     provider/google subpackage for the Google implementation.
package auth

// Package tyadmin manages operator sessions and the shared third-party access token for the
// store's admin back-office.
//
// Sessions are opaque 32-character hex bearer tokens whose records live in a shared cache
// (Redis) under the TOKEN:ADMIN: namespace. Validation reads one key and classifies the token
// as valid, expired or unknown; authorization evaluates the session's roles and permission
// strings without a database round trip. The upstream access token is kept cache-aside and is
// refreshed exactly once when the upstream rejects it as stale.
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// tyadmin is the public surface. It exposes [Engine], [Builder], [Config] and value types
// ([IssueResult], [ValidateResult], [AuthResult], [SessionInfo]). Flow orchestration lives in
// internal/flows; persistence lives in the cache, session and credential packages.
//
// # What this package must NOT do
//
//   - Expose Redis clients or encoding details in its public API.
//   - Log or audit token values or upstream client secrets.
//   - Import any sub-package that re-imports tyadmin (no import cycles).
//
// # Performance contract
//
// Validate is the hot path: at most one cache GET, plus one SET when a sliding refresh is due.
// Malformed tokens are rejected without a cache round trip.
package tyadmin

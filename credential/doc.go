// Package credential keeps a cache-aside copy of a third-party access token and refreshes
// it when the upstream rejects it as stale.
//
// # Flow
//
// [Cache.GetOrFetch] reads one fixed cache key. On a miss, concurrent callers share a single
// upstream fetch (golang.org/x/sync/singleflight) and the result is stored with a TTL a
// safety margin shorter than the upstream's declared lifetime. [Cache.Do] runs a caller
// operation with the token and, when that operation fails with a stale-credential error,
// invalidates the slot and retries exactly once.
//
// # Invalidation
//
// Invalidation is value-guarded: the slot is deleted only when it still holds the token that
// failed, so a token another caller refreshed in the meantime survives.
//
// # Architecture boundaries
//
// The package owns one cache slot and one [Source]. It does not interpret the business
// calls made with the token; callers classify their own failures through [IsStale] or by
// returning an [UpstreamError].
//
// # What this package must NOT do
//
//   - Retry more than once per caller operation.
//   - Log or expose token values or client secrets.
//   - Import tyadmin or session.
package credential

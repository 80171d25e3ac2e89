// Package session provides the operator session record, its storage encoding and the
// cache-backed store sessions live in.
//
// # Storage
//
// A session is stored as a small versioned JSON document under
// [KeyPrefix] + token, with a cache TTL equal to the session lifetime. The cache entry is
// the only durable copy; whichever of logout or TTL expiry comes first destroys it.
//
// # Refresh policy
//
// [RefreshPolicy] is the explicit decision point for sliding expiration. [NeverRefresh]
// keeps sessions fixed-length, [ThresholdRefresh] extends sessions whose remaining
// lifetime falls under a threshold.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Session] model. It does NOT classify tokens as
// valid or expired for callers, evaluate permissions, or read tokens from requests; those
// belong to the engine, the permission package and the middleware.
//
// # What this package must NOT do
//
//   - Import tyadmin, credential or middleware.
//   - Treat a cache failure as a missing session.
package session

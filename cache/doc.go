// Package cache provides the key/value abstraction every stateful component in this module
// is built on, plus its Redis implementation.
//
// # Miss versus failure
//
// A missing key is reported as ("", false, nil). Every other failure (network, protocol,
// server) is returned wrapped in [ErrUnavailable] and must never be treated as a miss by
// callers.
//
// # Architecture boundaries
//
// This package owns raw string storage with TTLs. It knows nothing about sessions,
// permissions or upstream credentials; key naming belongs to the packages above it.
//
// # What this package must NOT do
//
//   - Import tyadmin, session, credential or permission.
//   - Write entries without an expiry.
//   - Hold a process-wide client; the [KV] is always passed in explicitly.
package cache

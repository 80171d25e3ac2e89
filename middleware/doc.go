// Package middleware exposes net/http adapters that put a tyadmin.Engine in front of
// admin routes.
//
// # Guards
//
//   - [Require] validates the session and checks one permission.
//   - [Authenticated] validates the session only (logout, self-introspection).
//
// Both read the token with [ExtractToken], call the engine, and inject the resulting
// tyadmin.AuthResult into the request context.
//
// # Status mapping
//
//   - 401 for absent, unknown, expired or unreadable sessions.
//   - 403 when the session lacks the permission.
//   - 503 when the session store cannot be reached.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not touch the cache
// and makes no decision of its own beyond mapping Engine errors to status codes.
package middleware

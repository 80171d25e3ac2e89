// Package internal contains helpers that are private to this module: session token
// generation and format checks.
//
// # Sub-packages
//
//   - flows: flow orchestrators (issue, validate, refresh, logout, introspect) the root
//     Engine delegates to
//   - app: process wiring for the server binary (config, logger, HTTP)
//
// # What this package must NOT do
//
//   - Export types that appear in the public tyadmin API.
//   - Be imported by any package outside this module.
package internal

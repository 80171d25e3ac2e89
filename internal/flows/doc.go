// Package flows contains pure-function orchestrators for every session Engine operation.
//
// Each flow function (RunIssue, RunValidate, RunRefresh, RunLogout, RunIntrospect) accepts
// a typed dependency struct and returns results without side effects beyond those
// dependencies. This keeps the Engine thin and lets every branch be tested with fake
// stores.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store, the token generator and the
// refresh policy. They do NOT own any of these resources; ownership stays with the Engine.
// Metrics and audit are emitted by the Engine from the returned results.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import tyadmin (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
package flows

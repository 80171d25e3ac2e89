// Package app holds process-level wiring shared by the binaries under cmd/: environment
// configuration and the structured logger.
package app

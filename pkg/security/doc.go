// Package security provides reversible field encryption for sensitive
// columns that must round-trip (stored credentials for external systems,
// not user passwords; those are bcrypt hashes and never decryptable).
package security

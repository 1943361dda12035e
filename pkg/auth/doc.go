// Package auth verifies bearer credentials and derives the request Principal.
//
// Tokens are HS256 JWTs signed with a shared secret. The verifier maps every
// failure to one of two typed errors so the HTTP layer can keep the
// historical status split: ErrNoToken (401) when the credential is absent,
// ErrInvalidToken (403) for anything malformed, expired, or forged.
//
// The Principal is a claim set, not a record: it lives for one request and is
// never persisted.
package auth

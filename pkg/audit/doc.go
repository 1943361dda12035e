// Package audit records mutating requests to the activity log.
//
// The Interceptor wraps the entire middleware chain, so denials produced by
// the inner gates (401, 403, 429) are captured alongside successful writes.
// Records are handed to an asynchronous writer and never block or fail the
// request that produced them.
//
// # What gets recorded
//
// Only mutating verbs (POST, PUT, PATCH, DELETE) whose final status is
// either 2xx or one of the denial statuses 401, 403, 429. Reads and other
// failure classes (validation errors, 404s, 500s) are not activity.
//
// # Redaction
//
// Request bodies on credential routes have password fields masked before the
// record is queued; secrets never reach the activity log.
package audit

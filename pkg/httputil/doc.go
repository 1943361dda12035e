// Package httputil provides HTTP handler utilities for the standard response
// envelope, JSON decoding, and request parsing.
//
// Every error response uses the envelope {"success":false,"error":...} with
// an optional machine-readable "code" (e.g. NO_SCHOOL_CONTEXT). Success
// responses use {"success":true,...}.
package httputil

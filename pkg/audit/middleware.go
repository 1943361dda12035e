package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/observability"
)

// maxBodyCapture bounds how much of a request or response body is retained
// for the activity record.
const maxBodyCapture = 64 * 1024

// redactionMarker replaces credential values in captured bodies
const redactionMarker = "********"

var sensitiveFields = []string{"password", "current_password", "new_password", "password_hash"}

var verbActions = map[string]string{
	http.MethodPost:   "create",
	http.MethodPut:    "update",
	http.MethodPatch:  "update",
	http.MethodDelete: "delete",
}

// Interceptor wraps the whole middleware chain with activity recording. It
// must run outermost so denials from the inner gates are still captured.
type Interceptor struct {
	recorder Recorder
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewInterceptor creates the audit interceptor. logger and metrics may be nil.
func NewInterceptor(recorder Recorder, logger *observability.Logger, metrics *observability.Metrics) *Interceptor {
	return &Interceptor{
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
	}
}

// responseWriter captures the status code and a bounded copy of the body so
// the record can pick up the entity ID echoed by create handlers.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body.Len() < maxBodyCapture {
		rw.body.Write(b[:min(len(b), maxBodyCapture-rw.body.Len())])
	}
	return rw.ResponseWriter.Write(b)
}

// EntityFromRoute copies the route's {id} path variable onto the request's
// Capture. The Interceptor sits outside the router and never sees mux route
// variables, so every route registers this stage inside the router.
func EntityFromRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := mux.Vars(r)["id"]; ok {
			CaptureFromContext(r.Context()).SetEntityID(id)
		}
		next.ServeHTTP(w, r)
	})
}

// Handler wraps next with activity recording
func (i *Interceptor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verb, mutating := verbActions[r.Method]
		if !mutating {
			next.ServeHTTP(w, r)
			return
		}

		ctx, capture := WithCapture(r.Context())
		reqBody := i.captureRequestBody(r)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		if !recordableStatus(wrapped.statusCode) {
			return
		}

		i.record(r, wrapped, capture, verb, reqBody, time.Since(start))
	})
}

// recordableStatus reports whether a final status is activity worth keeping:
// a successful mutation, or a denial from one of the gates. Validation
// errors and server faults are not activity.
func recordableStatus(status int) bool {
	if status >= 200 && status < 300 {
		return true
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return false
}

func (i *Interceptor) record(r *http.Request, rw *responseWriter, capture *Capture, verb string, reqBody map[string]interface{}, duration time.Duration) {
	userID, schoolID, routeEntityID := capture.snapshot()
	entityType := entityTypeFromPath(r.URL.Path)

	action := verb + "_" + entityType
	if rw.statusCode >= 400 {
		action = "failed_" + action
	}

	metadata := map[string]interface{}{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": rw.statusCode,
		"duration_ms": duration.Milliseconds(),
	}
	if reqBody != nil {
		metadata["body"] = reqBody
	}

	rec := &Record{
		SchoolID:    schoolID,
		UserID:      userID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID(routeEntityID, rw),
		Description: fmt.Sprintf("%s %s (%d)", r.Method, r.URL.Path, rw.statusCode),
		Metadata:    metadata,
		IPAddress:   httputil.ClientIP(r),
		UserAgent:   r.UserAgent(),
		CreatedAt:   time.Now().UTC(),
	}

	i.recorder.Enqueue(rec)
}

// captureRequestBody tees a bounded copy of a JSON request body, masking
// credential fields on auth routes. The body is restored so downstream
// handlers read it untouched.
func (i *Interceptor) captureRequestBody(r *http.Request) map[string]interface{} {
	if r.Body == nil {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyCapture))
	rest, _ := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), bytes.NewReader(rest)))
	if err != nil || len(raw) == 0 {
		return nil
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}

	if strings.Contains(r.URL.Path, "/auth/") {
		for _, field := range sensitiveFields {
			if _, ok := body[field]; ok {
				body[field] = redactionMarker
			}
		}
	}
	return body
}

// entityTypeFromPath derives the entity from the first meaningful path
// segment: /api/students/5 -> "students".
func entityTypeFromPath(path string) string {
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" || seg == "api" {
			continue
		}
		return seg
	}
	return "unknown"
}

// entityID prefers the route's {id} variable captured by EntityFromRoute;
// creations fall back to the ID echoed in the response envelope.
func entityID(fromRoute string, rw *responseWriter) string {
	if fromRoute != "" {
		return fromRoute
	}

	if rw.statusCode < 200 || rw.statusCode >= 300 {
		return ""
	}

	var envelope struct {
		ID   interface{}            `json:"id"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rw.body.Bytes(), &envelope); err != nil {
		return ""
	}

	id := envelope.ID
	if echoed, ok := envelope.Data["id"]; ok {
		id = echoed
	}
	switch v := id.(type) {
	case float64:
		return fmt.Sprintf("%.0f", v)
	case string:
		return v
	}
	return ""
}

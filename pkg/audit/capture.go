package audit

import (
	"context"
	"sync"

	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/contextkeys"
)

// Capture collects actor and scope information for the audit record.
//
// The Interceptor runs outermost, but the principal and tenant scope are
// only known once the inner middlewares have run. Context values flow
// downward only, so the Interceptor plants a mutable Capture in the context
// and the inner middlewares fill it in as they resolve identity and scope.
type Capture struct {
	mu       sync.Mutex
	userID   *int64
	schoolID *int64
	entityID string
}

// SetActor records the authenticated principal. Nil-safe on both sides so
// callers never guard against a missing capture.
func (c *Capture) SetActor(p *auth.Principal) {
	if c == nil || p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := p.ID
	c.userID = &id
}

// SetSchool records the resolved tenant scope. Nil-safe.
func (c *Capture) SetSchool(schoolID *int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schoolID = schoolID
}

// SetEntityID records the entity addressed by the route path. Nil-safe.
func (c *Capture) SetEntityID(id string) {
	if c == nil || id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entityID = id
}

func (c *Capture) snapshot() (userID, schoolID *int64, entityID string) {
	if c == nil {
		return nil, nil, ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.schoolID, c.entityID
}

// WithCapture plants a fresh capture on the context
func WithCapture(ctx context.Context) (context.Context, *Capture) {
	c := &Capture{}
	return context.WithValue(ctx, contextkeys.AuditRecorderKey, c), c
}

// CaptureFromContext returns the request's capture, or nil when the request
// is not under the audit interceptor. The nil result is safe to call
// SetActor and SetSchool on.
func CaptureFromContext(ctx context.Context) *Capture {
	if c, ok := ctx.Value(contextkeys.AuditRecorderKey).(*Capture); ok {
		return c
	}
	return nil
}

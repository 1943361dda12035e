package audit

import (
	"context"
	"time"
)

// Record is one activity log row
type Record struct {
	ID          int64                  `json:"id,omitempty"`
	SchoolID    *int64                 `json:"school_id,omitempty"`
	UserID      *int64                 `json:"user_id,omitempty"`
	Action      string                 `json:"action"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id,omitempty"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	IPAddress   string                 `json:"ip_address,omitempty"`
	UserAgent   string                 `json:"user_agent,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Sink persists activity records
type Sink interface {
	Insert(ctx context.Context, rec *Record) error
}

// Recorder accepts records for eventual persistence. Enqueue must never
// block the caller.
type Recorder interface {
	Enqueue(rec *Record)
}

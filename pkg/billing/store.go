package billing

import (
	"context"
	"database/sql"
	"fmt"
)

// Store reads subscription state for feature gating
type Store interface {
	// LookupActive returns the school's current subscription joined with its
	// plan flags. Trial subscriptions count: a trial tenant is gated on the
	// plan's flags, not refused outright. Returns (nil, nil) when the school
	// has no active or trial row; returns an error only on infrastructure
	// failure.
	LookupActive(ctx context.Context, schoolID int64) (*Subscription, error)
}

// DBStore is the PostgreSQL-backed subscription store
type DBStore struct {
	db *sql.DB
}

// NewDBStore creates a subscription store over an existing connection pool
func NewDBStore(db *sql.DB) (*DBStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBStore{db: db}, nil
}

// LookupActive fetches the school's active or trial subscription with its
// plan flags
func (s *DBStore) LookupActive(ctx context.Context, schoolID int64) (*Subscription, error) {
	query := `
		SELECT
			sub.school_id, sp.id, sp.slug, sp.name, sub.status, sub.trial_ends_at,
			sp.include_parent_portal, sp.include_student_portal, sp.include_messaging,
			sp.include_finance, sp.include_advanced_reports, sp.include_leave_management,
			sp.include_ai_analytics
		FROM subscriptions sub
		JOIN subscription_plans sp ON sub.plan_id = sp.id
		WHERE sub.school_id = $1 AND sub.status IN ('active', 'trial')
	`

	sub := &Subscription{Features: make(map[string]bool)}
	var parentPortal, studentPortal, messaging, finance, advancedReports, leaveManagement, aiAnalytics bool

	err := s.db.QueryRowContext(ctx, query, schoolID).Scan(
		&sub.SchoolID, &sub.PlanID, &sub.PlanSlug, &sub.PlanName, &sub.Status, &sub.TrialEndsAt,
		&parentPortal, &studentPortal, &messaging, &finance, &advancedReports, &leaveManagement,
		&aiAnalytics,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("subscription lookup for school %d: %w", schoolID, err)
	}

	sub.Features["include_parent_portal"] = parentPortal
	sub.Features["include_student_portal"] = studentPortal
	sub.Features["include_messaging"] = messaging
	sub.Features["include_finance"] = finance
	sub.Features["include_advanced_reports"] = advancedReports
	sub.Features["include_leave_management"] = leaveManagement
	sub.Features["include_ai_analytics"] = aiAnalytics

	return sub, nil
}

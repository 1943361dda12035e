package billing

import (
	"errors"
	"time"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrial    SubscriptionStatus = "trial"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// PlanTier is an ordered subscription tier
type PlanTier string

const (
	PlanTrial      PlanTier = "trial"
	PlanBasic      PlanTier = "basic"
	PlanPro        PlanTier = "pro"
	PlanEnterprise PlanTier = "enterprise"
)

// FeatureName is a gateable capability requested by a route
type FeatureName string

const (
	FeatureParentPortal    FeatureName = "parent_portal"
	FeatureStudentPortal   FeatureName = "student_portal"
	FeatureMessaging       FeatureName = "messaging"
	FeatureFinance         FeatureName = "finance"
	FeatureAdvancedReports FeatureName = "advanced_reports"
	FeatureLeaveManagement FeatureName = "leave_management"
	FeatureAIAnalytics     FeatureName = "ai_analytics"
)

// featureColumns maps public feature names to subscription plan flags.
// An unmapped name is a configuration error (400), not a denial.
var featureColumns = map[FeatureName]string{
	FeatureParentPortal:    "include_parent_portal",
	FeatureStudentPortal:   "include_student_portal",
	FeatureMessaging:       "include_messaging",
	FeatureFinance:         "include_finance",
	FeatureAdvancedReports: "include_advanced_reports",
	FeatureLeaveManagement: "include_leave_management",
	FeatureAIAnalytics:     "include_ai_analytics",
}

// FlagFor translates a feature name to its plan flag column
func FlagFor(feature FeatureName) (string, bool) {
	col, ok := featureColumns[feature]
	return col, ok
}

// minimumPlan is the lowest tier whose catalog entry enables each feature,
// used for client messaging on denials (seeded plan catalog).
var minimumPlan = map[FeatureName]PlanTier{
	FeatureParentPortal:    PlanBasic,
	FeatureStudentPortal:   PlanBasic,
	FeatureMessaging:       PlanBasic,
	FeatureFinance:         PlanBasic,
	FeatureAdvancedReports: PlanPro,
	FeatureLeaveManagement: PlanPro,
	FeatureAIAnalytics:     PlanEnterprise,
}

// MinimumPlanFor returns the lowest plan tier that includes the feature
func MinimumPlanFor(feature FeatureName) PlanTier {
	if tier, ok := minimumPlan[feature]; ok {
		return tier
	}
	return PlanPro
}

// Subscription is the per-school subscription row joined with its plan flags
type Subscription struct {
	SchoolID    int64              `json:"school_id"`
	PlanID      int64              `json:"plan_id"`
	PlanSlug    PlanTier           `json:"plan"`
	PlanName    string             `json:"plan_name"`
	Status      SubscriptionStatus `json:"status"`
	Features    map[string]bool    `json:"features"`
	TrialEndsAt *time.Time         `json:"trial_ends_at,omitempty"`
}

// HasFeature reports whether the plan flag for the column is set
func (s *Subscription) HasFeature(flagColumn string) bool {
	return s != nil && s.Features[flagColumn]
}

var (
	// ErrNoSubscription means the school has no active subscription row.
	// Mapped to 403.
	ErrNoSubscription = errors.New("No active subscription")

	// ErrUnknownFeature means the route asked for a feature name missing
	// from the mapping table. Mapped to 400.
	ErrUnknownFeature = errors.New("Unknown feature")

	// ErrLookupFailed wraps infrastructure failures during subscription
	// lookup. Always mapped to 500, never 403.
	ErrLookupFailed = errors.New("Feature verification failed")
)

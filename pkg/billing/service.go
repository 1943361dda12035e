package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/scolaris/scolaris/pkg/observability"
)

// Service is the subscription lookup used by the feature gate
type Service interface {
	ActiveSubscription(ctx context.Context, schoolID int64) (*Subscription, error)

	// CheckFeature resolves a feature request for a school. Returns nil when
	// the plan includes the feature; otherwise one of ErrNoSubscription,
	// ErrUnknownFeature, a *FeatureDeniedError, or a wrapped ErrLookupFailed.
	CheckFeature(ctx context.Context, schoolID int64, feature FeatureName) error
}

// FeatureDeniedError carries the denial diagnostics returned to the client
type FeatureDeniedError struct {
	Feature      FeatureName
	RequiredPlan PlanTier
}

func (e *FeatureDeniedError) Error() string {
	return "Feature not available in current plan"
}

// CachedService fronts a Store with an expirable LRU so repeated feature
// checks for the same school do not hit the database.
type CachedService struct {
	store   Store
	cache   *expirable.LRU[int64, *Subscription]
	metrics *observability.Metrics
}

const (
	cacheSize = 4096
	cacheTTL  = 30 * time.Second
)

// NewCachedService creates the caching subscription service. metrics may be
// nil in tests.
func NewCachedService(store Store, metrics *observability.Metrics) *CachedService {
	return &CachedService{
		store:   store,
		cache:   expirable.NewLRU[int64, *Subscription](cacheSize, nil, cacheTTL),
		metrics: metrics,
	}
}

// ActiveSubscription returns the school's active subscription, consulting the
// cache first. A school with no active row is cached as nil to absorb
// repeated denials.
func (s *CachedService) ActiveSubscription(ctx context.Context, schoolID int64) (*Subscription, error) {
	if sub, ok := s.cache.Get(schoolID); ok {
		s.countCache("hit")
		return sub, nil
	}
	s.countCache("miss")

	sub, err := s.store.LookupActive(ctx, schoolID)
	if err != nil {
		s.countLookup("error")
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	s.countLookup("ok")

	s.cache.Add(schoolID, sub)
	return sub, nil
}

// CheckFeature applies the full feature-gate decision for a school
func (s *CachedService) CheckFeature(ctx context.Context, schoolID int64, feature FeatureName) error {
	flag, ok := FlagFor(feature)
	if !ok {
		return ErrUnknownFeature
	}

	sub, err := s.ActiveSubscription(ctx, schoolID)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrNoSubscription
	}

	if !sub.HasFeature(flag) {
		return &FeatureDeniedError{
			Feature:      feature,
			RequiredPlan: MinimumPlanFor(feature),
		}
	}
	return nil
}

// Invalidate drops a school from the cache (after plan changes)
func (s *CachedService) Invalidate(schoolID int64) {
	s.cache.Remove(schoolID)
}

func (s *CachedService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.SubscriptionCache.WithLabelValues(result).Inc()
	}
}

func (s *CachedService) countLookup(status string) {
	if s.metrics != nil {
		s.metrics.SubscriptionLookups.WithLabelValues(status).Inc()
	}
}

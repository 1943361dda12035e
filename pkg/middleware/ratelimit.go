package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/observability"
)

// Policy is a fixed-window rate limit policy
type Policy struct {
	// Name distinguishes policies in keys, headers, and metrics
	Name string
	// Limit is the max requests allowed per key within the window
	Limit int
	// Window is the fixed counting interval
	Window time.Duration
	// Message is the denial message returned to clients
	Message string
}

// GeneralPolicy returns the default API policy (100 requests / 15 minutes)
func GeneralPolicy() Policy {
	return Policy{
		Name:    "api",
		Limit:   100,
		Window:  15 * time.Minute,
		Message: "Too many requests from this IP, please try again after 15 minutes",
	}
}

// AuthPolicy returns the stricter policy for credential-issuing routes
// (10 requests / 15 minutes)
func AuthPolicy() Policy {
	return Policy{
		Name:    "auth",
		Limit:   10,
		Window:  15 * time.Minute,
		Message: "Too many login/auth attempts, please try again after 15 minutes",
	}
}

// CounterStore is the shared counter behind the fixed-window algorithm.
// Implementations must make increment-and-read atomic per key so concurrent
// requests against the same key never under-count.
type CounterStore interface {
	// Incr bumps the counter for key, starting a fresh window when the
	// previous one elapsed. Returns the count within the current window and
	// the time remaining until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// MemoryCounterStore is the in-process CounterStore for single-instance
// deployments.
type MemoryCounterStore struct {
	mu      sync.Mutex
	buckets map[string]*windowBucket
}

type windowBucket struct {
	windowStart time.Time
	count       int64
}

// NewMemoryCounterStore creates an in-process counter store
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{buckets: make(map[string]*windowBucket)}
}

// Incr implements CounterStore with a mutex-guarded bucket map
func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.Sub(b.windowStart) >= window {
		b = &windowBucket{windowStart: now}
		s.buckets[key] = b
	}
	b.count++

	resetIn := window - now.Sub(b.windowStart)
	return b.count, resetIn, nil
}

// Cleanup removes buckets whose window elapsed; call periodically
func (s *MemoryCounterStore) Cleanup(window time.Duration) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, b := range s.buckets {
		if now.Sub(b.windowStart) >= window {
			delete(s.buckets, key)
		}
	}
}

// StartCleanup runs Cleanup on a ticker until the context is canceled
func (s *MemoryCounterStore) StartCleanup(ctx context.Context, window time.Duration) {
	ticker := time.NewTicker(window)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup(window)
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

// RateLimiter applies one fixed-window policy over an injected counter store
type RateLimiter struct {
	store   CounterStore
	policy  Policy
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewRateLimiter creates a rate limiter. logger and metrics may be nil.
func NewRateLimiter(store CounterStore, policy Policy, logger *observability.Logger, metrics *observability.Metrics) *RateLimiter {
	return &RateLimiter{
		store:   store,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// Check decides whether the request identified by key may proceed
func (rl *RateLimiter) Check(ctx context.Context, key string) (allowed bool, remaining int64, resetIn time.Duration, err error) {
	count, resetIn, err := rl.store.Incr(ctx, rl.policy.Name+":"+key, rl.policy.Window)
	if err != nil {
		return false, 0, 0, err
	}

	remaining = int64(rl.policy.Limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(rl.policy.Limit), remaining, resetIn, nil
}

// Handler wraps an HTTP handler with rate limiting keyed by client address.
// Counter store failures fail open so a degraded store never blocks traffic.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + httputil.ClientIP(r)

		allowed, remaining, resetIn, err := rl.Check(r.Context(), key)
		if err != nil {
			if rl.logger != nil {
				rl.logger.WithError(err).Warn("rate limit store unavailable, failing open")
			}
			next.ServeHTTP(w, r)
			return
		}

		rl.setHeaders(w, remaining, resetIn)

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RateLimitHitsTotal.WithLabelValues(rl.policy.Name).Inc()
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", resetIn.Seconds()))
			httputil.WriteTooManyRequests(w, rl.policy.Message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) setHeaders(w http.ResponseWriter, remaining int64, resetIn time.Duration) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.policy.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(resetIn).Unix()))
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scolaris/scolaris/pkg/billing"
	"github.com/scolaris/scolaris/pkg/tenant"
)

// stubBilling returns canned answers per school
type stubBilling struct {
	err   error
	calls int
}

func (s *stubBilling) ActiveSubscription(ctx context.Context, schoolID int64) (*billing.Subscription, error) {
	return nil, nil
}

func (s *stubBilling) CheckFeature(ctx context.Context, schoolID int64, feature billing.FeatureName) error {
	s.calls++
	return s.err
}

func featureRequest(tc tenant.Context) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/messages", nil)
	return req.WithContext(tenant.WithContext(req.Context(), tc))
}

func TestFeatureGate(t *testing.T) {
	schoolID := int64(3)
	scoped := tenant.Context{TenantID: &schoolID}

	serve := func(svc billing.Service, tc tenant.Context) *httptest.ResponseRecorder {
		gate := NewFeatureGate(svc, nil, nil)
		handler := gate.Require(billing.FeatureMessaging)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, featureRequest(tc))
		return rec
	}

	t.Run("feature included passes", func(t *testing.T) {
		rec := serve(&stubBilling{}, scoped)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("unscoped request is 400", func(t *testing.T) {
		rec := serve(&stubBilling{}, tenant.Context{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if body := decodeError(t, rec); body["error"] != "School context required" {
			t.Errorf("error = %q, want \"School context required\"", body["error"])
		}
	})

	t.Run("unscoped super admin bypasses the gate", func(t *testing.T) {
		svc := &stubBilling{err: billing.ErrNoSubscription}
		rec := serve(svc, tenant.Context{IsSuperAdmin: true})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if svc.calls != 0 {
			t.Errorf("CheckFeature called %d times, want 0", svc.calls)
		}
	})

	t.Run("scoped super admin is gated like anyone", func(t *testing.T) {
		svc := &stubBilling{err: billing.ErrNoSubscription}
		rec := serve(svc, tenant.Context{TenantID: &schoolID, IsSuperAdmin: true})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("no active subscription is 403 with feature_required", func(t *testing.T) {
		rec := serve(&stubBilling{err: billing.ErrNoSubscription}, scoped)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
		body := decodeError(t, rec)
		if body["error"] != "No active subscription" {
			t.Errorf("error = %q, want \"No active subscription\"", body["error"])
		}
		if body["feature_required"] != "messaging" {
			t.Errorf("feature_required = %q, want \"messaging\"", body["feature_required"])
		}
	})

	t.Run("unknown feature is 400", func(t *testing.T) {
		rec := serve(&stubBilling{err: billing.ErrUnknownFeature}, scoped)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if body := decodeError(t, rec); body["error"] != "Unknown feature" {
			t.Errorf("error = %q, want \"Unknown feature\"", body["error"])
		}
	})

	t.Run("plan without the feature is 403 with diagnostics", func(t *testing.T) {
		svc := &stubBilling{err: &billing.FeatureDeniedError{
			Feature:      billing.FeatureMessaging,
			RequiredPlan: billing.PlanBasic,
		}}
		rec := serve(svc, scoped)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
		body := decodeError(t, rec)
		if body["error"] != "Feature not available in current plan" {
			t.Errorf("error = %q, want the plan denial message", body["error"])
		}
		if body["feature"] != "messaging" {
			t.Errorf("feature = %q, want \"messaging\"", body["feature"])
		}
		if body["required_plan"] != string(billing.PlanBasic) {
			t.Errorf("required_plan = %q, want %q", body["required_plan"], billing.PlanBasic)
		}
	})

	t.Run("lookup failure is 500, never a denial", func(t *testing.T) {
		svc := &stubBilling{err: errors.Join(billing.ErrLookupFailed, errors.New("connection refused"))}
		rec := serve(svc, scoped)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if body := decodeError(t, rec); body["error"] != "Feature verification failed" {
			t.Errorf("error = %q, want \"Feature verification failed\"", body["error"])
		}
	})

	t.Run("gate decision is repeatable", func(t *testing.T) {
		svc := &stubBilling{err: billing.ErrNoSubscription}
		first := serve(svc, scoped)
		second := serve(svc, scoped)
		if first.Code != second.Code {
			t.Errorf("statuses differ across identical requests: %d vs %d", first.Code, second.Code)
		}
	})
}

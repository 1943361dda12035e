package audit

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/httputil"
)

type memRecorder struct {
	mu      sync.Mutex
	records []*Record
}

func (m *memRecorder) Enqueue(rec *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *memRecorder) all() []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Record(nil), m.records...)
}

func serveThroughInterceptor(t *testing.T, method, pattern, target, body string, handler http.HandlerFunc) (*memRecorder, *httptest.ResponseRecorder) {
	t.Helper()

	rec := &memRecorder{}
	interceptor := NewInterceptor(rec, nil, nil)

	router := mux.NewRouter()
	router.Handle(pattern, EntityFromRoute(handler)).Methods(method)

	var reqBody *bytes.Reader
	if body != "" {
		reqBody = bytes.NewReader([]byte(body))
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reqBody)
	req.Header.Set("User-Agent", "audit-test")
	req.Header.Set("X-Forwarded-For", "203.0.113.5")

	w := httptest.NewRecorder()
	interceptor.Handler(router).ServeHTTP(w, req)
	return rec, w
}

func TestInterceptor_RecordsMutations(t *testing.T) {
	rec, w := serveThroughInterceptor(t, http.MethodPost, "/api/students", "/api/students", `{"first_name":"Ada"}`,
		func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteCreated(w, map[string]interface{}{"id": 17, "first_name": "Ada"})
		})

	require.Equal(t, http.StatusCreated, w.Code)
	records := rec.all()
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "create_students", r.Action)
	assert.Equal(t, "students", r.EntityType)
	assert.Equal(t, "17", r.EntityID)
	assert.Equal(t, "203.0.113.5", r.IPAddress)
	assert.Equal(t, "audit-test", r.UserAgent)
	assert.Equal(t, http.StatusCreated, r.Metadata["status_code"])

	body, ok := r.Metadata["body"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Ada", body["first_name"])
}

func TestInterceptor_SkipsReads(t *testing.T) {
	rec, w := serveThroughInterceptor(t, http.MethodGet, "/api/students", "/api/students", "",
		func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteSuccess(w, nil)
		})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rec.all())
}

func TestInterceptor_RecordsDenials(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests} {
		rec, _ := serveThroughInterceptor(t, http.MethodDelete, "/api/students/{id}", "/api/students/9", "",
			func(w http.ResponseWriter, r *http.Request) {
				httputil.WriteError(w, status, "denied")
			})

		records := rec.all()
		require.Len(t, records, 1, "status %d", status)
		assert.Equal(t, "failed_delete_students", records[0].Action)
		assert.Equal(t, "9", records[0].EntityID, "status %d", status)
	}
}

func TestInterceptor_SkipsOtherFailures(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		rec, _ := serveThroughInterceptor(t, http.MethodPost, "/api/students", "/api/students", `{}`,
			func(w http.ResponseWriter, r *http.Request) {
				httputil.WriteError(w, status, "nope")
			})

		assert.Empty(t, rec.all(), "status %d should not be recorded", status)
	}
}

func TestInterceptor_RouteVarWinsAsEntityID(t *testing.T) {
	rec, _ := serveThroughInterceptor(t, http.MethodPut, "/api/students/{id}", "/api/students/42", `{"first_name":"Ada"}`,
		func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteSuccess(w, map[string]interface{}{"id": 99})
		})

	records := rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, "42", records[0].EntityID)
	assert.Equal(t, "update_students", records[0].Action)
}

func TestInterceptor_RedactsCredentialBodies(t *testing.T) {
	payload := `{"email":"head@school.test","password":"hunter2","new_password":"hunter3"}`
	rec, _ := serveThroughInterceptor(t, http.MethodPost, "/api/auth/login", "/api/auth/login", payload,
		func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteSuccess(w, nil)
		})

	records := rec.all()
	require.Len(t, records, 1)

	body, ok := records[0].Metadata["body"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "head@school.test", body["email"])
	assert.Equal(t, "********", body["password"])
	assert.Equal(t, "********", body["new_password"])
}

func TestInterceptor_BodyReachesHandlerUntouched(t *testing.T) {
	payload := `{"password":"hunter2"}`
	var handlerSaw string

	serveThroughInterceptor(t, http.MethodPost, "/api/auth/login", "/api/auth/login", payload,
		func(w http.ResponseWriter, r *http.Request) {
			buf := new(bytes.Buffer)
			buf.ReadFrom(r.Body)
			handlerSaw = buf.String()
			httputil.WriteSuccess(w, nil)
		})

	assert.Equal(t, payload, handlerSaw)
}

func TestEntityTypeFromPath(t *testing.T) {
	tests := map[string]string{
		"/api/students/5":                  "students",
		"/api/notifications/mark-all-read": "notifications",
		"/students":                        "students",
		"/api":                             "unknown",
		"/":                                "unknown",
	}
	for path, want := range tests {
		assert.Equal(t, want, entityTypeFromPath(path), "path %s", path)
	}
}

func TestCapture_NilSafety(t *testing.T) {
	var c *Capture
	c.SetActor(&auth.Principal{ID: 1})
	c.SetSchool(nil)
	c.SetEntityID("5")

	userID, schoolID, entityID := c.snapshot()
	assert.Nil(t, userID)
	assert.Nil(t, schoolID)
	assert.Empty(t, entityID)
}

func TestEntityFromRoute_OutsideInterceptor(t *testing.T) {
	// Routes are matched for GETs too; the stage must be a no-op when no
	// capture was planted.
	router := mux.NewRouter()
	router.Handle("/api/students/{id}", EntityFromRoute(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteSuccess(w, nil)
	}))).Methods(http.MethodGet)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students/5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

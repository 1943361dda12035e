package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/observability"
	"github.com/scolaris/scolaris/pkg/storage"
	"github.com/scolaris/scolaris/pkg/tenant"
)

type studentRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	AdmissionNo string  `json:"admission_no"`
	ClassName   *string `json:"class_name,omitempty"`
}

func (req *studentRequest) validate() string {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return "First name and last name are required"
	}
	if strings.TrimSpace(req.AdmissionNo) == "" {
		return "Admission number is required"
	}
	return ""
}

// handleListStudents lists the tenant's students. Super admins see either
// the overridden school or, unscoped, every school.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	tc := tenant.FromContext(r.Context())

	limit, offset := pagination(r)
	students, err := s.students.List(r.Context(), tc.TenantID, limit, offset)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("student list failed")
		httputil.WriteInternalError(w, "Failed to list students")
		return
	}

	httputil.WriteSuccess(w, students)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	student, err := s.students.Get(r.Context(), id)
	if err != nil {
		s.writeStudentError(w, r, err, "Failed to load student")
		return
	}

	// Row-level tenant check: the route gate proves the caller has a scope,
	// this proves the scope owns the row.
	tc := tenant.FromContext(r.Context())
	if err := tc.ValidateAccess(student.SchoolID); err != nil {
		writeTenantError(w, err)
		return
	}

	httputil.WriteSuccess(w, student)
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteBadRequest(w, msg)
		return
	}

	tc := tenant.FromContext(r.Context())
	if tc.TenantID == nil {
		// Super admin without a schoolId override has nowhere to put the row
		writeTenantError(w, tenant.ErrNoSchoolContext)
		return
	}

	student := &storage.Student{
		SchoolID:    *tc.TenantID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		AdmissionNo: strings.TrimSpace(req.AdmissionNo),
		ClassName:   req.ClassName,
	}
	if err := s.students.Create(r.Context(), student); err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("student create failed")
		httputil.WriteInternalError(w, "Failed to create student")
		return
	}

	httputil.WriteCreated(w, student)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req studentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteBadRequest(w, msg)
		return
	}

	existing, err := s.students.Get(r.Context(), id)
	if err != nil {
		s.writeStudentError(w, r, err, "Failed to load student")
		return
	}

	tc := tenant.FromContext(r.Context())
	if err := tc.ValidateAccess(existing.SchoolID); err != nil {
		writeTenantError(w, err)
		return
	}

	existing.FirstName = strings.TrimSpace(req.FirstName)
	existing.LastName = strings.TrimSpace(req.LastName)
	existing.AdmissionNo = strings.TrimSpace(req.AdmissionNo)
	existing.ClassName = req.ClassName

	if err := s.students.Update(r.Context(), existing); err != nil {
		s.writeStudentError(w, r, err, "Failed to update student")
		return
	}

	httputil.WriteSuccess(w, existing)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	student, err := s.students.Get(r.Context(), id)
	if err != nil {
		s.writeStudentError(w, r, err, "Failed to load student")
		return
	}

	tc := tenant.FromContext(r.Context())
	if err := tc.ValidateAccess(student.SchoolID); err != nil {
		writeTenantError(w, err)
		return
	}

	if err := s.students.Delete(r.Context(), id); err != nil {
		s.writeStudentError(w, r, err, "Failed to delete student")
		return
	}

	httputil.WriteSuccessMessage(w, "Student deleted", nil)
}

func (s *Server) writeStudentError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w, "Student not found")
		return
	}
	observability.FromContext(r.Context()).WithError(err).Error(fallback)
	httputil.WriteInternalError(w, fallback)
}

// writeTenantError maps tenant guard failures to the envelope with their
// machine-readable codes.
func writeTenantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrNoSchoolContext):
		httputil.WriteErrorCode(w, http.StatusForbidden, err.Error(), tenant.CodeNoSchoolContext)
	case errors.Is(err, tenant.ErrSchoolAccessDenied):
		httputil.WriteErrorCode(w, http.StatusForbidden, err.Error(), tenant.CodeSchoolAccessDenied)
	default:
		httputil.WriteForbidden(w, err.Error())
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if v, err := httputil.QueryInt64(r, "limit"); err == nil && v != nil {
		limit = int(*v)
	}
	if v, err := httputil.QueryInt64(r, "offset"); err == nil && v != nil {
		offset = int(*v)
	}
	return limit, offset
}

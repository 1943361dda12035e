package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Student is a student roster row
type Student struct {
	ID          int64     `json:"id"`
	SchoolID    int64     `json:"school_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	AdmissionNo string    `json:"admission_no"`
	ClassName   *string   `json:"class_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StudentStore manages the student roster
type StudentStore struct {
	db *sql.DB
}

// NewStudentStore creates a student store over an existing connection pool
func NewStudentStore(db *sql.DB) (*StudentStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &StudentStore{db: db}, nil
}

const studentColumns = `id, school_id, first_name, last_name, admission_no, class_name, created_at, updated_at`

func scanStudent(scan func(...interface{}) error) (*Student, error) {
	st := &Student{}
	err := scan(
		&st.ID, &st.SchoolID, &st.FirstName, &st.LastName, &st.AdmissionNo,
		&st.ClassName, &st.CreatedAt, &st.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}
	return st, nil
}

// List returns students, filtered to one school when schoolID is non-nil.
// The nil case exists for super admins browsing cross-tenant.
func (s *StudentStore) List(ctx context.Context, schoolID *int64, limit, offset int) ([]*Student, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM students`, studentColumns)
	args := []interface{}{}
	if schoolID != nil {
		query += " WHERE school_id = $1"
		args = append(args, *schoolID)
	}
	query += fmt.Sprintf(" ORDER BY last_name, first_name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := make([]*Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows.Scan)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// Get fetches one student by ID. Tenant access is validated by the caller
// against the returned row's SchoolID.
func (s *StudentStore) Get(ctx context.Context, id int64) (*Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	return scanStudent(s.db.QueryRowContext(ctx, query, id).Scan)
}

// Create inserts a student into the given school
func (s *StudentStore) Create(ctx context.Context, st *Student) error {
	query := fmt.Sprintf(`
		INSERT INTO students (school_id, first_name, last_name, admission_no, class_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, studentColumns)

	created, err := scanStudent(s.db.QueryRowContext(ctx, query,
		st.SchoolID, st.FirstName, st.LastName, st.AdmissionNo, st.ClassName,
	).Scan)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	*st = *created
	return nil
}

// Update modifies a student's mutable fields
func (s *StudentStore) Update(ctx context.Context, st *Student) error {
	query := fmt.Sprintf(`
		UPDATE students
		SET first_name = $2, last_name = $3, admission_no = $4, class_name = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, studentColumns)

	updated, err := scanStudent(s.db.QueryRowContext(ctx, query,
		st.ID, st.FirstName, st.LastName, st.AdmissionNo, st.ClassName,
	).Scan)
	if err != nil {
		return err
	}
	*st = *updated
	return nil
}

// Delete removes a student
func (s *StudentStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

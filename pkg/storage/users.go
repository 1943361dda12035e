package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// User is an account row. PasswordHash is bcrypt and never serialized.
type User struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Role         string  `json:"role"`
	SchoolID     *int64  `json:"school_id,omitempty"`
	SchoolName   *string `json:"school_name,omitempty"`
	IsActive     bool    `json:"is_active"`
}

// UserStore reads account rows for authentication
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store over an existing connection pool
func NewUserStore(db *sql.DB) (*UserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &UserStore{db: db}, nil
}

const userColumns = `
	u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role,
	u.school_id, s.name, u.is_active
`

func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.SchoolID, &u.SchoolName, &u.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by email for login
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN schools s ON u.school_id = s.id
		WHERE LOWER(u.email) = LOWER($1)
	`, userColumns)

	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetByID fetches a user by ID
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN schools s ON u.school_id = s.id
		WHERE u.id = $1
	`, userColumns)

	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "role",
		"school_id", "name", "is_active",
	})
}

func TestUserStore_GetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewUserStore(db)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT(.|\n)+FROM users u(.|\n)+LEFT JOIN schools s").
			WithArgs("head@school.test").
			WillReturnRows(userRows().AddRow(
				int64(42), "head@school.test", "$2a$10$hash", "Ada", "Lovelace", "admin",
				int64(3), "Testville High", true,
			))

		user, err := store.GetByEmail(context.Background(), "head@school.test")
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.ID)
		assert.Equal(t, "admin", user.Role)
		require.NotNil(t, user.SchoolID)
		assert.Equal(t, int64(3), *user.SchoolID)
		require.NotNil(t, user.SchoolName)
		assert.Equal(t, "Testville High", *user.SchoolName)
		assert.True(t, user.IsActive)
	})

	t.Run("missing is ErrNotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewUserStore(db)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT(.|\n)+FROM users u").
			WithArgs("ghost@school.test").
			WillReturnError(sql.ErrNoRows)

		_, err = store.GetByEmail(context.Background(), "ghost@school.test")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("user without school has nil school fields", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewUserStore(db)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT(.|\n)+FROM users u").
			WithArgs("root@platform.test").
			WillReturnRows(userRows().AddRow(
				int64(1), "root@platform.test", "$2a$10$hash", "Root", "Admin", "super_admin",
				nil, nil, true,
			))

		user, err := store.GetByEmail(context.Background(), "root@platform.test")
		require.NoError(t, err)
		assert.Nil(t, user.SchoolID)
		assert.Nil(t, user.SchoolName)
	})
}

func TestUserStore_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := NewUserStore(db)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT(.|\n)+FROM users u(.|\n)+WHERE u.id").
		WithArgs(int64(42)).
		WillReturnRows(userRows().AddRow(
			int64(42), "head@school.test", "$2a$10$hash", "Ada", "Lovelace", "admin",
			int64(3), "Testville High", true,
		))

	user, err := store.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "head@school.test", user.Email)
}

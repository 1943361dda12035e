package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "school_id", "first_name", "last_name", "admission_no", "class_name",
		"created_at", "updated_at",
	})
}

func TestStudentStore_List(t *testing.T) {
	now := time.Now()

	t.Run("scoped to one school", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewStudentStore(db)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT(.|\n)+FROM students WHERE school_id").
			WithArgs(int64(3), 50, 0).
			WillReturnRows(studentRows().
				AddRow(int64(1), int64(3), "Ada", "Lovelace", "ADM001", "JSS1", now, now).
				AddRow(int64(2), int64(3), "Alan", "Turing", "ADM002", nil, now, now))

		schoolID := int64(3)
		students, err := store.List(context.Background(), &schoolID, 50, 0)
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, "Ada", students[0].FirstName)
		assert.Nil(t, students[1].ClassName)
	})

	t.Run("unscoped lists across schools", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewStudentStore(db)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT(.|\n)+FROM students ORDER BY").
			WithArgs(50, 0).
			WillReturnRows(studentRows().
				AddRow(int64(1), int64(3), "Ada", "Lovelace", "ADM001", nil, now, now).
				AddRow(int64(9), int64(7), "Grace", "Hopper", "ADM009", nil, now, now))

		students, err := store.List(context.Background(), nil, 50, 0)
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, int64(7), students[1].SchoolID)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewStudentStore(db)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT(.|\n)+FROM students").
			WithArgs(50, 0).
			WillReturnRows(studentRows())

		_, err = store.List(context.Background(), nil, 100000, 0)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStudentStore_Get(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewStudentStore(db)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT(.|\n)+FROM students WHERE id").
			WithArgs(int64(1)).
			WillReturnRows(studentRows().AddRow(int64(1), int64(3), "Ada", "Lovelace", "ADM001", nil, now, now))

		student, err := store.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(3), student.SchoolID)
	})

	t.Run("missing is ErrNotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewStudentStore(db)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT(.|\n)+FROM students WHERE id").
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		_, err = store.Get(context.Background(), 404)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStudentStore_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := NewStudentStore(db)
	require.NoError(t, err)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO students").
		WithArgs(int64(3), "Ada", "Lovelace", "ADM001", nil).
		WillReturnRows(studentRows().AddRow(int64(17), int64(3), "Ada", "Lovelace", "ADM001", nil, now, now))

	student := &Student{SchoolID: 3, FirstName: "Ada", LastName: "Lovelace", AdmissionNo: "ADM001"}
	require.NoError(t, store.Create(context.Background(), student))
	assert.Equal(t, int64(17), student.ID)
}

func TestStudentStore_Delete(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewStudentStore(db)
		require.NoError(t, err)

		mock.ExpectExec("DELETE FROM students WHERE id").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Delete(context.Background(), 1))
	})

	t.Run("missing row is ErrNotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		store, err := NewStudentStore(db)
		require.NoError(t, err)

		mock.ExpectExec("DELETE FROM students WHERE id").
			WithArgs(int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, store.Delete(context.Background(), 404), ErrNotFound)
	})
}

func TestNotificationStore_MarkAllRead(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := NewNotificationStore(db)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE notifications SET is_read").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 5))

	updated, err := store.MarkAllRead(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated)

	// Second call with nothing unread is still success
	mock.ExpectExec("UPDATE notifications SET is_read").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err = store.MarkAllRead(context.Background(), 42)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

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

func newSinkForTest(t *testing.T) (*DBSink, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS activity_logs").WillReturnResult(sqlmock.NewResult(0, 0))
	sink, err := NewDBSink(db)
	require.NoError(t, err)
	return sink, mock
}

func TestNewDBSink(t *testing.T) {
	t.Run("creates the table", func(t *testing.T) {
		_, mock := newSinkForTest(t)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil database rejected", func(t *testing.T) {
		sink, err := NewDBSink(nil)
		assert.Error(t, err)
		assert.Nil(t, sink)
	})

	t.Run("table creation failure surfaces", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS activity_logs").WillReturnError(errors.New("permission denied"))

		sink, err := NewDBSink(db)
		assert.Error(t, err)
		assert.Nil(t, sink)
	})
}

func TestDBSink_Insert(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		sink, mock := newSinkForTest(t)

		schoolID, userID := int64(3), int64(42)
		rec := &Record{
			SchoolID:    &schoolID,
			UserID:      &userID,
			Action:      "create_students",
			EntityType:  "students",
			EntityID:    "17",
			Description: "POST /api/students (201)",
			Metadata:    map[string]interface{}{"status_code": 201},
			IPAddress:   "203.0.113.5",
			UserAgent:   "audit-test",
			CreatedAt:   time.Now().UTC(),
		}

		mock.ExpectQuery("INSERT INTO activity_logs").
			WithArgs(schoolID, userID, "create_students", "students", "17",
				"POST /api/students (201)", []byte(`{"status_code":201}`),
				"203.0.113.5", "audit-test", rec.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))

		require.NoError(t, sink.Insert(context.Background(), rec))
		assert.Equal(t, int64(101), rec.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty entity id stored as NULL", func(t *testing.T) {
		sink, mock := newSinkForTest(t)

		rec := &Record{
			Action:     "failed_delete_students",
			EntityType: "students",
			CreatedAt:  time.Now().UTC(),
		}

		mock.ExpectQuery("INSERT INTO activity_logs").
			WithArgs(nil, nil, "failed_delete_students", "students", nil,
				"", sqlmock.AnyArg(), "", "", rec.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		require.NoError(t, sink.Insert(context.Background(), rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure surfaces", func(t *testing.T) {
		sink, mock := newSinkForTest(t)

		mock.ExpectQuery("INSERT INTO activity_logs").WillReturnError(errors.New("connection reset"))

		err := sink.Insert(context.Background(), &Record{Action: "create_students", EntityType: "students"})
		assert.Error(t, err)
	})
}

func TestDBSink_DeleteOlderThan(t *testing.T) {
	sink, mock := newSinkForTest(t)

	mock.ExpectExec("DELETE FROM activity_logs WHERE created_at").
		WithArgs(90).
		WillReturnResult(sqlmock.NewResult(0, 1234))

	deleted, err := sink.DeleteOlderThan(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// DBSink persists activity records to PostgreSQL
type DBSink struct {
	db *sql.DB
}

// NewDBSink creates a database-backed activity sink
func NewDBSink(db *sql.DB) (*DBSink, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	sink := &DBSink{db: db}

	if err := sink.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure activity_logs table: %w", err)
	}

	return sink, nil
}

// ensureTable creates the activity_logs table if it doesn't exist
func (s *DBSink) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS activity_logs (
		id BIGSERIAL PRIMARY KEY,
		school_id BIGINT,
		user_id BIGINT,
		action VARCHAR(100) NOT NULL,
		entity_type VARCHAR(50) NOT NULL,
		entity_id VARCHAR(255),
		description TEXT,
		metadata JSONB,
		ip_address VARCHAR(45),
		user_agent TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_school_id ON activity_logs(school_id);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_user_id ON activity_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_entity ON activity_logs(entity_type, entity_id);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_action ON activity_logs(action);
	`

	_, err := s.db.Exec(query)
	return err
}

// Insert writes one activity record
func (s *DBSink) Insert(ctx context.Context, rec *Record) error {
	var metadataJSON []byte
	var err error

	if rec.Metadata != nil {
		metadataJSON, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	var entityID interface{}
	if rec.EntityID != "" {
		entityID = rec.EntityID
	}

	query := `
		INSERT INTO activity_logs (
			school_id, user_id, action, entity_type, entity_id, description,
			metadata, ip_address, user_agent, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10
		) RETURNING id
	`

	err = s.db.QueryRowContext(ctx, query,
		rec.SchoolID, rec.UserID, rec.Action, rec.EntityType, entityID, rec.Description,
		metadataJSON, rec.IPAddress, rec.UserAgent, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}

	return nil
}

// DeleteOlderThan removes records past the retention horizon and returns the
// number deleted. Used by the retention sweeper.
func (s *DBSink) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM activity_logs WHERE created_at < NOW() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity logs: %w", err)
	}
	return result.RowsAffected()
}

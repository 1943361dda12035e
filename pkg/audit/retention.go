package audit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/scolaris/scolaris/pkg/observability"
)

// RetentionSweeper prunes activity records past the retention horizon on a
// cron schedule.
type RetentionSweeper struct {
	sink          *DBSink
	retentionDays int
	schedule      string
	cron          *cron.Cron
	logger        *observability.Logger
}

// NewRetentionSweeper creates the sweeper. schedule is a standard cron
// expression; retentionDays must be positive.
func NewRetentionSweeper(sink *DBSink, retentionDays int, schedule string, logger *observability.Logger) *RetentionSweeper {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	if schedule == "" {
		schedule = "0 3 * * *"
	}
	return &RetentionSweeper{
		sink:          sink,
		retentionDays: retentionDays,
		schedule:      schedule,
		logger:        logger,
	}
}

// Start registers and starts the cron job
func (s *RetentionSweeper) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish
func (s *RetentionSweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := s.sink.DeleteOlderThan(ctx, s.retentionDays)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("activity log retention sweep failed")
		}
		return
	}

	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"deleted":        deleted,
			"retention_days": s.retentionDays,
		}).Info("activity log retention sweep complete")
	}
}

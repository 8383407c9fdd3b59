package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/scalpi-pos/api/internal/altegio"
	"go.uber.org/zap"
)

// Syncer is satisfied by *altegio.Syncer.
type Syncer interface {
	Sync(ctx context.Context) (altegio.SyncResult, error)
}

// Scheduler runs the periodic background jobs.
type Scheduler struct {
	cron    *gocron.Scheduler
	syncer  Syncer
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Scheduler in loc. Jobs are registered by Start.
func New(loc *time.Location, syncer Syncer, logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		cron:    s,
		syncer:  syncer,
		timeout: 5 * time.Minute,
		logger:  logger,
	}
}

// Start registers the staff sync every interval, runs it once immediately
// and returns without blocking.
func (s *Scheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	if _, err := s.cron.Every(interval).Tag("staff-sync").Do(s.runStaffSync); err != nil {
		return fmt.Errorf("schedule staff sync: %w", err)
	}
	s.cron.StartAsync()
	s.logger.Info("scheduler started", zap.Duration("staff_sync_interval", interval))
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runStaffSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.syncer.Sync(ctx); err != nil {
		if errors.Is(err, altegio.ErrNotConfigured) {
			s.logger.Debug("staff sync skipped: directory not configured")
			return
		}
		s.logger.Error("staff sync failed", zap.Error(err))
	}
}

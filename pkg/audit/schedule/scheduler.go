package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a Snapshotter on a cron schedule.
type Scheduler struct {
	snapshotter *Snapshotter
	cron        *cron.Cron
	mu          sync.Mutex
	logger      *slog.Logger
	running     bool
}

// NewScheduler creates a new snapshot scheduler.
func NewScheduler(snapshotter *Snapshotter) *Scheduler {
	return &Scheduler{
		snapshotter: snapshotter,
		cron:        cron.New(),
		logger:      slog.Default().With("component", "audit.scheduler"),
	}
}

// Start schedules snapshots using the snapshotter's cron expression.
//
// Common cron expressions:
//   - "0 18 * * 1-5" - Weekdays at 6 PM
//   - "0 */6 * * *"  - Every 6 hours
//   - "@daily"       - Midnight every day
//
// If the schedule is empty, the scheduler does nothing. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.snapshotter.config.Schedule
	if schedule == "" {
		s.logger.Info("snapshot schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runSnapshot(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snapshots: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("snapshot scheduler started",
		"schedule", schedule,
		"directory", s.snapshotter.config.Directory,
		"format", s.snapshotter.config.Format,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSnapshot executes one snapshot.
func (s *Scheduler) runSnapshot(ctx context.Context) {
	s.logger.Info("starting scheduled audit snapshot")

	path, n, err := s.snapshotter.Snapshot(ctx)
	if err != nil {
		s.logger.Error("scheduled snapshot failed",
			"error", err,
		)
		return
	}

	s.logger.Info("scheduled snapshot completed",
		"path", path,
		"event_count", n,
	)
}

// Stop stops the scheduler and waits for a running snapshot to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("snapshot scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled snapshot time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}

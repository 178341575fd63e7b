// Package scheduler runs the nightly cycle sweep that materializes current
// cycles for every obligation, so carryovers and closures land even when
// nobody has opened the app.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper materializes current cycles across all obligations.
type Sweeper interface {
	MaterializeAll(ctx context.Context) (int, error)
}

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a cron expression for when to run the sweep (e.g., "0 3 * * *" for daily at 03:00)
	Schedule string
	// Timeout is the maximum duration for a complete sweep run
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "0 3 * * *",
		Timeout:  2 * time.Minute,
		Enabled:  true,
	}
}

// Scheduler manages the recurring cycle sweep job
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	config  Config
	logger  *slog.Logger
	entryID cron.EntryID
}

// New creates a new Scheduler instance
func New(cfg Config, sweeper Sweeper, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		config:  cfg,
		logger:  logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	// Convert standard cron (5 fields) to cron with seconds (6 fields)
	schedule := "0 " + s.config.Schedule

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate sweep (useful for manual triggers)
func (s *Scheduler) RunNow() {
	go s.runSweep()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Info("Starting cycle sweep")

	count, err := s.sweeper.MaterializeAll(ctx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Cycle sweep failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return
	}

	s.logger.Info("Cycle sweep completed",
		slog.Int("obligations_swept", count),
		slog.Duration("duration", duration),
	)
}

// NextRunTime returns the next scheduled run time
func (s *Scheduler) NextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// IsRunning returns true if the scheduler has active entries
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSweepInterval is how often dead-lettered update jobs are swept
	DefaultSweepInterval = time.Hour
	// DefaultDeadLetterRetention is how long a rejected update job stays inspectable
	DefaultDeadLetterRetention = 24 * time.Hour
	// DefaultSweepTimeout bounds a single purge call
	DefaultSweepTimeout = 2 * time.Minute
)

// SweepConfig controls a DeadLetterSweeper. Zero fields take the defaults.
type SweepConfig struct {
	Interval  time.Duration
	Retention time.Duration
	Timeout   time.Duration
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultSweepInterval
	}
	if c.Retention <= 0 {
		c.Retention = DefaultDeadLetterRetention
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultSweepTimeout
	}
	return c
}

// DeadLetterSweeper drops spreadsheet update jobs that were rejected for good
// once they are older than the retention window.
type DeadLetterSweeper struct {
	purger DLQPurger
	cfg    SweepConfig
	logger *zap.Logger
	purged atomic.Int64
	sweeps atomic.Int64
}

// NewDeadLetterSweeper creates a sweeper over a queue's dead letters
func NewDeadLetterSweeper(purger DLQPurger, cfg SweepConfig, logger *zap.Logger) *DeadLetterSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadLetterSweeper{purger: purger, cfg: cfg.withDefaults(), logger: logger}
}

// Run sweeps once immediately and then every interval until ctx is cancelled
func (s *DeadLetterSweeper) Run(ctx context.Context) error {
	s.logger.Info("dead_letter_sweeper_started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("retention", s.cfg.Retention),
	)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("dead_letter_sweep_failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce purges expired dead letters and returns how many were dropped
func (s *DeadLetterSweeper) SweepOnce(ctx context.Context) (int, error) {
	if s.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	n, err := s.purger.PurgeOlderThan(ctx, s.cfg.Retention)
	s.sweeps.Add(1)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dead-lettered updates: %w", err)
	}
	if n > 0 {
		s.purged.Add(int64(n))
		s.logger.Info("dead_letters_purged",
			zap.Int("count", n),
			zap.Int64("total_purged", s.purged.Load()),
		)
	}
	return n, nil
}

// Purged is the number of dead letters dropped since the sweeper was created
func (s *DeadLetterSweeper) Purged() int64 {
	return s.purged.Load()
}

// Sweeps is the number of purge attempts made
func (s *DeadLetterSweeper) Sweeps() int64 {
	return s.sweeps.Load()
}

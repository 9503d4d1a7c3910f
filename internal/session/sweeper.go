package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes expired sessions from a store
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a new sweeper
func NewSweeper(store *Store, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (sw *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sw.sweep()
		}
	}
}

func (sw *Sweeper) sweep() {
	if sw.store == nil {
		return
	}
	if n := sw.store.Sweep(); n > 0 {
		sw.logger.Info("sessions_swept",
			zap.Int("removed", n),
			zap.Int("remaining", sw.store.Len()),
		)
	}
}

package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type purgeFunc func(ctx context.Context, retention time.Duration) (int, error)

func (f purgeFunc) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	return f(ctx, retention)
}

func TestSweepConfig_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  SweepConfig
		want SweepConfig
	}{
		{"zero", SweepConfig{}, SweepConfig{DefaultSweepInterval, DefaultDeadLetterRetention, DefaultSweepTimeout}},
		{"negative", SweepConfig{Interval: -1, Retention: -1, Timeout: -1}, SweepConfig{DefaultSweepInterval, DefaultDeadLetterRetention, DefaultSweepTimeout}},
		{"explicit", SweepConfig{time.Minute, time.Hour, time.Second}, SweepConfig{time.Minute, time.Hour, time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.withDefaults(); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDeadLetterSweeper_SweepsMemoryQueue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	q := NewMemoryQueue(1)
	q.now = func() time.Time { return now }
	q.dead = []DeadLetter{
		{Job: NewUpdateJob("stale-1", nil), RejectedAt: now.Add(-72 * time.Hour)},
		{Job: NewUpdateJob("stale-2", nil), RejectedAt: now.Add(-30 * time.Hour)},
		{Job: NewUpdateJob("fresh", nil), RejectedAt: now.Add(-time.Hour)},
	}

	core, logs := observer.New(zap.InfoLevel)
	s := NewDeadLetterSweeper(q, SweepConfig{}, zap.New(core))

	n, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 purged, got %d", n)
	}
	if remaining := q.DeadLetters(); len(remaining) != 1 || remaining[0].Job.SessionID != "fresh" {
		t.Errorf("Expected only the fresh dead letter to remain, got %+v", remaining)
	}

	// Nothing left to purge; totals are unchanged
	if _, err := s.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if s.Purged() != 2 {
		t.Errorf("Expected 2 purged in total, got %d", s.Purged())
	}
	if s.Sweeps() != 2 {
		t.Errorf("Expected 2 sweeps, got %d", s.Sweeps())
	}
	if got := logs.FilterMessage("dead_letters_purged").Len(); got != 1 {
		t.Errorf("Expected 1 dead_letters_purged log, got %d", got)
	}
}

func TestDeadLetterSweeper_NilPurger(t *testing.T) {
	t.Parallel()

	s := NewDeadLetterSweeper(nil, SweepConfig{}, nil)
	n, err := s.SweepOnce(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Expected no-op sweep, got %d, %v", n, err)
	}
	if s.Sweeps() != 0 {
		t.Errorf("Expected no sweeps recorded, got %d", s.Sweeps())
	}
}

func TestDeadLetterSweeper_PurgeError(t *testing.T) {
	t.Parallel()

	s := NewDeadLetterSweeper(purgeFunc(func(context.Context, time.Duration) (int, error) {
		return 0, errors.New("broker unreachable")
	}), SweepConfig{}, nil)

	if _, err := s.SweepOnce(context.Background()); err == nil {
		t.Error("Expected error from SweepOnce, got nil")
	}
	if s.Purged() != 0 {
		t.Errorf("Expected nothing purged, got %d", s.Purged())
	}
}

func TestDeadLetterSweeper_PassesRetentionAndDeadline(t *testing.T) {
	t.Parallel()

	var gotRetention time.Duration
	var hadDeadline bool
	s := NewDeadLetterSweeper(purgeFunc(func(ctx context.Context, retention time.Duration) (int, error) {
		gotRetention = retention
		_, hadDeadline = ctx.Deadline()
		return 0, nil
	}), SweepConfig{Retention: 6 * time.Hour, Timeout: time.Second}, nil)

	if _, err := s.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if gotRetention != 6*time.Hour {
		t.Errorf("Expected retention 6h, got %v", gotRetention)
	}
	if !hadDeadline {
		t.Error("Expected purge context to carry a deadline")
	}
}

func TestDeadLetterSweeper_RunSweepsImmediatelyAndStops(t *testing.T) {
	t.Parallel()

	swept := make(chan struct{}, 1)
	s := NewDeadLetterSweeper(purgeFunc(func(context.Context, time.Duration) (int, error) {
		select {
		case swept <- struct{}{}:
		default:
		}
		return 0, nil
	}), SweepConfig{Interval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a sweep on start")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Run to stop after cancel")
	}
}

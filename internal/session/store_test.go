package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/smart-gantt/internal/board"
	"github.com/benvon/smart-gantt/internal/hierarchy"
	"github.com/benvon/smart-gantt/internal/models"
	"github.com/google/uuid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(ttl, nil)
	s.now = clock.Now
	return s, clock
}

func TestStore_CreateGetDelete(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(time.Hour)
	session := s.Create()
	if session.Board == nil || session.Drag == nil {
		t.Fatal("Expected session to carry a board and a drag machine")
	}

	got, err := s.Get(session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != session {
		t.Error("Expected Get to return the created session")
	}

	if err := s.Delete(session.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := s.Delete(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
	if _, err := s.Get(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound for unknown id, got %v", err)
	}
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(30 * time.Minute)
	idle := s.Create()
	active := s.Create()

	clock.Advance(20 * time.Minute)
	if _, err := s.Get(active.ID); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	clock.Advance(20 * time.Minute)
	if _, err := s.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected idle session to expire, got %v", err)
	}

	if removed := s.Sweep(); removed != 1 {
		t.Errorf("Expected 1 session swept, got %d", removed)
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 remaining session, got %d", s.Len())
	}
	if _, err := s.Get(active.ID); err != nil {
		t.Errorf("Expected active session to survive, got %v", err)
	}
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(0)
	session := s.Create()
	clock.Advance(365 * 24 * time.Hour)
	if _, err := s.Get(session.ID); err != nil {
		t.Errorf("Expected session to live forever with zero TTL, got %v", err)
	}
	if s.Sweep() != 0 {
		t.Error("Expected nothing swept with zero TTL")
	}
}

func TestStore_EchoFactoryPerSession(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(time.Hour)
	var published []string
	s.SetEchoFactory(func(sessionID string) board.Echo {
		return board.EchoFunc(func(_ context.Context, record models.UpdateRecord) error {
			published = append(published, sessionID+":"+record.ProjectName)
			return nil
		})
	})

	session := s.Create()
	start := "2024-01-01"
	end := "2024-01-10"
	result, err := hierarchy.NewBuilder().Build([]models.FlatRow{
		{ItemID: "1", Name: "Design", IsTitle: true, StartDate: &start, EndDate: &end},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := session.Board.Load(result); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	progress := 40
	if _, err := session.Board.Update(context.Background(), "1", board.Patch{Progress: &progress}, "check-in"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	want := session.ID.String() + ":1"
	if len(published) != 1 || published[0] != want {
		t.Errorf("Expected [%s], got %v", want, published)
	}
}

func TestSweeper_Sweep(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(time.Minute)
	s.Create()
	clock.Advance(2 * time.Minute)

	NewSweeper(s, time.Hour, nil).sweep()
	if s.Len() != 0 {
		t.Errorf("Expected expired session to be swept, got %d remaining", s.Len())
	}

	// A nil store is tolerated
	NewSweeper(nil, time.Hour, nil).sweep()
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(time.Minute)
	sw := NewSweeper(s, 24*time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sw.Start(ctx); err == nil {
		t.Error("Expected context cancelled error")
	}
}

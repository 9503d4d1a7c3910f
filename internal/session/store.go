// Package session keeps one in-memory board per dashboard session.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/benvon/smart-gantt/internal/board"
	"github.com/benvon/smart-gantt/internal/drag"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// Session is one dashboard's state
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Board     *board.Board
	Drag      *drag.Machine

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns when the session was last used
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Store manages sessions
type Store struct {
	sessions  map[uuid.UUID]*Session
	mu        sync.RWMutex // Protects concurrent access to sessions map
	ttl       time.Duration
	now       func() time.Time
	boardOpts []board.Option
	echoFor   EchoFactory
	logger    *zap.Logger
}

// EchoFactory builds the update echo for a new session's board
type EchoFactory func(sessionID string) board.Echo

// NewStore creates a session store. Sessions idle for longer than ttl are removed by Sweep.
// boardOpts are applied to every new board.
func NewStore(ttl time.Duration, logger *zap.Logger, boardOpts ...board.Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions:  make(map[uuid.UUID]*Session),
		ttl:       ttl,
		now:       time.Now,
		boardOpts: boardOpts,
		logger:    logger,
	}
}

// SetEchoFactory makes every later session publish its task changes through f
func (s *Store) SetEchoFactory(f EchoFactory) {
	s.mu.Lock()
	s.echoFor = f
	s.mu.Unlock()
}

// Create starts a new session with an empty board
func (s *Store) Create() *Session {
	now := s.now()
	id := uuid.New()

	opts := append([]board.Option{board.WithLogger(s.logger)}, s.boardOpts...)
	s.mu.RLock()
	echoFor := s.echoFor
	s.mu.RUnlock()
	if echoFor != nil {
		opts = append(opts, board.WithEcho(echoFor(id.String())))
	}
	b := board.New(opts...)

	session := &Session{
		ID:        id,
		CreatedAt: now,
		Board:     b,
		Drag:      drag.NewMachine(b, s.logger),
		lastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("session_created", zap.String("session_id", session.ID.String()))
	return session
}

// Get returns a live session and marks it as used
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	session, exists := s.sessions[id]
	s.mu.RUnlock()

	now := s.now()
	if !exists || s.expired(session, now) {
		return nil, ErrSessionNotFound
	}
	session.touch(now)
	return session, nil
}

// Delete removes a session
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.logger.Info("session_deleted", zap.String("session_id", id.String()))
	return nil
}

// Len returns the number of stored sessions, including expired ones not yet swept
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(session *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.LastSeen()) > s.ttl
}

package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/sealcheck/internal/workflow"
	"github.com/JaimeStill/sealcheck/pkg/lifecycle"
)

var trackedOps = []workflow.Op{
	workflow.OpUpload,
	workflow.OpDetect,
	workflow.OpCompare,
	workflow.OpCleanup,
	workflow.OpExport,
}

type entry struct {
	ctrl     *workflow.Controller
	lastSeen time.Time
}

// Sessions holds the live verification sessions keyed by id.
// Sessions idle longer than the idle timeout with no operation in flight
// are swept.
type Sessions struct {
	max     int
	idle    time.Duration
	factory func() *workflow.Controller
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

// NewSessions creates an empty session store.
func NewSessions(limit int, idle time.Duration, factory func() *workflow.Controller, logger *slog.Logger) *Sessions {
	return &Sessions{
		max:     limit,
		idle:    idle,
		factory: factory,
		logger:  logger.With("system", "sessions"),
		now:     time.Now,
		entries: make(map[uuid.UUID]*entry),
	}
}

// Create starts a new session. Expired sessions are swept first when the
// store is full.
func (s *Sessions) Create() (uuid.UUID, *workflow.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.max {
		s.sweepLocked()
		if len(s.entries) >= s.max {
			return uuid.Nil, nil, ErrSessionLimit
		}
	}

	id := uuid.New()
	ctrl := s.factory()
	s.entries[id] = &entry{ctrl: ctrl, lastSeen: s.now()}

	s.logger.Info("session created", "id", id, "active", len(s.entries))
	return id, ctrl, nil
}

// Get returns the session's controller and marks it as recently used.
func (s *Sessions) Get(id uuid.UUID) (*workflow.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.ctrl, nil
}

// Delete removes a session.
func (s *Sessions) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.entries, id)

	s.logger.Info("session deleted", "id", id, "active", len(s.entries))
	return nil
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes idle sessions and returns their ids.
func (s *Sessions) Sweep() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Sessions) sweepLocked() []uuid.UUID {
	if s.idle <= 0 {
		return nil
	}

	cutoff := s.now().Add(-s.idle)
	var swept []uuid.UUID

	for id, e := range s.entries {
		if e.lastSeen.After(cutoff) || busy(e.ctrl) {
			continue
		}
		delete(s.entries, id)
		swept = append(swept, id)
	}

	if len(swept) > 0 {
		s.logger.Info("idle sessions swept", "count", len(swept), "active", len(s.entries))
	}
	return swept
}

func busy(ctrl *workflow.Controller) bool {
	for _, op := range trackedOps {
		if ctrl.Pending(op) {
			return true
		}
	}
	return false
}

// Start runs the idle sweeper in the background until shutdown.
func (s *Sessions) Start(lc *lifecycle.Coordinator) {
	if s.idle <= 0 {
		return
	}

	interval := max(s.idle/2, time.Second)

	lc.Background(func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("session sweeper stopped", "active", s.Len())
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	})
}

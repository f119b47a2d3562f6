// Package scheduler wakes due sessions. It periodically scans the store
// for sessions whose next trigger time has passed and dispatches each one
// through the engine, which revalidates the trigger under the session
// lock. The scheduler itself holds no session state.
package scheduler

import (
	"context"
	stderrors "errors"
	"log"
	"sync"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/game/domain"
)

// DueLister is the slice of session storage the scheduler reads.
type DueLister interface {
	ListDueSessions(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// Dispatcher handles one due session; the engine's HandleDue satisfies it.
type Dispatcher interface {
	HandleDue(ctx context.Context, sessionID string) (domain.Session, error)
}

// Config tunes the scan loop. Zero values fall back to defaults.
type Config struct {
	// TickInterval is the time between scans.
	TickInterval time.Duration
	// BatchSize caps the sessions dispatched per scan.
	BatchSize int

	Now  func() time.Time
	Logf func(format string, args ...any)
}

const (
	defaultTickInterval = time.Second
	defaultBatchSize    = 50
)

// Scheduler runs the periodic due-session scan.
type Scheduler struct {
	store      DueLister
	dispatcher Dispatcher

	tick  time.Duration
	batch int
	now   func() time.Time
	logf  func(format string, args ...any)
}

// New builds a scheduler over the given store and dispatcher.
func New(store DueLister, dispatcher Dispatcher, cfg Config) (*Scheduler, error) {
	if store == nil {
		return nil, stderrors.New("due lister is required")
	}
	if dispatcher == nil {
		return nil, stderrors.New("dispatcher is required")
	}

	s := &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		tick:       cfg.TickInterval,
		batch:      cfg.BatchSize,
		now:        cfg.Now,
		logf:       cfg.Logf,
	}
	if s.tick <= 0 {
		s.tick = defaultTickInterval
	}
	if s.batch <= 0 {
		s.batch = defaultBatchSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	return s, nil
}

// Run scans until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logf("scheduler started tick=%s batch=%d", s.tick, s.batch)
	for {
		select {
		case <-ctx.Done():
			s.logf("scheduler stopped reason=%v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scan-and-dispatch pass. Sessions dispatch
// concurrently; per-session serialization is the engine's job. Dispatch
// errors are logged, never fatal to the loop.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ids, err := s.store.ListDueSessions(ctx, s.now(), s.batch)
	if err != nil {
		s.logf("due scan failed error=%v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(sessionID string) {
			defer wg.Done()
			if _, err := s.dispatcher.HandleDue(ctx, sessionID); err != nil {
				s.logf("dispatch failed session_id=%s error=%v", sessionID, err)
			}
		}(id)
	}
	wg.Wait()
}

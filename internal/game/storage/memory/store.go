// Package memory provides an in-memory session storage implementation for
// tests and ephemeral runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/game/domain"
	"github.com/RobGibbens/CardGames-sub000/internal/game/storage"
)

type sessionRow struct {
	state   []byte
	status  domain.SessionStatus
	version int64
	dueAt   *time.Time
}

// Store keeps sessions and telemetry in process memory. Snapshots are
// deep-copied through JSON so callers never share mutable state with the
// store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionRow
	events   map[string][]storage.TelemetryEvent
}

// New returns an empty store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*sessionRow),
		events:   make(map[string][]storage.TelemetryEvent),
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// CreateSession inserts a new session at version 1.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sessionID]; exists {
		return fmt.Errorf("session %s already exists", sessionID)
	}
	s.sessions[sessionID] = &sessionRow{
		state:   state,
		status:  session.Status,
		version: 1,
		dueAt:   copyTime(session.NextDue()),
	}
	return nil
}

// GetSession loads a session snapshot with its current version.
func (s *Store) GetSession(ctx context.Context, id string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}

	s.mu.RLock()
	row, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		s.mu.RUnlock()
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	state := row.state
	version := row.version
	s.mu.RUnlock()

	var session domain.Session
	if err := json.Unmarshal(state, &session); err != nil {
		return storage.SessionRecord{}, fmt.Errorf("decode session state: %w", err)
	}
	return storage.SessionRecord{Session: session, Version: version}, nil
}

// PutSession saves the session when the caller's version is still current.
func (s *Store) PutSession(ctx context.Context, session domain.Session, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.sessions[session.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if row.version != version {
		return storage.ErrVersionConflict
	}
	row.state = state
	row.status = session.Status
	row.version++
	row.dueAt = copyTime(session.NextDue())
	return nil
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID := strings.TrimSpace(id)
	if _, ok := s.sessions[sessionID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// ListDueSessions lists active sessions whose trigger time has passed.
func (s *Store) ListDueSessions(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	type due struct {
		id string
		at time.Time
	}
	s.mu.RLock()
	var dues []due
	for id, row := range s.sessions {
		if row.status != domain.SessionStatusActive || row.dueAt == nil {
			continue
		}
		if row.dueAt.After(now) {
			continue
		}
		dues = append(dues, due{id: id, at: *row.dueAt})
	}
	s.mu.RUnlock()

	sort.Slice(dues, func(i, j int) bool { return dues[i].at.Before(dues[j].at) })
	if len(dues) > limit {
		dues = dues[:limit]
	}
	ids := make([]string, len(dues))
	for i, d := range dues {
		ids[i] = d.id
	}
	return ids, nil
}

// AppendTelemetryEvent records one lifecycle event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sessionID := strings.TrimSpace(event.SessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(event.Type) == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], event)
	return nil
}

// ListTelemetryEvents returns a session's events, oldest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, sessionID string, limit int) ([]storage.TelemetryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[strings.TrimSpace(sessionID)]
	if len(events) > limit {
		events = events[:limit]
	}
	return append([]storage.TelemetryEvent(nil), events...), nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	value := *t
	return &value
}

var _ storage.SessionStore = (*Store)(nil)
var _ storage.TelemetryStore = (*Store)(nil)

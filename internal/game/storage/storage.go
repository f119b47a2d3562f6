// Package storage defines the persistence contracts for game sessions and
// telemetry. Implementations live in the sqlite and memory subpackages.
package storage

import (
	"context"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/errors"
	"github.com/RobGibbens/CardGames-sub000/internal/game/domain"
)

// Sentinel errors shared by every implementation.
var (
	ErrNotFound        = errors.New(errors.CodeNotFound, "session not found")
	ErrVersionConflict = errors.New(errors.CodeVersionConflict, "session was modified concurrently")
)

// SessionRecord pairs a session snapshot with its optimistic version.
type SessionRecord struct {
	Session domain.Session
	Version int64
}

// SessionStore persists sessions with optimistic concurrency. PutSession
// succeeds only when the caller holds the current version; a mismatch
// returns ErrVersionConflict and the caller reloads and reapplies.
type SessionStore interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, id string) (SessionRecord, error)
	PutSession(ctx context.Context, session domain.Session, version int64) error
	DeleteSession(ctx context.Context, id string) error
	// ListDueSessions returns ids of active sessions whose next trigger
	// time is at or before now, earliest first.
	ListDueSessions(ctx context.Context, now time.Time, limit int) ([]string, error)
	Close() error
}

// TelemetryEvent is one recorded lifecycle event.
type TelemetryEvent struct {
	SessionID  string
	HandNumber int
	Type       string
	Payload    string
	CreatedAt  time.Time
}

// TelemetryStore appends lifecycle events for later inspection.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
	ListTelemetryEvents(ctx context.Context, sessionID string, limit int) ([]TelemetryEvent, error)
}

// Package sqlite provides a SQLite-backed session storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/game/domain"
	"github.com/RobGibbens/CardGames-sub000/internal/game/storage"
	"github.com/RobGibbens/CardGames-sub000/internal/game/storage/sqlite/migrations"
	sqlitemigrate "github.com/RobGibbens/CardGames-sub000/internal/platform/storage/sqlitemigrate"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists session and telemetry state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite game store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateSession inserts a new session at version 1.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	now := time.Now().UTC()

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (
		   id, variant_code, status, state, version, due_at_ms,
		   created_at_ms, updated_at_ms
		 ) VALUES (?, ?, ?, ?, 1, ?, ?, ?)`,
		sessionID,
		session.VariantCode,
		int(session.Status),
		state,
		dueMillis(&session),
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("session %s already exists", sessionID)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession loads a session snapshot with its current version.
func (s *Store) GetSession(ctx context.Context, id string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionRecord{}, fmt.Errorf("storage is not configured")
	}

	var (
		state   []byte
		version int64
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT state, version FROM sessions WHERE id = ?`,
		strings.TrimSpace(id),
	).Scan(&state, &version)
	if stderrors.Is(err, sql.ErrNoRows) {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.SessionRecord{}, fmt.Errorf("select session: %w", err)
	}

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
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions
		   SET status = ?, state = ?, version = version + 1,
		       due_at_ms = ?, updated_at_ms = ?
		 WHERE id = ? AND version = ?`,
		int(session.Status),
		state,
		dueMillis(&session),
		toMillis(time.Now()),
		session.ID,
		version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows: %w", err)
	}
	if affected == 0 {
		// Distinguish a lost race from a missing row.
		var exists int
		err := s.sqlDB.QueryRowContext(ctx,
			`SELECT 1 FROM sessions WHERE id = ?`, session.ID).Scan(&exists)
		if stderrors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check session: %w", err)
		}
		return storage.ErrVersionConflict
	}
	return nil
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListDueSessions lists active sessions whose trigger time has passed.
func (s *Store) ListDueSessions(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id FROM sessions
		 WHERE status = ? AND due_at_ms IS NOT NULL AND due_at_ms <= ?
		 ORDER BY due_at_ms ASC
		 LIMIT ?`,
		int(domain.SessionStatusActive),
		toMillis(now),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select due sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due sessions: %w", err)
	}
	return ids, nil
}

// AppendTelemetryEvent records one lifecycle event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID := strings.TrimSpace(event.SessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	eventType := strings.TrimSpace(event.Type)
	if eventType == "" {
		return fmt.Errorf("event type is required")
	}
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (
		   session_id, hand_number, event_type, payload, created_at_ms
		 ) VALUES (?, ?, ?, ?, ?)`,
		sessionID,
		event.HandNumber,
		eventType,
		event.Payload,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns a session's events, oldest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, sessionID string, limit int) ([]storage.TelemetryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT session_id, hand_number, event_type, payload, created_at_ms
		 FROM telemetry_events
		 WHERE session_id = ?
		 ORDER BY id ASC
		 LIMIT ?`,
		strings.TrimSpace(sessionID),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select telemetry events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []storage.TelemetryEvent
	for rows.Next() {
		var (
			event     storage.TelemetryEvent
			createdMs int64
		)
		if err := rows.Scan(&event.SessionID, &event.HandNumber, &event.Type, &event.Payload, &createdMs); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		event.CreatedAt = time.UnixMilli(createdMs).UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry events: %w", err)
	}
	return events, nil
}

// dueMillis converts a session's earliest trigger into a nullable column.
func dueMillis(session *domain.Session) any {
	due := session.NextDue()
	if due == nil {
		return nil
	}
	return toMillis(*due)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if stderrors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.SessionStore = (*Store)(nil)
var _ storage.TelemetryStore = (*Store)(nil)

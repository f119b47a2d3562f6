// Package telemetry records hand lifecycle events through the telemetry
// store for later inspection.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/game/storage"
)

// Lifecycle event types. Events represent facts that have occurred, not
// commands.
const (
	TypeSessionCreated = "session.created"
	TypeSessionEnded   = "session.ended"
	TypeHandStarted    = "hand.started"
	TypeHandCompleted  = "hand.completed"
	TypeActionApplied  = "action.applied"
	TypeDecisionMade   = "decision.made"
	TypeTimerFired     = "timer.fired"
)

// Emitter records lifecycle events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records an event with a JSON payload built from fields. It is a
// no-op when the store is nil, and emission failures never fail the
// calling operation.
func (e *Emitter) Emit(ctx context.Context, sessionID string, handNumber int, eventType string, fields map[string]any) error {
	if e == nil || e.store == nil {
		return nil
	}
	payload := "{}"
	if len(fields) > 0 {
		encoded, err := json.Marshal(fields)
		if err == nil {
			payload = string(encoded)
		}
	}
	now := time.Now
	if e.clock != nil {
		now = e.clock
	}
	return e.store.AppendTelemetryEvent(ctx, storage.TelemetryEvent{
		SessionID:  sessionID,
		HandNumber: handNumber,
		Type:       eventType,
		Payload:    payload,
		CreatedAt:  now().UTC(),
	})
}

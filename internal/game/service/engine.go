// Package service is the engine's command surface: every inbound mutation
// of a session goes through it. Commands serialize per session through a
// lock pool, save with optimistic concurrency, and broadcast state deltas
// after each commit.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/RobGibbens/CardGames-sub000/internal/broadcast"
	"github.com/RobGibbens/CardGames-sub000/internal/errors"
	"github.com/RobGibbens/CardGames-sub000/internal/game/domain"
	"github.com/RobGibbens/CardGames-sub000/internal/game/storage"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/evaluator"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/variant"
	"github.com/RobGibbens/CardGames-sub000/internal/telemetry"
)

// saveRetries bounds the reload-and-reapply attempts after a lost
// optimistic-concurrency race.
const saveRetries = 3

// Options configures an Engine.
type Options struct {
	Store       storage.SessionStore
	Registry    *variant.Registry
	Evaluator   evaluator.Evaluator
	Broadcaster broadcast.Broadcaster
	Emitter     *telemetry.Emitter
	// Machine tunes hand timing; see domain.Config.
	Machine domain.Config
	Logf    func(format string, args ...any)
}

// Engine coordinates session mutations. One machine per registered variant
// is built up front, so an unknown variant code fails at construction, not
// mid-hand.
type Engine struct {
	store       storage.SessionStore
	registry    *variant.Registry
	broadcaster broadcast.Broadcaster
	emitter     *telemetry.Emitter
	machines    map[string]*domain.Machine
	locks       *lockPool
	tracer      trace.Tracer
	logf        func(format string, args ...any)
}

// NewEngine builds the command surface.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, stderrors.New("session store is required")
	}
	if opts.Registry == nil {
		return nil, stderrors.New("variant registry is required")
	}
	if opts.Evaluator == nil {
		return nil, errors.New(errors.CodeMissingEvaluator, "hand evaluator is required")
	}

	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}
	cfg := opts.Machine
	if cfg.Logf == nil {
		cfg.Logf = logf
	}

	machines := make(map[string]*domain.Machine)
	for _, code := range opts.Registry.Codes() {
		flow, err := opts.Registry.Get(code)
		if err != nil {
			return nil, err
		}
		machine, err := domain.NewMachine(flow, opts.Evaluator, cfg)
		if err != nil {
			return nil, err
		}
		machines[code] = machine
	}

	broadcaster := opts.Broadcaster
	if broadcaster == nil {
		broadcaster = &broadcast.LogBroadcaster{Logf: logf}
	}

	return &Engine{
		store:       opts.Store,
		registry:    opts.Registry,
		broadcaster: broadcaster,
		emitter:     opts.Emitter,
		machines:    machines,
		locks:       newLockPool(),
		tracer:      otel.Tracer("cardgames/engine"),
		logf:        logf,
	}, nil
}

// CreateSession creates and persists a new session for a registered
// variant. The variant code is resolved against the registry here, so a
// session can never exist with an unknown code.
func (e *Engine) CreateSession(ctx context.Context, input domain.CreateSessionInput) (domain.Session, error) {
	ctx, span := e.tracer.Start(ctx, "engine.create_session")
	defer span.End()

	if _, err := e.registry.Get(strings.TrimSpace(input.VariantCode)); err != nil {
		return domain.Session{}, err
	}
	session, err := domain.CreateSession(input, nil, nil)
	if err != nil {
		return domain.Session{}, err
	}
	if err := e.store.CreateSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	e.emit(ctx, &session, telemetry.TypeSessionCreated, map[string]any{
		"variant": session.VariantCode,
		"seats":   len(session.Seats),
	})
	return session, nil
}

// GetSession loads a session snapshot.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	record, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	return record.Session, nil
}

// StartHand begins the session's next hand.
func (e *Engine) StartHand(ctx context.Context, sessionID string) (domain.Session, error) {
	return e.mutate(ctx, sessionID, "engine.start_hand", func(m *domain.Machine, s *domain.Session) error {
		return m.StartHand(s)
	}, func(ctx context.Context, s *domain.Session) {
		e.emit(ctx, s, telemetry.TypeHandStarted, map[string]any{"phase": string(s.Phase)})
	})
}

// SubmitAction applies a betting action for a seat.
func (e *Engine) SubmitAction(ctx context.Context, sessionID string, seat int, action domain.Action) (domain.Session, error) {
	return e.mutate(ctx, sessionID, "engine.submit_action", func(m *domain.Machine, s *domain.Session) error {
		return m.ApplyAction(s, seat, action)
	}, func(ctx context.Context, s *domain.Session) {
		e.emit(ctx, s, telemetry.TypeActionApplied, map[string]any{
			"seat":   seat,
			"action": string(action.Type),
			"amount": action.Amount,
			"phase":  string(s.Phase),
		})
	})
}

// SubmitSpecialDecision applies a special-phase decision for a seat.
func (e *Engine) SubmitSpecialDecision(ctx context.Context, sessionID string, seat int, decision domain.Decision) (domain.Session, error) {
	return e.mutate(ctx, sessionID, "engine.submit_decision", func(m *domain.Machine, s *domain.Session) error {
		return m.ApplyDecision(s, seat, decision)
	}, func(ctx context.Context, s *domain.Session) {
		e.emit(ctx, s, telemetry.TypeDecisionMade, map[string]any{
			"seat":  seat,
			"value": decision.Value,
			"phase": string(s.Phase),
		})
	})
}

// UseTimeBank extends the acting seat's turn timer.
func (e *Engine) UseTimeBank(ctx context.Context, sessionID string, seat int) (domain.Session, error) {
	return e.mutate(ctx, sessionID, "engine.use_time_bank", func(m *domain.Machine, s *domain.Session) error {
		return m.UseTimeBank(s, seat)
	}, nil)
}

// HandleDue fires a session's expired trigger. The scheduler calls it for
// every due session; a stale wakeup commits nothing visible but is safe.
func (e *Engine) HandleDue(ctx context.Context, sessionID string) (domain.Session, error) {
	return e.mutate(ctx, sessionID, "engine.handle_due", func(m *domain.Machine, s *domain.Session) error {
		return m.HandleDue(s)
	}, func(ctx context.Context, s *domain.Session) {
		e.emit(ctx, s, telemetry.TypeTimerFired, map[string]any{"phase": string(s.Phase)})
	})
}

// machineFor resolves the machine for a stored variant code; an unknown
// code is a hard failure.
func (e *Engine) machineFor(code string) (*domain.Machine, error) {
	machine, ok := e.machines[code]
	if !ok {
		return nil, errors.Newf(errors.CodeUnknownVariant, "no machine for variant %q", code)
	}
	return machine, nil
}

// mutate runs one serialized load-apply-save cycle for a session. A lost
// optimistic-concurrency race reloads and reapplies, bounded by
// saveRetries. After a successful commit the deltas are broadcast and the
// op's telemetry emitted.
func (e *Engine) mutate(ctx context.Context, sessionID string, op string,
	apply func(m *domain.Machine, s *domain.Session) error,
	after func(ctx context.Context, s *domain.Session)) (domain.Session, error) {

	ctx, span := e.tracer.Start(ctx, op)
	defer span.End()

	release := e.locks.acquire(sessionID)
	defer release()

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		record, err := e.store.GetSession(ctx, sessionID)
		if err != nil {
			return domain.Session{}, err
		}
		machine, err := e.machineFor(record.Session.VariantCode)
		if err != nil {
			return domain.Session{}, err
		}

		// Snapshot before applying: the copied struct still shares its
		// seat slice and ledger with the working session.
		before, err := json.Marshal(record.Session)
		if err != nil {
			return domain.Session{}, fmt.Errorf("snapshot session %s: %w", sessionID, err)
		}

		session := record.Session
		endedBefore := session.Status == domain.SessionStatusEnded
		inHandBefore := session.HandNumber > 0 && !session.BetweenHands()
		if err := apply(machine, &session); err != nil {
			return domain.Session{}, err
		}

		if err := e.store.PutSession(ctx, session, record.Version); err != nil {
			if stderrors.Is(err, storage.ErrVersionConflict) {
				lastErr = err
				e.logf("save conflict session_id=%s op=%s attempt=%d", sessionID, op, attempt+1)
				continue
			}
			return domain.Session{}, err
		}

		// No-op commits (replayed actions, stale timer wakeups) stay
		// silent: nothing to broadcast, no lifecycle events.
		snapshot, err := json.Marshal(session)
		if err != nil {
			return domain.Session{}, fmt.Errorf("snapshot session %s: %w", sessionID, err)
		}
		if bytes.Equal(before, snapshot) {
			return session, nil
		}

		e.broadcaster.Broadcast(ctx, broadcast.BuildPublicState(&session), broadcast.BuildPrivateStates(&session))
		if after != nil {
			after(ctx, &session)
		}
		if inHandBefore && (session.BetweenHands() || session.Status == domain.SessionStatusEnded) {
			e.emit(ctx, &session, telemetry.TypeHandCompleted, map[string]any{
				"hand":     session.HandNumber,
				"winnings": session.LastWinnings,
			})
		}
		if !endedBefore && session.Status == domain.SessionStatusEnded {
			e.emit(ctx, &session, telemetry.TypeSessionEnded, map[string]any{"hands": session.HandNumber})
		}
		return session, nil
	}
	return domain.Session{}, errors.Wrap(errors.CodeVersionConflict, "session save retries exhausted", lastErr)
}

// emit records telemetry without ever failing the calling operation.
func (e *Engine) emit(ctx context.Context, s *domain.Session, eventType string, fields map[string]any) {
	if err := e.emitter.Emit(ctx, s.ID, s.HandNumber, eventType, fields); err != nil {
		e.logf("telemetry emit failed session_id=%s type=%s error=%v", s.ID, eventType, err)
	}
}

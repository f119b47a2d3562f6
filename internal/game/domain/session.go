// Package domain holds the poker session state machine: the session and
// seat model plus the generic hand machine that drives every variant
// through deal, betting, special phases, showdown, and payout.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/errors"
	"github.com/RobGibbens/CardGames-sub000/internal/id"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/pot"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/variant"
)

// SessionStatus describes the lifecycle state of a session.
type SessionStatus int

const (
	// SessionStatusUnspecified represents an invalid session status value.
	SessionStatusUnspecified SessionStatus = iota
	// SessionStatusActive indicates the table is playing hands.
	SessionStatusActive
	// SessionStatusEnded indicates the table ended for good (fewer than
	// the variant's minimum eligible players remained).
	SessionStatusEnded
)

// Seat is one chair at the table. Hand-scoped fields reset at hand start;
// the chip stack persists across hands.
type Seat struct {
	Index    int    `json:"index"`
	PlayerID string `json:"player_id"`
	Stack    int64  `json:"stack"`

	InHand     bool `json:"in_hand"`
	Folded     bool `json:"folded"`
	AllIn      bool `json:"all_in"`
	SittingOut bool `json:"sitting_out"`

	Cards []card.Card `json:"cards,omitempty"`

	// Decision fields for variant special phases: stay/drop votes, the
	// buy-card choice, discard selections, pot-match acknowledgments.
	DecisionPending bool   `json:"decision_pending,omitempty"`
	Decision        string `json:"decision,omitempty"`
	LastDecisionID  string `json:"last_decision_id,omitempty"`
	MatchOwed       int64  `json:"match_owed,omitempty"`

	TimeBankUsed bool `json:"time_bank_used,omitempty"`
}

// ExposedCards returns the seat's face-up cards.
func (s *Seat) ExposedCards() []card.Card {
	var exposed []card.Card
	for _, c := range s.Cards {
		if c.FaceUp {
			exposed = append(exposed, c)
		}
	}
	return exposed
}

// Session is one table playing hands of a single variant. It is owned by
// the scheduler/machine pairing and mutated only while holding the
// session's serialization lock.
type Session struct {
	ID          string        `json:"id"`
	VariantCode string        `json:"variant_code"`
	Status      SessionStatus `json:"status"`

	Phase          variant.Phase `json:"phase"`
	HandNumber     int           `json:"hand_number"`
	DealerSeat     int           `json:"dealer_seat"`
	CurrentActor   int           `json:"current_actor"` // seat index, -1 when nobody is due
	PhaseEnteredAt time.Time     `json:"phase_entered_at"`
	HandStartedAt  time.Time     `json:"hand_started_at"`

	// Due triggers, scanned by the scheduler.
	ActorDeadline    *time.Time `json:"actor_deadline,omitempty"`
	NextHandAt       *time.Time `json:"next_hand_at,omitempty"`
	CoverageDeadline *time.Time `json:"coverage_deadline,omitempty"`

	Seats  []Seat         `json:"seats"`
	Deck   *card.Deck     `json:"deck,omitempty"`
	Ledger *pot.Ledger    `json:"ledger,omitempty"`
	Round  *betting.Round `json:"round,omitempty"`

	// CarryPot holds pot-match chips carried into the next hand.
	CarryPot int64 `json:"carry_pot,omitempty"`

	// LastActionID is the idempotency key of the most recently applied
	// action; a replay of the same key is a no-op.
	LastActionID string `json:"last_action_id,omitempty"`

	// LastWinnings and LastHandNotes describe the most recent payout for
	// broadcast purposes.
	LastWinnings  map[int]int64  `json:"last_winnings,omitempty"`
	LastHandNotes map[int]string `json:"last_hand_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Action is a discrete betting input. ID is an optional idempotency key
// supplied by the transport layer.
type Action struct {
	ID     string             `json:"id,omitempty"`
	Type   betting.ActionType `json:"type"`
	Amount int64              `json:"amount,omitempty"`
}

// Decision values for variant special phases.
const (
	DecisionStay        = "stay"
	DecisionDrop        = "drop"
	DecisionBuy         = "buy"
	DecisionPass        = "pass"
	DecisionAcknowledge = "acknowledge"
)

// Decision is a special-phase input: a stay/drop vote, a buy-card choice,
// a draw discard selection, or a pot-match acknowledgment.
type Decision struct {
	ID       string `json:"id,omitempty"`
	Value    string `json:"value,omitempty"`
	Discards []int  `json:"discards,omitempty"`
}

// SeatInput seeds one seat at session creation.
type SeatInput struct {
	PlayerID string
	Stack    int64
}

// CreateSessionInput describes a new table.
type CreateSessionInput struct {
	VariantCode string
	Seats       []SeatInput
}

// CreateSession creates a new active session with a generated ID. The
// variant code is not resolved here; the caller validates it against the
// registry before the session ever starts a hand.
func CreateSession(input CreateSessionInput, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	code := strings.TrimSpace(input.VariantCode)
	if code == "" {
		return Session{}, errors.New(errors.CodeUnknownVariant, "variant code is required")
	}
	if len(input.Seats) == 0 {
		return Session{}, errors.New(errors.CodeNotEnoughPlayers, "at least one seat is required")
	}

	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}

	seats := make([]Seat, len(input.Seats))
	for i, in := range input.Seats {
		if in.Stack < 0 {
			return Session{}, errors.Newf(errors.CodeIllegalAmount, "seat %d has negative stack", i)
		}
		seats[i] = Seat{Index: i, PlayerID: in.PlayerID, Stack: in.Stack}
	}

	createdAt := now().UTC()
	return Session{
		ID:           sessionID,
		VariantCode:  code,
		Status:       SessionStatusActive,
		CurrentActor: -1,
		DealerSeat:   len(seats) - 1, // first hand's button lands on seat 0's right
		Seats:        seats,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// NextDue returns the earliest pending trigger time (turn timer, next-hand
// pause, or coverage grace period), or nil when nothing is scheduled.
func (s *Session) NextDue() *time.Time {
	var due *time.Time
	for _, t := range []*time.Time{s.ActorDeadline, s.NextHandAt, s.CoverageDeadline} {
		if t == nil {
			continue
		}
		if due == nil || t.Before(*due) {
			due = t
		}
	}
	return due
}

// BetweenHands reports whether no hand is currently in flight.
func (s *Session) BetweenHands() bool {
	return s.Phase == "" || s.Phase == variant.PhaseComplete
}

// InHandSeats returns the indexes of seats dealt in and not folded.
func (s *Session) InHandSeats() []int {
	var seats []int
	for i := range s.Seats {
		if s.Seats[i].InHand && !s.Seats[i].Folded {
			seats = append(seats, i)
		}
	}
	return seats
}

// TotalChips sums every stack plus all chips in the current hand's ledger
// and the carried pot. The chip-conservation property holds this constant
// across any sequence of valid in-hand actions.
func (s *Session) TotalChips() int64 {
	total := s.CarryPot
	for i := range s.Seats {
		total += s.Seats[i].Stack
	}
	if s.Ledger != nil {
		total += s.Ledger.Outstanding()
	}
	return total
}

// view projects the session into the read-only state variant flows see.
func (s *Session) view() variant.View {
	v := variant.View{
		HandNumber: s.HandNumber,
		DealerSeat: s.DealerSeat,
		SeatCount:  len(s.Seats),
		InHand:     s.InHandSeats(),
		AllDecided: true,
		Exposed:    make(map[int][]card.Card, len(s.Seats)),
		Stack:      make(map[int]int64, len(s.Seats)),
	}
	for i := range s.Seats {
		seat := &s.Seats[i]
		v.Stack[i] = seat.Stack
		if exposed := seat.ExposedCards(); len(exposed) > 0 {
			v.Exposed[i] = exposed
		}
		if seat.InHand && !seat.Folded && seat.DecisionPending {
			v.AllDecided = false
		}
		if seat.MatchOwed > 0 {
			v.PendingMatches = true
		}
	}
	return v
}

// Package broadcast builds the state deltas sent to players after each
// committed mutation and defines the delivery seam. The public delta never
// contains another seat's hidden cards; private deltas carry a seat's own
// cards and available actions.
package broadcast

import (
	"context"
	"log"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/game/domain"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/variant"
)

// PublicSeat is the table-visible view of one seat.
type PublicSeat struct {
	Index           int         `json:"index"`
	PlayerID        string      `json:"player_id"`
	Stack           int64       `json:"stack"`
	InHand          bool        `json:"in_hand"`
	Folded          bool        `json:"folded"`
	AllIn           bool        `json:"all_in"`
	SittingOut      bool        `json:"sitting_out"`
	CardCount       int         `json:"card_count"`
	ExposedCards    []card.Card `json:"exposed_cards,omitempty"`
	DecisionPending bool        `json:"decision_pending,omitempty"`
	MatchOwed       int64       `json:"match_owed,omitempty"`
}

// PublicState is the delta every subscriber may see.
type PublicState struct {
	SessionID     string               `json:"session_id"`
	VariantCode   string               `json:"variant_code"`
	Status        domain.SessionStatus `json:"status"`
	Phase         variant.Phase        `json:"phase"`
	HandNumber    int                  `json:"hand_number"`
	DealerSeat    int                  `json:"dealer_seat"`
	CurrentActor  int                  `json:"current_actor"`
	ActorDeadline *time.Time           `json:"actor_deadline,omitempty"`
	NextHandAt    *time.Time           `json:"next_hand_at,omitempty"`
	Pot           int64                `json:"pot"`
	CarryPot      int64                `json:"carry_pot,omitempty"`
	Seats         []PublicSeat         `json:"seats"`
	LastWinnings  map[int]int64        `json:"last_winnings,omitempty"`
	LastHandNotes map[int]string       `json:"last_hand_notes,omitempty"`
}

// PrivateState is the delta only its seat may see.
type PrivateState struct {
	SessionID        string               `json:"session_id"`
	Seat             int                  `json:"seat"`
	Cards            []card.Card          `json:"cards,omitempty"`
	AvailableActions []betting.ActionType `json:"available_actions,omitempty"`
}

// Broadcaster delivers deltas after a committed mutation. Implementations
// must not block the command path: deliver asynchronously or drop.
type Broadcaster interface {
	Broadcast(ctx context.Context, public PublicState, private map[int]PrivateState)
}

// BuildPublicState projects a session into its table-visible delta.
func BuildPublicState(s *domain.Session) PublicState {
	state := PublicState{
		SessionID:     s.ID,
		VariantCode:   s.VariantCode,
		Status:        s.Status,
		Phase:         s.Phase,
		HandNumber:    s.HandNumber,
		DealerSeat:    s.DealerSeat,
		CurrentActor:  s.CurrentActor,
		ActorDeadline: s.ActorDeadline,
		NextHandAt:    s.NextHandAt,
		CarryPot:      s.CarryPot,
		LastWinnings:  s.LastWinnings,
		LastHandNotes: s.LastHandNotes,
	}
	if s.Ledger != nil {
		state.Pot = s.Ledger.Outstanding()
	}
	state.Seats = make([]PublicSeat, len(s.Seats))
	for i := range s.Seats {
		seat := &s.Seats[i]
		state.Seats[i] = PublicSeat{
			Index:           seat.Index,
			PlayerID:        seat.PlayerID,
			Stack:           seat.Stack,
			InHand:          seat.InHand,
			Folded:          seat.Folded,
			AllIn:           seat.AllIn,
			SittingOut:      seat.SittingOut,
			CardCount:       len(seat.Cards),
			ExposedCards:    seat.ExposedCards(),
			DecisionPending: seat.DecisionPending,
			MatchOwed:       seat.MatchOwed,
		}
	}
	return state
}

// BuildPrivateState projects one seat's own view, including the actions it
// could take right now.
func BuildPrivateState(s *domain.Session, seatIdx int) PrivateState {
	state := PrivateState{SessionID: s.ID, Seat: seatIdx}
	if seatIdx < 0 || seatIdx >= len(s.Seats) {
		return state
	}
	seat := &s.Seats[seatIdx]
	state.Cards = append([]card.Card(nil), seat.Cards...)
	state.AvailableActions = availableActions(s, seatIdx)
	return state
}

// BuildPrivateStates projects every in-hand seat's private view.
func BuildPrivateStates(s *domain.Session) map[int]PrivateState {
	states := make(map[int]PrivateState, len(s.Seats))
	for i := range s.Seats {
		if s.Seats[i].InHand {
			states[i] = BuildPrivateState(s, i)
		}
	}
	return states
}

// availableActions lists the betting actions legal for the seat if it is
// the current actor.
func availableActions(s *domain.Session, seatIdx int) []betting.ActionType {
	r := s.Round
	if r == nil || r.IsComplete() || r.ActorSeat() != seatIdx {
		return nil
	}
	seat := &s.Seats[seatIdx]

	actions := []betting.ActionType{betting.Fold}
	if r.Bets[seatIdx] == r.CurrentBet {
		actions = append(actions, betting.Check)
	} else {
		actions = append(actions, betting.Call)
	}
	if r.CurrentBet == 0 {
		actions = append(actions, betting.Bet)
	} else if !r.Config.FixedLimit || r.Config.MaxRaises == 0 || r.RaiseCount < r.Config.MaxRaises {
		actions = append(actions, betting.Raise)
	}
	if seat.Stack > 0 {
		actions = append(actions, betting.AllIn)
	}
	return actions
}

// LogBroadcaster writes delta summaries to the process log. It is the
// default seam until a real transport subscribes.
type LogBroadcaster struct {
	Logf func(format string, args ...any)
}

// Broadcast logs a one-line summary of the public delta.
func (b *LogBroadcaster) Broadcast(_ context.Context, public PublicState, private map[int]PrivateState) {
	logf := log.Printf
	if b != nil && b.Logf != nil {
		logf = b.Logf
	}
	logf("broadcast session_id=%s hand=%d phase=%s actor=%d pot=%d private_deltas=%d",
		public.SessionID, public.HandNumber, public.Phase, public.CurrentActor, public.Pot, len(private))
}

// NopBroadcaster discards every delta.
type NopBroadcaster struct{}

// Broadcast does nothing.
func (NopBroadcaster) Broadcast(context.Context, PublicState, map[int]PrivateState) {}

// Package betting enforces turn order, legal actions, and completion
// detection for one betting segment of a hand.
package betting

import (
	"github.com/RobGibbens/CardGames-sub000/internal/errors"
)

// ActionType is a discrete betting action.
type ActionType string

const (
	Fold  ActionType = "fold"
	Check ActionType = "check"
	Call  ActionType = "call"
	Bet   ActionType = "bet"
	Raise ActionType = "raise"
	AllIn ActionType = "all_in"
)

// Config is the betting structure for one round, supplied by the variant.
type Config struct {
	// MinBet is the minimum opening bet.
	MinBet int64 `json:"min_bet"`
	// FixedLimit forces bets and raises to exactly BetSize.
	FixedLimit bool  `json:"fixed_limit"`
	BetSize    int64 `json:"bet_size,omitempty"`
	// MaxRaises caps raises per round in fixed-limit games; 0 = unlimited.
	MaxRaises int `json:"max_raises,omitempty"`
}

// Round is the state of a single betting segment. It is serialized as part
// of the session record between actions.
type Round struct {
	Config Config `json:"config"`

	// Order lists the seats live at round start, in action order.
	Order []int `json:"order"`
	// Turn indexes Order at the seat due to act.
	Turn int `json:"turn"`

	CurrentBet    int64 `json:"current_bet"`
	LastRaise     int64 `json:"last_raise"`
	LastAggressor int   `json:"last_aggressor"` // seat, -1 when none
	RaiseCount    int   `json:"raise_count"`

	Bets   map[int]int64 `json:"bets"`
	Acted  map[int]bool  `json:"acted"`
	Folded map[int]bool  `json:"folded"`
	AllIns map[int]bool  `json:"all_ins"`
}

// Result describes the state change an accepted action produces. The caller
// applies Debit to the seat's stack and feeds it to the pot ledger.
type Result struct {
	Debit  int64
	Folded bool
	AllIn  bool
}

// NewRound starts a betting segment for the given live seats. Order must
// already start with the variant's first actor.
func NewRound(order []int, cfg Config) *Round {
	return &Round{
		Config:        cfg,
		Order:         append([]int(nil), order...),
		LastAggressor: -1,
		Bets:          make(map[int]int64),
		Acted:         make(map[int]bool),
		Folded:        make(map[int]bool),
		AllIns:        make(map[int]bool),
	}
}

// ActorSeat returns the seat due to act, or -1 when the round is complete.
func (r *Round) ActorSeat() int {
	if r.IsComplete() {
		return -1
	}
	return r.Order[r.Turn]
}

// live reports whether a seat still has actions left this round.
func (r *Round) live(seat int) bool {
	return !r.Folded[seat] && !r.AllIns[seat]
}

// advance moves the turn to the next seat that can still act.
func (r *Round) advance() {
	for i := 0; i < len(r.Order); i++ {
		r.Turn = (r.Turn + 1) % len(r.Order)
		if r.live(r.Order[r.Turn]) {
			return
		}
	}
}

// IsComplete reports whether every live seat has matched the current bet
// and acted since the last raise.
func (r *Round) IsComplete() bool {
	for _, seat := range r.Order {
		if !r.live(seat) {
			continue
		}
		if !r.Acted[seat] || r.Bets[seat] != r.CurrentBet {
			return false
		}
	}
	return true
}

// LiveSeats returns the seats that have neither folded nor gone all-in.
func (r *Round) LiveSeats() []int {
	var live []int
	for _, seat := range r.Order {
		if r.live(seat) {
			live = append(live, seat)
		}
	}
	return live
}

// DefaultAction returns the action a timed-out seat is assigned: check when
// legal, otherwise fold.
func (r *Round) DefaultAction(seat int) ActionType {
	if r.Bets[seat] == r.CurrentBet {
		return Check
	}
	return Fold
}

// ProcessAction validates and applies one action for the seat whose turn it
// is. amount is the raise-to / bet total for Bet and Raise; other actions
// ignore it. stack is the seat's remaining chips. On error the round is
// unchanged.
func (r *Round) ProcessAction(seat int, action ActionType, amount, stack int64) (Result, error) {
	if r.IsComplete() || r.Order[r.Turn] != seat {
		return Result{}, errors.Newf(errors.CodeNotYourTurn, "seat %d acted out of turn", seat)
	}

	switch action {
	case Fold:
		r.Folded[seat] = true
		r.Acted[seat] = true
		r.advanceFrom(seat)
		return Result{Folded: true}, nil

	case Check:
		if r.Bets[seat] != r.CurrentBet {
			return Result{}, errors.Newf(errors.CodeIllegalAction, "seat %d cannot check facing a bet", seat)
		}
		r.Acted[seat] = true
		r.advanceFrom(seat)
		return Result{}, nil

	case Call:
		owed := r.CurrentBet - r.Bets[seat]
		if owed <= 0 {
			return Result{}, errors.Newf(errors.CodeIllegalAction, "seat %d has nothing to call", seat)
		}
		debit := owed
		allIn := false
		if debit >= stack {
			debit = stack
			allIn = true
		}
		r.Bets[seat] += debit
		r.Acted[seat] = true
		if allIn {
			r.AllIns[seat] = true
		}
		r.advanceFrom(seat)
		return Result{Debit: debit, AllIn: allIn}, nil

	case Bet:
		if r.CurrentBet != 0 {
			return Result{}, errors.Newf(errors.CodeIllegalAction, "seat %d cannot bet facing a bet", seat)
		}
		return r.applyAggression(seat, amount, stack)

	case Raise:
		if r.CurrentBet == 0 {
			return Result{}, errors.Newf(errors.CodeIllegalAction, "seat %d cannot raise with no bet open", seat)
		}
		return r.applyAggression(seat, amount, stack)

	case AllIn:
		return r.applyAllIn(seat, stack)

	default:
		return Result{}, errors.Newf(errors.CodeIllegalAction, "unknown action %q", action)
	}
}

// applyAggression handles Bet and Raise with amount as the bet-to total.
func (r *Round) applyAggression(seat int, amount, stack int64) (Result, error) {
	debit := amount - r.Bets[seat]
	if debit <= 0 {
		return Result{}, errors.Newf(errors.CodeIllegalAmount, "seat %d bet to %d is not an increase", seat, amount)
	}
	if debit > stack {
		return Result{}, errors.Newf(errors.CodeInsufficientChips, "seat %d bet to %d exceeds stack", seat, amount)
	}

	if r.Config.FixedLimit {
		size := r.Config.BetSize
		if size == 0 {
			size = r.Config.MinBet
		}
		if amount != r.CurrentBet+size {
			return Result{}, errors.Newf(errors.CodeIllegalAmount,
				"fixed limit requires bet to %d, got %d", r.CurrentBet+size, amount)
		}
		if r.CurrentBet > 0 && r.Config.MaxRaises > 0 && r.RaiseCount >= r.Config.MaxRaises {
			return Result{}, errors.Newf(errors.CodeIllegalAction, "raise cap of %d reached", r.Config.MaxRaises)
		}
	} else {
		if r.CurrentBet == 0 && amount < r.Config.MinBet {
			return Result{}, errors.Newf(errors.CodeIllegalAmount, "bet %d below minimum %d", amount, r.Config.MinBet)
		}
		minRaiseTo := r.CurrentBet + r.LastRaise
		if r.LastRaise == 0 {
			minRaiseTo = r.CurrentBet + r.Config.MinBet
		}
		if r.CurrentBet > 0 && amount < minRaiseTo {
			return Result{}, errors.Newf(errors.CodeIllegalAmount, "raise to %d below minimum %d", amount, minRaiseTo)
		}
	}

	allIn := debit == stack
	r.recordAggression(seat, amount)
	if allIn {
		r.AllIns[seat] = true
	}
	r.advanceFrom(seat)
	return Result{Debit: debit, AllIn: allIn}, nil
}

// applyAllIn shoves the seat's whole stack. Above the current bet it counts
// as aggression; an all-in below a full raise does not reopen the action.
func (r *Round) applyAllIn(seat int, stack int64) (Result, error) {
	if stack <= 0 {
		return Result{}, errors.Newf(errors.CodeInsufficientChips, "seat %d has no chips", seat)
	}
	total := r.Bets[seat] + stack
	if total > r.CurrentBet {
		fullRaise := total >= r.CurrentBet+r.LastRaise && r.LastRaise > 0 ||
			r.LastRaise == 0 && total >= r.CurrentBet+r.Config.MinBet
		if fullRaise {
			r.recordAggression(seat, total)
		} else {
			// Short all-in: raises the price to call without reopening.
			r.Bets[seat] = total
			if total > r.CurrentBet {
				r.CurrentBet = total
			}
			r.Acted[seat] = true
		}
	} else {
		r.Bets[seat] = total
		r.Acted[seat] = true
	}
	r.AllIns[seat] = true
	r.advanceFrom(seat)
	return Result{Debit: stack, AllIn: true}, nil
}

// recordAggression sets the new bet level and reopens action for the table.
func (r *Round) recordAggression(seat int, amount int64) {
	raiseBy := amount - r.CurrentBet
	if r.CurrentBet > 0 {
		r.RaiseCount++
	}
	r.LastRaise = raiseBy
	r.CurrentBet = amount
	r.LastAggressor = seat
	r.Bets[seat] = amount
	r.Acted = map[int]bool{seat: true}
}

// PostForced records a forced opening bet (stud bring-in) for a seat. The
// seat is treated as having acted; everyone else must respond.
func (r *Round) PostForced(seat int, amount, stack int64) Result {
	debit := amount
	allIn := false
	if debit >= stack {
		debit = stack
		allIn = true
		r.AllIns[seat] = true
	}
	r.Bets[seat] += debit
	if r.Bets[seat] > r.CurrentBet {
		r.CurrentBet = r.Bets[seat]
		r.LastRaise = r.Bets[seat]
	}
	r.Acted[seat] = true
	if r.Order[r.Turn] == seat {
		r.advanceFrom(seat)
	}
	return Result{Debit: debit, AllIn: allIn}
}

// advanceFrom moves the turn forward unless the round has ended.
func (r *Round) advanceFrom(seat int) {
	if r.IsComplete() {
		return
	}
	r.advance()
}

// Package variant defines the per-rule-set strategy that plugs a poker
// variant into the generic hand machine: its phase graph, dealing plan,
// betting structure, and special-phase contract.
//
// Flows are pure: NextPhase and FirstActor compute over a read-only View
// of the session and never mutate state. All phase logic lives behind this
// package and the hand machine; no other component compares phase strings.
package variant

import (
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

// Phase is a node in a variant's phase graph.
type Phase string

// Phases shared by every variant graph.
const (
	PhaseAntes    Phase = "collecting_antes"
	PhaseShowdown Phase = "showdown"
	PhaseComplete Phase = "complete"
)

// Category classifies a phase for the machine and the scheduler: only
// Betting phases may receive an automatic default action on timeout.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryBetting
	CategoryDealing
	CategoryDecision
	CategorySpecial
	CategoryResolution
)

// DealingPlan describes what to deal on entering a phase.
type DealingPlan struct {
	// HoleCards per active seat.
	HoleCards int
	// FaceUp exposes the dealt hole cards to the table.
	FaceUp bool
	// LastFaceUp exposes only the final card of a mixed street (the stud
	// door card).
	LastFaceUp bool
}

// ChipCheckPolicy gates hand start on every active seat covering the
// forced contribution. When a seat cannot cover it, the hand pauses for
// GracePeriod before the shortfall is handled by sitting the seat out.
type ChipCheckPolicy struct {
	Required    bool
	GracePeriod time.Duration
}

// View is the read-only session state a flow computes over.
type View struct {
	HandNumber int
	DealerSeat int
	SeatCount  int
	// InHand lists seats dealt into the hand that have not folded.
	InHand []int
	// AllDecided reports whether every pending seat has submitted its
	// decision for the current Decision or Special phase.
	AllDecided bool
	// PendingMatches reports whether any seat still owes a pot match
	// after a pot-match showdown.
	PendingMatches bool
	// Exposed holds each seat's face-up cards (street games).
	Exposed map[int][]card.Card
	// Stack is each seat's chip stack.
	Stack map[int]int64
}

// Flow is the strategy contract one rule-set implements.
type Flow interface {
	// Code is the registry key for this variant.
	Code() string
	// Name is the human-readable variant name.
	Name() string

	MinPlayers() int
	// Ante is the forced contribution collected from every seat at hand
	// start.
	Ante() int64
	// WildRanks lists ranks that play as wild cards, if any.
	WildRanks() []card.Rank
	// MinShowdownCards is the minimum card count a non-folded seat needs
	// to be ranked at showdown.
	MinShowdownCards() int

	InitialPhase() Phase
	// NextPhase returns the phase that follows current. ok=false means
	// the machine must await an external trigger (player action or
	// decision) before the phase can advance.
	NextPhase(v View, current Phase) (next Phase, ok bool)
	Category(p Phase) Category
	DealingPlan(p Phase) DealingPlan
	// SpecialPhases lists phases with a distinct action contract instead
	// of ordinary betting.
	SpecialPhases() []Phase
	// FirstActor picks the seat that opens a betting phase.
	FirstActor(v View, p Phase) int
	// Betting is the betting structure for a betting phase.
	Betting(p Phase) betting.Config
	ChipCheck() ChipCheckPolicy
}

// BringInFlow is implemented by street variants with a forced opening bet.
type BringInFlow interface {
	Flow
	// BringIn returns the forced opening amount for a betting phase, or 0.
	BringIn(p Phase) int64
}

// BuyCardFlow is implemented by variants that sell an extra card.
type BuyCardFlow interface {
	Flow
	// BuyPrice is the cost of the optional card, paid into the pot.
	BuyPrice() int64
	// BuyPhase is the Decision phase offering the card.
	BuyPhase() Phase
}

// PotMatchFlow is implemented by variants where losing stayers match the pot.
type PotMatchFlow interface {
	Flow
	// DeclarationPhase is the simultaneous stay/drop Decision phase.
	DeclarationPhase() Phase
	// MatchPhase is the Special phase where losers acknowledge the match.
	MatchPhase() Phase
}

// seatAfter returns the first seat of candidates in clockwise order
// starting immediately after the marker seat.
func seatAfter(marker, seatCount int, candidates []int) int {
	if len(candidates) == 0 {
		return -1
	}
	best := candidates[0]
	bestPos := seatCount + 1
	for _, seat := range candidates {
		pos := ((seat - marker - 1) + seatCount) % seatCount
		if pos < bestPos {
			bestPos = pos
			best = seat
		}
	}
	return best
}

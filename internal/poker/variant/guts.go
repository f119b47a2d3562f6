package variant

import (
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

// Two-card guts phase graph.
const (
	PhaseGutsDeal        Phase = "deal_hands"
	PhaseGutsDeclaration Phase = "declaration"
	PhaseGutsPotMatch    Phase = "pot_match"
)

// TwoCardGuts deals two down cards, runs a simultaneous stay/drop vote, and
// shows down the stayers. Losing stayers match the pot, which carries into
// the next hand; there is no ordinary betting. A hand only starts when
// every active seat can cover the ante, with a bounded grace period before
// shortfall seats sit out.
type TwoCardGuts struct {
	ante  int64
	grace time.Duration
}

// NewTwoCardGuts returns the flow with default stakes.
func NewTwoCardGuts() *TwoCardGuts {
	return &TwoCardGuts{ante: 10, grace: 30 * time.Second}
}

func (f *TwoCardGuts) Code() string           { return "two-card-guts" }
func (f *TwoCardGuts) Name() string           { return "Two Card Guts" }
func (f *TwoCardGuts) MinPlayers() int        { return 2 }
func (f *TwoCardGuts) Ante() int64            { return f.ante }
func (f *TwoCardGuts) WildRanks() []card.Rank { return nil }
func (f *TwoCardGuts) MinShowdownCards() int  { return 2 }
func (f *TwoCardGuts) InitialPhase() Phase    { return PhaseAntes }

func (f *TwoCardGuts) NextPhase(v View, current Phase) (Phase, bool) {
	switch current {
	case PhaseAntes:
		return PhaseGutsDeal, true
	case PhaseGutsDeal:
		return PhaseGutsDeclaration, true
	case PhaseGutsDeclaration:
		if !v.AllDecided {
			return "", false
		}
		return PhaseShowdown, true
	case PhaseShowdown:
		if v.PendingMatches {
			return PhaseGutsPotMatch, true
		}
		return PhaseComplete, true
	case PhaseGutsPotMatch:
		if v.PendingMatches {
			return "", false
		}
		return PhaseComplete, true
	default:
		return "", false
	}
}

func (f *TwoCardGuts) Category(p Phase) Category {
	switch p {
	case PhaseAntes, PhaseGutsDeal:
		return CategoryDealing
	case PhaseGutsDeclaration:
		return CategoryDecision
	case PhaseGutsPotMatch:
		return CategorySpecial
	case PhaseShowdown:
		return CategoryResolution
	default:
		return CategoryUnknown
	}
}

func (f *TwoCardGuts) DealingPlan(p Phase) DealingPlan {
	if p == PhaseGutsDeal {
		return DealingPlan{HoleCards: 2}
	}
	return DealingPlan{}
}

func (f *TwoCardGuts) SpecialPhases() []Phase {
	return []Phase{PhaseGutsDeclaration, PhaseGutsPotMatch}
}

// FirstActor is unused: guts has no betting phases.
func (f *TwoCardGuts) FirstActor(v View, p Phase) int { return -1 }

func (f *TwoCardGuts) Betting(p Phase) betting.Config { return betting.Config{} }

func (f *TwoCardGuts) ChipCheck() ChipCheckPolicy {
	return ChipCheckPolicy{Required: true, GracePeriod: f.grace}
}

func (f *TwoCardGuts) DeclarationPhase() Phase { return PhaseGutsDeclaration }
func (f *TwoCardGuts) MatchPhase() Phase       { return PhaseGutsPotMatch }

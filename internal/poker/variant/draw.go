package variant

import (
	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

// Five-card draw phase graph.
const (
	PhaseDrawDeal      Phase = "deal_hands"
	PhaseDrawFirstBet  Phase = "first_betting"
	PhaseDrawExchange  Phase = "draw"
	PhaseDrawSecondBet Phase = "second_betting"
)

// FiveCardDraw is classic five-card draw: five down cards, a betting round,
// a simultaneous discard-and-draw decision, a second betting round, and a
// showdown.
type FiveCardDraw struct {
	ante   int64
	minBet int64
}

// NewFiveCardDraw returns the flow with default stakes.
func NewFiveCardDraw() *FiveCardDraw {
	return &FiveCardDraw{ante: 5, minBet: 10}
}

func (f *FiveCardDraw) Code() string           { return "five-card-draw" }
func (f *FiveCardDraw) Name() string           { return "Five Card Draw" }
func (f *FiveCardDraw) MinPlayers() int        { return 2 }
func (f *FiveCardDraw) Ante() int64            { return f.ante }
func (f *FiveCardDraw) WildRanks() []card.Rank { return nil }
func (f *FiveCardDraw) MinShowdownCards() int  { return 5 }
func (f *FiveCardDraw) InitialPhase() Phase    { return PhaseAntes }

func (f *FiveCardDraw) NextPhase(v View, current Phase) (Phase, bool) {
	switch current {
	case PhaseAntes:
		return PhaseDrawDeal, true
	case PhaseDrawDeal:
		return PhaseDrawFirstBet, true
	case PhaseDrawFirstBet:
		return PhaseDrawExchange, true
	case PhaseDrawExchange:
		if !v.AllDecided {
			return "", false
		}
		return PhaseDrawSecondBet, true
	case PhaseDrawSecondBet:
		return PhaseShowdown, true
	case PhaseShowdown:
		return PhaseComplete, true
	default:
		return "", false
	}
}

func (f *FiveCardDraw) Category(p Phase) Category {
	switch p {
	case PhaseAntes, PhaseDrawDeal:
		return CategoryDealing
	case PhaseDrawFirstBet, PhaseDrawSecondBet:
		return CategoryBetting
	case PhaseDrawExchange:
		return CategoryDecision
	case PhaseShowdown:
		return CategoryResolution
	default:
		return CategoryUnknown
	}
}

func (f *FiveCardDraw) DealingPlan(p Phase) DealingPlan {
	if p == PhaseDrawDeal {
		return DealingPlan{HoleCards: 5}
	}
	return DealingPlan{}
}

func (f *FiveCardDraw) SpecialPhases() []Phase {
	return []Phase{PhaseDrawExchange}
}

// FirstActor is the first in-hand seat left of the dealer button.
func (f *FiveCardDraw) FirstActor(v View, p Phase) int {
	return seatAfter(v.DealerSeat, v.SeatCount, v.InHand)
}

func (f *FiveCardDraw) Betting(p Phase) betting.Config {
	return betting.Config{MinBet: f.minBet}
}

func (f *FiveCardDraw) ChipCheck() ChipCheckPolicy {
	return ChipCheckPolicy{}
}

package variant

import (
	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

// PhaseBuyOption is the paid extra-card offer after sixth street.
const PhaseBuyOption Phase = "buy_option"

// SevenStudBuyCard is seven-card stud with a twist: after the sixth-street
// betting round each remaining seat may buy one extra face-up card, paid
// into the pot, making the best five of eight at showdown.
type SevenStudBuyCard struct {
	stud     *SevenCardStud
	buyPrice int64
}

// NewSevenStudBuyCard returns the flow with default stakes.
func NewSevenStudBuyCard() *SevenStudBuyCard {
	return &SevenStudBuyCard{stud: NewSevenCardStud(), buyPrice: 25}
}

func (f *SevenStudBuyCard) Code() string           { return "seven-stud-buy-card" }
func (f *SevenStudBuyCard) Name() string           { return "Seven Stud Buy Card" }
func (f *SevenStudBuyCard) MinPlayers() int        { return 2 }
func (f *SevenStudBuyCard) Ante() int64            { return f.stud.Ante() }
func (f *SevenStudBuyCard) WildRanks() []card.Rank { return nil }
func (f *SevenStudBuyCard) MinShowdownCards() int  { return 7 }
func (f *SevenStudBuyCard) InitialPhase() Phase    { return PhaseAntes }

func (f *SevenStudBuyCard) NextPhase(v View, current Phase) (Phase, bool) {
	switch current {
	case PhaseSixthBetting:
		return PhaseBuyOption, true
	case PhaseBuyOption:
		if !v.AllDecided {
			return "", false
		}
		return PhaseSeventhStreet, true
	default:
		return f.stud.NextPhase(v, current)
	}
}

func (f *SevenStudBuyCard) Category(p Phase) Category {
	if p == PhaseBuyOption {
		return CategoryDecision
	}
	return f.stud.Category(p)
}

func (f *SevenStudBuyCard) DealingPlan(p Phase) DealingPlan {
	return f.stud.DealingPlan(p)
}

func (f *SevenStudBuyCard) SpecialPhases() []Phase {
	return []Phase{PhaseBuyOption}
}

func (f *SevenStudBuyCard) FirstActor(v View, p Phase) int {
	return f.stud.FirstActor(v, p)
}

func (f *SevenStudBuyCard) Betting(p Phase) betting.Config {
	return f.stud.Betting(p)
}

func (f *SevenStudBuyCard) ChipCheck() ChipCheckPolicy { return ChipCheckPolicy{} }

func (f *SevenStudBuyCard) BringIn(p Phase) int64 { return f.stud.BringIn(p) }

func (f *SevenStudBuyCard) BuyPrice() int64 { return f.buyPrice }
func (f *SevenStudBuyCard) BuyPhase() Phase { return PhaseBuyOption }

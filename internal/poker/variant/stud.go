package variant

import (
	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

// Seven-card stud phase graph. Betting follows third through seventh
// streets; fifth street onward uses the big bet.
const (
	PhaseThirdStreet   Phase = "third_street"
	PhaseThirdBetting  Phase = "third_street_betting"
	PhaseFourthStreet  Phase = "fourth_street"
	PhaseFourthBetting Phase = "fourth_street_betting"
	PhaseFifthStreet   Phase = "fifth_street"
	PhaseFifthBetting  Phase = "fifth_street_betting"
	PhaseSixthStreet   Phase = "sixth_street"
	PhaseSixthBetting  Phase = "sixth_street_betting"
	PhaseSeventhStreet Phase = "seventh_street"
	PhaseFinalBetting  Phase = "final_betting"
)

// SevenCardStud is fixed-limit seven-card stud: two down and one up card,
// then four more streets with betting after each, a final down card, and a
// showdown of the best five of seven.
type SevenCardStud struct {
	ante      int64
	bringIn   int64
	smallBet  int64
	bigBet    int64
	maxRaises int
}

// NewSevenCardStud returns the flow with default fixed-limit stakes.
func NewSevenCardStud() *SevenCardStud {
	return &SevenCardStud{ante: 2, bringIn: 5, smallBet: 10, bigBet: 20, maxRaises: 3}
}

func (f *SevenCardStud) Code() string           { return "seven-card-stud" }
func (f *SevenCardStud) Name() string           { return "Seven Card Stud" }
func (f *SevenCardStud) MinPlayers() int        { return 2 }
func (f *SevenCardStud) Ante() int64            { return f.ante }
func (f *SevenCardStud) WildRanks() []card.Rank { return nil }
func (f *SevenCardStud) MinShowdownCards() int  { return 7 }
func (f *SevenCardStud) InitialPhase() Phase    { return PhaseAntes }

func (f *SevenCardStud) NextPhase(v View, current Phase) (Phase, bool) {
	order := []Phase{
		PhaseAntes,
		PhaseThirdStreet, PhaseThirdBetting,
		PhaseFourthStreet, PhaseFourthBetting,
		PhaseFifthStreet, PhaseFifthBetting,
		PhaseSixthStreet, PhaseSixthBetting,
		PhaseSeventhStreet, PhaseFinalBetting,
		PhaseShowdown, PhaseComplete,
	}
	for i, p := range order[:len(order)-1] {
		if p == current {
			return order[i+1], true
		}
	}
	return "", false
}

func (f *SevenCardStud) Category(p Phase) Category {
	switch p {
	case PhaseAntes, PhaseThirdStreet, PhaseFourthStreet, PhaseFifthStreet,
		PhaseSixthStreet, PhaseSeventhStreet:
		return CategoryDealing
	case PhaseThirdBetting, PhaseFourthBetting, PhaseFifthBetting,
		PhaseSixthBetting, PhaseFinalBetting:
		return CategoryBetting
	case PhaseShowdown:
		return CategoryResolution
	default:
		return CategoryUnknown
	}
}

func (f *SevenCardStud) DealingPlan(p Phase) DealingPlan {
	switch p {
	case PhaseThirdStreet:
		// Two down plus the exposed door card.
		return DealingPlan{HoleCards: 3, LastFaceUp: true}
	case PhaseFourthStreet, PhaseFifthStreet, PhaseSixthStreet:
		return DealingPlan{HoleCards: 1, FaceUp: true}
	case PhaseSeventhStreet:
		return DealingPlan{HoleCards: 1, FaceUp: false}
	default:
		return DealingPlan{}
	}
}

func (f *SevenCardStud) SpecialPhases() []Phase { return nil }

// FirstActor: on third street the lowest exposed card brings it in; on
// later streets the highest exposed card opens. Ties break by seat order
// after the dealer button.
func (f *SevenCardStud) FirstActor(v View, p Phase) int {
	if len(v.InHand) == 0 {
		return -1
	}
	lowest := p == PhaseThirdBetting
	best := -1
	bestValue := 0
	for _, seat := range orderedAfter(v.DealerSeat, v.SeatCount, v.InHand) {
		value := exposedHighValue(v.Exposed[seat])
		if best == -1 || (lowest && value < bestValue) || (!lowest && value > bestValue) {
			best = seat
			bestValue = value
		}
	}
	return best
}

func (f *SevenCardStud) Betting(p Phase) betting.Config {
	size := f.smallBet
	if p == PhaseFifthBetting || p == PhaseSixthBetting || p == PhaseFinalBetting {
		size = f.bigBet
	}
	return betting.Config{MinBet: size, FixedLimit: true, BetSize: size, MaxRaises: f.maxRaises}
}

func (f *SevenCardStud) ChipCheck() ChipCheckPolicy { return ChipCheckPolicy{} }

// BringIn returns the forced opening bet for third street.
func (f *SevenCardStud) BringIn(p Phase) int64 {
	if p == PhaseThirdBetting {
		return f.bringIn
	}
	return 0
}

// exposedHighValue scores a seat's face-up cards by the best single card.
func exposedHighValue(exposed []card.Card) int {
	best := 0
	for _, c := range exposed {
		if v := c.HighValue(); v > best {
			best = v
		}
	}
	return best
}

// orderedAfter lists the seats clockwise starting after the marker.
func orderedAfter(marker, seatCount int, seats []int) []int {
	ordered := append([]int(nil), seats...)
	pos := func(seat int) int {
		return ((seat - marker - 1) + seatCount) % seatCount
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && pos(ordered[j]) < pos(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}

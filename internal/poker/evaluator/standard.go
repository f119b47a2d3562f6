package evaluator

import (
	"fmt"

	"github.com/paulhankin/poker"

	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

// Standard evaluates hands with the paulhankin/poker lookup tables.
//
// Hands of five or more cards are ranked by the best five-card subset.
// Two-card hands (guts games) use a local pair/high-card ordering. Wild
// ranks are handled by substitution search: every wild card is replaced by
// the candidate that maximises the final strength.
type Standard struct{}

// NewStandard returns the default evaluator.
func NewStandard() *Standard {
	return &Standard{}
}

// Rank implements Evaluator.
func (s *Standard) Rank(cards []card.Card, wildRanks []card.Rank) (Strength, string, error) {
	wild := make(map[card.Rank]bool, len(wildRanks))
	for _, r := range wildRanks {
		wild[r] = true
	}

	var fixed, wilds []card.Card
	for _, c := range cards {
		if wild[c.Rank] {
			wilds = append(wilds, c)
		} else {
			fixed = append(fixed, c)
		}
	}

	switch {
	case len(cards) == 2:
		return rankTwoCard(cards, wild)
	case len(cards) >= 5:
		best, bestFive, err := substituteAndEval(fixed, len(wilds))
		if err != nil {
			return 0, "", err
		}
		return Strength(best), describeFive(bestFive), nil
	default:
		return 0, "", fmt.Errorf("unsupported hand size %d", len(cards))
	}
}

// substituteAndEval replaces wildCount cards with the best candidates from
// the remaining deck and returns the maximum five-card strength.
func substituteAndEval(fixed []card.Card, wildCount int) (int16, []card.Card, error) {
	if wildCount == 0 {
		return bestFive(fixed)
	}

	used := make(map[card.Card]bool, len(fixed))
	for _, c := range fixed {
		key := c
		key.FaceUp = false
		used[key] = true
	}

	best := int16(-1)
	var bestHand []card.Card
	for suit := card.Club; suit <= card.Spade; suit++ {
		for rank := card.Ace; rank <= card.King; rank++ {
			candidate := card.Card{Suit: suit, Rank: rank}
			if used[candidate] {
				continue
			}
			strength, hand, err := substituteAndEval(append(fixed, candidate), wildCount-1)
			if err != nil {
				return 0, nil, err
			}
			if strength > best {
				best = strength
				bestHand = hand
			}
		}
	}
	if bestHand == nil {
		return 0, nil, fmt.Errorf("no substitution found for %d wild cards", wildCount)
	}
	return best, bestHand, nil
}

// bestFive ranks every five-card subset and returns the strongest.
func bestFive(cards []card.Card) (int16, []card.Card, error) {
	if len(cards) < 5 {
		return 0, nil, fmt.Errorf("need at least 5 cards, got %d", len(cards))
	}

	best := int16(-1)
	var bestHand []card.Card
	pick := make([]card.Card, 5)
	var walk func(start, depth int) error
	walk = func(start, depth int) error {
		if depth == 5 {
			strength, err := eval5(pick)
			if err != nil {
				return err
			}
			if strength > best {
				best = strength
				bestHand = append([]card.Card(nil), pick...)
			}
			return nil
		}
		for i := start; i <= len(cards)-(5-depth); i++ {
			pick[depth] = cards[i]
			if err := walk(i+1, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, 0); err != nil {
		return 0, nil, err
	}
	return best, bestHand, nil
}

func eval5(cards []card.Card) (int16, error) {
	var hand [5]poker.Card
	for i, c := range cards {
		converted, err := poker.MakeCard(poker.Suit(c.Suit), poker.Rank(c.Rank))
		if err != nil {
			return 0, fmt.Errorf("convert card %s: %w", c, err)
		}
		hand[i] = converted
	}
	return poker.Eval5(&hand), nil
}

// rankTwoCard orders two-card guts hands: a pair beats any unpaired hand;
// within a category, aces-high card values decide. Wild cards pair up with
// the best companion.
func rankTwoCard(cards []card.Card, wild map[card.Rank]bool) (Strength, string, error) {
	a, b := cards[0], cards[1]
	wildA, wildB := wild[a.Rank], wild[b.Rank]

	high, low := a, b
	if b.HighValue() > a.HighValue() {
		high, low = b, a
	}

	pairOf := 0
	switch {
	case wildA && wildB:
		pairOf = 14
	case wildA:
		pairOf = b.HighValue()
	case wildB:
		pairOf = a.HighValue()
	case a.Rank == b.Rank:
		pairOf = a.HighValue()
	}

	if pairOf > 0 {
		return Strength(10000 + pairOf), fmt.Sprintf("pair, %ss", rankName(pairOf)), nil
	}
	strength := Strength(high.HighValue()*15 + low.HighValue())
	return strength, fmt.Sprintf("%s high", rankName(high.HighValue())), nil
}

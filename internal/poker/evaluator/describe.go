package evaluator

import (
	"fmt"
	"sort"

	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

var rankNames = map[int]string{
	2: "two", 3: "three", 4: "four", 5: "five", 6: "six", 7: "seven",
	8: "eight", 9: "nine", 10: "ten", 11: "jack", 12: "queen", 13: "king",
	14: "ace",
}

func rankName(highValue int) string {
	if name, ok := rankNames[highValue]; ok {
		return name
	}
	return fmt.Sprintf("%d", highValue)
}

// describeFive names the category of a five-card hand.
func describeFive(cards []card.Card) string {
	if len(cards) != 5 {
		return ""
	}

	values := make([]int, 5)
	counts := make(map[int]int, 5)
	flush := true
	for i, c := range cards {
		values[i] = c.HighValue()
		counts[values[i]]++
		if c.Suit != cards[0].Suit {
			flush = false
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	straightHigh := straightHighValue(values)
	switch {
	case flush && straightHigh == 14:
		return "royal flush"
	case flush && straightHigh > 0:
		return fmt.Sprintf("straight flush, %s high", rankName(straightHigh))
	}

	var pairs []int
	three, four := 0, 0
	for value, n := range counts {
		switch n {
		case 4:
			four = value
		case 3:
			three = value
		case 2:
			pairs = append(pairs, value)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pairs)))

	switch {
	case four > 0:
		return fmt.Sprintf("four of a kind, %ss", rankName(four))
	case three > 0 && len(pairs) == 1:
		return fmt.Sprintf("full house, %ss over %ss", rankName(three), rankName(pairs[0]))
	case flush:
		return fmt.Sprintf("flush, %s high", rankName(values[0]))
	case straightHigh > 0:
		return fmt.Sprintf("straight, %s high", rankName(straightHigh))
	case three > 0:
		return fmt.Sprintf("three of a kind, %ss", rankName(three))
	case len(pairs) == 2:
		return fmt.Sprintf("two pair, %ss and %ss", rankName(pairs[0]), rankName(pairs[1]))
	case len(pairs) == 1:
		return fmt.Sprintf("pair, %ss", rankName(pairs[0]))
	default:
		return fmt.Sprintf("%s high", rankName(values[0]))
	}
}

// straightHighValue returns the high card of a straight, 5 for the wheel,
// or 0 when the sorted-descending values are not a straight.
func straightHighValue(sorted []int) int {
	distinct := true
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			distinct = false
		}
	}
	if !distinct {
		return 0
	}
	if sorted[0]-sorted[4] == 4 {
		return sorted[0]
	}
	// Wheel: A 5 4 3 2 sorts as 14 5 4 3 2.
	if sorted[0] == 14 && sorted[1] == 5 && sorted[1]-sorted[4] == 3 {
		return 5
	}
	return 0
}

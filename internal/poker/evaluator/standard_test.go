package evaluator

import (
	"strings"
	"testing"

	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

func c(suit card.Suit, rank card.Rank) card.Card {
	return card.Card{Suit: suit, Rank: rank}
}

func TestRankFiveCardCategories(t *testing.T) {
	eval := NewStandard()
	tests := []struct {
		name  string
		cards []card.Card
		want  string
	}{
		{
			name:  "pair",
			cards: []card.Card{c(card.Club, 9), c(card.Heart, 9), c(card.Spade, 2), c(card.Diamond, 5), c(card.Club, card.King)},
			want:  "pair, nines",
		},
		{
			name:  "two pair",
			cards: []card.Card{c(card.Club, 9), c(card.Heart, 9), c(card.Spade, 2), c(card.Diamond, 2), c(card.Club, card.King)},
			want:  "two pair, nines and twos",
		},
		{
			name:  "flush",
			cards: []card.Card{c(card.Heart, 2), c(card.Heart, 5), c(card.Heart, 9), c(card.Heart, card.Jack), c(card.Heart, card.King)},
			want:  "flush, king high",
		},
		{
			name:  "wheel straight",
			cards: []card.Card{c(card.Club, card.Ace), c(card.Heart, 2), c(card.Spade, 3), c(card.Diamond, 4), c(card.Club, 5)},
			want:  "straight, five high",
		},
		{
			name:  "full house",
			cards: []card.Card{c(card.Club, 7), c(card.Heart, 7), c(card.Spade, 7), c(card.Diamond, 4), c(card.Club, 4)},
			want:  "full house, sevens over fours",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, desc, err := eval.Rank(tc.cards, nil)
			if err != nil {
				t.Fatalf("rank: %v", err)
			}
			if desc != tc.want {
				t.Fatalf("description = %q, want %q", desc, tc.want)
			}
		})
	}
}

func TestRankOrdering(t *testing.T) {
	eval := NewStandard()

	flush := []card.Card{c(card.Heart, 2), c(card.Heart, 5), c(card.Heart, 9), c(card.Heart, card.Jack), c(card.Heart, card.King)}
	pair := []card.Card{c(card.Club, card.Ace), c(card.Heart, card.Ace), c(card.Spade, 2), c(card.Diamond, 5), c(card.Club, 9)}

	flushStrength, _, err := eval.Rank(flush, nil)
	if err != nil {
		t.Fatalf("rank flush: %v", err)
	}
	pairStrength, _, err := eval.Rank(pair, nil)
	if err != nil {
		t.Fatalf("rank pair: %v", err)
	}
	if flushStrength <= pairStrength {
		t.Fatalf("flush (%d) should outrank pair of aces (%d)", flushStrength, pairStrength)
	}
}

func TestRankSevenCardsUsesBestFive(t *testing.T) {
	eval := NewStandard()
	seven := []card.Card{
		c(card.Heart, 2), c(card.Heart, 5), c(card.Heart, 9), c(card.Heart, card.Jack), c(card.Heart, card.King),
		c(card.Club, card.Ace), c(card.Spade, card.Ace),
	}

	_, desc, err := eval.Rank(seven, nil)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if !strings.HasPrefix(desc, "flush") {
		t.Fatalf("expected the flush to win over the pair of aces, got %q", desc)
	}
}

func TestRankTies(t *testing.T) {
	eval := NewStandard()
	first := []card.Card{c(card.Club, 9), c(card.Heart, 9), c(card.Spade, 2), c(card.Diamond, 5), c(card.Club, card.King)}
	second := []card.Card{c(card.Spade, 9), c(card.Diamond, 9), c(card.Heart, 2), c(card.Club, 5), c(card.Spade, card.King)}

	a, _, err := eval.Rank(first, nil)
	if err != nil {
		t.Fatalf("rank first: %v", err)
	}
	b, _, err := eval.Rank(second, nil)
	if err != nil {
		t.Fatalf("rank second: %v", err)
	}
	if a != b {
		t.Fatalf("suit-only differences must tie: %d vs %d", a, b)
	}
}

func TestRankWildCards(t *testing.T) {
	eval := NewStandard()
	// Four nines plus a wild two: the wild should complete quads or better.
	cards := []card.Card{
		c(card.Club, 9), c(card.Heart, 9), c(card.Spade, 9), c(card.Diamond, 9), c(card.Club, 2),
	}

	plain, _, err := eval.Rank(cards, nil)
	if err != nil {
		t.Fatalf("rank plain: %v", err)
	}
	wildStrength, _, err := eval.Rank(cards, []card.Rank{2})
	if err != nil {
		t.Fatalf("rank wild: %v", err)
	}
	if wildStrength <= plain {
		t.Fatalf("wild hand (%d) should outrank plain hand (%d)", wildStrength, plain)
	}
}

func TestRankTwoCard(t *testing.T) {
	eval := NewStandard()

	pair, pairDesc, err := eval.Rank([]card.Card{c(card.Club, 7), c(card.Heart, 7)}, nil)
	if err != nil {
		t.Fatalf("rank pair: %v", err)
	}
	aceHigh, aceDesc, err := eval.Rank([]card.Card{c(card.Club, card.Ace), c(card.Heart, card.King)}, nil)
	if err != nil {
		t.Fatalf("rank ace high: %v", err)
	}

	if pair <= aceHigh {
		t.Fatalf("any pair (%d) should beat ace high (%d)", pair, aceHigh)
	}
	if pairDesc != "pair, sevens" {
		t.Fatalf("pair description = %q", pairDesc)
	}
	if aceDesc != "ace high" {
		t.Fatalf("ace-high description = %q", aceDesc)
	}
}

func TestRankUnsupportedSize(t *testing.T) {
	eval := NewStandard()
	if _, _, err := eval.Rank([]card.Card{c(card.Club, 2), c(card.Heart, 3), c(card.Spade, 4)}, nil); err == nil {
		t.Fatal("expected error for 3-card hand")
	}
}

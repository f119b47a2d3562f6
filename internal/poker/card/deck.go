package card

import (
	"errors"
	"math/rand"
)

// ErrDeckEmpty indicates a draw from an exhausted deck.
var ErrDeckEmpty = errors.New("deck is empty")

// Deck is an ordered stack of cards; Draw removes from the top.
type Deck struct {
	Cards []Card `json:"cards"`
}

// NewDeck builds a standard 52-card deck in canonical order.
func NewDeck() *Deck {
	cards := make([]Card, 0, 52)
	for suit := Club; suit <= Spade; suit++ {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return &Deck{Cards: cards}
}

// Shuffle permutes the deck using the provided random source.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	if len(d.Cards) == 0 {
		return Card{}, ErrDeckEmpty
	}
	top := d.Cards[len(d.Cards)-1]
	d.Cards = d.Cards[:len(d.Cards)-1]
	return top, nil
}

// Remaining reports how many cards are left.
func (d *Deck) Remaining() int {
	return len(d.Cards)
}

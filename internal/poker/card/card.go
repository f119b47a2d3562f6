// Package card provides playing card and deck primitives for the engine.
package card

import "fmt"

// Suit identifies one of the four french suits.
type Suit int

const (
	Club Suit = iota
	Diamond
	Heart
	Spade
)

// Rank is a card rank from Ace (1) through King (13).
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Card is a single playing card. FaceUp marks cards exposed to the table,
// as in street-based stud games.
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   Rank `json:"rank"`
	FaceUp bool `json:"face_up,omitempty"`
}

// New creates a card after validating suit and rank.
func New(suit Suit, rank Rank) (Card, error) {
	if suit < Club || suit > Spade {
		return Card{}, fmt.Errorf("invalid suit %d", suit)
	}
	if rank < Ace || rank > King {
		return Card{}, fmt.Errorf("invalid rank %d", rank)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// HighValue returns the rank value with aces counted high.
func (c Card) HighValue() int {
	if c.Rank == Ace {
		return 14
	}
	return int(c.Rank)
}

// String renders the card as a short human-readable token, e.g. "A♠".
func (c Card) String() string {
	var suit string
	switch c.Suit {
	case Club:
		suit = "♣"
	case Diamond:
		suit = "♦"
	case Heart:
		suit = "♥"
	case Spade:
		suit = "♠"
	default:
		suit = "?"
	}

	var rank string
	switch c.Rank {
	case Ace:
		rank = "A"
	case Jack:
		rank = "J"
	case Queen:
		rank = "Q"
	case King:
		rank = "K"
	default:
		rank = fmt.Sprintf("%d", c.Rank)
	}
	return rank + suit
}

// Package evaluator ranks poker hands. The engine consumes the Evaluator
// interface only; the concrete arithmetic is pluggable.
package evaluator

import (
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
)

// Strength is a totally ordered hand strength; higher wins. Ties are
// possible and are resolved by the pot ledger's split logic, never here.
type Strength int32

// Evaluator ranks a set of cards into a strength and a human-readable
// description of the best hand.
type Evaluator interface {
	Rank(cards []card.Card, wildRanks []card.Rank) (Strength, string, error)
}

package domain

import (
	"github.com/RobGibbens/CardGames-sub000/internal/errors"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/variant"
)

// ApplyAction applies one betting action for a seat. Validation happens
// before any mutation, so a rejected action leaves the session unchanged.
// Replaying an action with the session's last idempotency key is a no-op.
func (m *Machine) ApplyAction(s *Session, seatIdx int, a Action) error {
	if s.Status != SessionStatusActive {
		return errors.New(errors.CodeIllegalAction, "session has ended")
	}
	if a.ID != "" && a.ID == s.LastActionID {
		return nil
	}
	if seatIdx < 0 || seatIdx >= len(s.Seats) {
		return errors.Newf(errors.CodeSeatNotInHand, "seat %d does not exist", seatIdx)
	}
	if m.flow.Category(s.Phase) != variant.CategoryBetting || s.Round == nil {
		return errors.Newf(errors.CodeIllegalAction, "phase %s does not accept betting actions", s.Phase)
	}
	seat := &s.Seats[seatIdx]
	if !seat.InHand || seat.Folded {
		return errors.Newf(errors.CodeSeatNotInHand, "seat %d is not in the hand", seatIdx)
	}

	res, err := s.Round.ProcessAction(seatIdx, a.Type, a.Amount, seat.Stack)
	if err != nil {
		return err
	}

	seat.Stack -= res.Debit
	if res.Debit > 0 {
		if err := s.Ledger.AddContribution(seatIdx, res.Debit); err != nil {
			return err
		}
	}
	if res.Folded {
		seat.Folded = true
	}
	if res.AllIn {
		seat.AllIn = true
	}
	if a.ID != "" {
		s.LastActionID = a.ID
	}

	// A fold that leaves one seat ends the hand with a default win.
	if len(s.InHandSeats()) == 1 {
		if err := m.enterPhase(s, variant.PhaseShowdown); err != nil {
			return err
		}
	}
	return m.advance(s)
}

// ApplyDecision applies one special-phase input: a draw discard selection,
// a stay/drop declaration, a buy-card choice, or a pot-match
// acknowledgment. Decisions are simultaneous; the phase advances only once
// every pending seat has submitted.
func (m *Machine) ApplyDecision(s *Session, seatIdx int, d Decision) error {
	if s.Status != SessionStatusActive {
		return errors.New(errors.CodeIllegalAction, "session has ended")
	}
	if seatIdx < 0 || seatIdx >= len(s.Seats) {
		return errors.Newf(errors.CodeSeatNotInHand, "seat %d does not exist", seatIdx)
	}
	seat := &s.Seats[seatIdx]
	if d.ID != "" && d.ID == seat.LastDecisionID {
		return nil
	}
	if !seat.InHand || seat.Folded {
		return errors.Newf(errors.CodeSeatNotInHand, "seat %d is not in the hand", seatIdx)
	}
	if !seat.DecisionPending {
		return errors.Newf(errors.CodeDecisionNotPending, "seat %d has no pending decision in phase %s", seatIdx, s.Phase)
	}

	switch {
	case m.inMatchPhase(s):
		if err := m.applyPotMatch(s, seat, d); err != nil {
			return err
		}
	case m.inDeclarationPhase(s):
		if d.Value != DecisionStay && d.Value != DecisionDrop {
			return errors.Newf(errors.CodeIllegalAction, "declaration must be %q or %q, got %q", DecisionStay, DecisionDrop, d.Value)
		}
		seat.Decision = d.Value
	case m.inBuyPhase(s):
		if err := m.applyBuyChoice(s, seat, d); err != nil {
			return err
		}
	case m.flow.Category(s.Phase) == variant.CategoryDecision:
		if err := m.applyDrawExchange(s, seat, d); err != nil {
			return err
		}
	default:
		return errors.Newf(errors.CodeDecisionNotPending, "phase %s does not accept decisions", s.Phase)
	}

	seat.DecisionPending = false
	seat.LastDecisionID = d.ID
	return m.advance(s)
}

func (m *Machine) inMatchPhase(s *Session) bool {
	pm, ok := m.flow.(variant.PotMatchFlow)
	return ok && s.Phase == pm.MatchPhase()
}

func (m *Machine) inDeclarationPhase(s *Session) bool {
	pm, ok := m.flow.(variant.PotMatchFlow)
	return ok && s.Phase == pm.DeclarationPhase()
}

func (m *Machine) inBuyPhase(s *Session) bool {
	bf, ok := m.flow.(variant.BuyCardFlow)
	return ok && s.Phase == bf.BuyPhase()
}

// applyPotMatch moves a losing stayer's match into the carried pot. A
// short stack matches what it has.
func (m *Machine) applyPotMatch(s *Session, seat *Seat, d Decision) error {
	if d.Value != DecisionAcknowledge {
		return errors.Newf(errors.CodeIllegalAction, "pot match requires %q, got %q", DecisionAcknowledge, d.Value)
	}
	pay := seat.MatchOwed
	if pay > seat.Stack {
		pay = seat.Stack
	}
	seat.Stack -= pay
	s.CarryPot += pay
	seat.MatchOwed = 0
	seat.Decision = DecisionAcknowledge
	m.logf("pot matched session_id=%s seat=%d amount=%d carry=%d", s.ID, seat.Index, pay, s.CarryPot)
	return nil
}

// applyBuyChoice handles the paid extra card. A buyer's card is dealt
// face up immediately since the purchase itself is public.
func (m *Machine) applyBuyChoice(s *Session, seat *Seat, d Decision) error {
	bf := m.flow.(variant.BuyCardFlow)
	switch d.Value {
	case DecisionPass:
		seat.Decision = DecisionPass
		return nil
	case DecisionBuy:
		price := bf.BuyPrice()
		if seat.Stack < price {
			return errors.Newf(errors.CodeInsufficientChips, "seat %d cannot afford the %d card price", seat.Index, price)
		}
		seat.Stack -= price
		if err := s.Ledger.AddContribution(seat.Index, price); err != nil {
			return err
		}
		bought, err := s.Deck.Draw()
		if err != nil {
			return err
		}
		bought.FaceUp = true
		seat.Cards = append(seat.Cards, bought)
		seat.Decision = DecisionBuy
		return nil
	default:
		return errors.Newf(errors.CodeIllegalAction, "buy option must be %q or %q, got %q", DecisionBuy, DecisionPass, d.Value)
	}
}

// applyDrawExchange replaces the seat's discarded cards from the deck.
func (m *Machine) applyDrawExchange(s *Session, seat *Seat, d Decision) error {
	discard := make(map[int]bool, len(d.Discards))
	for _, idx := range d.Discards {
		if idx < 0 || idx >= len(seat.Cards) {
			return errors.Newf(errors.CodeIllegalAction, "discard index %d out of range", idx)
		}
		if discard[idx] {
			return errors.Newf(errors.CodeIllegalAction, "discard index %d repeated", idx)
		}
		discard[idx] = true
	}

	kept := make([]card.Card, 0, len(seat.Cards))
	for i, c := range seat.Cards {
		if !discard[i] {
			kept = append(kept, c)
		}
	}
	for range d.Discards {
		drawn, err := s.Deck.Draw()
		if err != nil {
			return err
		}
		kept = append(kept, drawn)
	}
	seat.Cards = kept
	seat.Decision = d.Value
	return nil
}

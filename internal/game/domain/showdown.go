package domain

import (
	"fmt"
	"sort"

	"github.com/RobGibbens/CardGames-sub000/internal/poker/evaluator"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/pot"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/variant"
)

// runShowdown settles the hand: it layers the side pots from the ledger's
// contribution history, ranks the contenders, and pays every pot out. For
// pot-match variants the losing stayers are assessed their match here; the
// match phase collects it afterwards.
func (m *Machine) runShowdown(s *Session) error {
	// Declared drops fold at reveal time, after every vote is in.
	if _, ok := m.flow.(variant.PotMatchFlow); ok {
		for i := range s.Seats {
			seat := &s.Seats[i]
			if seat.InHand && !seat.Folded && seat.Decision == DecisionDrop {
				seat.Folded = true
			}
		}
	}

	states := make([]pot.SeatState, len(s.Seats))
	for i := range s.Seats {
		states[i] = pot.SeatState{
			Seat:   i,
			AllIn:  s.Seats[i].AllIn,
			Folded: !s.Seats[i].InHand || s.Seats[i].Folded,
		}
	}
	s.Ledger.CalculateSidePots(states)

	contenders := s.InHandSeats()
	if len(contenders) == 0 {
		// Everyone dropped: the whole pot carries into the next hand.
		s.CarryPot += s.Ledger.DrainUnawarded()
		s.LastWinnings = nil
		s.LastHandNotes = nil
		m.logf("pot carried session_id=%s amount=%d reason=all_dropped", s.ID, s.CarryPot)
		return nil
	}

	strengths := make(map[int]evaluator.Strength, len(contenders))
	notes := make(map[int]string, len(contenders))
	if len(contenders) > 1 {
		wilds := m.flow.WildRanks()
		for _, idx := range contenders {
			cards := s.Seats[idx].Cards
			if len(cards) < m.flow.MinShowdownCards() {
				return fmt.Errorf("seat %d has %d cards at showdown, need %d", idx, len(cards), m.flow.MinShowdownCards())
			}
			strength, note, err := m.eval.Rank(cards, wilds)
			if err != nil {
				return fmt.Errorf("rank seat %d: %w", idx, err)
			}
			strengths[idx] = strength
			notes[idx] = note
		}
	}

	winnings, err := s.Ledger.AwardPots(rankBy(strengths), s.DealerSeat)
	if err != nil {
		return err
	}
	for idx, amount := range winnings {
		s.Seats[idx].Stack += amount
	}
	s.LastWinnings = winnings
	s.LastHandNotes = notes

	if _, ok := m.flow.(variant.PotMatchFlow); ok && len(contenders) > 1 {
		m.assessPotMatches(s, contenders, winnings)
	}
	return nil
}

// rankBy turns cached hand strengths into the ledger's ranking callback:
// eligible seats grouped best-first, ties sharing a group.
func rankBy(strengths map[int]evaluator.Strength) pot.RankFunc {
	return func(eligible []int) ([][]int, error) {
		byStrength := make(map[evaluator.Strength][]int)
		for _, seat := range eligible {
			strength, ok := strengths[seat]
			if !ok {
				return nil, fmt.Errorf("seat %d was not ranked at showdown", seat)
			}
			byStrength[strength] = append(byStrength[strength], seat)
		}
		ordered := make([]evaluator.Strength, 0, len(byStrength))
		for strength := range byStrength {
			ordered = append(ordered, strength)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i] > ordered[j] })

		groups := make([][]int, 0, len(ordered))
		for _, strength := range ordered {
			group := byStrength[strength]
			sort.Ints(group)
			groups = append(groups, group)
		}
		return groups, nil
	}
}

// assessPotMatches charges every stayer that won nothing the full pot just
// contested. The chips are collected in the match phase and seed the next
// hand's pot.
func (m *Machine) assessPotMatches(s *Session, contenders []int, winnings map[int]int64) {
	var total int64
	for _, amount := range winnings {
		total += amount
	}
	if total <= 0 {
		return
	}
	for _, idx := range contenders {
		if winnings[idx] == 0 {
			s.Seats[idx].MatchOwed = total
			m.logf("pot match owed session_id=%s seat=%d amount=%d", s.ID, idx, total)
		}
	}
}

// Package pot tracks per-seat contributions for one hand and computes,
// audits, and awards the main and side pots. Pure computation over
// in-memory state; no I/O beyond the injected warning logger.
package pot

import (
	"fmt"
	"log"
	"sort"

	"github.com/RobGibbens/CardGames-sub000/internal/errors"
)

// Pot is one layer of the hand's money. Index 0 is the main pot. A pot is
// immutable once awarded.
type Pot struct {
	Amount    int64         `json:"amount"`
	Eligible  map[int]bool  `json:"eligible"`
	IsAwarded bool          `json:"is_awarded"`
	Winnings  map[int]int64 `json:"winnings,omitempty"`
}

// EligibleSeats returns the eligible seats in ascending order.
func (p *Pot) EligibleSeats() []int {
	seats := make([]int, 0, len(p.Eligible))
	for seat := range p.Eligible {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	return seats
}

// SeatState is the per-seat input to side-pot layering.
type SeatState struct {
	Seat   int
	AllIn  bool
	Folded bool
}

// Ledger is the contribution ledger for a single hand.
type Ledger struct {
	SeatCount     int           `json:"seat_count"`
	Contributions map[int]int64 `json:"contributions"`
	Carried       int64         `json:"carried"`
	Pots          []*Pot        `json:"pots"`

	logf func(format string, args ...any)
}

// NewLedger creates an empty ledger for a table with seatCount seats.
func NewLedger(seatCount int) *Ledger {
	return &Ledger{
		SeatCount:     seatCount,
		Contributions: make(map[int]int64),
	}
}

// SetLogf overrides the warning logger. The default is log.Printf.
func (l *Ledger) SetLogf(logf func(format string, args ...any)) {
	l.logf = logf
}

func (l *Ledger) warnf(format string, args ...any) {
	if l.logf != nil {
		l.logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// AddContribution records chips a seat puts into the pot this hand.
// Contributions are monotonically non-decreasing within a hand.
func (l *Ledger) AddContribution(seat int, amount int64) error {
	if seat < 0 || seat >= l.SeatCount {
		return errors.Newf(errors.CodeSeatNotInHand, "seat %d outside table of %d", seat, l.SeatCount)
	}
	if amount < 0 {
		return errors.Newf(errors.CodeNegativeContribution, "seat %d contribution %d", seat, amount)
	}
	if l.Contributions == nil {
		l.Contributions = make(map[int]int64)
	}
	l.Contributions[seat] += amount
	return nil
}

// AddCarry adds chips carried over from a previous hand (pot-match games).
// Carried chips belong to no seat but still flow into the main pot.
func (l *Ledger) AddCarry(amount int64) error {
	if amount < 0 {
		return errors.Newf(errors.CodeNegativeContribution, "carried amount %d", amount)
	}
	l.Carried += amount
	return nil
}

// ContributionOf returns the seat's cumulative contribution this hand.
func (l *Ledger) ContributionOf(seat int) int64 {
	return l.Contributions[seat]
}

// Total returns all chips in play for the hand.
func (l *Ledger) Total() int64 {
	total := l.Carried
	for _, amount := range l.Contributions {
		total += amount
	}
	return total
}

// Outstanding returns the chips the hand still holds: everything
// contributed or carried in, minus the pots already settled.
func (l *Ledger) Outstanding() int64 {
	total := l.Total()
	for _, p := range l.Pots {
		if p.IsAwarded {
			total -= p.Amount
		}
	}
	return total
}

// DrainUnawarded marks every remaining pot as settled and returns their
// sum. Used when an uncontested pot leaves the hand without a payout, such
// as a carry into the next hand.
func (l *Ledger) DrainUnawarded() int64 {
	var total int64
	for _, p := range l.Pots {
		if !p.IsAwarded {
			total += p.Amount
			p.IsAwarded = true
		}
	}
	return total
}

// PotTotal returns the sum across all pots.
func (l *Ledger) PotTotal() int64 {
	var total int64
	for _, p := range l.Pots {
		total += p.Amount
	}
	return total
}

// CalculateSidePots rebuilds the pot list from the current contributions.
//
// Layers are the distinct contribution levels of all-in, non-folded seats,
// ascending. Each layer holds every seat's chips clamped to that level,
// including folded seats' money; eligibility for a layer is the non-folded
// seats that contributed at least the level. Chips above the highest all-in
// level go into a final catch-all pot. Awarded pots are never rebuilt.
func (l *Ledger) CalculateSidePots(seats []SeatState) {
	folded := make(map[int]bool, len(seats))
	var levels []int64
	seen := make(map[int64]bool)
	for _, st := range seats {
		if st.Folded {
			folded[st.Seat] = true
			continue
		}
		if st.AllIn {
			level := l.Contributions[st.Seat]
			if level > 0 && !seen[level] {
				seen[level] = true
				levels = append(levels, level)
			}
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var maxContribution int64
	for _, amount := range l.Contributions {
		if amount > maxContribution {
			maxContribution = amount
		}
	}

	var pots []*Pot
	var prev int64
	for _, level := range levels {
		pots = append(pots, l.buildLayer(seats, folded, prev, level))
		prev = level
	}
	if maxContribution > prev || len(pots) == 0 {
		pots = append(pots, l.buildLayer(seats, folded, prev, maxContribution))
	}
	// Carried chips from a previous hand sit in the main pot.
	pots[0].Amount += l.Carried

	l.Pots = pots
	l.auditConservation()
}

// buildLayer sums every seat's chips clamped to (prev, level] and marks
// eligibility for non-folded seats at or above the level.
func (l *Ledger) buildLayer(seats []SeatState, folded map[int]bool, prev, level int64) *Pot {
	layer := &Pot{Eligible: make(map[int]bool)}
	for _, contribution := range l.Contributions {
		clamped := contribution
		if clamped > level {
			clamped = level
		}
		if clamped > prev {
			layer.Amount += clamped - prev
		}
	}
	for _, st := range seats {
		if folded[st.Seat] {
			continue
		}
		if l.Contributions[st.Seat] >= level {
			layer.Eligible[st.Seat] = true
		}
	}
	return layer
}

// auditConservation verifies pots sum to the contribution total and repairs
// the last pot on any mismatch. The event is logged, never surfaced.
func (l *Ledger) auditConservation() {
	want := l.Total()
	got := l.PotTotal()
	if want == got || len(l.Pots) == 0 {
		return
	}
	last := l.Pots[len(l.Pots)-1]
	last.Amount += want - got
	l.warnf("pot ledger corrected code=%s want=%d got=%d delta=%d",
		errors.CodePotSumMismatch, want, got, want-got)
}

// RemoveEligibility removes a seat from every unawarded pot without
// changing amounts. Called when a seat folds.
func (l *Ledger) RemoveEligibility(seat int) {
	for _, p := range l.Pots {
		if p.IsAwarded {
			continue
		}
		delete(p.Eligible, seat)
	}
}

// RankFunc ranks the given seats into groups ordered best-first. Seats in
// the same group tie.
type RankFunc func(eligible []int) ([][]int, error)

// AwardPots distributes every unawarded pot from main to last side pot.
//
// Pots with no chips or no eligible seats are skipped. A pot with a single
// eligible seat is a default win and never invokes the ranking function.
// Ties split evenly with integer division; remainder chips go one at a time
// to winners in seat order starting immediately after the dealer button.
// Returns total winnings per seat.
func (l *Ledger) AwardPots(rank RankFunc, dealerSeat int) (map[int]int64, error) {
	winnings := make(map[int]int64)
	for i, p := range l.Pots {
		if p.IsAwarded || p.Amount == 0 || len(p.Eligible) == 0 {
			continue
		}

		eligible := p.EligibleSeats()
		var winners []int
		if len(eligible) == 1 {
			winners = eligible
		} else {
			groups, err := rank(eligible)
			if err != nil {
				return nil, fmt.Errorf("rank pot %d: %w", i, err)
			}
			if len(groups) == 0 || len(groups[0]) == 0 {
				return nil, fmt.Errorf("rank pot %d: empty winner group", i)
			}
			winners = groups[0]
		}

		share := p.Amount / int64(len(winners))
		remainder := p.Amount % int64(len(winners))

		p.Winnings = make(map[int]int64, len(winners))
		for _, seat := range winners {
			p.Winnings[seat] = share
		}
		for _, seat := range l.seatsAfterButton(dealerSeat, winners) {
			if remainder == 0 {
				break
			}
			p.Winnings[seat]++
			remainder--
		}

		for seat, amount := range p.Winnings {
			winnings[seat] += amount
		}
		p.IsAwarded = true
	}
	return winnings, nil
}

// seatsAfterButton orders the given seats clockwise starting immediately
// after the dealer button.
func (l *Ledger) seatsAfterButton(dealerSeat int, seats []int) []int {
	ordered := append([]int(nil), seats...)
	pos := func(seat int) int {
		return ((seat - dealerSeat - 1) + l.SeatCount) % l.SeatCount
	}
	sort.Slice(ordered, func(i, j int) bool { return pos(ordered[i]) < pos(ordered[j]) })
	return ordered
}

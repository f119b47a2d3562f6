package domain

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/errors"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/card"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/evaluator"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/pot"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/variant"
)

// Config tunes machine timing. Zero values fall back to defaults.
type Config struct {
	// TurnTimeout is how long a seat has to act in a betting phase before
	// the default action is applied.
	TurnTimeout time.Duration
	// TimeBankExtension is the one-shot extension a seat may add to its
	// turn timer, once per hand.
	TimeBankExtension time.Duration
	// HandInterval is the pause between the end of one hand and the start
	// of the next.
	HandInterval time.Duration

	// Rand drives deck shuffles. Defaults to a time-seeded source;
	// injected in tests for determinism.
	Rand *rand.Rand
	// Now is the clock. Defaults to time.Now; injected in tests.
	Now func() time.Time
	// Logf receives operational warnings. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

const (
	defaultTurnTimeout  = 30 * time.Second
	defaultTimeBank     = 60 * time.Second
	defaultHandInterval = 5 * time.Second
)

// Machine drives sessions of one variant through the hand lifecycle. It is
// stateless between calls: all game state lives in the Session, so a single
// machine serves every session of its variant.
type Machine struct {
	flow variant.Flow
	eval evaluator.Evaluator

	turnTimeout  time.Duration
	timeBank     time.Duration
	handInterval time.Duration

	// rngMu guards rng: one machine serves every session of its variant,
	// and sessions are dispatched concurrently. *rand.Rand is not safe
	// for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand

	now  func() time.Time
	logf func(format string, args ...any)
}

// NewMachine builds a machine for the given variant flow and evaluator.
func NewMachine(flow variant.Flow, eval evaluator.Evaluator, cfg Config) (*Machine, error) {
	if flow == nil {
		return nil, errors.New(errors.CodeUnknownVariant, "variant flow is required")
	}
	if eval == nil {
		return nil, errors.Newf(errors.CodeMissingEvaluator, "variant %s has no evaluator", flow.Code())
	}

	m := &Machine{
		flow:         flow,
		eval:         eval,
		turnTimeout:  cfg.TurnTimeout,
		timeBank:     cfg.TimeBankExtension,
		handInterval: cfg.HandInterval,
		rng:          cfg.Rand,
		now:          cfg.Now,
		logf:         cfg.Logf,
	}
	if m.turnTimeout <= 0 {
		m.turnTimeout = defaultTurnTimeout
	}
	if m.timeBank <= 0 {
		m.timeBank = defaultTimeBank
	}
	if m.handInterval <= 0 {
		m.handInterval = defaultHandInterval
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logf == nil {
		m.logf = log.Printf
	}
	return m, nil
}

// Flow exposes the machine's variant flow.
func (m *Machine) Flow() variant.Flow { return m.flow }

// StartHand begins the next hand. It re-verifies player count at start
// time, runs the variant's chip-coverage check, deals per the variant's
// plan, and advances until the hand awaits player input. When fewer than
// the variant minimum are eligible the session ends instead.
func (m *Machine) StartHand(s *Session) error {
	if s.Status != SessionStatusActive {
		return errors.New(errors.CodeIllegalAction, "session has ended")
	}
	if !s.BetweenHands() {
		return errors.Newf(errors.CodeHandInProgress, "hand %d is still in progress", s.HandNumber)
	}

	eligible := m.eligibleSeats(s)
	if len(eligible) < m.flow.MinPlayers() {
		m.endSession(s)
		return nil
	}

	if policy := m.flow.ChipCheck(); policy.Required {
		var proceed bool
		eligible, proceed = m.enforceChipCoverage(s, eligible, policy)
		if !proceed {
			return nil
		}
		if len(eligible) < m.flow.MinPlayers() {
			m.endSession(s)
			return nil
		}
	} else {
		s.CoverageDeadline = nil
	}

	now := m.now().UTC()
	s.HandNumber++
	s.DealerSeat = nextSeatClockwise(s.DealerSeat, len(s.Seats), eligible)
	s.HandStartedAt = now
	s.NextHandAt = nil
	s.LastActionID = ""
	s.LastWinnings = nil
	s.LastHandNotes = nil

	inHand := make(map[int]bool, len(eligible))
	for _, idx := range eligible {
		inHand[idx] = true
	}
	for i := range s.Seats {
		seat := &s.Seats[i]
		seat.InHand = inHand[i]
		seat.Folded = false
		seat.AllIn = false
		seat.Cards = nil
		seat.DecisionPending = false
		seat.Decision = ""
		seat.LastDecisionID = ""
		seat.MatchOwed = 0
		seat.TimeBankUsed = false
	}

	s.Deck = card.NewDeck()
	m.rngMu.Lock()
	s.Deck.Shuffle(m.rng)
	m.rngMu.Unlock()
	s.Round = nil
	s.Ledger = pot.NewLedger(len(s.Seats))
	s.Ledger.SetLogf(m.logf)
	if s.CarryPot > 0 {
		if err := s.Ledger.AddCarry(s.CarryPot); err != nil {
			return err
		}
		s.CarryPot = 0
	}

	s.Phase = m.flow.InitialPhase()
	s.PhaseEnteredAt = now
	s.CurrentActor = -1
	s.ActorDeadline = nil

	if err := m.collectAntes(s); err != nil {
		return err
	}
	return m.advance(s)
}

// eligibleSeats lists seats that can be dealt into the next hand.
func (m *Machine) eligibleSeats(s *Session) []int {
	var eligible []int
	for i := range s.Seats {
		if !s.Seats[i].SittingOut && s.Seats[i].Stack > 0 {
			eligible = append(eligible, i)
		}
	}
	return eligible
}

// enforceChipCoverage pauses hand start while seats cannot cover the ante.
// After the grace period expires the shortfall seats sit out. The second
// return value reports whether the hand may proceed now.
func (m *Machine) enforceChipCoverage(s *Session, eligible []int, policy variant.ChipCheckPolicy) ([]int, bool) {
	ante := m.flow.Ante()
	var short []int
	for _, idx := range eligible {
		if s.Seats[idx].Stack < ante {
			short = append(short, idx)
		}
	}
	if len(short) == 0 {
		s.CoverageDeadline = nil
		return eligible, true
	}

	now := m.now().UTC()
	if s.CoverageDeadline == nil {
		deadline := now.Add(policy.GracePeriod)
		s.CoverageDeadline = &deadline
		s.NextHandAt = nil
		m.logf("chip coverage pause session_id=%s short_seats=%d grace=%s", s.ID, len(short), policy.GracePeriod)
		return nil, false
	}
	if now.Before(*s.CoverageDeadline) {
		return nil, false
	}

	for _, idx := range short {
		s.Seats[idx].SittingOut = true
		m.logf("seat sitting out session_id=%s seat=%d reason=chip_coverage", s.ID, idx)
	}
	s.CoverageDeadline = nil
	return m.eligibleSeats(s), true
}

func (m *Machine) collectAntes(s *Session) error {
	ante := m.flow.Ante()
	if ante <= 0 {
		return nil
	}
	for _, idx := range s.InHandSeats() {
		seat := &s.Seats[idx]
		amount := ante
		if amount > seat.Stack {
			amount = seat.Stack
		}
		if amount == 0 {
			continue
		}
		seat.Stack -= amount
		if err := s.Ledger.AddContribution(idx, amount); err != nil {
			return err
		}
		if seat.Stack == 0 {
			seat.AllIn = true
		}
	}
	return nil
}

// advance walks the phase graph until the hand awaits player input or the
// hand completes. Betting phases hold until the round is complete; the
// variant flow holds Decision and Special phases itself.
func (m *Machine) advance(s *Session) error {
	for {
		if s.Status != SessionStatusActive || s.BetweenHands() {
			return nil
		}
		if m.flow.Category(s.Phase) == variant.CategoryBetting && s.Round != nil && !s.Round.IsComplete() {
			m.syncActor(s)
			return nil
		}
		next, ok := m.flow.NextPhase(s.view(), s.Phase)
		if !ok {
			return nil
		}
		if err := m.enterPhase(s, next); err != nil {
			return err
		}
	}
}

func (m *Machine) enterPhase(s *Session, p variant.Phase) error {
	s.Phase = p
	s.PhaseEnteredAt = m.now().UTC()
	s.CurrentActor = -1
	s.ActorDeadline = nil
	s.Round = nil // openBetting builds a fresh round for betting phases

	if p == variant.PhaseComplete {
		m.completeHand(s)
		return nil
	}

	switch m.flow.Category(p) {
	case variant.CategoryDealing:
		return m.dealStreet(s, m.flow.DealingPlan(p))
	case variant.CategoryBetting:
		return m.openBetting(s, p)
	case variant.CategoryDecision, variant.CategorySpecial:
		m.markPending(s, p)
		return nil
	case variant.CategoryResolution:
		return m.runShowdown(s)
	default:
		return errors.Newf(errors.CodeIllegalAction, "variant %s has no category for phase %s", m.flow.Code(), p)
	}
}

// dealStreet deals one street to every in-hand seat, one card at a time
// clockwise from the dealer's left.
func (m *Machine) dealStreet(s *Session, plan variant.DealingPlan) error {
	if plan.HoleCards == 0 {
		return nil
	}
	order := seatsClockwiseFrom(nextSeatClockwise(s.DealerSeat, len(s.Seats), s.InHandSeats()), len(s.Seats), s.InHandSeats())
	for c := 0; c < plan.HoleCards; c++ {
		faceUp := plan.FaceUp || (plan.LastFaceUp && c == plan.HoleCards-1)
		for _, idx := range order {
			dealt, err := s.Deck.Draw()
			if err != nil {
				return fmt.Errorf("deal to seat %d: %w", idx, err)
			}
			dealt.FaceUp = faceUp
			s.Seats[idx].Cards = append(s.Seats[idx].Cards, dealt)
		}
	}
	return nil
}

// openBetting builds the betting round for a phase. With fewer than two
// seats able to act the phase is skipped.
func (m *Machine) openBetting(s *Session, p variant.Phase) error {
	var live []int
	for _, idx := range s.InHandSeats() {
		if !s.Seats[idx].AllIn {
			live = append(live, idx)
		}
	}
	if len(live) < 2 {
		s.Round = nil
		return nil
	}

	first := m.flow.FirstActor(s.view(), p)
	order := seatsClockwiseFrom(first, len(s.Seats), live)
	s.Round = betting.NewRound(order, m.flow.Betting(p))

	if bf, ok := m.flow.(variant.BringInFlow); ok {
		if amount := bf.BringIn(p); amount > 0 {
			poster := order[0]
			seat := &s.Seats[poster]
			res := s.Round.PostForced(poster, amount, seat.Stack)
			seat.Stack -= res.Debit
			if res.AllIn {
				seat.AllIn = true
			}
			if res.Debit > 0 {
				if err := s.Ledger.AddContribution(poster, res.Debit); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// markPending opens a Decision or Special phase: every affected seat must
// submit before the flow releases the phase.
func (m *Machine) markPending(s *Session, p variant.Phase) {
	matchPhase := false
	if pm, ok := m.flow.(variant.PotMatchFlow); ok && p == pm.MatchPhase() {
		matchPhase = true
	}
	for _, idx := range s.InHandSeats() {
		seat := &s.Seats[idx]
		if matchPhase && seat.MatchOwed <= 0 {
			continue
		}
		seat.DecisionPending = true
		seat.Decision = ""
		seat.LastDecisionID = ""
	}
}

func (m *Machine) completeHand(s *Session) {
	s.Round = nil
	s.CurrentActor = -1
	s.ActorDeadline = nil

	// Any pot the showdown could not pay out (an emptied eligible set)
	// carries into the next hand instead of vanishing with the ledger.
	if s.Ledger != nil {
		if leftover := s.Ledger.DrainUnawarded(); leftover > 0 {
			s.CarryPot += leftover
			m.logf("unawarded pot carried session_id=%s hand=%d amount=%d", s.ID, s.HandNumber, leftover)
		}
	}

	if len(m.eligibleSeats(s)) < m.flow.MinPlayers() {
		m.endSession(s)
		return
	}
	next := m.now().UTC().Add(m.handInterval)
	s.NextHandAt = &next
}

func (m *Machine) endSession(s *Session) {
	s.Status = SessionStatusEnded
	s.Round = nil
	s.CurrentActor = -1
	s.ActorDeadline = nil
	s.NextHandAt = nil
	s.CoverageDeadline = nil
	m.logf("session ended session_id=%s variant=%s hands=%d", s.ID, s.VariantCode, s.HandNumber)
}

// syncActor points the turn timer at the seat due to act.
func (m *Machine) syncActor(s *Session) {
	actor := s.Round.ActorSeat()
	s.CurrentActor = actor
	if actor < 0 {
		s.ActorDeadline = nil
		return
	}
	deadline := m.now().UTC().Add(m.turnTimeout)
	s.ActorDeadline = &deadline
}

// UseTimeBank grants the acting seat its once-per-hand timer extension.
func (m *Machine) UseTimeBank(s *Session, seatIdx int) error {
	if seatIdx < 0 || seatIdx >= len(s.Seats) {
		return errors.Newf(errors.CodeSeatNotInHand, "seat %d does not exist", seatIdx)
	}
	if m.flow.Category(s.Phase) != variant.CategoryBetting || s.Round == nil || s.Round.ActorSeat() != seatIdx {
		return errors.Newf(errors.CodeNotYourTurn, "seat %d is not due to act", seatIdx)
	}
	seat := &s.Seats[seatIdx]
	if seat.TimeBankUsed {
		return errors.Newf(errors.CodeIllegalAction, "seat %d already used its time bank this hand", seatIdx)
	}
	if s.ActorDeadline == nil {
		return errors.New(errors.CodeIllegalAction, "no turn timer is running")
	}
	extended := s.ActorDeadline.Add(m.timeBank)
	s.ActorDeadline = &extended
	seat.TimeBankUsed = true
	return nil
}

// HandleDue fires whichever timer has expired: a lapsed coverage grace
// period or next-hand pause starts a hand, a lapsed turn timer applies the
// seat's default action. Stale wakeups are no-ops.
func (m *Machine) HandleDue(s *Session) error {
	if s.Status != SessionStatusActive {
		return nil
	}
	now := m.now().UTC()

	if s.CoverageDeadline != nil && !now.Before(*s.CoverageDeadline) {
		return m.StartHand(s)
	}
	if s.BetweenHands() {
		if s.NextHandAt != nil && !now.Before(*s.NextHandAt) {
			return m.StartHand(s)
		}
		return nil
	}

	if m.flow.Category(s.Phase) == variant.CategoryBetting && s.Round != nil && !s.Round.IsComplete() &&
		s.ActorDeadline != nil && !now.Before(*s.ActorDeadline) {
		actor := s.Round.ActorSeat()
		action := Action{Type: s.Round.DefaultAction(actor)}
		m.logf("turn timeout session_id=%s seat=%d action=%s", s.ID, actor, action.Type)
		return m.ApplyAction(s, actor, action)
	}
	return nil
}

// nextSeatClockwise returns the first candidate clockwise after the marker.
func nextSeatClockwise(marker, seatCount int, candidates []int) int {
	if len(candidates) == 0 {
		return -1
	}
	best := candidates[0]
	bestPos := seatCount + 1
	for _, seat := range candidates {
		pos := ((seat - marker - 1) + seatCount) % seatCount
		if pos < bestPos {
			bestPos = pos
			best = seat
		}
	}
	return best
}

// seatsClockwiseFrom orders the candidates clockwise starting at the given
// seat (or the first candidate after it).
func seatsClockwiseFrom(start, seatCount int, candidates []int) []int {
	ordered := append([]int(nil), candidates...)
	pos := func(seat int) int {
		return ((seat - start) + seatCount) % seatCount
	}
	sort.Slice(ordered, func(i, j int) bool {
		return pos(ordered[i]) < pos(ordered[j])
	})
	return ordered
}

package domain

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/RobGibbens/CardGames-sub000/internal/errors"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/betting"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/evaluator"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/pot"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/variant"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *fakeClock) Set(t time.Time)         { c.now = t }

func newTestMachine(t *testing.T, flow variant.Flow, clock *fakeClock) *Machine {
	t.Helper()
	m, err := NewMachine(flow, evaluator.NewStandard(), Config{
		Rand: rand.New(rand.NewSource(7)),
		Now:  clock.Now,
		Logf: func(format string, args ...any) { t.Logf(format, args...) },
	})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

func newTestSession(t *testing.T, code string, stacks ...int64) *Session {
	t.Helper()
	inputs := make([]SeatInput, len(stacks))
	for i, stack := range stacks {
		inputs[i] = SeatInput{PlayerID: "player-" + string(rune('a'+i)), Stack: stack}
	}
	s, err := CreateSession(CreateSessionInput{VariantCode: code, Seats: inputs}, nil, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return &s
}

func assertChips(t *testing.T, s *Session, want int64) {
	t.Helper()
	if got := s.TotalChips(); got != want {
		t.Fatalf("total chips = %d, want %d", got, want)
	}
}

// callOrCheck plays the current actor's passive action: call when facing a
// bet, otherwise check.
func callOrCheck(t *testing.T, m *Machine, s *Session) {
	t.Helper()
	actor := s.CurrentActor
	action := Action{Type: betting.Check}
	if s.Round.Bets[actor] != s.Round.CurrentBet {
		action = Action{Type: betting.Call}
	}
	if err := m.ApplyAction(s, actor, action); err != nil {
		t.Fatalf("seat %d %s in %s: %v", actor, action.Type, s.Phase, err)
	}
}

// playUntil checks or calls through betting phases until the target phase
// is reached or the hand ends.
func playUntil(t *testing.T, m *Machine, s *Session, target variant.Phase) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if s.Phase == target || s.BetweenHands() || s.Status != SessionStatusActive {
			return
		}
		if m.Flow().Category(s.Phase) == variant.CategoryBetting && s.Round != nil {
			callOrCheck(t, m, s)
			continue
		}
		t.Fatalf("hand stalled in phase %s waiting for %s", s.Phase, target)
	}
	t.Fatalf("no progress toward phase %s from %s", target, s.Phase)
}

func TestStartHandDraw(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	if s.Phase != variant.PhaseDrawFirstBet {
		t.Fatalf("phase = %s, want %s", s.Phase, variant.PhaseDrawFirstBet)
	}
	if s.HandNumber != 1 {
		t.Fatalf("hand number = %d, want 1", s.HandNumber)
	}
	if s.DealerSeat != 0 {
		t.Fatalf("dealer = %d, want 0", s.DealerSeat)
	}
	for i := range s.Seats {
		if got := len(s.Seats[i].Cards); got != 5 {
			t.Fatalf("seat %d has %d cards, want 5", i, got)
		}
	}
	if got := s.Ledger.Total(); got != 15 {
		t.Fatalf("pot after antes = %d, want 15", got)
	}
	if s.CurrentActor != 1 {
		t.Fatalf("first actor = %d, want 1", s.CurrentActor)
	}
	if s.ActorDeadline == nil {
		t.Fatal("expected a turn deadline")
	}
	assertChips(t, s, 3000)
}

func TestStartHandTooFewPlayersEndsSession(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if s.Status != SessionStatusEnded {
		t.Fatalf("status = %d, want ended", s.Status)
	}
	if s.NextHandAt != nil {
		t.Fatal("ended session must not schedule a next hand")
	}
}

func TestStartHandWhileInProgress(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	err := m.StartHand(s)
	if !errors.IsCode(err, errors.CodeHandInProgress) {
		t.Fatalf("error = %v, want %s", err, errors.CodeHandInProgress)
	}
}

func TestDrawHandCheckToShowdown(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	playUntil(t, m, s, variant.PhaseDrawExchange)

	if s.Phase != variant.PhaseDrawExchange {
		t.Fatalf("phase = %s, want %s", s.Phase, variant.PhaseDrawExchange)
	}
	for _, idx := range []int{0, 1, 2} {
		if !s.Seats[idx].DecisionPending {
			t.Fatalf("seat %d should owe a draw decision", idx)
		}
	}

	// Seat 0 swaps two cards, the rest stand pat. The hand must hold
	// until the last decision arrives.
	if err := m.ApplyDecision(s, 0, Decision{Discards: []int{0, 1}}); err != nil {
		t.Fatalf("seat 0 exchange: %v", err)
	}
	if s.Phase != variant.PhaseDrawExchange {
		t.Fatalf("phase advanced early to %s", s.Phase)
	}
	if err := m.ApplyDecision(s, 1, Decision{}); err != nil {
		t.Fatalf("seat 1 stand pat: %v", err)
	}
	if err := m.ApplyDecision(s, 2, Decision{}); err != nil {
		t.Fatalf("seat 2 stand pat: %v", err)
	}

	if got := len(s.Seats[0].Cards); got != 5 {
		t.Fatalf("seat 0 has %d cards after exchange, want 5", got)
	}
	playUntil(t, m, s, variant.PhaseComplete)

	if s.Phase != variant.PhaseComplete {
		t.Fatalf("phase = %s, want complete", s.Phase)
	}
	var paid int64
	for _, amount := range s.LastWinnings {
		paid += amount
	}
	if paid != 15 {
		t.Fatalf("winnings paid = %d, want the full 15 pot", paid)
	}
	if s.NextHandAt == nil {
		t.Fatal("expected the next hand to be scheduled")
	}
	assertChips(t, s, 3000)
}

func TestFoldsLeaveDefaultWinner(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if err := m.ApplyAction(s, 1, Action{Type: betting.Bet, Amount: 10}); err != nil {
		t.Fatalf("seat 1 bet: %v", err)
	}
	if err := m.ApplyAction(s, 2, Action{Type: betting.Fold}); err != nil {
		t.Fatalf("seat 2 fold: %v", err)
	}
	if err := m.ApplyAction(s, 0, Action{Type: betting.Fold}); err != nil {
		t.Fatalf("seat 0 fold: %v", err)
	}

	if s.Phase != variant.PhaseComplete {
		t.Fatalf("phase = %s, want complete", s.Phase)
	}
	if got := s.LastWinnings[1]; got != 25 {
		t.Fatalf("seat 1 won %d, want 25", got)
	}
	if got := s.Seats[1].Stack; got != 1010 {
		t.Fatalf("seat 1 stack = %d, want 1010", got)
	}
	assertChips(t, s, 3000)
}

func TestTurnTimeoutDefaultActions(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	// Before the deadline the wakeup is a no-op.
	if err := m.HandleDue(s); err != nil {
		t.Fatalf("HandleDue: %v", err)
	}
	if s.CurrentActor != 1 {
		t.Fatalf("actor changed to %d on a stale wakeup", s.CurrentActor)
	}

	// With nothing to call, the timed-out seat checks.
	clock.Advance(defaultTurnTimeout + time.Second)
	if err := m.HandleDue(s); err != nil {
		t.Fatalf("HandleDue: %v", err)
	}
	if s.Seats[1].Folded {
		t.Fatal("seat 1 should have checked, not folded")
	}
	if s.CurrentActor != 2 {
		t.Fatalf("actor = %d, want 2", s.CurrentActor)
	}

	// Facing a bet, the timed-out seat folds.
	if err := m.ApplyAction(s, 2, Action{Type: betting.Bet, Amount: 10}); err != nil {
		t.Fatalf("seat 2 bet: %v", err)
	}
	clock.Advance(defaultTurnTimeout + time.Second)
	if err := m.HandleDue(s); err != nil {
		t.Fatalf("HandleDue: %v", err)
	}
	if !s.Seats[0].Folded {
		t.Fatal("seat 0 should have folded on timeout")
	}
	assertChips(t, s, 3000)
}

func TestActionIdempotency(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	act := Action{ID: "act-1", Type: betting.Bet, Amount: 10}
	if err := m.ApplyAction(s, 1, act); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	stack := s.Seats[1].Stack
	actor := s.CurrentActor

	// The retry of an already-applied action succeeds without effect.
	if err := m.ApplyAction(s, 1, act); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if s.Seats[1].Stack != stack {
		t.Fatalf("stack changed on replay: %d != %d", s.Seats[1].Stack, stack)
	}
	if s.CurrentActor != actor {
		t.Fatalf("actor changed on replay: %d != %d", s.CurrentActor, actor)
	}
}

func TestTimeBankExtension(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	actor := s.CurrentActor
	original := *s.ActorDeadline

	if err := m.UseTimeBank(s, actor); err != nil {
		t.Fatalf("UseTimeBank: %v", err)
	}
	if got := *s.ActorDeadline; !got.Equal(original.Add(defaultTimeBank)) {
		t.Fatalf("deadline = %v, want %v", got, original.Add(defaultTimeBank))
	}

	// Past the original deadline but inside the extension, no default fires.
	clock.Advance(defaultTurnTimeout + 10*time.Second)
	if err := m.HandleDue(s); err != nil {
		t.Fatalf("HandleDue: %v", err)
	}
	if s.CurrentActor != actor {
		t.Fatalf("actor = %d, want %d", s.CurrentActor, actor)
	}

	if err := m.UseTimeBank(s, actor); !errors.IsCode(err, errors.CodeIllegalAction) {
		t.Fatalf("second extension error = %v, want %s", err, errors.CodeIllegalAction)
	}
	other := s.Seats[1].Index
	if other == actor {
		other = s.Seats[0].Index
	}
	if err := m.UseTimeBank(s, other); !errors.IsCode(err, errors.CodeNotYourTurn) {
		t.Fatalf("off-turn extension error = %v, want %s", err, errors.CodeNotYourTurn)
	}
}

func TestStudBringInAndStreets(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewSevenCardStud(), clock)
	s := newTestSession(t, "seven-card-stud", 500, 500, 500)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if s.Phase != variant.PhaseThirdBetting {
		t.Fatalf("phase = %s, want %s", s.Phase, variant.PhaseThirdBetting)
	}
	for i := range s.Seats {
		if got := len(s.Seats[i].Cards); got != 3 {
			t.Fatalf("seat %d has %d cards, want 3", i, got)
		}
		if got := len(s.Seats[i].ExposedCards()); got != 1 {
			t.Fatalf("seat %d shows %d cards, want the door card only", i, got)
		}
	}
	// Antes plus the posted bring-in.
	if got := s.Ledger.Total(); got != 11 {
		t.Fatalf("pot = %d, want 11", got)
	}
	if s.Round.CurrentBet != 5 {
		t.Fatalf("current bet = %d, want the 5 bring-in", s.Round.CurrentBet)
	}

	playUntil(t, m, s, variant.PhaseFourthBetting)
	for i := range s.Seats {
		if got := len(s.Seats[i].Cards); got != 4 {
			t.Fatalf("seat %d has %d cards on fourth street, want 4", i, got)
		}
		if got := len(s.Seats[i].ExposedCards()); got != 2 {
			t.Fatalf("seat %d shows %d cards on fourth street, want 2", i, got)
		}
	}

	playUntil(t, m, s, variant.PhaseComplete)
	var paid int64
	for _, amount := range s.LastWinnings {
		paid += amount
	}
	if paid != s.Ledger.Total() {
		t.Fatalf("paid %d of a %d pot", paid, s.Ledger.Total())
	}
	assertChips(t, s, 1500)
}

func TestGutsStayDropCycle(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewTwoCardGuts(), clock)
	s := newTestSession(t, "two-card-guts", 1000, 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if s.Phase != variant.PhaseGutsDeclaration {
		t.Fatalf("phase = %s, want %s", s.Phase, variant.PhaseGutsDeclaration)
	}
	for i := range s.Seats {
		if got := len(s.Seats[i].Cards); got != 2 {
			t.Fatalf("seat %d has %d cards, want 2", i, got)
		}
	}

	if err := m.ApplyDecision(s, 0, Decision{Value: DecisionStay}); err != nil {
		t.Fatalf("seat 0 stay: %v", err)
	}
	if err := m.ApplyDecision(s, 1, Decision{Value: DecisionStay}); err != nil {
		t.Fatalf("seat 1 stay: %v", err)
	}
	if err := m.ApplyDecision(s, 2, Decision{Value: DecisionDrop}); err != nil {
		t.Fatalf("seat 2 drop: %v", err)
	}

	var paid int64
	for _, amount := range s.LastWinnings {
		paid += amount
	}
	if paid != 30 {
		t.Fatalf("winnings paid = %d, want the full 30 pot", paid)
	}
	if s.Seats[2].MatchOwed != 0 {
		t.Fatal("a dropped seat never owes a match")
	}

	var losers []int
	for _, idx := range []int{0, 1} {
		if s.Seats[idx].MatchOwed > 0 {
			losers = append(losers, idx)
		}
	}
	if len(losers) == 0 {
		// Stayers tied and split; the hand ends without a match phase.
		if s.Phase != variant.PhaseComplete {
			t.Fatalf("phase = %s, want complete after a split", s.Phase)
		}
		return
	}

	if s.Phase != variant.PhaseGutsPotMatch {
		t.Fatalf("phase = %s, want %s", s.Phase, variant.PhaseGutsPotMatch)
	}
	for _, idx := range losers {
		if got := s.Seats[idx].MatchOwed; got != 30 {
			t.Fatalf("seat %d owes %d, want the full 30 pot", idx, got)
		}
		if err := m.ApplyDecision(s, idx, Decision{Value: DecisionAcknowledge}); err != nil {
			t.Fatalf("seat %d match: %v", idx, err)
		}
	}
	if s.Phase != variant.PhaseComplete {
		t.Fatalf("phase = %s, want complete", s.Phase)
	}
	if got := s.CarryPot; got != int64(30*len(losers)) {
		t.Fatalf("carry = %d, want %d", got, 30*len(losers))
	}
	assertChips(t, s, 3000)

	// The carried chips seed the next hand's pot.
	clock.Set(s.NextHandAt.Add(time.Second))
	if err := m.HandleDue(s); err != nil {
		t.Fatalf("HandleDue next hand: %v", err)
	}
	if s.HandNumber != 2 {
		t.Fatalf("hand number = %d, want 2", s.HandNumber)
	}
	if got := s.Ledger.Total(); got != 30+int64(30*len(losers)) {
		t.Fatalf("next pot = %d, want antes plus carry", got)
	}
	if s.CarryPot != 0 {
		t.Fatalf("carry = %d after seeding, want 0", s.CarryPot)
	}
	assertChips(t, s, 3000)
}

func TestGutsAllDropCarriesPot(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewTwoCardGuts(), clock)
	s := newTestSession(t, "two-card-guts", 1000, 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	for _, idx := range []int{0, 1, 2} {
		if err := m.ApplyDecision(s, idx, Decision{Value: DecisionDrop}); err != nil {
			t.Fatalf("seat %d drop: %v", idx, err)
		}
	}

	if s.Phase != variant.PhaseComplete {
		t.Fatalf("phase = %s, want complete", s.Phase)
	}
	if s.CarryPot != 30 {
		t.Fatalf("carry = %d, want 30", s.CarryPot)
	}
	if len(s.LastWinnings) != 0 {
		t.Fatalf("winnings = %v, want none", s.LastWinnings)
	}
	assertChips(t, s, 3000)
}

func TestGutsChipCoveragePause(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewTwoCardGuts(), clock)
	s := newTestSession(t, "two-card-guts", 1000, 1000, 5)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if s.CoverageDeadline == nil {
		t.Fatal("expected a coverage grace period")
	}
	if !s.BetweenHands() {
		t.Fatalf("hand started in phase %s despite a short stack", s.Phase)
	}

	// Inside the grace period the hand stays paused.
	if err := m.HandleDue(s); err != nil {
		t.Fatalf("HandleDue: %v", err)
	}
	if !s.BetweenHands() {
		t.Fatal("hand started before the grace period expired")
	}

	clock.Advance(31 * time.Second)
	if err := m.HandleDue(s); err != nil {
		t.Fatalf("HandleDue: %v", err)
	}
	if !s.Seats[2].SittingOut {
		t.Fatal("short seat should sit out after the grace period")
	}
	if s.Seats[2].InHand {
		t.Fatal("sitting-out seat was dealt in")
	}
	if s.Phase != variant.PhaseGutsDeclaration {
		t.Fatalf("phase = %s, want %s", s.Phase, variant.PhaseGutsDeclaration)
	}
	if got := s.Ledger.Total(); got != 20 {
		t.Fatalf("pot = %d, want antes from the two covered seats", got)
	}
}

func TestBuyCardOption(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewSevenStudBuyCard(), clock)
	s := newTestSession(t, "seven-stud-buy-card", 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	playUntil(t, m, s, variant.PhaseBuyOption)
	if s.Phase != variant.PhaseBuyOption {
		t.Fatalf("phase = %s, want %s", s.Phase, variant.PhaseBuyOption)
	}

	potBefore := s.Ledger.Total()
	stackBefore := s.Seats[0].Stack
	if err := m.ApplyDecision(s, 0, Decision{Value: DecisionBuy}); err != nil {
		t.Fatalf("seat 0 buy: %v", err)
	}
	if got := len(s.Seats[0].Cards); got != 7 {
		t.Fatalf("buyer has %d cards, want 7 right after buying", got)
	}
	if !s.Seats[0].Cards[6].FaceUp {
		t.Fatal("the bought card is dealt face up")
	}
	if got := s.Seats[0].Stack; got != stackBefore-25 {
		t.Fatalf("buyer stack = %d, want %d", got, stackBefore-25)
	}
	if got := s.Ledger.Total(); got != potBefore+25 {
		t.Fatalf("pot = %d, want %d", got, potBefore+25)
	}

	if err := m.ApplyDecision(s, 1, Decision{Value: DecisionPass}); err != nil {
		t.Fatalf("seat 1 pass: %v", err)
	}
	if s.Phase != variant.PhaseFinalBetting {
		t.Fatalf("phase = %s, want %s", s.Phase, variant.PhaseFinalBetting)
	}
	if got := len(s.Seats[0].Cards); got != 8 {
		t.Fatalf("buyer has %d cards after seventh street, want 8", got)
	}
	if got := len(s.Seats[1].Cards); got != 7 {
		t.Fatalf("passer has %d cards after seventh street, want 7", got)
	}

	playUntil(t, m, s, variant.PhaseComplete)
	var paid int64
	for _, amount := range s.LastWinnings {
		paid += amount
	}
	if paid != s.Ledger.Total() {
		t.Fatalf("paid %d of a %d pot", paid, s.Ledger.Total())
	}
	assertChips(t, s, 2000)
}

func TestActionsRejectedOutsideBetting(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewTwoCardGuts(), clock)
	s := newTestSession(t, "two-card-guts", 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	err := m.ApplyAction(s, 0, Action{Type: betting.Check})
	if !errors.IsCode(err, errors.CodeIllegalAction) {
		t.Fatalf("error = %v, want %s", err, errors.CodeIllegalAction)
	}
}

func TestDecisionsRejectedWhileBetting(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	err := m.ApplyDecision(s, s.CurrentActor, Decision{Value: DecisionStay})
	if !errors.IsCode(err, errors.CodeDecisionNotPending) {
		t.Fatalf("error = %v, want %s", err, errors.CodeDecisionNotPending)
	}
}

func TestDrawExchangeValidation(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	playUntil(t, m, s, variant.PhaseDrawExchange)

	seat := s.InHandSeats()[0]
	if err := m.ApplyDecision(s, seat, Decision{Discards: []int{9}}); !errors.IsCode(err, errors.CodeIllegalAction) {
		t.Fatalf("out-of-range discard error = %v, want %s", err, errors.CodeIllegalAction)
	}
	if err := m.ApplyDecision(s, seat, Decision{Discards: []int{1, 1}}); !errors.IsCode(err, errors.CodeIllegalAction) {
		t.Fatalf("repeated discard error = %v, want %s", err, errors.CodeIllegalAction)
	}
	if !s.Seats[seat].DecisionPending {
		t.Fatal("a rejected decision must stay pending")
	}
}

func TestConcurrentHandStartsShareOneMachine(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)

	const sessionCount = 8
	sessions := make([]*Session, sessionCount)
	for i := range sessions {
		sessions[i] = newTestSession(t, "five-card-draw", 1000, 1000, 1000)
	}

	// One machine serves every session of its variant; the scheduler can
	// start hands for different sessions at the same time.
	var wg sync.WaitGroup
	startErrs := make([]error, sessionCount)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			startErrs[i] = m.StartHand(sessions[i])
		}(i)
	}
	wg.Wait()

	for i, s := range sessions {
		if startErrs[i] != nil {
			t.Fatalf("session %d StartHand: %v", i, startErrs[i])
		}
		if s.Phase != variant.PhaseDrawFirstBet {
			t.Fatalf("session %d phase = %s, want %s", i, s.Phase, variant.PhaseDrawFirstBet)
		}
		if remaining := s.Deck.Remaining(); remaining != 37 {
			t.Fatalf("session %d deck remaining = %d, want 37", i, remaining)
		}
		assertChips(t, s, 3000)
	}
}

func TestCompleteHandCarriesUnawardedPot(t *testing.T) {
	clock := newFakeClock()
	m := newTestMachine(t, variant.NewFiveCardDraw(), clock)
	s := newTestSession(t, "five-card-draw", 1000, 1000, 1000)

	if err := m.StartHand(s); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	total := s.TotalChips()

	// Layer the antes into a pot whose eligible set has emptied, the one
	// shape AwardPots skips over.
	s.Ledger.CalculateSidePots([]pot.SeatState{
		{Seat: 0, Folded: true},
		{Seat: 1, Folded: true},
		{Seat: 2, Folded: true},
	})
	m.completeHand(s)

	if s.CarryPot != 15 {
		t.Fatalf("carry pot = %d, want 15", s.CarryPot)
	}
	assertChips(t, s, total)
	if got := s.Ledger.Outstanding(); got != 0 {
		t.Fatalf("outstanding after sweep = %d, want 0", got)
	}
	if s.NextHandAt == nil {
		t.Fatal("expected the next hand to be scheduled")
	}
}

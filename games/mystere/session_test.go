package mystere

import (
	"errors"
	"testing"
)

// scriptedDice replays a fixed sequence of rolls.
type scriptedDice struct {
	rolls []int
	i     int
}

func (d *scriptedDice) Roll() int {
	n := d.rolls[d.i%len(d.rolls)]
	d.i++
	return n
}

func mustJoin(t *testing.T, s *Session, userID int64, number int) {
	t.Helper()
	if err := s.Apply(Join{UserID: userID, Handle: "player", Number: number}); err != nil {
		t.Fatalf("Join(%d, %d) failed: %v", userID, number, err)
	}
}

func mustReady(t *testing.T, s *Session, dealerID int64) {
	t.Helper()
	if err := s.Apply(AssignDealer{UserID: dealerID, Authorized: true}); err != nil {
		t.Fatalf("AssignDealer(%d) failed: %v", dealerID, err)
	}
}

func TestJoinTransitions(t *testing.T) {
	s := newSession("m1", 100, 1, 6)

	if got := s.Snapshot().Status; got != StatusOpen {
		t.Fatalf("Expected open status, got %s", got)
	}

	mustJoin(t, s, 1, 1)
	if got := s.Snapshot().Status; got != StatusOpen {
		t.Errorf("Expected open with a single player, got %s", got)
	}

	mustJoin(t, s, 2, 2)
	if got := s.Snapshot().Status; got != StatusDealerPending {
		t.Errorf("Expected dealer_pending with two players, got %s", got)
	}
}

func TestJoinRejectsDuplicateUser(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)

	if err := s.Apply(Join{UserID: 1, Handle: "player", Number: 2}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Expected ErrAlreadyRegistered, got %v", err)
	}
	if got := len(s.Snapshot().Players); got != 1 {
		t.Errorf("Expected rejected join to leave 1 player, got %d", got)
	}
}

func TestJoinRejectsTakenNumber(t *testing.T) {
	s := newSession("m1", 50, 1, 6)
	mustJoin(t, s, 1, 4)

	if err := s.Apply(Join{UserID: 2, Handle: "player", Number: 4}); !errors.Is(err, ErrNumberTaken) {
		t.Errorf("Expected ErrNumberTaken, got %v", err)
	}
}

func TestJoinRejectsOutOfRangeNumber(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	for _, n := range []int{0, 7, -1} {
		if err := s.Apply(Join{UserID: 9, Handle: "player", Number: n}); !errors.Is(err, ErrNumberTaken) {
			t.Errorf("Join with number %d: expected ErrNumberTaken, got %v", n, err)
		}
	}
}

func TestJoinRejectsWhenFull(t *testing.T) {
	s := newSession("m1", 100, 1, 2)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)

	if err := s.Apply(Join{UserID: 3, Handle: "player", Number: 3}); !errors.Is(err, ErrSessionFull) {
		t.Errorf("Expected ErrSessionFull, got %v", err)
	}
	if got := len(s.Snapshot().Players); got != 2 {
		t.Errorf("Expected player count unchanged at 2, got %d", got)
	}
}

func TestClaimedNumbersUnique(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)
	mustJoin(t, s, 3, 3)

	claimed := s.ClaimedNumbers()
	if len(claimed) != 3 {
		t.Errorf("Expected 3 distinct claimed numbers, got %d", len(claimed))
	}
	for _, n := range []int{1, 2, 3} {
		if !claimed[n] {
			t.Errorf("Expected number %d to be claimed", n)
		}
	}
}

func TestLeaveNotRegistered(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	if err := s.Apply(Leave{UserID: 42}); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Expected ErrNotRegistered, got %v", err)
	}
}

func TestCreatorLeaveCancelsEverything(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1) // creator
	mustJoin(t, s, 2, 2)
	mustJoin(t, s, 3, 3)

	if err := s.Apply(Leave{UserID: 1}); err != nil {
		t.Fatalf("Creator leave failed: %v", err)
	}

	snap := s.Snapshot()
	if snap.Status != StatusCancelled {
		t.Errorf("Expected cancelled status, got %s", snap.Status)
	}
	if len(snap.Players) != 0 {
		t.Errorf("Expected all players evicted, got %d remaining", len(snap.Players))
	}
}

func TestLeaveBelowMinimumClearsDealer(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)
	mustReady(t, s, 10)

	if err := s.Apply(Leave{UserID: 2}); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	snap := s.Snapshot()
	if snap.Status != StatusOpen {
		t.Errorf("Expected status to revert to open, got %s", snap.Status)
	}
	if snap.Dealer != 0 {
		t.Errorf("Expected dealer cleared, got %d", snap.Dealer)
	}
}

func TestAssignDealerPreconditions(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)

	if err := s.Apply(AssignDealer{UserID: 10, Authorized: false}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	if err := s.Apply(AssignDealer{UserID: 10, Authorized: true}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("Expected ErrNotEnoughPlayers with one player, got %v", err)
	}

	mustJoin(t, s, 2, 2)
	mustReady(t, s, 10)
	if got := s.Snapshot().Status; got != StatusReady {
		t.Fatalf("Expected ready status, got %s", got)
	}

	if err := s.Apply(AssignDealer{UserID: 11, Authorized: true}); !errors.Is(err, ErrDealerAssigned) {
		t.Errorf("Expected ErrDealerAssigned, got %v", err)
	}
}

func TestResolveAuthorization(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)

	// No dealer yet: nobody may resolve
	if err := s.Apply(Resolve{UserID: 1}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized before a dealer exists, got %v", err)
	}

	mustReady(t, s, 10)
	if err := s.Apply(Resolve{UserID: 1}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for a non-dealer, got %v", err)
	}

	if err := s.Apply(Resolve{UserID: 10}); err != nil {
		t.Fatalf("Dealer resolve failed: %v", err)
	}
	if err := s.Apply(Resolve{UserID: 10}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady for a second resolve, got %v", err)
	}
}

func TestJoinAllowedAfterDealerSeated(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)
	mustReady(t, s, 10)

	mustJoin(t, s, 3, 3)
	snap := s.Snapshot()
	if snap.Status != StatusReady {
		t.Errorf("Expected status to stay ready after a late join, got %s", snap.Status)
	}
	if len(snap.Players) != 3 {
		t.Errorf("Expected 3 players, got %d", len(snap.Players))
	}
}

func TestResolvingRejectsMutations(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)
	mustReady(t, s, 10)
	if err := s.Apply(Resolve{UserID: 10}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if err := s.Apply(Join{UserID: 3, Handle: "player", Number: 3}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected join rejected while resolving, got %v", err)
	}
	if err := s.Apply(Leave{UserID: 1}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected leave rejected while resolving, got %v", err)
	}
}

func TestDrawRequiresResolvingState(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)

	if _, err := s.Draw(&scriptedDice{rolls: []int{1}}, nil); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady without a resolve, got %v", err)
	}
}

func TestDrawRerollsUntilSomeoneWins(t *testing.T) {
	s := newSession("m1", 10, 1, 6)
	for userID, number := range map[int64]int{1: 1, 2: 2, 3: 3, 4: 4} {
		mustJoin(t, s, userID, number)
	}
	mustReady(t, s, 10)
	if err := s.Apply(Resolve{UserID: 10}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var rerolls []int
	var countdowns int
	res, err := s.Draw(&scriptedDice{rolls: []int{5, 6, 2}}, func(ev DrawEvent) {
		if ev.Rerolled > 0 {
			rerolls = append(rerolls, ev.Rerolled)
		}
		if ev.Countdown > 0 {
			countdowns++
		}
	})
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	if res.DrawnNumber != 2 {
		t.Errorf("Expected drawn number 2, got %d", res.DrawnNumber)
	}
	if len(res.Winners) != 1 || res.Winners[0] != 2 {
		t.Errorf("Expected winner [2], got %v", res.Winners)
	}
	if len(rerolls) != 2 || rerolls[0] != 5 || rerolls[1] != 6 {
		t.Errorf("Expected rerolls [5 6], got %v", rerolls)
	}
	// Five ticks before each of the three rolls
	if countdowns != 15 {
		t.Errorf("Expected 15 countdown ticks, got %d", countdowns)
	}
	if got := s.Snapshot().Status; got != StatusResolved {
		t.Errorf("Expected resolved status, got %s", got)
	}
}

func TestDrawPayouts(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)
	mustJoin(t, s, 3, 3)
	mustReady(t, s, 10)
	if err := s.Apply(Resolve{UserID: 10}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	res, err := s.Draw(&scriptedDice{rolls: []int{2}}, nil)
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	if res.Pot != 300 {
		t.Errorf("Expected pot 300, got %d", res.Pot)
	}
	if res.Commission != 15 {
		t.Errorf("Expected commission 15, got %d", res.Commission)
	}
	if res.Share != 285 {
		t.Errorf("Expected share 285, got %d", res.Share)
	}
	if res.Payouts[2] != 285 {
		t.Errorf("Expected winner payout 285, got %d", res.Payouts[2])
	}
	if res.Payouts[1] != 0 || res.Payouts[3] != 0 {
		t.Errorf("Expected losers to get 0, got %d and %d", res.Payouts[1], res.Payouts[3])
	}
}

func TestDrawFloorDivisionBound(t *testing.T) {
	s := newSession("m1", 10, 1, 6)
	mustJoin(t, s, 1, 1)
	mustJoin(t, s, 2, 2)
	mustJoin(t, s, 3, 3)
	mustReady(t, s, 10)
	if err := s.Apply(Resolve{UserID: 10}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	res, err := s.Draw(&scriptedDice{rolls: []int{1}}, nil)
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	// pot=30, commission=1, net=29; the remainder is absorbed, not redistributed
	net := res.Pot - res.Commission
	winners := int64(len(res.Winners))
	if res.Share*winners > net {
		t.Errorf("Payout overshoots the net pot: %d * %d > %d", res.Share, winners, net)
	}
	if net >= res.Share*winners+winners {
		t.Errorf("Floor division remainder too large: net %d, share %d, winners %d", net, res.Share, winners)
	}
}

func TestExpireOnlyWhileShortOfPlayers(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 1, 1)

	if !s.Expire() {
		t.Error("Expected expiry with a single player")
	}
	if got := s.Snapshot().Status; got != StatusExpired {
		t.Errorf("Expected expired status, got %s", got)
	}

	s2 := newSession("m2", 100, 1, 6)
	mustJoin(t, s2, 1, 1)
	mustJoin(t, s2, 2, 2)
	if s2.Expire() {
		t.Error("Expected no expiry with enough players")
	}
}

func TestSnapshotPreservesJoinOrder(t *testing.T) {
	s := newSession("m1", 100, 1, 6)
	mustJoin(t, s, 5, 3)
	mustJoin(t, s, 2, 1)
	mustJoin(t, s, 9, 6)

	snap := s.Snapshot()
	want := []int64{5, 2, 9}
	for i, p := range snap.Players {
		if p.UserID != want[i] {
			t.Fatalf("Expected join order %v, got position %d = %d", want, i, p.UserID)
		}
	}
}

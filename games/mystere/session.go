package mystere

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"mystere-go/utils"
)

type Status string

const (
	StatusOpen          Status = "open"           // accepting players
	StatusDealerPending Status = "dealer_pending" // >=2 players, waiting for a croupier
	StatusReady         Status = "ready"          // croupier assigned, can be resolved
	StatusResolving     Status = "resolving"      // draw in progress, no further mutations
	StatusResolved      Status = "resolved"
	StatusCancelled     Status = "cancelled"
	StatusExpired       Status = "expired"
)

// Player is one registered participant and the number they claimed.
type Player struct {
	Handle string
	Number int
}

// Session is one running game of Numéro Mystère. All mutations funnel through
// Apply under the session's lock; the only long-running operation, Draw, runs
// unlocked and relies on StatusResolving to keep other events out.
type Session struct {
	ID          string
	Stake       int64
	CreatorID   int64
	PlayerLimit int

	mu      sync.Mutex
	players map[int64]*Player
	order   []int64 // join order, drives iteration everywhere
	dealer  int64   // 0 until a croupier joins
	status  Status
}

func newSession(id string, stake int64, creatorID int64, playerLimit int) *Session {
	return &Session{
		ID:          id,
		Stake:       stake,
		CreatorID:   creatorID,
		PlayerLimit: playerLimit,
		players:     make(map[int64]*Player),
		status:      StatusOpen,
	}
}

// Event is a request to mutate a session: Join, Leave, AssignDealer or Resolve.
type Event interface{ event() }

// Join registers a player with their chosen number.
type Join struct {
	UserID int64
	Handle string
	Number int
}

// Leave removes a player. A leaving creator cancels the whole session.
type Leave struct {
	UserID int64
}

// AssignDealer makes the user the session's croupier. Authorized carries the
// role check, supplied by the caller; the session treats it as opaque.
type AssignDealer struct {
	UserID     int64
	Authorized bool
}

// Resolve asks the assigned croupier to start the draw.
type Resolve struct {
	UserID int64
}

func (Join) event()         {}
func (Leave) event()        {}
func (AssignDealer) event() {}
func (Resolve) event()      {}

// Apply runs one event through the state machine. A non-nil error means the
// event was rejected and the session is unchanged.
func (s *Session) Apply(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case Join:
		return s.join(e)
	case Leave:
		return s.leave(e)
	case AssignDealer:
		return s.assignDealer(e)
	case Resolve:
		return s.beginResolve(e)
	default:
		return fmt.Errorf("unknown event %T", ev)
	}
}

func (s *Session) join(e Join) error {
	// Late joins are allowed even after a croupier is seated, until the draw
	if s.status != StatusOpen && s.status != StatusDealerPending && s.status != StatusReady {
		return ErrNotReady
	}
	if _, exists := s.players[e.UserID]; exists {
		return ErrAlreadyRegistered
	}
	if e.Number < utils.MinNumber || e.Number > utils.MaxNumber {
		return ErrNumberTaken
	}
	for _, p := range s.players {
		if p.Number == e.Number {
			return ErrNumberTaken
		}
	}
	if len(s.players) >= s.PlayerLimit {
		return ErrSessionFull
	}

	s.players[e.UserID] = &Player{Handle: e.Handle, Number: e.Number}
	s.order = append(s.order, e.UserID)
	if len(s.players) >= utils.MinPlayers && s.dealer == 0 {
		s.status = StatusDealerPending
	}
	return nil
}

func (s *Session) leave(e Leave) error {
	if s.status != StatusOpen && s.status != StatusDealerPending && s.status != StatusReady {
		return ErrNotReady
	}
	if _, exists := s.players[e.UserID]; !exists {
		return ErrNotRegistered
	}

	// The creator pulling out takes the whole table with them.
	if e.UserID == s.CreatorID {
		s.players = make(map[int64]*Player)
		s.order = nil
		s.dealer = 0
		s.status = StatusCancelled
		return nil
	}

	delete(s.players, e.UserID)
	for i, id := range s.order {
		if id == e.UserID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if len(s.players) < utils.MinPlayers {
		s.dealer = 0
		s.status = StatusOpen
	}
	return nil
}

func (s *Session) assignDealer(e AssignDealer) error {
	if !e.Authorized {
		return ErrUnauthorized
	}
	if len(s.players) < utils.MinPlayers {
		return ErrNotEnoughPlayers
	}
	if s.dealer != 0 {
		return ErrDealerAssigned
	}
	if s.status != StatusDealerPending {
		return ErrNotReady
	}

	s.dealer = e.UserID
	s.status = StatusReady
	return nil
}

func (s *Session) beginResolve(e Resolve) error {
	if s.dealer == 0 || e.UserID != s.dealer {
		return ErrUnauthorized
	}
	if s.status != StatusReady {
		return ErrNotReady
	}

	s.status = StatusResolving
	return nil
}

// Roller yields one uniformly random die face in [1,6].
type Roller interface {
	Roll() int
}

type dice struct {
	rng *rand.Rand
}

// NewDice returns the production Roller.
func NewDice() Roller {
	return &dice{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (d *dice) Roll() int {
	return utils.MinNumber + d.rng.Intn(utils.MaxNumber-utils.MinNumber+1)
}

// DrawEvent reports draw progress so the presentation layer can animate it.
// Countdown > 0 is a tick before the next roll; Rerolled > 0 is a sample that
// matched nobody and was discarded.
type DrawEvent struct {
	Countdown int
	Rerolled  int
}

// Resolution is the final outcome of a resolved session.
type Resolution struct {
	DrawnNumber int
	Winners     []int64 // join order; Winners[0] is the winner of record
	Pot         int64
	Commission  int64
	Share       int64 // per-winner payout, floor division of the net pot
	Payouts     map[int64]int64
}

// Draw runs the draw protocol: countdown ticks, a roll, and a re-roll whenever
// the sample matches no claimed number, so every resolution ends with at least
// one winner. Only legal once Resolve has moved the session to resolving. The
// observe callback is the sole suspension point; it may sleep, during which
// other sessions keep running while this one rejects events.
func (s *Session) Draw(dice Roller, observe func(DrawEvent)) (*Resolution, error) {
	s.mu.Lock()
	if s.status != StatusResolving {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	order := append([]int64(nil), s.order...)
	numbers := make(map[int64]int, len(s.players))
	for id, p := range s.players {
		numbers[id] = p.Number
	}
	stake := s.Stake
	s.mu.Unlock()

	if observe == nil {
		observe = func(DrawEvent) {}
	}

	var drawn int
	var winners []int64
	for {
		for i := utils.CountdownSeconds; i > 0; i-- {
			observe(DrawEvent{Countdown: i})
		}
		drawn = dice.Roll()
		winners = winners[:0]
		for _, id := range order {
			if numbers[id] == drawn {
				winners = append(winners, id)
			}
		}
		if len(winners) > 0 {
			break
		}
		observe(DrawEvent{Rerolled: drawn})
	}

	pot := stake * int64(len(order))
	commission := int64(float64(pot) * utils.CommissionRate)
	net := pot - commission
	share := net / int64(len(winners))

	payouts := make(map[int64]int64, len(order))
	for _, id := range order {
		payouts[id] = 0
	}
	for _, id := range winners {
		payouts[id] = share
	}

	s.mu.Lock()
	s.status = StatusResolved
	s.mu.Unlock()

	return &Resolution{
		DrawnNumber: drawn,
		Winners:     append([]int64(nil), winners...),
		Pot:         pot,
		Commission:  commission,
		Share:       share,
		Payouts:     payouts,
	}, nil
}

// Expire moves a lobby that never filled up to its terminal state. It only
// fires while the session is still short of players; otherwise it reports
// false and the session continues.
func (s *Session) Expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if (s.status == StatusOpen || s.status == StatusDealerPending) && len(s.players) < utils.MinPlayers {
		s.status = StatusExpired
		return true
	}
	return false
}

// HasPlayer reports whether the user is registered in this session.
func (s *Session) HasPlayer(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.players[userID]
	return ok
}

// SnapshotPlayer is one player entry in a snapshot.
type SnapshotPlayer struct {
	UserID int64
	Handle string
	Number int
}

// Snapshot is a copied view of a session for rendering. Collaborators never
// see the live player map.
type Snapshot struct {
	ID          string
	Stake       int64
	CreatorID   int64
	PlayerLimit int
	Players     []SnapshotPlayer // join order
	Dealer      int64
	Status      Status
}

// Snapshot returns a consistent copy of the session's observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]SnapshotPlayer, 0, len(s.order))
	for _, id := range s.order {
		p := s.players[id]
		players = append(players, SnapshotPlayer{UserID: id, Handle: p.Handle, Number: p.Number})
	}
	return Snapshot{
		ID:          s.ID,
		Stake:       s.Stake,
		CreatorID:   s.CreatorID,
		PlayerLimit: s.PlayerLimit,
		Players:     players,
		Dealer:      s.dealer,
		Status:      s.status,
	}
}

// ClaimedNumbers returns the set of numbers already taken, for button states.
func (s *Session) ClaimedNumbers() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimed := make(map[int]bool, len(s.players))
	for _, p := range s.players {
		claimed[p.Number] = true
	}
	return claimed
}

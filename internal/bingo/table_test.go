package bingo

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bingo-service/internal/models"
)

type fakeTick struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTick) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeClock struct {
	mu    sync.Mutex
	ticks []*fakeTick
}

func (c *fakeClock) newTicker(time.Duration) (<-chan time.Time, func()) {
	tk := &fakeTick{c: make(chan time.Time)}
	c.mu.Lock()
	c.ticks = append(c.ticks, tk)
	c.mu.Unlock()
	return tk.c, func() {
		tk.mu.Lock()
		tk.stopped = true
		tk.mu.Unlock()
	}
}

func (c *fakeClock) latest(t *testing.T) *fakeTick {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ticks) == 0 {
		t.Fatalf("no ticker started")
	}
	return c.ticks[len(c.ticks)-1]
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ticks)
}

func waitSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a state change")
	}
	return Snapshot{}
}

func TestTableTimerDrivesSession(t *testing.T) {
	clock := &fakeClock{}
	changes := make(chan Snapshot, 16)
	table := NewTable(firstPick{}, nil,
		WithTicker(clock.newTicker),
		WithOnChange(func(s Snapshot) { changes <- s }),
	)
	defer table.Close()

	card := newCard(4, player("a"), player("b"), player("c"))
	if _, err := table.NewGame(card, Options{Profile: Classic, Timed: true, TurnSeconds: 2}); err != nil {
		t.Fatalf("new game error: %v", err)
	}
	waitSnapshot(t, changes)

	tk := clock.latest(t)
	tk.c <- time.Now()
	if snap := waitSnapshot(t, changes); snap.TimeRemaining != 1 {
		t.Fatalf("time remaining = %d, want 1", snap.TimeRemaining)
	}

	tk.c <- time.Now()
	snap := waitSnapshot(t, changes)
	if snap.TimeRemaining != 2 || len(snap.UsedPlayerIDs) != 1 {
		t.Fatalf("after expiry: remaining=%d used=%v", snap.TimeRemaining, snap.UsedPlayerIDs)
	}
}

func TestTableNewGameReplacesTimer(t *testing.T) {
	clock := &fakeClock{}
	table := NewTable(firstPick{}, nil, WithTicker(clock.newTicker))
	defer table.Close()

	card := newCard(4, player("a"), player("b"))
	opts := Options{Profile: Classic, Timed: true}
	if _, err := table.NewGame(card, opts); err != nil {
		t.Fatalf("new game error: %v", err)
	}
	first := clock.latest(t)

	if _, err := table.Skip(); err != nil {
		t.Fatalf("skip error: %v", err)
	}

	snap, err := table.NewGame(card, opts)
	if err != nil {
		t.Fatalf("new game error: %v", err)
	}
	if !first.isStopped() {
		t.Fatalf("previous ticker still running")
	}
	if clock.count() != 2 {
		t.Fatalf("tickers started = %d, want 2", clock.count())
	}
	if len(snap.UsedPlayerIDs) != 0 {
		t.Fatalf("used players leaked into the new game: %v", snap.UsedPlayerIDs)
	}
}

func TestTableFailedNewGameKeepsSession(t *testing.T) {
	clock := &fakeClock{}
	table := NewTable(firstPick{}, nil, WithTicker(clock.newTicker))
	defer table.Close()

	if _, err := table.NewGame(newCard(2, player("a"), player("b")), Options{Profile: Classic, Timed: true}); err != nil {
		t.Fatalf("new game error: %v", err)
	}
	tk := clock.latest(t)

	if _, err := table.NewGame(newCard(2), Options{Profile: Classic, Timed: true}); !errors.Is(err, ErrNoPlayers) {
		t.Fatalf("new game err = %v, want ErrNoPlayers", err)
	}
	if tk.isStopped() {
		t.Fatalf("failed start stopped the running game's ticker")
	}
	snap, ok := table.Snapshot()
	if !ok || snap.Phase != PhasePlaying {
		t.Fatalf("running game lost: ok=%v phase=%s", ok, snap.Phase)
	}
}

func TestTableEndStopsTimerAndReportsOnce(t *testing.T) {
	clock := &fakeClock{}
	var results []models.BingoResult
	table := NewTable(firstPick{}, nil,
		WithTicker(clock.newTicker),
		WithOnEnd(func(r models.BingoResult) { results = append(results, r) }),
	)
	defer table.Close()

	if _, err := table.NewGame(newCard(3, player("solo", 1)), Options{Profile: Hard, Timed: true}); err != nil {
		t.Fatalf("new game error: %v", err)
	}

	valid, snap, err := table.Select(1)
	if err != nil || !valid {
		t.Fatalf("select = %v, %v", valid, err)
	}
	if snap.Phase != PhaseEnd {
		t.Fatalf("phase = %s, want end", snap.Phase)
	}
	if !clock.latest(t).isStopped() {
		t.Fatalf("ticker still running after the game ended")
	}

	if _, err := table.Skip(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("skip after end err = %v, want ErrNotPlaying", err)
	}
	if len(results) != 1 {
		t.Fatalf("end reported %d times, want 1", len(results))
	}
	if r := results[0]; r.Outcome != string(OutcomeLoss) || r.Matched != 1 || r.Total != 3 {
		t.Fatalf("result = %+v", r)
	}
}

func TestTableUntimedStartsNoTicker(t *testing.T) {
	clock := &fakeClock{}
	table := NewTable(firstPick{}, nil, WithTicker(clock.newTicker))
	defer table.Close()

	if _, err := table.NewGame(newCard(2, player("a")), Options{Profile: Classic}); err != nil {
		t.Fatalf("new game error: %v", err)
	}
	if clock.count() != 0 {
		t.Fatalf("untimed game started a ticker")
	}
}

func TestTableWithoutGame(t *testing.T) {
	table := NewTable(firstPick{}, nil)

	if _, ok := table.Snapshot(); ok {
		t.Fatalf("snapshot reported a game before NewGame")
	}
	if _, _, err := table.Wildcard(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("wildcard err = %v, want ErrNotPlaying", err)
	}
	if table.Card() != nil {
		t.Fatalf("card should be nil before NewGame")
	}
}

func TestTableCallbacksFollowStateOrder(t *testing.T) {
	var players []models.Player
	for i := 0; i < 40; i++ {
		players = append(players, player(fmt.Sprintf("p%d", i)))
	}

	var (
		mu   sync.Mutex
		used []int
	)
	table := NewTable(firstPick{}, nil, WithOnChange(func(s Snapshot) {
		mu.Lock()
		used = append(used, len(s.UsedPlayerIDs))
		mu.Unlock()
	}))
	defer table.Close()

	if _, err := table.NewGame(newCard(3, players...), Options{Profile: Classic}); err != nil {
		t.Fatalf("new game error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table.Skip()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(used) != 21 {
		t.Fatalf("callbacks = %d, want 21", len(used))
	}
	for i := 1; i < len(used); i++ {
		if used[i] != used[i-1]+1 {
			t.Fatalf("callback %d saw %d used players after %d", i, used[i], used[i-1])
		}
	}
}

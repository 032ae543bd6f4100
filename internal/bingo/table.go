package bingo

import (
	"sync"
	"time"

	"bingo-service/internal/models"
)

// TickerFunc starts a recurring tick and returns its channel and a stop func.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type TableOption func(*Table)

// WithOnChange registers a callback receiving the state after every
// operation and timer tick. It must not call back into the Table.
func WithOnChange(fn func(Snapshot)) TableOption {
	return func(t *Table) { t.onChange = fn }
}

// WithOnEnd registers a callback fired once per session when it ends.
func WithOnEnd(fn func(models.BingoResult)) TableOption {
	return func(t *Table) { t.onEnd = fn }
}

func WithTicker(fn TickerFunc) TableOption {
	return func(t *Table) { t.newTicker = fn }
}

// Table owns the current Session and its countdown. Operations are
// serialised, so the session behaves as if driven by a single event loop.
type Table struct {
	mu sync.Mutex
	// emitMu is taken before mu is released so callbacks observe states in
	// the order they were produced.
	emitMu    sync.Mutex
	rng       RandomSource
	notifier  Notifier
	session   *Session
	reported  *Session
	stopTimer func()

	newTicker TickerFunc
	onChange  func(Snapshot)
	onEnd     func(models.BingoResult)
}

func NewTable(rng RandomSource, notifier Notifier, opts ...TableOption) *Table {
	t := &Table{
		rng:       rng,
		notifier:  notifier,
		newTicker: systemTicker,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewGame replaces the current session with a fresh one on card. If no
// player can be drawn the previous session is left as it was.
func (t *Table) NewGame(card *models.Card, opts Options) (Snapshot, error) {
	t.mu.Lock()

	s := NewSession(opts, t.rng, t.notifier)
	if err := s.StartGame(card); err != nil {
		t.mu.Unlock()
		return s.Snapshot(), err
	}

	t.stopTimerLocked()
	t.session = s
	t.armLocked()

	snap := s.Snapshot()
	t.unlockAndEmit(snap, nil)
	return snap, nil
}

func (t *Table) Select(id int) (bool, Snapshot, error) {
	var valid bool
	snap, err := t.do(func(s *Session) error {
		var err error
		valid, err = s.SelectCategory(id)
		return err
	})
	return valid, snap, err
}

func (t *Table) Wildcard() ([]int, Snapshot, error) {
	var matched []int
	snap, err := t.do(func(s *Session) error {
		var err error
		matched, err = s.UseWildcard()
		return err
	})
	return matched, snap, err
}

func (t *Table) Skip() (Snapshot, error) {
	return t.do(func(s *Session) error {
		return s.Skip()
	})
}

// Snapshot returns the current state; ok is false before the first game.
func (t *Table) Snapshot() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return Snapshot{Phase: PhaseStart}, false
	}
	return t.session.Snapshot(), true
}

func (t *Table) Card() *models.Card {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil
	}
	return t.session.Card()
}

// Close releases the countdown. The table keeps its last state.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimerLocked()
	t.session = nil
}

func (t *Table) do(op func(*Session) error) (Snapshot, error) {
	t.mu.Lock()

	s := t.session
	if s == nil {
		t.mu.Unlock()
		return Snapshot{Phase: PhaseStart}, ErrNotPlaying
	}
	if err := op(s); err != nil {
		snap := s.Snapshot()
		t.mu.Unlock()
		return snap, err
	}

	ended := t.settleLocked(s)
	snap := s.Snapshot()
	t.unlockAndEmit(snap, ended)
	return snap, nil
}

// settleLocked releases the countdown once s left the playing phase and
// returns s the first time its end is observed.
func (t *Table) settleLocked(s *Session) *Session {
	if s.Phase() == PhasePlaying {
		return nil
	}
	t.stopTimerLocked()
	if t.reported == s {
		return nil
	}
	t.reported = s
	return s
}

func (t *Table) armLocked() {
	s := t.session
	if s == nil || !s.Options().Timed || s.Phase() != PhasePlaying {
		return
	}

	ticks, stop := t.newTicker(time.Second)
	done := make(chan struct{})
	var once sync.Once
	t.stopTimer = func() {
		once.Do(func() {
			stop()
			close(done)
		})
	}

	go t.runTimer(s, ticks, done)
}

func (t *Table) stopTimerLocked() {
	if t.stopTimer != nil {
		t.stopTimer()
		t.stopTimer = nil
	}
}

func (t *Table) runTimer(s *Session, ticks <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticks:
			if !t.tick(s) {
				return
			}
		}
	}
}

func (t *Table) tick(s *Session) bool {
	t.mu.Lock()

	// A tick from a replaced session must not touch the new one.
	if t.session != s || s.Phase() != PhasePlaying {
		t.mu.Unlock()
		return false
	}

	s.Tick()
	ended := t.settleLocked(s)
	snap := s.Snapshot()
	t.unlockAndEmit(snap, ended)
	return ended == nil
}

// unlockAndEmit releases mu and delivers snap. Must be called with mu held.
func (t *Table) unlockAndEmit(snap Snapshot, ended *Session) {
	t.emitMu.Lock()
	t.mu.Unlock()
	defer t.emitMu.Unlock()

	t.emit(snap, ended)
}

func (t *Table) emit(snap Snapshot, ended *Session) {
	if t.onChange != nil {
		t.onChange(snap)
	}
	if ended != nil && t.onEnd != nil {
		t.onEnd(ended.Result())
	}
}

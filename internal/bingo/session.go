package bingo

import (
	"errors"
	"fmt"
	"time"

	"bingo-service/internal/constants"
	"bingo-service/internal/models"
)

// Phase is the lifecycle stage of a Session.
type Phase string

const (
	PhaseStart   Phase = "start"
	PhasePlaying Phase = "playing"
	PhaseEnd     Phase = "end"
)

type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = constants.OutcomeWin
	OutcomeLoss Outcome = constants.OutcomeLoss
)

var (
	ErrNoCard          = errors.New("no card selected")
	ErrNoPlayers       = errors.New("no players available to start the game")
	ErrAlreadyPlaying  = errors.New("session already in playing phase")
	ErrNotPlaying      = errors.New("session not in playing phase")
	ErrUnknownCategory = errors.New("category is not on the active card")
	ErrAlreadyResolved = errors.New("category already resolved")
	ErrNotTimed        = errors.New("session is not in timed mode")
)

const noSelection = -1

// Session is the single-player game aggregate. Its methods are the only
// mutators and each one runs to completion; callers serialise access.
type Session struct {
	opts     Options
	rng      RandomSource
	notifier Notifier

	phase   Phase
	outcome Outcome
	card    *models.Card
	current *models.Player

	used    []models.ID
	usedSet map[models.ID]bool

	selected indexSet
	valid    indexSet
	wildcard indexSet

	hasWildcard   bool
	lastInvalid   int
	skipPenalty   bool
	maxAvailable  int
	timeRemaining int
	wrongAttempts int

	startedAt  time.Time
	finishedAt time.Time
}

func NewSession(opts Options, rng RandomSource, notifier Notifier) *Session {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &Session{
		opts:        opts,
		rng:         rng,
		notifier:    notifier,
		phase:       PhaseStart,
		lastInvalid: noSelection,
		selected:    newIndexSet(),
		valid:       newIndexSet(),
		wildcard:    newIndexSet(),
		usedSet:     make(map[models.ID]bool),
	}
}

// StartGame draws the first player from card and enters the playing phase.
// Every per-game field is reset.
func (s *Session) StartGame(card *models.Card) error {
	if s.phase == PhasePlaying {
		return ErrAlreadyPlaying
	}
	if card == nil {
		return ErrNoCard
	}

	ceiling := 0
	if s.opts.Profile.Ceiling {
		ceiling = len(card.Players)
	}

	first, ok := Draw(s.rng, nil, card.Players, ceiling)
	if !ok {
		s.notify("Error", "No players available to start the game", SeverityError, noticeDuration)
		return ErrNoPlayers
	}

	s.card = card
	s.current = &first
	s.used = nil
	s.usedSet = make(map[models.ID]bool)
	s.selected = newIndexSet()
	s.valid = newIndexSet()
	s.wildcard = newIndexSet()
	s.hasWildcard = true
	s.lastInvalid = noSelection
	s.skipPenalty = false
	s.maxAvailable = ceiling
	s.timeRemaining = s.opts.turnSeconds()
	s.wrongAttempts = 0
	s.outcome = OutcomeNone
	s.startedAt = time.Now()
	s.finishedAt = time.Time{}
	s.phase = PhasePlaying
	return nil
}

// SelectCategory judges the current player against category id. Wrong
// guesses still consume the turn. Rejections leave the session untouched.
func (s *Session) SelectCategory(id int) (bool, error) {
	if s.phase != PhasePlaying || s.current == nil {
		return false, ErrNotPlaying
	}
	if id < 0 || id >= len(s.card.Categories) {
		return false, ErrUnknownCategory
	}
	if s.selected.has(id) {
		return false, ErrAlreadyResolved
	}

	s.lastInvalid = noSelection

	if Matches(*s.current, s.card.Categories[id]) {
		s.selected.add(id)
		s.valid.add(id)
		if s.complete() {
			s.endGame(OutcomeWin)
			return true, nil
		}
		s.resetTimer()
		s.rotate()
		return true, nil
	}

	s.wrongAttempts++
	description := "That category doesn't match this player's achievements."
	if s.shrinkCeiling(s.opts.Profile.WrongGuessPenalty) {
		description += fmt.Sprintf(" Maximum available players reduced to %d!", s.maxAvailable)
	}
	s.notify("Wrong selection!", description, SeverityError, noticeDuration)

	s.resetTimer()
	s.rotate()
	if s.phase == PhasePlaying {
		s.lastInvalid = id
	}
	return false, nil
}

// UseWildcard resolves every unselected category the current player matches.
// It is single use; a player with no remaining matches leaves it available.
func (s *Session) UseWildcard() ([]int, error) {
	if s.phase != PhasePlaying || s.current == nil {
		return nil, ErrNotPlaying
	}

	s.lastInvalid = noSelection

	if !s.hasWildcard {
		s.notify("Wildcard used", "The wildcard can only be played once per game", SeverityWarning, noticeDuration)
		return nil, nil
	}

	matched := MatchingCategories(*s.current, s.card.Categories, s.selected.has)
	if len(matched) == 0 {
		s.notify("No valid categories", "This player doesn't match any remaining categories", SeverityWarning, noticeDuration)
		return nil, nil
	}

	for _, id := range matched {
		s.selected.add(id)
		s.valid.add(id)
		s.wildcard.add(id)
	}
	s.hasWildcard = false

	if s.complete() {
		s.endGame(OutcomeWin)
		return matched, nil
	}
	s.resetTimer()
	s.rotate()
	return matched, nil
}

// Skip passes the current player without touching the board. An armed skip
// penalty is consumed instead of the turn.
func (s *Session) Skip() error {
	if s.phase != PhasePlaying || s.current == nil {
		return ErrNotPlaying
	}

	s.lastInvalid = noSelection

	if s.skipPenalty {
		s.skipPenalty = false
		return nil
	}

	shrunk := s.shrinkCeiling(s.opts.Profile.SkipPenalty)

	s.resetTimer()
	s.rotate()
	if s.phase != PhasePlaying {
		return nil
	}
	if shrunk {
		s.notify("Skip penalty", fmt.Sprintf("Maximum available players reduced to %d!", s.maxAvailable), SeverityWarning, noticeDuration)
	}
	if s.opts.SkipCooldown {
		s.skipPenalty = true
	}
	return nil
}

// OnTimerExpire is the automatic skip performed when the countdown runs out.
func (s *Session) OnTimerExpire() error {
	if !s.opts.Timed {
		return ErrNotTimed
	}
	if s.phase != PhasePlaying || s.current == nil {
		return ErrNotPlaying
	}

	s.lastInvalid = noSelection

	description := "Moving on to the next player."
	if s.shrinkCeiling(s.opts.Profile.TimeoutPenalty) {
		description = fmt.Sprintf("Maximum available players reduced to %d due to automatic skip!", s.maxAvailable)
	}
	s.notify("Time's up!", description, SeverityWarning, noticeDuration)

	s.rotate()
	s.resetTimer()
	return nil
}

// Tick advances the countdown by one second. It reports whether the tick
// expired the turn.
func (s *Session) Tick() bool {
	if !s.opts.Timed || s.phase != PhasePlaying {
		return false
	}
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
	if s.timeRemaining > 0 {
		return false
	}
	return s.OnTimerExpire() == nil
}

func (s *Session) rotate() {
	s.lastInvalid = noSelection

	if !s.usedSet[s.current.ID] {
		s.usedSet[s.current.ID] = true
		s.used = append(s.used, s.current.ID)
	}

	if s.opts.Profile.Ceiling && len(s.used) >= s.maxAvailable {
		s.endGame(OutcomeLoss)
		return
	}

	next, ok := Draw(s.rng, s.usedSet, s.card.Players, s.ceiling())
	if !ok {
		s.endGame(OutcomeLoss)
		return
	}
	s.current = &next
}

func (s *Session) endGame(outcome Outcome) {
	s.phase = PhaseEnd
	s.outcome = outcome
	s.current = nil
	s.finishedAt = time.Now()

	if outcome == OutcomeWin {
		s.notify("Congratulations!", "You've completed all categories!", SeveritySuccess, summaryDuration)
		return
	}

	players := fmt.Sprintf("%d players", len(s.used))
	if s.opts.Profile.Ceiling {
		players = fmt.Sprintf("%d of %d players", len(s.used), s.maxAvailable)
	}
	s.notify("Game Over!",
		fmt.Sprintf("No more players available. You matched %d of %d categories with %s.",
			s.valid.len(), len(s.card.Categories), players),
		SeverityInfo, summaryDuration)
}

// shrinkCeiling lowers maxAvailablePlayers by n, never below one more than
// the players already used. It reports whether a ceiling applies.
func (s *Session) shrinkCeiling(n int) bool {
	if !s.opts.Profile.Ceiling || n <= 0 {
		return false
	}
	s.maxAvailable = max(s.maxAvailable-n, len(s.used)+1)
	return true
}

func (s *Session) ceiling() int {
	if s.opts.Profile.Ceiling {
		return s.maxAvailable
	}
	return 0
}

func (s *Session) complete() bool {
	return s.selected.len() >= len(s.card.Categories)
}

func (s *Session) resetTimer() {
	if s.opts.Timed {
		s.timeRemaining = s.opts.turnSeconds()
	}
}

func (s *Session) notify(title, description string, severity Severity, d time.Duration) {
	s.notifier.Notify(Notice{
		Title:       title,
		Description: description,
		Severity:    severity,
		Duration:    d,
	})
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Outcome() Outcome {
	return s.outcome
}

func (s *Session) Options() Options {
	return s.opts
}

func (s *Session) Card() *models.Card {
	return s.card
}

// CurrentPlayer returns the player being judged. ok is false outside the
// playing phase.
func (s *Session) CurrentPlayer() (models.Player, bool) {
	if s.current == nil {
		return models.Player{}, false
	}
	return *s.current, true
}

// Result summarises a finished session for the results ledger.
func (s *Session) Result() models.BingoResult {
	total := 0
	cardName := ""
	if s.card != nil {
		total = len(s.card.Categories)
		cardName = s.card.Name
	}
	return models.BingoResult{
		CardName:      cardName,
		Profile:       s.opts.Profile.Name,
		Timed:         s.opts.Timed,
		Outcome:       string(s.outcome),
		Matched:       s.valid.len(),
		Total:         total,
		PlayersUsed:   len(s.used),
		WrongAttempts: s.wrongAttempts,
		WildcardUsed:  !s.hasWildcard,
		StartedAt:     s.startedAt,
		FinishedAt:    s.finishedAt,
	}
}

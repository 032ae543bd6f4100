package quiz

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	mrand "math/rand"
	"sort"
	"sync"
	"time"

	"bingo-service/internal/constants"
	"bingo-service/internal/models"

	"github.com/google/uuid"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomNotWaiting     = errors.New("game already started")
	ErrRoomFull           = errors.New("maximum 8 players allowed")
	ErrNotCreator         = errors.New("only the room creator can do this")
	ErrNotEnoughPlayers   = errors.New("at least 2 players are required to start the game")
	ErrGameNotInProgress  = errors.New("game is not in progress")
	ErrNotInRoom          = errors.New("player is not in this room")
	ErrWrongQuestion      = errors.New("answer is not for the current question")
	ErrNoQuestions        = errors.New("no questions available")
	ErrMissingEventID     = errors.New("event id is required")
	ErrUnsupportedCommand = errors.New("unsupported command")
	ErrCodeExhausted      = errors.New("could not allocate a unique room code")
)

const (
	DefaultQuestionsPerGame = 4
	maxCodeAttempts         = 10
	ledgerTimeout           = 5 * time.Second
)

type Option func(*Service)

func WithLedger(l Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

func WithQuestionBank(b QuestionBank) Option {
	return func(s *Service) { s.bank = b }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

func WithDeduper(d Deduper) Option {
	return func(s *Service) { s.deduper = d }
}

func WithQuestionsPerGame(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.questionsPerGame = n
		}
	}
}

// WithCodeGenerator replaces the random room code source.
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.newCode = fn }
}

type roomPlayer struct {
	userID   string
	name     string
	score    int
	joinedAt time.Time
}

type room struct {
	mu sync.Mutex

	id        int64
	persisted bool
	code      string
	creatorID string
	status    string
	players   []*roomPlayer
	createdAt time.Time

	questions []models.Question
	index     int
	answered  map[int64]map[string]bool
	announced map[int64]bool
}

// Service runs multiplayer quiz rooms. Operations on one room are
// serialised; different rooms proceed independently.
type Service struct {
	mu    sync.Mutex
	rooms map[string]*room
	rng   *mrand.Rand

	ledger           Ledger
	bank             QuestionBank
	broadcaster      Broadcaster
	deduper          Deduper
	questionsPerGame int
	newCode          func() (string, error)
}

func NewService(rng *mrand.Rand, opts ...Option) *Service {
	s := &Service{
		rooms:            make(map[string]*room),
		rng:              rng,
		ledger:           &nopLedger{},
		bank:             NewMemoryBank(DefaultQuestions()),
		broadcaster:      nopBroadcaster{},
		questionsPerGame: DefaultQuestionsPerGame,
		newCode:          generateRoomCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func generateRoomCode() (string, error) {
	limit := big.NewInt(int64(len(constants.RoomCodeChars)))
	code := make([]byte, constants.RoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = constants.RoomCodeChars[n.Int64()]
	}
	return string(code), nil
}

func (s *Service) CreateRoom(ctx context.Context, creatorID, displayName string) (RoomView, error) {
	r := &room{
		creatorID: creatorID,
		status:    constants.RoomStatusWaiting,
		createdAt: time.Now(),
	}
	r.players = []*roomPlayer{{userID: creatorID, name: displayName, joinedAt: r.createdAt}}
	r.resetRound()

	r.mu.Lock()
	defer r.mu.Unlock()

	s.mu.Lock()
	code, err := s.allocateCode()
	if err != nil {
		s.mu.Unlock()
		return RoomView{}, err
	}
	r.code = code
	s.rooms[code] = r
	s.mu.Unlock()

	lctx, cancel := context.WithTimeout(ctx, ledgerTimeout)
	defer cancel()

	if id, err := s.ledger.CreateRoom(lctx, code, creatorID); err != nil {
		log.Printf("Failed to persist room %s: %v", code, err)
	} else {
		r.id = id
		r.persisted = true
		s.record(lctx, r, "add creator", func(ctx context.Context) error {
			return s.ledger.AddPlayer(ctx, r.id, creatorID, displayName)
		})
	}

	log.Printf("Room created: code=%s creator=%s", code, creatorID)
	s.publish(ctx, r, EventRoomCreated, RoomCreatedPayload{RoomCode: code, Creator: displayName})
	return r.view(), nil
}

func (s *Service) allocateCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}
		if _, taken := s.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

// JoinRoom adds a player to a waiting room. Joining twice is a no-op.
func (s *Service) JoinRoom(ctx context.Context, code, userID, displayName string) (RoomView, error) {
	r, err := s.lockRoom(code)
	if err != nil {
		return RoomView{}, err
	}
	defer r.mu.Unlock()

	if r.status != constants.RoomStatusWaiting {
		return RoomView{}, ErrRoomNotWaiting
	}
	if r.player(userID) != nil {
		return r.view(), nil
	}
	if len(r.players) >= constants.MaxRoomPlayers {
		return RoomView{}, ErrRoomFull
	}

	r.players = append(r.players, &roomPlayer{userID: userID, name: displayName, joinedAt: time.Now()})
	s.record(ctx, r, "add player", func(ctx context.Context) error {
		return s.ledger.AddPlayer(ctx, r.id, userID, displayName)
	})

	view := r.view()
	s.publish(ctx, r, EventPlayerJoined, PlayerJoinedPayload{Player: displayName, Players: view.Players})
	return view, nil
}

func (s *Service) StartGame(ctx context.Context, code, userID string) (RoomView, error) {
	r, err := s.lockRoom(code)
	if err != nil {
		return RoomView{}, err
	}
	defer r.mu.Unlock()

	if r.creatorID != userID {
		return RoomView{}, ErrNotCreator
	}
	if r.status != constants.RoomStatusWaiting {
		return RoomView{}, ErrRoomNotWaiting
	}
	if len(r.players) < constants.MinRoomPlayers {
		return RoomView{}, ErrNotEnoughPlayers
	}
	if len(r.players) > constants.MaxRoomPlayers {
		return RoomView{}, ErrRoomFull
	}

	questions, err := s.drawQuestions(ctx)
	if err != nil {
		return RoomView{}, err
	}

	r.questions = questions
	r.resetRound()
	r.status = constants.RoomStatusInProgress
	s.record(ctx, r, "update room status", func(ctx context.Context) error {
		return s.ledger.SetRoomStatus(ctx, r.id, r.status, r.index)
	})

	log.Printf("Game started: room=%s players=%d questions=%d", r.code, len(r.players), len(questions))
	s.publish(ctx, r, EventGameStarted, r.questionPayload())
	return r.view(), nil
}

func (s *Service) drawQuestions(ctx context.Context) ([]models.Question, error) {
	all, err := s.bank.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(all) == 0 {
		return nil, ErrNoQuestions
	}

	s.mu.Lock()
	s.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	s.mu.Unlock()

	if len(all) > s.questionsPerGame {
		all = all[:s.questionsPerGame]
	}
	return all, nil
}

type AnswerResult struct {
	Correct   bool `json:"correct"`
	Delta     int  `json:"delta"`
	Score     int  `json:"score"`
	Duplicate bool `json:"duplicate"`
}

// SubmitAnswer scores one answer per player and question. Replays return the
// recorded outcome without touching the tally. questionID zero means the
// current question.
func (s *Service) SubmitAnswer(ctx context.Context, code, userID string, questionID int64, answer string) (AnswerResult, error) {
	r, err := s.lockRoom(code)
	if err != nil {
		return AnswerResult{}, err
	}
	defer r.mu.Unlock()

	if r.status != constants.RoomStatusInProgress {
		return AnswerResult{}, ErrGameNotInProgress
	}
	p := r.player(userID)
	if p == nil {
		return AnswerResult{}, ErrNotInRoom
	}

	q := r.questions[r.index]
	if questionID != 0 && questionID != q.ID {
		return AnswerResult{}, ErrWrongQuestion
	}

	if r.answered[q.ID][userID] {
		return AnswerResult{Score: p.score, Duplicate: true}, nil
	}
	if r.answered[q.ID] == nil {
		r.answered[q.ID] = make(map[string]bool)
	}
	r.answered[q.ID][userID] = true

	result := AnswerResult{Correct: answersMatch(answer, q.CorrectAnswer)}
	if result.Correct {
		result.Delta = q.Points
	}
	p.score += result.Delta
	result.Score = p.score

	s.record(ctx, r, "record answer", func(ctx context.Context) error {
		return s.ledger.RecordAnswer(ctx, r.id, userID, q.ID, answer, result.Correct)
	})
	if result.Delta != 0 {
		s.record(ctx, r, "add score", func(ctx context.Context) error {
			return s.ledger.AddScore(ctx, r.id, userID, result.Delta)
		})
	}

	scores := r.scores()
	s.publish(ctx, r, EventAnswerSubmitted, AnswerSubmittedPayload{
		UserID:        userID,
		QuestionIndex: r.index,
		Correct:       result.Correct,
		Delta:         result.Delta,
		Scores:        scores,
	})

	if len(r.answered[q.ID]) >= len(r.players) && !r.announced[q.ID] {
		r.announced[q.ID] = true
		s.publish(ctx, r, EventAllPlayersAnswered, AllAnsweredPayload{
			QuestionIndex: r.index,
			CorrectAnswer: q.CorrectAnswer,
			Scores:        scores,
		})
	}

	return result, nil
}

// NextQuestion advances from fromIndex. A request whose fromIndex is no
// longer current is ignored, so replays cannot advance twice.
func (s *Service) NextQuestion(ctx context.Context, code, userID string, fromIndex int) (RoomView, error) {
	r, err := s.lockRoom(code)
	if err != nil {
		return RoomView{}, err
	}
	defer r.mu.Unlock()

	if r.creatorID != userID {
		return RoomView{}, ErrNotCreator
	}
	if r.status == constants.RoomStatusCompleted {
		return r.view(), nil
	}
	if r.status != constants.RoomStatusInProgress {
		return RoomView{}, ErrGameNotInProgress
	}
	if fromIndex != r.index {
		log.Printf("Ignoring stale next-question: room=%s from=%d current=%d", r.code, fromIndex, r.index)
		return r.view(), nil
	}

	if r.index+1 >= len(r.questions) {
		r.status = constants.RoomStatusCompleted
		s.record(ctx, r, "update room status", func(ctx context.Context) error {
			return s.ledger.SetRoomStatus(ctx, r.id, r.status, r.index)
		})
		log.Printf("Game finished: room=%s", r.code)
		s.publish(ctx, r, EventGameFinished, ScoresPayload{Scores: r.scores()})
		return r.view(), nil
	}

	r.index++
	s.record(ctx, r, "update question index", func(ctx context.Context) error {
		return s.ledger.SetRoomStatus(ctx, r.id, r.status, r.index)
	})
	s.publish(ctx, r, EventNextQuestion, r.questionPayload())
	return r.view(), nil
}

// Restart returns a started or finished room to waiting with every score
// reset. Restarting a waiting room does nothing.
func (s *Service) Restart(ctx context.Context, code, userID string) (RoomView, error) {
	r, err := s.lockRoom(code)
	if err != nil {
		return RoomView{}, err
	}
	defer r.mu.Unlock()

	if r.creatorID != userID {
		return RoomView{}, ErrNotCreator
	}
	if r.status == constants.RoomStatusWaiting {
		return r.view(), nil
	}

	r.status = constants.RoomStatusWaiting
	r.questions = nil
	r.resetRound()
	for _, p := range r.players {
		p.score = 0
	}

	s.record(ctx, r, "reset scores", func(ctx context.Context) error {
		return s.ledger.ResetScores(ctx, r.id)
	})
	s.record(ctx, r, "update room status", func(ctx context.Context) error {
		return s.ledger.SetRoomStatus(ctx, r.id, r.status, r.index)
	})

	s.publish(ctx, r, EventGameRestart, ScoresPayload{Scores: r.scores()})
	return r.view(), nil
}

// Room returns the live room, or the ledger copy of a room that is no
// longer held in memory.
func (s *Service) Room(ctx context.Context, code string) (RoomView, error) {
	r, err := s.lockRoom(code)
	if errors.Is(err, ErrRoomNotFound) {
		view, _, err := s.storedRoom(ctx, code)
		return view, err
	}
	if err != nil {
		return RoomView{}, err
	}
	defer r.mu.Unlock()
	return r.view(), nil
}

// Scores returns the room leaderboard, highest first. Rooms that are only
// in the ledger are ranked by it.
func (s *Service) Scores(ctx context.Context, code string) ([]models.LeaderboardEntry, error) {
	r, err := s.lockRoom(code)
	if errors.Is(err, ErrRoomNotFound) {
		_, id, err := s.storedRoom(ctx, code)
		if err != nil {
			return nil, err
		}
		lctx, cancel := context.WithTimeout(ctx, ledgerTimeout)
		defer cancel()
		scores, err := s.ledger.GetScores(lctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load scores: %w", err)
		}
		if scores == nil {
			scores = []models.LeaderboardEntry{}
		}
		return scores, nil
	}
	if err != nil {
		return nil, err
	}
	defer r.mu.Unlock()
	return r.scores(), nil
}

// storedRoom rebuilds a read-only view of a persisted room.
func (s *Service) storedRoom(ctx context.Context, code string) (RoomView, int64, error) {
	lctx, cancel := context.WithTimeout(ctx, ledgerTimeout)
	defer cancel()

	stored, err := s.ledger.GetRoomByCode(lctx, code)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return RoomView{}, 0, ErrRoomNotFound
		}
		return RoomView{}, 0, fmt.Errorf("failed to load room %s: %w", code, err)
	}
	players, err := s.ledger.GetPlayers(lctx, stored.ID)
	if err != nil {
		return RoomView{}, 0, fmt.Errorf("failed to load players of room %s: %w", code, err)
	}

	view := RoomView{
		ID:            stored.ID,
		Code:          stored.Code,
		CreatorID:     stored.CreatorID,
		Status:        stored.Status,
		Players:       make([]PlayerView, len(players)),
		QuestionIndex: stored.QuestionIndex,
		CreatedAt:     stored.CreatedAt,
	}
	for i, p := range players {
		view.Players[i] = PlayerView{UserID: p.UserID, DisplayName: p.DisplayName, Score: p.Score}
	}
	return view, stored.ID, nil
}

// HandleCommand applies an inbound event. Deliveries already seen are
// dropped.
func (s *Service) HandleCommand(ctx context.Context, cmd Command) error {
	if cmd.ID == "" {
		return ErrMissingEventID
	}

	if s.deduper != nil {
		seen, err := s.deduper.Seen(ctx, "quiz:event:"+cmd.ID)
		if err != nil {
			log.Printf("Failed to check event %s: %v", cmd.ID, err)
		} else if seen {
			log.Printf("Skipping duplicate event %s (%s)", cmd.ID, cmd.Type)
			return nil
		}
	}

	var err error
	switch cmd.Type {
	case EventPlayerJoined:
		_, err = s.JoinRoom(ctx, cmd.Room, cmd.UserID, cmd.DisplayName)
	case EventGameStarted:
		_, err = s.StartGame(ctx, cmd.Room, cmd.UserID)
	case EventAnswerSubmitted:
		_, err = s.SubmitAnswer(ctx, cmd.Room, cmd.UserID, cmd.QuestionID, cmd.Answer)
	case EventNextQuestion:
		_, err = s.NextQuestion(ctx, cmd.Room, cmd.UserID, cmd.FromIndex)
	case EventGameRestart:
		_, err = s.Restart(ctx, cmd.Room, cmd.UserID)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", cmd.Type, err)
	}
	return nil
}

// HandleMessage decodes a queued command and applies it.
func (s *Service) HandleMessage(ctx context.Context, body []byte) error {
	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		return fmt.Errorf("failed to decode command: %w", err)
	}
	return s.HandleCommand(ctx, cmd)
}

// lockRoom returns the room with its lock held.
func (s *Service) lockRoom(code string) (*room, error) {
	s.mu.Lock()
	r, ok := s.rooms[code]
	s.mu.Unlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	r.mu.Lock()
	return r, nil
}

func (s *Service) record(ctx context.Context, r *room, op string, fn func(context.Context) error) {
	if !r.persisted {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		log.Printf("Failed to %s for room %s: %v", op, r.code, err)
	}
}

func (s *Service) publish(ctx context.Context, r *room, eventType EventType, payload any) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Room:      r.code,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := s.broadcaster.Broadcast(ctx, Channel(r.code), event); err != nil {
		log.Printf("Failed to broadcast %s for room %s: %v", eventType, r.code, err)
	}
}

func (r *room) resetRound() {
	r.index = 0
	r.answered = make(map[int64]map[string]bool)
	r.announced = make(map[int64]bool)
}

func (r *room) player(userID string) *roomPlayer {
	for _, p := range r.players {
		if p.userID == userID {
			return p
		}
	}
	return nil
}

func (r *room) questionPayload() QuestionPayload {
	return QuestionPayload{
		Question:       viewQuestion(r.questions[r.index]),
		QuestionIndex:  r.index,
		TotalQuestions: len(r.questions),
	}
}

// scores orders players by score, ties by join order. Equal scores share a
// rank.
func (r *room) scores() []models.LeaderboardEntry {
	players := append([]*roomPlayer(nil), r.players...)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].score > players[j].score
	})

	entries := make([]models.LeaderboardEntry, len(players))
	for i, p := range players {
		rank := i + 1
		if i > 0 && p.score == players[i-1].score {
			rank = entries[i-1].Rank
		}
		entries[i] = models.LeaderboardEntry{
			Rank:        rank,
			UserID:      p.userID,
			DisplayName: p.name,
			Score:       p.score,
		}
	}
	return entries
}

type PlayerView struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

type RoomView struct {
	ID             int64         `json:"room_id"`
	Code           string        `json:"room_code"`
	CreatorID      string        `json:"creator_id"`
	Status         string        `json:"status"`
	Players        []PlayerView  `json:"players"`
	QuestionIndex  int           `json:"question_index"`
	TotalQuestions int           `json:"total_questions"`
	Question       *QuestionView `json:"question,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (r *room) view() RoomView {
	v := RoomView{
		ID:             r.id,
		Code:           r.code,
		CreatorID:      r.creatorID,
		Status:         r.status,
		Players:        make([]PlayerView, len(r.players)),
		QuestionIndex:  r.index,
		TotalQuestions: len(r.questions),
		CreatedAt:      r.createdAt,
	}
	for i, p := range r.players {
		v.Players[i] = PlayerView{UserID: p.userID, DisplayName: p.name, Score: p.score}
	}
	if r.status == constants.RoomStatusInProgress && r.index < len(r.questions) {
		q := viewQuestion(r.questions[r.index])
		v.Question = &q
	}
	return v
}

package quiz

import (
	"context"
	"sync/atomic"

	"bingo-service/internal/models"
)

// Ledger persists rooms and scores. The in-memory room stays authoritative
// when a call fails. GetRoomByCode returns ErrRoomNotFound for unknown codes.
type Ledger interface {
	CreateRoom(ctx context.Context, code, creatorID string) (int64, error)
	GetRoomByCode(ctx context.Context, code string) (*models.Room, error)
	GetPlayers(ctx context.Context, roomID int64) ([]*models.RoomPlayer, error)
	AddPlayer(ctx context.Context, roomID int64, userID, displayName string) error
	SetRoomStatus(ctx context.Context, roomID int64, status string, questionIndex int) error
	RecordAnswer(ctx context.Context, roomID int64, userID string, questionID int64, answer string, correct bool) error
	AddScore(ctx context.Context, roomID int64, userID string, delta int) error
	GetScores(ctx context.Context, roomID int64) ([]models.LeaderboardEntry, error)
	ResetScores(ctx context.Context, roomID int64) error
}

type QuestionBank interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, channel string, event Event) error
}

// Deduper records delivery ids. Seen reports true when key was already
// recorded.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

type nopLedger struct {
	next atomic.Int64
}

func (l *nopLedger) CreateRoom(context.Context, string, string) (int64, error) {
	return l.next.Add(1), nil
}

func (*nopLedger) GetRoomByCode(context.Context, string) (*models.Room, error) {
	return nil, ErrRoomNotFound
}

func (*nopLedger) GetPlayers(context.Context, int64) ([]*models.RoomPlayer, error) {
	return nil, nil
}

func (*nopLedger) AddPlayer(context.Context, int64, string, string) error {
	return nil
}

func (*nopLedger) SetRoomStatus(context.Context, int64, string, int) error {
	return nil
}

func (*nopLedger) RecordAnswer(context.Context, int64, string, int64, string, bool) error {
	return nil
}

func (*nopLedger) AddScore(context.Context, int64, string, int) error {
	return nil
}

func (*nopLedger) GetScores(context.Context, int64) ([]models.LeaderboardEntry, error) {
	return nil, nil
}

func (*nopLedger) ResetScores(context.Context, int64) error {
	return nil
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(context.Context, string, Event) error { return nil }

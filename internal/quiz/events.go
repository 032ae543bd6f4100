package quiz

import (
	"time"

	"bingo-service/internal/models"
)

type EventType string

const (
	EventRoomCreated        EventType = "room-created"
	EventPlayerJoined       EventType = "player-joined"
	EventGameStarted        EventType = "game-started"
	EventAnswerSubmitted    EventType = "answer-submitted"
	EventAllPlayersAnswered EventType = "all-players-answered"
	EventNextQuestion       EventType = "next-question"
	EventGameFinished       EventType = "game-finished"
	EventGameRestart        EventType = "game-restart"
)

// Channel is the broadcast channel name for a room.
func Channel(code string) string {
	return "game-" + code
}

// Event is an outbound room notification.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Room      string    `json:"room"`
	Payload   any       `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type RoomCreatedPayload struct {
	RoomCode string `json:"room_code"`
	Creator  string `json:"creator"`
}

type PlayerJoinedPayload struct {
	Player  string       `json:"player"`
	Players []PlayerView `json:"players"`
}

type QuestionPayload struct {
	Question       QuestionView `json:"question"`
	QuestionIndex  int          `json:"question_index"`
	TotalQuestions int          `json:"total_questions"`
}

type AnswerSubmittedPayload struct {
	UserID        string                    `json:"user_id"`
	QuestionIndex int                       `json:"question_index"`
	Correct       bool                      `json:"correct"`
	Delta         int                       `json:"delta"`
	Scores        []models.LeaderboardEntry `json:"scores"`
}

type AllAnsweredPayload struct {
	QuestionIndex int                       `json:"question_index"`
	CorrectAnswer string                    `json:"correct_answer"`
	Scores        []models.LeaderboardEntry `json:"scores"`
}

type ScoresPayload struct {
	Scores []models.LeaderboardEntry `json:"scores"`
}

// Command is an inbound event delivered at least once. ID identifies the
// delivery for deduplication.
type Command struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Room        string    `json:"room"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	QuestionID  int64     `json:"question_id,omitempty"`
	Answer      string    `json:"answer,omitempty"`
	// FromIndex is the question index a next-question command advances from.
	FromIndex int `json:"from_index,omitempty"`
}

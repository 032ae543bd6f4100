package dto

import (
	"bingo-service/internal/models"
	"bingo-service/internal/quiz"
)

type CreateRoomRequest struct {
	DisplayName string `json:"display_name"`
}

type JoinRoomRequest struct {
	DisplayName string `json:"display_name"`
}

// SubmitAnswerRequest answers QuestionID, or the current question when it
// is zero.
type SubmitAnswerRequest struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer" binding:"required"`
}

// NextQuestionRequest names the index being advanced from. Omitted means
// the room's current question.
type NextQuestionRequest struct {
	FromIndex *int `json:"from_index"`
}

type RoomResponse struct {
	Room    quiz.RoomView `json:"room"`
	Message string        `json:"message,omitempty"`
}

type AnswerResponse struct {
	quiz.AnswerResult
	Scores []models.LeaderboardEntry `json:"scores"`
}

type ScoresResponse struct {
	RoomCode string                    `json:"room_code"`
	Scores   []models.LeaderboardEntry `json:"scores"`
}

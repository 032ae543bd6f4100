package quiz

import (
	"context"
	"strings"

	"bingo-service/internal/models"
)

const defaultPoints = 10

func DefaultQuestions() []models.Question {
	return []models.Question{
		{
			Text:          "Which team won the first FIFA World Cup?",
			CorrectAnswer: "Uruguay",
			Options:       []string{"Brazil", "Uruguay", "Argentina", "Italy"},
			Points:        defaultPoints,
		},
		{
			Text:          "Who has scored the most goals in World Cup history?",
			CorrectAnswer: "Miroslav Klose",
			Options:       []string{"Pele", "Miroslav Klose", "Ronaldo", "Maradona"},
			Points:        defaultPoints,
		},
		{
			Text:          "Which country has won the most World Cups?",
			CorrectAnswer: "Brazil",
			Options:       []string{"Germany", "Brazil", "Italy", "Argentina"},
			Points:        defaultPoints,
		},
		{
			Text:          "Who won the FIFA World Cup 2022?",
			CorrectAnswer: "Argentina",
			Options:       []string{"France", "Argentina", "Brazil", "Croatia"},
			Points:        defaultPoints,
		},
	}
}

// MemoryBank serves a fixed question list. Questions without an id are
// numbered from 1.
type MemoryBank struct {
	questions []models.Question
}

func NewMemoryBank(questions []models.Question) *MemoryBank {
	qs := make([]models.Question, len(questions))
	for i, q := range questions {
		if q.ID == 0 {
			q.ID = int64(i + 1)
		}
		qs[i] = q
	}
	return &MemoryBank{questions: qs}
}

func (b *MemoryBank) ListQuestions(context.Context) ([]models.Question, error) {
	return append([]models.Question(nil), b.questions...), nil
}

func answersMatch(given, correct string) bool {
	return normalizeAnswer(given) == normalizeAnswer(correct)
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// QuestionView is a question without its answer.
type QuestionView struct {
	ID      int64    `json:"id"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Points  int      `json:"points"`
}

func viewQuestion(q models.Question) QuestionView {
	return QuestionView{ID: q.ID, Text: q.Text, Options: q.Options, Points: q.Points}
}

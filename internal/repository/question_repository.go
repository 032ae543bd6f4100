package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"bingo-service/internal/models"
	"bingo-service/internal/quiz"
)

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Seed inserts questions that are not stored yet.
func (r *QuestionRepository) Seed(ctx context.Context, questions []models.Question) error {
	query := `
		INSERT INTO questions (question, correct_answer, options, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (question) DO NOTHING
	`
	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("failed to encode options: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, q.Text, q.CorrectAnswer, string(options), q.Points); err != nil {
			return fmt.Errorf("failed to seed question: %w", err)
		}
	}
	return nil
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]models.Question, error) {
	query := `
		SELECT id, question, correct_answer, options, points
		FROM questions
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var (
			q       models.Question
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.Text, &q.CorrectAnswer, &options, &q.Points); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("question %d has malformed options: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

var _ quiz.QuestionBank = (*QuestionRepository)(nil)

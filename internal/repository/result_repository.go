package repository

import (
	"context"
	"database/sql"

	"bingo-service/internal/models"
)

// ResultRepository stores finished single-player sessions.
type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) SaveResult(ctx context.Context, result models.BingoResult) error {
	query := `
		INSERT INTO bingo_results (id, user_id, card_name, profile, timed, outcome, matched, total,
			players_used, wrong_attempts, wildcard_used, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		result.ID,
		result.UserID,
		result.CardName,
		result.Profile,
		result.Timed,
		result.Outcome,
		result.Matched,
		result.Total,
		result.PlayersUsed,
		result.WrongAttempts,
		result.WildcardUsed,
		result.StartedAt,
		result.FinishedAt,
	)
	return err
}

func (r *ResultRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.BingoResult, error) {
	query := `
		SELECT id, user_id, card_name, profile, timed, outcome, matched, total,
			players_used, wrong_attempts, wildcard_used, started_at, finished_at
		FROM bingo_results
		WHERE user_id = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.BingoResult
	for rows.Next() {
		var res models.BingoResult
		if err := rows.Scan(
			&res.ID,
			&res.UserID,
			&res.CardName,
			&res.Profile,
			&res.Timed,
			&res.Outcome,
			&res.Matched,
			&res.Total,
			&res.PlayersUsed,
			&res.WrongAttempts,
			&res.WildcardUsed,
			&res.StartedAt,
			&res.FinishedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bingo-service/internal/models"
	"bingo-service/internal/quiz"
)

// RoomRepository is the Postgres ledger for quiz rooms.
type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) CreateRoom(ctx context.Context, code, creatorID string) (int64, error) {
	query := `
		INSERT INTO rooms (room_code, creator_id, status)
		VALUES ($1, $2, 'waiting')
		ON CONFLICT (room_code) DO UPDATE
		SET creator_id = EXCLUDED.creator_id, status = 'waiting', question_index = 0, updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, code, creatorID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create room: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM room_players WHERE room_id = $1`, id); err != nil {
		return 0, fmt.Errorf("failed to clear room players: %w", err)
	}
	return id, nil
}

func (r *RoomRepository) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	query := `
		SELECT id, room_code, creator_id, status, question_index, created_at
		FROM rooms
		WHERE room_code = $1
	`
	room := &models.Room{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&room.ID,
		&room.Code,
		&room.CreatorID,
		&room.Status,
		&room.QuestionIndex,
		&room.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, quiz.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (r *RoomRepository) AddPlayer(ctx context.Context, roomID int64, userID, displayName string) error {
	query := `
		INSERT INTO room_players (room_id, user_id, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, roomID, userID, displayName)
	return err
}

func (r *RoomRepository) GetPlayers(ctx context.Context, roomID int64) ([]*models.RoomPlayer, error) {
	query := `
		SELECT room_id, user_id, display_name, score, joined_at
		FROM room_players
		WHERE room_id = $1
		ORDER BY joined_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.RoomPlayer
	for rows.Next() {
		p := &models.RoomPlayer{}
		if err := rows.Scan(&p.RoomID, &p.UserID, &p.DisplayName, &p.Score, &p.JoinedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *RoomRepository) SetRoomStatus(ctx context.Context, roomID int64, status string, questionIndex int) error {
	query := `
		UPDATE rooms
		SET status = $1, question_index = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, questionIndex, roomID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("room %d not found", roomID)
	}
	return nil
}

func (r *RoomRepository) RecordAnswer(ctx context.Context, roomID int64, userID string, questionID int64, answer string, correct bool) error {
	query := `
		INSERT INTO room_answers (room_id, user_id, question_id, answer, correct)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id, user_id, question_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, roomID, userID, questionID, answer, correct)
	return err
}

func (r *RoomRepository) AddScore(ctx context.Context, roomID int64, userID string, delta int) error {
	query := `
		UPDATE room_players
		SET score = score + $1
		WHERE room_id = $2 AND user_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, delta, roomID, userID)
	return err
}

func (r *RoomRepository) GetScores(ctx context.Context, roomID int64) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT RANK() OVER (ORDER BY score DESC), user_id, display_name, score
		FROM room_players
		WHERE room_id = $1
		ORDER BY score DESC, joined_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.DisplayName, &e.Score); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *RoomRepository) ResetScores(ctx context.Context, roomID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE room_players SET score = 0 WHERE room_id = $1`, roomID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_answers WHERE room_id = $1`, roomID); err != nil {
		return err
	}
	return tx.Commit()
}

var _ quiz.Ledger = (*RoomRepository)(nil)

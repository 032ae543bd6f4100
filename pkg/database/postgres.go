package database

import (
	"context"
	"database/sql"
	"fmt"

	"bingo-service/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	db     *sql.DB
	config *config.DBConfig
}

func NewPostgresClient(cfg *config.DBConfig) (*PostgresClient, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:     db,
		config: cfg,
	}, nil
}

func (c *PostgresClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *PostgresClient) InitSchema(ctx context.Context) error {
	createRoomsTable := `
		CREATE TABLE IF NOT EXISTS rooms (
			id BIGSERIAL PRIMARY KEY,
			room_code VARCHAR(6) NOT NULL UNIQUE,
			creator_id VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'waiting',
			question_index INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rooms_status ON rooms(status);
	`

	createRoomPlayersTable := `
		CREATE TABLE IF NOT EXISTS room_players (
			room_id BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			user_id VARCHAR(255) NOT NULL,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room_id, user_id)
		);
	`

	createRoomAnswersTable := `
		CREATE TABLE IF NOT EXISTS room_answers (
			room_id BIGINT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			user_id VARCHAR(255) NOT NULL,
			question_id BIGINT NOT NULL,
			answer TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			answered_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room_id, user_id, question_id)
		);
	`

	createQuestionsTable := `
		CREATE TABLE IF NOT EXISTS questions (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL UNIQUE,
			correct_answer VARCHAR(255) NOT NULL,
			options JSONB NOT NULL DEFAULT '[]',
			points INTEGER NOT NULL DEFAULT 10
		);
	`

	createResultsTable := `
		CREATE TABLE IF NOT EXISTS bingo_results (
			id UUID PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL DEFAULT '',
			card_name VARCHAR(255) NOT NULL,
			profile VARCHAR(20) NOT NULL,
			timed BOOLEAN NOT NULL DEFAULT FALSE,
			outcome VARCHAR(10) NOT NULL,
			matched INTEGER NOT NULL,
			total INTEGER NOT NULL,
			players_used INTEGER NOT NULL,
			wrong_attempts INTEGER NOT NULL DEFAULT 0,
			wildcard_used BOOLEAN NOT NULL DEFAULT FALSE,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_bingo_results_user_id ON bingo_results(user_id);
	`

	steps := []struct {
		name  string
		query string
	}{
		{"rooms table", createRoomsTable},
		{"room_players table", createRoomPlayersTable},
		{"room_answers table", createRoomAnswersTable},
		{"questions table", createQuestionsTable},
		{"bingo_results table", createResultsTable},
	}

	for _, step := range steps {
		if _, err := c.db.ExecContext(ctx, step.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", step.name, err)
		}
	}

	return nil
}

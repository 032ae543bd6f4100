package websocket

import (
	"encoding/json"

	"bingo-service/internal/bingo"
	"bingo-service/internal/models"
)

type MessageType string

const (
	// Client -> Server
	MessageTypeStartGame      MessageType = "start_game"
	MessageTypeSelectCategory MessageType = "select_category"
	MessageTypeUseWildcard    MessageType = "use_wildcard"
	MessageTypeSkip           MessageType = "skip"
	MessageTypeGetState       MessageType = "get_state"
	MessageTypePing           MessageType = "ping"

	// Server -> Client
	MessageTypeConnected MessageType = "connected"
	MessageTypeState     MessageType = "state"
	MessageTypeSelection MessageType = "selection"
	MessageTypeWildcard  MessageType = "wildcard"
	MessageTypeNotice    MessageType = "notice"
	MessageTypeGameOver  MessageType = "game_over"
	MessageTypeEvent     MessageType = "event"
	MessageTypeError     MessageType = "error"
	MessageTypePong      MessageType = "pong"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// Card selection modes for start_game.
const (
	CardModeSame   = "same"
	CardModeRandom = "random"
)

type StartGamePayload struct {
	Card        string `json:"card,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Profile     string `json:"profile,omitempty"`
	Timed       *bool  `json:"timed,omitempty"`
	TurnSeconds int    `json:"turn_seconds,omitempty"`
}

type SelectCategoryPayload struct {
	CategoryID *int `json:"category_id"`
}

type ConnectedPayload struct {
	UserID  string          `json:"user_id"`
	Channel string          `json:"channel,omitempty"`
	Cards   []string        `json:"cards"`
	Last    json.RawMessage `json:"last_state,omitempty"`
}

type SelectionPayload struct {
	CategoryID int  `json:"category_id"`
	Valid      bool `json:"valid"`
}

type WildcardPayload struct {
	Matched []int `json:"matched"`
}

type GameOverPayload struct {
	Outcome       string `json:"outcome"`
	CardName      string `json:"card_name"`
	Matched       int    `json:"matched"`
	Total         int    `json:"total"`
	PlayersUsed   int    `json:"players_used"`
	WrongAttempts int    `json:"wrong_attempts"`
}

func gameOver(r models.BingoResult) GameOverPayload {
	return GameOverPayload{
		Outcome:       r.Outcome,
		CardName:      r.CardName,
		Matched:       r.Matched,
		Total:         r.Total,
		PlayersUsed:   r.PlayersUsed,
		WrongAttempts: r.WrongAttempts,
	}
}

type NoticePayload struct {
	bingo.Notice
	DurationMs int64 `json:"duration_ms"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func decodePayload(payload any, v any) error {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

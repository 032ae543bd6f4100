package dto

import "time"

type ResultDTO struct {
	ID            string    `json:"id"`
	CardName      string    `json:"card_name"`
	Profile       string    `json:"profile"`
	Timed         bool      `json:"timed"`
	Outcome       string    `json:"outcome"`
	Matched       int       `json:"matched"`
	Total         int       `json:"total"`
	PlayersUsed   int       `json:"players_used"`
	WrongAttempts int       `json:"wrong_attempts"`
	WildcardUsed  bool      `json:"wildcard_used"`
	FinishedAt    time.Time `json:"finished_at"`
}

type ResultsResponse struct {
	Results []ResultDTO `json:"results"`
	Total   int         `json:"total"`
}

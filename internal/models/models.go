package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ID is an opaque catalog identifier. Card files use numbers and strings
// interchangeably, so both decode to the same textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("id must be a scalar, line %d", value.Line)
	}
	*id = ID(value.Value)
	return nil
}

// Requirement is one qualifying condition attached to a category.
type Requirement struct {
	ID          ID     `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	DataFrom    string `json:"dataFrom,omitempty" yaml:"dataFrom,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
}

type Category struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Images       []string      `json:"images,omitempty"`
	Requirements []Requirement `json:"originalData"`
}

type Player struct {
	ID           ID     `json:"id" yaml:"id"`
	GivenName    string `json:"g" yaml:"g"`
	FamilyName   string `json:"f" yaml:"f"`
	Achievements []ID   `json:"v" yaml:"v"`
}

func (p Player) DisplayName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// Card is a read-only bundle of categories and players for one round.
type Card struct {
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
	Players    []Player   `json:"players"`
}

type Room struct {
	ID            int64
	Code          string
	CreatorID     string
	Status        string // "waiting", "in_progress", "completed"
	QuestionIndex int
	CreatedAt     time.Time
}

type RoomPlayer struct {
	RoomID      int64
	UserID      string
	DisplayName string
	Score       int
	JoinedAt    time.Time
}

type Question struct {
	ID            int64    `json:"id"`
	Text          string   `json:"question"`
	CorrectAnswer string   `json:"-"`
	Options       []string `json:"options"`
	Points        int      `json:"points"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

// BingoResult is the persisted summary of a finished single-player session.
type BingoResult struct {
	ID            string
	UserID        string
	CardName      string
	Profile       string
	Timed         bool
	Outcome       string
	Matched       int
	Total         int
	PlayersUsed   int
	WrongAttempts int
	WildcardUsed  bool
	StartedAt     time.Time
	FinishedAt    time.Time
}

package bingo

import "bingo-service/internal/models"

type CategoryView struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images,omitempty"`
}

type PlayerView struct {
	ID   models.ID `json:"id"`
	Name string    `json:"name"`
}

// Snapshot is a copy of the session state for rendering. It never exposes
// player achievements.
type Snapshot struct {
	Phase                Phase          `json:"phase"`
	Outcome              Outcome        `json:"outcome,omitempty"`
	Profile              string         `json:"profile"`
	Timed                bool           `json:"timed"`
	CardName             string         `json:"card_name,omitempty"`
	Categories           []CategoryView `json:"categories,omitempty"`
	CurrentPlayer        *PlayerView    `json:"current_player,omitempty"`
	UsedPlayerIDs        []models.ID    `json:"used_player_ids"`
	SelectedCells        []int          `json:"selected_cells"`
	ValidSelections      []int          `json:"valid_selections"`
	WildcardMatches      []int          `json:"wildcard_matches"`
	HasWildcard          bool           `json:"has_wildcard"`
	LastInvalidSelection *int           `json:"last_invalid_selection,omitempty"`
	SkipPenaltyActive    bool           `json:"skip_penalty_active"`
	MaxAvailablePlayers  int            `json:"max_available_players,omitempty"`
	TotalPlayers         int            `json:"total_players"`
	TimeRemaining        int            `json:"time_remaining,omitempty"`
	WrongAttempts        int            `json:"wrong_attempts"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:               s.phase,
		Outcome:             s.outcome,
		Profile:             s.opts.Profile.Name,
		Timed:               s.opts.Timed,
		UsedPlayerIDs:       append([]models.ID(nil), s.used...),
		SelectedCells:       s.selected.values(),
		ValidSelections:     s.valid.values(),
		WildcardMatches:     s.wildcard.values(),
		HasWildcard:         s.hasWildcard,
		SkipPenaltyActive:   s.skipPenalty,
		MaxAvailablePlayers: s.maxAvailable,
		WrongAttempts:       s.wrongAttempts,
	}

	if s.opts.Timed {
		snap.TimeRemaining = s.timeRemaining
	}
	if s.lastInvalid != noSelection {
		id := s.lastInvalid
		snap.LastInvalidSelection = &id
	}
	if s.current != nil {
		snap.CurrentPlayer = &PlayerView{ID: s.current.ID, Name: s.current.DisplayName()}
	}
	if s.card != nil {
		snap.CardName = s.card.Name
		snap.TotalPlayers = len(s.card.Players)
		snap.Categories = make([]CategoryView, len(s.card.Categories))
		for i, c := range s.card.Categories {
			snap.Categories[i] = CategoryView{ID: i, Name: c.Name, Images: c.Images}
		}
	}
	return snap
}

// Matched is the number of distinct resolved categories.
func (s Snapshot) Matched() int {
	return len(s.ValidSelections)
}

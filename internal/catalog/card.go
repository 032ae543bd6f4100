package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"bingo-service/internal/bingo"
	"bingo-service/internal/models"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidCard       = errors.New("invalid card")
	ErrUnsupportedFormat = errors.New("unsupported card format")
)

type cardFile struct {
	Name     string   `json:"name" yaml:"name"`
	GameData gameData `json:"gameData" yaml:"gameData"`
}

type gameData struct {
	Remit   [][]models.Requirement `json:"remit" yaml:"remit"`
	Players []models.Player        `json:"players" yaml:"players"`
}

// IsCardFile reports whether name has a card file extension.
func IsCardFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Parse decodes a card file. The format is picked from the file extension
// and the card name defaults to the file stem.
func Parse(filename string, data []byte) (*models.Card, error) {
	var file cardFile

	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCard, filename, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCard, filename, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	if strings.TrimSpace(file.Name) == "" {
		base := path.Base(filename)
		file.Name = strings.TrimSuffix(base, path.Ext(base))
	}

	card, err := build(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return card, nil
}

func build(file cardFile) (*models.Card, error) {
	if len(file.GameData.Remit) == 0 {
		return nil, fmt.Errorf("%w: card %q has no categories", ErrInvalidCard, file.Name)
	}

	card := &models.Card{
		Name:       strings.TrimSpace(file.Name),
		Categories: make([]models.Category, 0, len(file.GameData.Remit)),
		Players:    make([]models.Player, 0, len(file.GameData.Players)),
	}

	for i, reqs := range file.GameData.Remit {
		if len(reqs) == 0 {
			return nil, fmt.Errorf("%w: category %d has no requirements", ErrInvalidCard, i)
		}

		category := models.Category{
			ID:           i,
			Name:         bingo.FormatCategory(reqs),
			Requirements: reqs,
		}
		for j, req := range reqs {
			if req.ID == "" {
				return nil, fmt.Errorf("%w: category %d requirement %d has no id", ErrInvalidCard, i, j)
			}
			if req.Image != "" {
				category.Images = append(category.Images, req.Image)
			}
		}
		card.Categories = append(card.Categories, category)
	}

	seen := make(map[models.ID]bool, len(file.GameData.Players))
	for i, p := range file.GameData.Players {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: player %d has no id", ErrInvalidCard, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate player id %q", ErrInvalidCard, p.ID)
		}
		seen[p.ID] = true
		card.Players = append(card.Players, p)
	}

	return card, nil
}

package bingo

import "bingo-service/internal/models"

// Matches reports whether any of the player's achievements is one of the
// category's requirement records. A category without requirements is never
// matched.
func Matches(player models.Player, category models.Category) bool {
	if len(category.Requirements) == 0 || len(player.Achievements) == 0 {
		return false
	}

	required := make(map[models.ID]struct{}, len(category.Requirements))
	for _, req := range category.Requirements {
		required[req.ID] = struct{}{}
	}

	for _, id := range player.Achievements {
		if _, ok := required[id]; ok {
			return true
		}
	}
	return false
}

// MatchingCategories returns, in board order, the categories the player
// satisfies. Categories for which skip returns true are left out.
func MatchingCategories(player models.Player, categories []models.Category, skip func(int) bool) []int {
	var matched []int
	for i, category := range categories {
		if skip != nil && skip(i) {
			continue
		}
		if Matches(player, category) {
			matched = append(matched, i)
		}
	}
	return matched
}

package bingo

import "bingo-service/internal/models"

// RandomSource is the uniform generator used to draw players. *rand.Rand
// satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// Draw picks an unused player uniformly at random. When ceiling is positive
// only the first ceiling players are eligible and the pool counts as
// exhausted once len(used) reaches it. used is never modified.
func Draw(rng RandomSource, used map[models.ID]bool, players []models.Player, ceiling int) (models.Player, bool) {
	pool := players
	if ceiling > 0 {
		if len(used) >= ceiling {
			return models.Player{}, false
		}
		if ceiling < len(pool) {
			pool = pool[:ceiling]
		}
	}

	eligible := make([]int, 0, len(pool))
	for i, p := range pool {
		if !used[p.ID] {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return models.Player{}, false
	}

	return pool[eligible[rng.Intn(len(eligible))]], true
}

package bingo

import (
	"fmt"

	"bingo-service/internal/models"
)

// firstPick always draws the first eligible player.
type firstPick struct{}

func (firstPick) Intn(int) int { return 0 }

type recorder struct {
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.notices = append(r.notices, n)
}

func (r *recorder) count(title string) int {
	n := 0
	for _, notice := range r.notices {
		if notice.Title == title {
			n++
		}
	}
	return n
}

func (r *recorder) last() Notice {
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func reqID(i int) models.ID {
	return models.ID(fmt.Sprintf("r%d", i))
}

// newCard builds a card whose category i is satisfied by achievement r<i>.
func newCard(categories int, players ...models.Player) *models.Card {
	card := &models.Card{Name: "test", Players: players}
	for i := 0; i < categories; i++ {
		card.Categories = append(card.Categories, models.Category{
			ID:   i,
			Name: fmt.Sprintf("Team %d", i),
			Requirements: []models.Requirement{
				{ID: reqID(i), Type: RequirementTeam, DisplayName: fmt.Sprintf("Team %d", i)},
			},
		})
	}
	return card
}

func player(id string, matches ...int) models.Player {
	p := models.Player{ID: models.ID(id), GivenName: id, FamilyName: "Test"}
	for _, m := range matches {
		p.Achievements = append(p.Achievements, reqID(m))
	}
	return p
}

func hasID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

package bingo

import (
	"math/rand"
	"testing"

	"bingo-service/internal/models"
)

func TestDrawSkipsUsedPlayers(t *testing.T) {
	players := []models.Player{player("a"), player("b"), player("c")}
	used := map[models.ID]bool{"a": true, "c": true}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		got, ok := Draw(rng, used, players, 0)
		if !ok {
			t.Fatalf("draw failed with an unused player left")
		}
		if got.ID != "b" {
			t.Fatalf("drew %s, want b", got.ID)
		}
	}
	if len(used) != 2 {
		t.Fatalf("used mutated: %v", used)
	}
}

func TestDrawExhausted(t *testing.T) {
	players := []models.Player{player("a"), player("b")}

	if _, ok := Draw(firstPick{}, nil, nil, 0); ok {
		t.Fatalf("draw from empty card should fail")
	}
	if _, ok := Draw(firstPick{}, map[models.ID]bool{"a": true, "b": true}, players, 0); ok {
		t.Fatalf("draw with every player used should fail")
	}
}

func TestDrawCeiling(t *testing.T) {
	players := []models.Player{player("a"), player("b"), player("c"), player("d")}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		got, ok := Draw(rng, nil, players, 2)
		if !ok {
			t.Fatalf("draw failed under ceiling")
		}
		if got.ID != "a" && got.ID != "b" {
			t.Fatalf("drew %s outside the first 2 players", got.ID)
		}
	}

	// Unused players remain but the ceiling is already reached.
	if _, ok := Draw(rng, map[models.ID]bool{"a": true, "c": true}, players, 2); ok {
		t.Fatalf("draw should fail once used reaches the ceiling")
	}
}

func TestDrawIsUniform(t *testing.T) {
	players := []models.Player{player("a"), player("b"), player("c")}
	rng := rand.New(rand.NewSource(1))

	counts := map[models.ID]int{}
	for i := 0; i < 3000; i++ {
		p, _ := Draw(rng, nil, players, 0)
		counts[p.ID]++
	}
	for _, p := range players {
		if counts[p.ID] < 800 {
			t.Fatalf("player %s drawn %d times out of 3000", p.ID, counts[p.ID])
		}
	}
}

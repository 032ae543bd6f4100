package catalog

import (
	"errors"
	"fmt"
	"sync"

	"bingo-service/internal/bingo"
	"bingo-service/internal/models"
)

var (
	ErrCardNotFound  = errors.New("card not found")
	ErrEmptyCatalog  = errors.New("catalog has no cards")
	ErrDuplicateCard = errors.New("duplicate card name")
)

// Catalog is the loaded, read-only set of cards. Reload swaps the whole set.
type Catalog struct {
	mu     sync.Mutex
	rng    bingo.RandomSource
	cards  []*models.Card
	byName map[string]*models.Card
}

func New(rng bingo.RandomSource, cards []*models.Card) (*Catalog, error) {
	c := &Catalog{rng: rng}
	if err := c.Reload(cards); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Reload(cards []*models.Card) error {
	byName := make(map[string]*models.Card, len(cards))
	for _, card := range cards {
		if _, ok := byName[card.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateCard, card.Name)
		}
		byName[card.Name] = card
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cards = append([]*models.Card(nil), cards...)
	c.byName = byName
	return nil
}

func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cards)
}

func (c *Catalog) All() []*models.Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*models.Card(nil), c.cards...)
}

func (c *Catalog) Get(name string) (*models.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	card, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCardNotFound, name)
	}
	return card, nil
}

func (c *Catalog) Random() (*models.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cards) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c.cards[c.rng.Intn(len(c.cards))], nil
}

// RandomOther picks a card different from current. With a single card
// loaded the same card is returned.
func (c *Catalog) RandomOther(current *models.Card) (*models.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cards) == 0 {
		return nil, ErrEmptyCatalog
	}

	others := make([]*models.Card, 0, len(c.cards))
	for _, card := range c.cards {
		if current == nil || card.Name != current.Name {
			others = append(others, card)
		}
	}
	if len(others) == 0 {
		return c.cards[0], nil
	}
	return others[c.rng.Intn(len(others))], nil
}

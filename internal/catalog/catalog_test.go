package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"bingo-service/internal/models"
)

const jsonCard = `{
  "name": "Premier League",
  "gameData": {
    "remit": [
      [{"id": 1, "type": "team", "displayName": "Arsenal"}],
      [{"id": "c-44", "type": "country", "displayName": "France", "image": "fr.png"}],
      [{"id": 7, "type": "manager", "displayName": "Arsene Wenger"},
       {"id": 8, "type": "competition-winner", "displayName": "FA Cup", "dataFrom": "2000"}]
    ],
    "players": [
      {"id": 100, "g": "Thierry", "f": "Henry", "v": [1, "c-44", 7]},
      {"id": "p-2", "g": "Patrick", "f": "Vieira", "v": ["c-44"]}
    ]
  }
}`

const yamlCard = `
gameData:
  remit:
    - - id: 3
        type: competition
        displayName: Serie A
        dataFrom: "1990"
    - - id: 4
        type: teammate
        displayName: Paolo Maldini
  players:
    - id: 9
      g: Andrea
      f: Pirlo
      v: [3, 4]
`

func TestParseJSON(t *testing.T) {
	card, err := Parse("premier.json", []byte(jsonCard))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if card.Name != "Premier League" {
		t.Fatalf("name = %q", card.Name)
	}
	if len(card.Categories) != 3 || len(card.Players) != 2 {
		t.Fatalf("categories=%d players=%d", len(card.Categories), len(card.Players))
	}
	if got := card.Categories[2].Name; got != "Arsene Wenger + FA Cup" {
		t.Fatalf("combined category name = %q", got)
	}
	if got := card.Categories[1].Images; len(got) != 1 || got[0] != "fr.png" {
		t.Fatalf("images = %v", got)
	}
	if card.Players[0].ID != "100" || card.Players[0].Achievements[0] != "1" {
		t.Fatalf("numeric ids not normalised: %+v", card.Players[0])
	}
}

func TestParseYAMLDefaultsName(t *testing.T) {
	card, err := Parse("cards/serie-a.yaml", []byte(yamlCard))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if card.Name != "serie-a" {
		t.Fatalf("name = %q, want file stem", card.Name)
	}
	if got := card.Categories[0].Name; got != "Serie A (1990)" {
		t.Fatalf("category name = %q", got)
	}
	if got := card.Categories[1].Name; got != "Played with Paolo Maldini" {
		t.Fatalf("category name = %q", got)
	}
}

func TestParseRejectsMalformedCards(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		want     error
	}{
		{"bad json", "a.json", `{"gameData":`, ErrInvalidCard},
		{"unknown extension", "a.txt", `{}`, ErrUnsupportedFormat},
		{"no categories", "a.json", `{"gameData":{"remit":[],"players":[]}}`, ErrInvalidCard},
		{"empty category", "a.json", `{"gameData":{"remit":[[]]}}`, ErrInvalidCard},
		{"requirement without id", "a.json", `{"gameData":{"remit":[[{"type":"team","displayName":"Ajax"}]]}}`, ErrInvalidCard},
		{"player without id", "a.json", `{"gameData":{"remit":[[{"id":1}]],"players":[{"g":"A"}]}}`, ErrInvalidCard},
		{"duplicate player", "a.json", `{"gameData":{"remit":[[{"id":1}]],"players":[{"id":1},{"id":"1"}]}}`, ErrInvalidCard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.filename, []byte(tt.data)); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseAllowsCardWithoutPlayers(t *testing.T) {
	card, err := Parse("empty.json", []byte(`{"gameData":{"remit":[[{"id":1,"type":"team","displayName":"Ajax"}]]}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(card.Players) != 0 {
		t.Fatalf("players = %v", card.Players)
	}
}

func testCards(names ...string) []*models.Card {
	cards := make([]*models.Card, len(names))
	for i, name := range names {
		cards[i] = &models.Card{Name: name}
	}
	return cards
}

func TestCatalogRandomOther(t *testing.T) {
	c, err := New(rand.New(rand.NewSource(3)), testCards("a", "b", "c"))
	if err != nil {
		t.Fatalf("new catalog error: %v", err)
	}

	current, _ := c.Get("b")
	for i := 0; i < 30; i++ {
		other, err := c.RandomOther(current)
		if err != nil {
			t.Fatalf("random other error: %v", err)
		}
		if other.Name == "b" {
			t.Fatalf("random other returned the current card")
		}
	}
}

func TestCatalogSingleCardReturnsSame(t *testing.T) {
	c, err := New(rand.New(rand.NewSource(1)), testCards("only"))
	if err != nil {
		t.Fatalf("new catalog error: %v", err)
	}
	current, _ := c.Get("only")

	other, err := c.RandomOther(current)
	if err != nil || other != current {
		t.Fatalf("random other = %v, %v, want the same card", other, err)
	}
}

func TestCatalogErrors(t *testing.T) {
	if _, err := New(rand.New(rand.NewSource(1)), testCards("a", "a")); !errors.Is(err, ErrDuplicateCard) {
		t.Fatalf("duplicate err = %v", err)
	}

	c, err := New(rand.New(rand.NewSource(1)), nil)
	if err != nil {
		t.Fatalf("new catalog error: %v", err)
	}
	if _, err := c.Random(); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("random err = %v, want ErrEmptyCatalog", err)
	}
	if _, err := c.Get("missing"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("get err = %v, want ErrCardNotFound", err)
	}
}

func writeCards(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"premier.json": jsonCard,
		"serie-a.yml":  yamlCard,
		"README.md":    "not a card",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestDirSource(t *testing.T) {
	dir := writeCards(t)

	cards, err := LoadAll(context.Background(), DirSource{Dir: dir})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("loaded %d cards, want 2", len(cards))
	}

	if _, err := (DirSource{Dir: filepath.Join(dir, "missing")}).Load(context.Background()); err == nil {
		t.Fatalf("missing directory should fail")
	}
}

type fakeStore struct {
	buckets []string
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) CreateBucket(_ context.Context, bucket string) error {
	f.buckets = append(f.buckets, bucket)
	return nil
}

func (f *fakeStore) UploadFile(_ context.Context, bucket, name string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[bucket+"/"+name] = data
	return nil
}

func (f *fakeStore) ListFiles(_ context.Context, bucket, prefix string) ([]string, error) {
	var names []string
	for key := range f.objects {
		name := strings.TrimPrefix(key, bucket+"/")
		if name != key && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeStore) DownloadFile(_ context.Context, bucket, name string) (io.ReadCloser, error) {
	data, ok := f.objects[bucket+"/"+name]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestS3SourcePushAndLoad(t *testing.T) {
	store := newFakeStore()
	src := NewS3Source(store, "cards", "bingo/")

	pushed, err := src.Push(context.Background(), writeCards(t))
	if err != nil {
		t.Fatalf("push error: %v", err)
	}
	if pushed != 2 {
		t.Fatalf("pushed %d cards, want 2", pushed)
	}
	if _, ok := store.objects["cards/bingo/premier.json"]; !ok {
		t.Fatalf("objects = %v", store.objects)
	}

	cards, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(cards) != 2 || cards[0].Name != "Premier League" || cards[1].Name != "serie-a" {
		t.Fatalf("cards = %v", cards)
	}
}

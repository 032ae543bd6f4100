package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"bingo-service/internal/bingo"
	"bingo-service/internal/catalog"
	"bingo-service/internal/models"
)

type received struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type fakeResults struct {
	saved chan models.BingoResult
}

func (f *fakeResults) SaveResult(_ context.Context, r models.BingoResult) error {
	f.saved <- r
	return nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	set  chan string
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	f.data[key] = value.(string)
	f.mu.Unlock()
	f.set <- key
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	card := &models.Card{
		Name: "Derby",
		Categories: []models.Category{
			{ID: 0, Name: "Arsenal", Requirements: []models.Requirement{{ID: "r0"}}},
			{ID: 1, Name: "France", Requirements: []models.Requirement{{ID: "r1"}}},
		},
		Players: []models.Player{
			{ID: "p1", GivenName: "Thierry", FamilyName: "Henry", Achievements: []models.ID{"r0", "r1"}},
		},
	}
	cards, err := catalog.New(rand.New(rand.NewSource(1)), []*models.Card{card})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cards
}

func next(t *testing.T, c *Client) received {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var msg received
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return received{}
}

// expect drains messages until one of type want arrives.
func expect(t *testing.T, c *Client, want MessageType) received {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := next(t, c)
		if msg.Type == want {
			return msg
		}
	}
	t.Fatalf("message %q never arrived", want)
	return received{}
}

func send(h *Hub, c *Client, msgType MessageType, payload any) {
	h.handleClientMessage(&ClientMessage{Client: c, Message: Message{Type: msgType, Payload: payload}})
}

func TestRegisterSendsCatalog(t *testing.T) {
	h := NewHub(testCatalog(t), bingo.Options{Profile: bingo.Classic})
	c := NewClient(h, nil, "u1", "")
	h.registerClient(c)

	msg := expect(t, c, MessageTypeConnected)
	var payload ConnectedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.UserID != "u1" || len(payload.Cards) != 1 || payload.Cards[0] != "Derby" {
		t.Fatalf("connected = %+v", payload)
	}
}

func TestWildcardWinSavesResult(t *testing.T) {
	results := &fakeResults{saved: make(chan models.BingoResult, 1)}
	h := NewHub(testCatalog(t), bingo.Options{Profile: bingo.Classic}, WithResults(results))
	c := NewClient(h, nil, "u1", "")
	h.registerClient(c)
	expect(t, c, MessageTypeConnected)

	send(h, c, MessageTypeStartGame, map[string]any{"card": "Derby"})
	state := expect(t, c, MessageTypeState)
	var snap bingo.Snapshot
	if err := json.Unmarshal(state.Payload, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Phase != bingo.PhasePlaying || snap.CardName != "Derby" {
		t.Fatalf("snapshot = %+v", snap)
	}

	send(h, c, MessageTypeUseWildcard, nil)
	over := expect(t, c, MessageTypeGameOver)
	var summary GameOverPayload
	if err := json.Unmarshal(over.Payload, &summary); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if summary.Outcome != "win" || summary.Matched != 2 {
		t.Fatalf("game over = %+v", summary)
	}
	expect(t, c, MessageTypeWildcard)

	select {
	case r := <-results.saved:
		if r.UserID != "u1" || r.ID == "" || !r.WildcardUsed {
			t.Fatalf("result = %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("result was not saved")
	}
}

func TestInvalidRequests(t *testing.T) {
	h := NewHub(testCatalog(t), bingo.Options{Profile: bingo.Classic})
	c := NewClient(h, nil, "u1", "")
	h.registerClient(c)
	expect(t, c, MessageTypeConnected)

	send(h, c, MessageTypeSkip, nil)
	expect(t, c, MessageTypeError)

	send(h, c, MessageTypeStartGame, map[string]any{"card": "Missing"})
	expect(t, c, MessageTypeError)

	send(h, c, MessageTypeStartGame, map[string]any{"profile": "nightmare"})
	expect(t, c, MessageTypeError)

	send(h, c, MessageTypeStartGame, nil)
	expect(t, c, MessageTypeState)

	send(h, c, MessageTypeSelectCategory, map[string]any{})
	expect(t, c, MessageTypeError)

	send(h, c, MessageTypeSelectCategory, map[string]any{"category_id": 9})
	expect(t, c, MessageTypeError)

	send(h, c, "dance", nil)
	expect(t, c, MessageTypeError)

	send(h, c, MessageTypePing, nil)
	expect(t, c, MessageTypePong)
}

func TestSelectionReportsValidity(t *testing.T) {
	h := NewHub(testCatalog(t), bingo.Options{Profile: bingo.Classic})
	c := NewClient(h, nil, "u1", "")
	h.registerClient(c)

	send(h, c, MessageTypeStartGame, map[string]any{"mode": CardModeRandom})
	expect(t, c, MessageTypeState)

	send(h, c, MessageTypeSelectCategory, map[string]any{"category_id": 0})
	msg := expect(t, c, MessageTypeSelection)
	var sel SelectionPayload
	if err := json.Unmarshal(msg.Payload, &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !sel.Valid || sel.CategoryID != 0 {
		t.Fatalf("selection = %+v", sel)
	}
}

func TestPublishReachesSubscribersOnly(t *testing.T) {
	h := NewHub(testCatalog(t), bingo.Options{Profile: bingo.Classic})
	in := NewClient(h, nil, "u1", "game-ABC123")
	out := NewClient(h, nil, "u2", "")
	h.registerClient(in)
	h.registerClient(out)
	expect(t, in, MessageTypeConnected)
	expect(t, out, MessageTypeConnected)

	if h.Subscribers("game-ABC123") != 1 {
		t.Fatalf("subscribers = %d, want 1", h.Subscribers("game-ABC123"))
	}

	h.Publish("game-ABC123", map[string]string{"type": "player-joined"})
	expect(t, in, MessageTypeEvent)
	if len(out.Send) != 0 {
		t.Fatal("unsubscribed client received the event")
	}

	h.unregisterClient(in)
	if _, ok := <-in.Send; ok {
		t.Fatal("send channel still open after unregister")
	}
	if h.Subscribers("game-ABC123") != 0 {
		t.Fatal("channel not cleaned up")
	}
	h.Publish("game-ABC123", "ignored")
}

func TestSnapshotCachedAndRestored(t *testing.T) {
	cache := &fakeCache{data: map[string]string{}, set: make(chan string, 8)}
	h := NewHub(testCatalog(t), bingo.Options{Profile: bingo.Classic}, WithSnapshotCache(cache))

	c := NewClient(h, nil, "u1", "")
	h.registerClient(c)
	send(h, c, MessageTypeStartGame, nil)

	select {
	case key := <-cache.set:
		if key != snapshotKey("u1") {
			t.Fatalf("key = %q", key)
		}
	case <-time.After(time.Second):
		t.Fatal("snapshot was not cached")
	}

	again := NewClient(h, nil, "u1", "")
	h.registerClient(again)
	msg := expect(t, again, MessageTypeConnected)
	var payload ConnectedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var last bingo.Snapshot
	if err := json.Unmarshal(payload.Last, &last); err != nil {
		t.Fatalf("last state: %v", err)
	}
	if last.CardName != "Derby" {
		t.Fatalf("last state = %+v", last)
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(testCatalog(t), bingo.Options{Profile: bingo.Classic})
	c := NewClient(h, nil, "u1", "")
	for i := 0; i < cap(c.Send)+1; i++ {
		c.SendMessage(MessageTypePong, nil)
	}
	c.SendMessage(MessageTypePong, nil)
	c.close()

	n := 0
	for range c.Send {
		n++
	}
	if n != cap(c.Send) {
		t.Fatalf("drained %d messages, want %d", n, cap(c.Send))
	}
}

func TestSnapshotWriterKeepsNewestBoard(t *testing.T) {
	w := newSnapshotWriter()
	started := make(chan string, 4)
	release := make(chan struct{})
	var (
		mu     sync.Mutex
		stored []string
	)
	finished := make(chan struct{})
	go func() {
		w.run(func(data []byte) {
			started <- string(data)
			if string(data) == "a" {
				<-release
			}
			mu.Lock()
			stored = append(stored, string(data))
			mu.Unlock()
		})
		close(finished)
	}()

	w.put([]byte("a"))
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first board was not written")
	}

	// Written while "a" is still in flight; only the newest survives.
	w.put([]byte("b"))
	w.put([]byte("c"))
	close(release)
	w.stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("writer did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(stored) != 2 || stored[0] != "a" || stored[1] != "c" {
		t.Fatalf("stored = %v, want [a c]", stored)
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"bingo-service/internal/bingo"
	"bingo-service/internal/models"
	"bingo-service/pkg/cache"

	"github.com/google/uuid"
)

func snapshotKey(userID string) string {
	return "bingo:snapshot:" + userID
}

func (h *Hub) handleStartGame(client *Client, payload any) {
	var req StartGamePayload
	if err := decodePayload(payload, &req); err != nil {
		client.SendError("Invalid start_game payload")
		return
	}

	card, err := h.pickCard(client.table.Card(), req)
	if err != nil {
		client.SendError(err.Error())
		return
	}

	opts, err := h.gameOptions(req)
	if err != nil {
		client.SendError(err.Error())
		return
	}

	if _, err := client.table.NewGame(card, opts); err != nil {
		log.Printf("Failed to start game for user %s on %q: %v", client.UserID, card.Name, err)
		client.SendError(err.Error())
		return
	}
	log.Printf("Game started: user=%s, card=%q, profile=%s, timed=%v", client.UserID, card.Name, opts.Profile.Name, opts.Timed)
}

// pickCard resolves the requested card. An explicit name wins, then the
// replay modes, then a random card.
func (h *Hub) pickCard(current *models.Card, req StartGamePayload) (*models.Card, error) {
	switch {
	case req.Card != "":
		return h.catalog.Get(req.Card)
	case req.Mode == CardModeSame && current != nil:
		return current, nil
	case req.Mode == CardModeRandom:
		return h.catalog.RandomOther(current)
	}
	return h.catalog.Random()
}

func (h *Hub) gameOptions(req StartGamePayload) (bingo.Options, error) {
	opts := h.defaults
	if req.Profile != "" {
		profile, err := bingo.ProfileByName(req.Profile)
		if err != nil {
			return opts, err
		}
		opts.Profile = profile
	}
	if req.Timed != nil {
		opts.Timed = *req.Timed
	}
	if req.TurnSeconds > 0 {
		opts.TurnSeconds = req.TurnSeconds
	}
	return opts, nil
}

func (h *Hub) handleSelect(client *Client, payload any) {
	var req SelectCategoryPayload
	if err := decodePayload(payload, &req); err != nil || req.CategoryID == nil {
		client.SendError("Invalid select_category payload")
		return
	}

	valid, _, err := client.table.Select(*req.CategoryID)
	if err != nil {
		client.SendError(err.Error())
		return
	}
	client.SendMessage(MessageTypeSelection, SelectionPayload{CategoryID: *req.CategoryID, Valid: valid})
}

func (h *Hub) handleWildcard(client *Client) {
	matched, _, err := client.table.Wildcard()
	if err != nil {
		client.SendError(err.Error())
		return
	}
	if matched == nil {
		matched = []int{}
	}
	client.SendMessage(MessageTypeWildcard, WildcardPayload{Matched: matched})
}

func (h *Hub) handleSkip(client *Client) {
	if _, err := client.table.Skip(); err != nil {
		client.SendError(err.Error())
	}
}

// snapshotWriter stores one client's boards in order from a single
// goroutine. Only the newest pending board is kept.
type snapshotWriter struct {
	mu      sync.Mutex
	pending []byte
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSnapshotWriter() *snapshotWriter {
	return &snapshotWriter{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (w *snapshotWriter) put(data []byte) {
	w.mu.Lock()
	w.pending = data
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *snapshotWriter) take() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	data := w.pending
	w.pending = nil
	return data
}

// run writes pending boards until stop, then flushes the last one.
func (w *snapshotWriter) run(store func([]byte)) {
	for {
		select {
		case <-w.wake:
			if data := w.take(); data != nil {
				store(data)
			}
		case <-w.done:
			if data := w.take(); data != nil {
				store(data)
			}
			return
		}
	}
}

func (w *snapshotWriter) stop() {
	w.once.Do(func() { close(w.done) })
}

func (h *Hub) startSnapshotWriter(client *Client) {
	if h.snapshots == nil {
		return
	}
	userID := client.UserID
	client.snapshots = newSnapshotWriter()
	go client.snapshots.run(func(data []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := h.snapshots.Set(ctx, snapshotKey(userID), string(data), snapshotTTL); err != nil {
			log.Printf("Failed to cache snapshot for user %s: %v", userID, err)
		}
	})
}

func (h *Hub) storeSnapshot(client *Client, snap bingo.Snapshot) {
	if client.snapshots == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("Failed to marshal snapshot: %v", err)
		return
	}
	client.snapshots.put(data)
}

func (h *Hub) lastSnapshot(userID string) json.RawMessage {
	if h.snapshots == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	data, err := h.snapshots.Get(ctx, snapshotKey(userID))
	if err != nil {
		if !cache.IsNil(err) {
			log.Printf("Failed to load snapshot for user %s: %v", userID, err)
		}
		return nil
	}
	if !json.Valid([]byte(data)) {
		return nil
	}
	return json.RawMessage(data)
}

func (h *Hub) saveResult(userID string, result models.BingoResult) {
	if h.results == nil {
		return
	}
	result.ID = uuid.NewString()
	result.UserID = userID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := h.results.SaveResult(ctx, result); err != nil {
			log.Printf("Failed to save result for user %s: %v", userID, err)
		}
	}()
}

package websocket

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"bingo-service/internal/bingo"
	"bingo-service/internal/catalog"
	"bingo-service/internal/models"
)

const (
	snapshotTTL  = time.Hour
	storeTimeout = 5 * time.Second
)

type ClientMessage struct {
	Client  *Client
	Message Message
}

type ResultStore interface {
	SaveResult(ctx context.Context, result models.BingoResult) error
}

// SnapshotCache keeps the last board of each user. *cache.RedisClient
// satisfies it.
type SnapshotCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type HubOption func(*Hub)

func WithResults(store ResultStore) HubOption {
	return func(h *Hub) { h.results = store }
}

func WithSnapshotCache(cache SnapshotCache) HubOption {
	return func(h *Hub) { h.snapshots = cache }
}

// WithNotifier adds a per-user notice sink next to the websocket itself.
func WithNotifier(fn func(userID string) bingo.Notifier) HubOption {
	return func(h *Hub) { h.notifier = fn }
}

func WithTicker(fn bingo.TickerFunc) HubOption {
	return func(h *Hub) { h.ticker = fn }
}

type Hub struct {
	clients       map[*Client]bool
	channels      map[string]map[*Client]bool
	Register      chan *Client
	Unregister    chan *Client
	HandleMessage chan *ClientMessage

	catalog   *catalog.Catalog
	defaults  bingo.Options
	results   ResultStore
	snapshots SnapshotCache
	notifier  func(userID string) bingo.Notifier
	ticker    bingo.TickerFunc

	mu sync.RWMutex
}

func NewHub(cards *catalog.Catalog, defaults bingo.Options, opts ...HubOption) *Hub {
	h := &Hub{
		clients:       make(map[*Client]bool),
		channels:      make(map[string]map[*Client]bool),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		HandleMessage: make(chan *ClientMessage),
		catalog:       cards,
		defaults:      defaults,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case clientMsg := <-h.HandleMessage:
			h.handleClientMessage(clientMsg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.startSnapshotWriter(client)
	client.table = h.newTable(client)

	h.mu.Lock()
	h.clients[client] = true
	if client.Channel != "" {
		if h.channels[client.Channel] == nil {
			h.channels[client.Channel] = make(map[*Client]bool)
		}
		h.channels[client.Channel][client] = true
	}
	h.mu.Unlock()

	log.Printf("Client registered: user=%s, channel=%s", client.UserID, client.Channel)

	names := make([]string, 0, h.catalog.Len())
	for _, card := range h.catalog.All() {
		names = append(names, card.Name)
	}
	client.SendMessage(MessageTypeConnected, ConnectedPayload{
		UserID:  client.UserID,
		Channel: client.Channel,
		Cards:   names,
		Last:    h.lastSnapshot(client.UserID),
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if subs, ok := h.channels[client.Channel]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.channels, client.Channel)
		}
	}

	if client.table != nil {
		client.table.Close()
	}
	if client.snapshots != nil {
		client.snapshots.stop()
	}
	client.close()

	log.Printf("Client unregistered: user=%s, channel=%s", client.UserID, client.Channel)
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.table != nil {
			client.table.Close()
		}
		if client.snapshots != nil {
			client.snapshots.stop()
		}
		client.close()
	}
	h.clients = make(map[*Client]bool)
	h.channels = make(map[string]map[*Client]bool)
}

// Publish sends payload to every client subscribed to channel.
func (h *Hub) Publish(channel string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.channels[channel] {
		client.SendMessage(MessageTypeEvent, payload)
	}
}

// Subscribers is the number of clients on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) handleClientMessage(clientMsg *ClientMessage) {
	client := clientMsg.Client
	msg := clientMsg.Message

	switch msg.Type {
	case MessageTypeStartGame:
		h.handleStartGame(client, msg.Payload)

	case MessageTypeSelectCategory:
		h.handleSelect(client, msg.Payload)

	case MessageTypeUseWildcard:
		h.handleWildcard(client)

	case MessageTypeSkip:
		h.handleSkip(client)

	case MessageTypeGetState:
		snap, _ := client.table.Snapshot()
		client.SendMessage(MessageTypeState, snap)

	case MessageTypePing:
		client.SendMessage(MessageTypePong, nil)

	default:
		client.SendError(fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Hub) newTable(client *Client) *bingo.Table {
	sink := bingo.Notifier(bingo.NotifierFunc(func(n bingo.Notice) {
		client.SendMessage(MessageTypeNotice, NoticePayload{Notice: n, DurationMs: n.Duration.Milliseconds()})
	}))
	if h.notifier != nil {
		if extra := h.notifier(client.UserID); extra != nil {
			local := sink
			sink = bingo.NotifierFunc(func(n bingo.Notice) {
				local.Notify(n)
				extra.Notify(n)
			})
		}
	}

	opts := []bingo.TableOption{
		bingo.WithOnChange(func(snap bingo.Snapshot) {
			client.SendMessage(MessageTypeState, snap)
			h.storeSnapshot(client, snap)
		}),
		bingo.WithOnEnd(func(result models.BingoResult) {
			client.SendMessage(MessageTypeGameOver, gameOver(result))
			h.saveResult(client.UserID, result)
		}),
	}
	if h.ticker != nil {
		opts = append(opts, bingo.WithTicker(h.ticker))
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return bingo.NewTable(rng, sink, opts...)
}

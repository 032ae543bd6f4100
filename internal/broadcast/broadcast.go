package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bingo-service/internal/constants"
	"bingo-service/internal/quiz"
)

// RoomHub delivers a payload to every connection subscribed to channel.
type RoomHub interface {
	Publish(channel string, payload any)
}

// HubPublisher pushes room events to websocket subscribers.
type HubPublisher struct {
	hub RoomHub
}

func NewHubPublisher(hub RoomHub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Broadcast(_ context.Context, channel string, event quiz.Event) error {
	p.hub.Publish(channel, event)
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, queueName, messageID string, body []byte) error
}

// Envelope is the queued form of a room event.
type Envelope struct {
	Channel string     `json:"channel"`
	Event   quiz.Event `json:"event"`
}

// QueuePublisher forwards room events to the events queue so other
// instances can relay them.
type QueuePublisher struct {
	publisher Publisher
	queue     string
}

func NewQueuePublisher(publisher Publisher) *QueuePublisher {
	return &QueuePublisher{publisher: publisher, queue: constants.QueueEvents}
}

func (p *QueuePublisher) Broadcast(ctx context.Context, channel string, event quiz.Event) error {
	body, err := json.Marshal(Envelope{Channel: channel, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.publisher.Publish(ctx, p.queue, event.ID, body); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

// Fanout delivers to every broadcaster and joins their errors.
type Fanout []quiz.Broadcaster

func (f Fanout) Broadcast(ctx context.Context, channel string, event quiz.Event) error {
	var errs []error
	for _, b := range f {
		if b == nil {
			continue
		}
		if err := b.Broadcast(ctx, channel, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

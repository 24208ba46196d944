package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultEventsChannel is the pub/sub channel ledger changes are announced on.
const DefaultEventsChannel = "cash-register:events"

// EventPublisher announces ledger mutations on a Redis channel.
type EventPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewEventPublisher(rdb *redis.Client, channel string) *EventPublisher {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	return &EventPublisher{rdb: rdb, channel: channel}
}

// Publish is best effort from the caller's point of view: the mutation already
// committed, so a failure here only delays other desks until their next refresh.
func (p *EventPublisher) Publish(ctx context.Context, ev dto.Event) error {
	encoded, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, encoded).Err(); err != nil {
		return fmt.Errorf("events: publish %s: %w", ev.Type, err)
	}
	return nil
}

// EventSubscriber delivers ledger events to a desk so it can refresh.
type EventSubscriber struct {
	rdb     *redis.Client
	channel string

	mu     sync.Mutex
	pubsub *redis.PubSub
}

func NewEventSubscriber(rdb *redis.Client, channel string) *EventSubscriber {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	return &EventSubscriber{rdb: rdb, channel: channel}
}

// Subscribe starts listening. The returned channel closes when ctx is done or
// Close is called. Undecodable payloads are logged and skipped.
func (s *EventSubscriber) Subscribe(ctx context.Context) (<-chan dto.Event, error) {
	ps := s.rdb.Subscribe(ctx, s.channel)
	// Wait for the subscription confirmation so errors surface here.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("events: subscribe %s: %w", s.channel, err)
	}

	s.mu.Lock()
	s.pubsub = ps
	s.mu.Unlock()

	out := make(chan dto.Event)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev dto.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("events: discarding malformed payload")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *EventSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pubsub == nil {
		return nil
	}
	err := s.pubsub.Close()
	s.pubsub = nil
	return err
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
)

const subscriberBuffer = 100

// redisConn is the part of *redis.Client the bus uses
type redisConn interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisEventBus implements the EventBus interface using Redis Pub/Sub
type RedisEventBus struct {
	conn          redisConn
	logger        zerolog.Logger
	subscriptions map[string]*redis.PubSub
	subscribers   map[string]map[chan *entities.ListEvent]struct{}
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(conn redisConn, logger zerolog.Logger) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		conn:          conn,
		logger:        logger.With().Str("component", "event_bus").Logger(),
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   make(map[string]map[chan *entities.ListEvent]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ListEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.conn.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug().Str("channel", channel).Str("event_id", event.ID).Msg("published list event")
	return nil
}

// Subscribe subscribes to events on a channel. The returned channel is
// closed when ctx is done or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ListEvent, error) {
	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("event bus is closed")
	}

	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.conn.Subscribe(b.ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			b.mu.Unlock()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		b.subscriptions[channel] = pubsub
		b.wg.Add(1)
		go b.receiveMessages(channel, pubsub)
	}

	eventChan := b.addSubscriber(channel)
	subscriberCount := len(b.subscribers[channel])
	b.mu.Unlock()

	b.logger.Info().Str("channel", channel).Int("subscribers", subscriberCount).Msg("subscribed")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// addSubscriber registers a new subscriber channel; b.mu held
func (b *RedisEventBus) addSubscriber(channel string) chan *entities.ListEvent {
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.ListEvent]struct{})
	}
	eventChan := make(chan *entities.ListEvent, subscriberBuffer)
	b.subscribers[channel][eventChan] = struct{}{}
	return eventChan
}

// receiveMessages receives messages from Redis and broadcasts them to subscribers
func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	defer b.wg.Done()
	defer func() {
		if err := b.cleanupChannel(channel); err != nil {
			b.logger.Warn().Err(err).Str("channel", channel).Msg("failed to cleanup channel")
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.broadcast(channel, msg.Payload)
		}
	}
}

// broadcast decodes payload and hands it to every subscriber of channel.
// Full subscriber buffers drop the event.
func (b *RedisEventBus) broadcast(channel, payload string) {
	var event entities.ListEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.logger.Warn().Err(err).Str("channel", channel).Msg("failed to unmarshal event")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- &event:
		default:
			b.logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.ListEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[channel]
	if !exists {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
		if pubsub, ok := b.subscriptions[channel]; ok {
			_ = pubsub.Close()
			delete(b.subscriptions, channel)
			b.logger.Info().Str("channel", channel).Msg("closed subscription")
		}
	}
}

func (b *RedisEventBus) cleanupChannel(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, exists := b.subscribers[channel]; exists {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}

	if pubsub, ok := b.subscriptions[channel]; ok {
		delete(b.subscriptions, channel)
		if err := pubsub.Close(); err != nil {
			return fmt.Errorf("failed to close subscription %s: %w", channel, err)
		}
	}
	return nil
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	channels := make([]string, 0, len(b.subscriptions))
	for channel := range b.subscriptions {
		channels = append(channels, channel)
	}
	b.mu.RUnlock()

	var errs []error
	for _, channel := range channels {
		if err := b.cleanupChannel(channel); err != nil {
			errs = append(errs, err)
		}
	}
	b.wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing event bus: %v", errs)
	}
	b.logger.Debug().Msg("event bus closed")
	return nil
}

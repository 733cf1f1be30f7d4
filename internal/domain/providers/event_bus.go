package providers

import (
	"context"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
)

// ListEventPublisher publishes explore list analytics events
type ListEventPublisher interface {
	// Publish publishes an event on channel
	Publish(ctx context.Context, channel string, event *entities.ListEvent) error
}

// EventBus defines the interface for publishing and subscribing to list events
type EventBus interface {
	ListEventPublisher

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ListEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelListEvents is the channel committed explore fetches are published on
const EventChannelListEvents = "content:list-events"

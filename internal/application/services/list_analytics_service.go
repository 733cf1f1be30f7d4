package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zatekoja/contentexplore/internal/application/listquery"
	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
)

const publishTimeout = 5 * time.Second

// ListAnalyticsService publishes a ListEvent for every committed page-1 load
type ListAnalyticsService struct {
	publisher providers.ListEventPublisher
	channel   string
	sessionID string
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

// NewListAnalyticsService creates a service publishing on the list events channel
func NewListAnalyticsService(publisher providers.ListEventPublisher, sessionID string, logger zerolog.Logger) *ListAnalyticsService {
	return &ListAnalyticsService{
		publisher: publisher,
		channel:   providers.EventChannelListEvents,
		sessionID: sessionID,
		logger:    logger.With().Str("component", "list_analytics").Logger(),
	}
}

// Listener returns a controller listener that tracks reset results
func (s *ListAnalyticsService) Listener() listquery.Listener {
	return func(ev listquery.Event) {
		if ev.Kind != listquery.EventPageLoaded || ev.Page != 1 {
			return
		}
		s.Track(&entities.ListEvent{
			ID:          uuid.New().String(),
			Query:       ev.Identity.Query,
			Filters:     ev.Identity.Filters,
			Identity:    ev.Identity.Key(),
			ResultCount: len(ev.State.Items),
			HasNext:     ev.State.HasNext,
			LatencyMs:   ev.Latency.Milliseconds(),
			SessionID:   s.sessionID,
			CreatedAt:   time.Now().UTC(),
		})
	}
}

// Track publishes event in the background. Failures are logged only.
func (s *ListAnalyticsService) Track(event *entities.ListEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// the list has moved on by now, so use a fresh context
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, s.channel, event); err != nil {
			s.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to publish list event")
			return
		}
		if event.ZeroResult() {
			s.logger.Info().Str("query", event.Query).Str("filters", event.Filters.Canonical()).Msg("zero result search")
		}
	}()
}

// Wait blocks until pending publishes finish
func (s *ListAnalyticsService) Wait() {
	s.wg.Wait()
}

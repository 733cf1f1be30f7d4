package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/contentexplore/internal/application/listquery"
	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
)

type MockListEventPublisher struct {
	mock.Mock
}

func (m *MockListEventPublisher) Publish(ctx context.Context, channel string, event *entities.ListEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func loadedEvent(page int, items int, hasNext bool) listquery.Event {
	list := make([]entities.ContentItem, items)
	return listquery.Event{
		Kind:    listquery.EventPageLoaded,
		Page:    page,
		Latency: 42 * time.Millisecond,
		Identity: listquery.Identity{
			Query:   "jazz",
			Filters: entities.AppliedFilterPayload{"sort": "2"},
		},
		State: listquery.Snapshot{Items: list, Page: page, HasNext: hasNext},
	}
}

func TestListAnalyticsService_PublishesFirstPage(t *testing.T) {
	publisher := new(MockListEventPublisher)
	publisher.On("Publish", mock.Anything, providers.EventChannelListEvents, mock.MatchedBy(func(e *entities.ListEvent) bool {
		return e.Query == "jazz" &&
			e.Filters["sort"] == "2" &&
			e.ResultCount == 3 &&
			e.HasNext &&
			e.LatencyMs == 42 &&
			e.SessionID == "session-1" &&
			e.ID != ""
	})).Return(nil).Once()

	service := NewListAnalyticsService(publisher, "session-1", zerolog.Nop())
	service.Listener()(loadedEvent(1, 3, true))
	service.Wait()

	publisher.AssertExpectations(t)
}

func TestListAnalyticsService_IgnoresOtherEvents(t *testing.T) {
	publisher := new(MockListEventPublisher)
	service := NewListAnalyticsService(publisher, "", zerolog.Nop())
	listener := service.Listener()

	listener(loadedEvent(2, 3, false))
	listener(listquery.Event{Kind: listquery.EventReset, Page: 1})
	listener(listquery.Event{Kind: listquery.EventFailed, Page: 1, Err: errors.New("boom")})
	service.Wait()

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestListAnalyticsService_PublishErrorIsSwallowed(t *testing.T) {
	publisher := new(MockListEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	service := NewListAnalyticsService(publisher, "", zerolog.Nop())
	assert.NotPanics(t, func() {
		service.Listener()(loadedEvent(1, 0, false))
		service.Wait()
	})

	publisher.AssertExpectations(t)
}

func TestListEvent_ZeroResult(t *testing.T) {
	assert.True(t, (&entities.ListEvent{}).ZeroResult())
	assert.False(t, (&entities.ListEvent{HasNext: true}).ZeroResult())
	assert.False(t, (&entities.ListEvent{ResultCount: 1}).ZeroResult())
}

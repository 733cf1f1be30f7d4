package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/infrastructure/clients/contentapi"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

type MockContentClient struct {
	mock.Mock
}

func (m *MockContentClient) ListContent(ctx context.Context, req contentapi.ListRequest) (*contentapi.ListResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contentapi.ListResponse), args.Error(1)
}

func (m *MockContentClient) ListFilters(ctx context.Context) (*contentapi.FiltersResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contentapi.FiltersResponse), args.Error(1)
}

func TestAPIAdapter_FetchPage(t *testing.T) {
	client := new(MockContentClient)
	filters := entities.AppliedFilterPayload{"sort": "2"}
	client.On("ListContent", mock.Anything, contentapi.ListRequest{Page: 3, PageSize: 10, Query: "go", Filters: filters}).
		Return(&contentapi.ListResponse{
			Items:      []entities.ContentItem{{ID: "a"}},
			Pagination: entities.Pagination{Page: 3, HasNext: false},
		}, nil)

	adapter := NewAPIAdapter(client)
	page, err := adapter.FetchPage(context.Background(), entities.PageRequest{Filters: filters, Query: "go", Page: 3, PageSize: 10})
	require.NoError(t, err)

	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Pagination.Page)
	assert.False(t, page.Pagination.HasNext)
	client.AssertExpectations(t)
}

func TestAPIAdapter_FetchPageNilItems(t *testing.T) {
	client := new(MockContentClient)
	client.On("ListContent", mock.Anything, mock.Anything).Return(&contentapi.ListResponse{}, nil)

	page, err := NewAPIAdapter(client).FetchPage(context.Background(), entities.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestAPIAdapter_FetchPageError(t *testing.T) {
	client := new(MockContentClient)
	client.On("ListContent", mock.Anything, mock.Anything).Return(nil, &apperrors.StatusError{StatusCode: 503})

	_, err := NewAPIAdapter(client).FetchPage(context.Background(), entities.PageRequest{Page: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Equal(t, 503, apperrors.StatusCode(err))
}

func TestAPIAdapter_FetchFilterDefinitions(t *testing.T) {
	client := new(MockContentClient)
	client.On("ListFilters", mock.Anything).Return(&contentapi.FiltersResponse{Filters: []entities.FilterGroup{
		{Key: "sort", Type: entities.GroupTypeSingle, Options: []entities.FilterOption{{ID: "1"}, {ID: "2"}}},
		{Key: "content_type", Type: entities.GroupTypeMulti, Options: []entities.FilterOption{{ID: "1"}}},
	}}, nil)

	state, err := NewAPIAdapter(client).FetchFilterDefinitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sort", "content_type"}, state.Keys())
}

func TestAPIAdapter_FetchFilterDefinitionsInvalid(t *testing.T) {
	client := new(MockContentClient)
	client.On("ListFilters", mock.Anything).Return(&contentapi.FiltersResponse{Filters: []entities.FilterGroup{
		{Key: "sort", Type: "dropdown"},
	}}, nil)

	_, err := NewAPIAdapter(client).FetchFilterDefinitions(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestAPIAdapter_FetchFilterDefinitionsError(t *testing.T) {
	client := new(MockContentClient)
	client.On("ListFilters", mock.Anything).Return(nil, errors.New("connection refused"))

	state, err := NewAPIAdapter(client).FetchFilterDefinitions(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, state.Len())
}

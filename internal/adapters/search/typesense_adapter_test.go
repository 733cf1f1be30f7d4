package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/typesense/typesense-go/v2/typesense/api"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.SearchResult), args.Error(1)
}

func searchResult(t *testing.T, raw string) *api.SearchResult {
	t.Helper()
	var result api.SearchResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	return &result
}

func TestBuildFilterBy(t *testing.T) {
	payload := entities.AppliedFilterPayload{
		"type":   "video,course",
		"sort":   "1",
		"author": "Dana",
		"empty":  "",
	}

	assert.Equal(t, "author:=[`Dana`] && type:=[`video`,`course`]", buildFilterBy(payload))
	assert.Equal(t, "", buildFilterBy(entities.AppliedFilterPayload{"sort": "2"}))
	assert.Equal(t, "", buildFilterBy(nil))
}

func TestTypesenseAdapter_FetchPage(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.MatchedBy(func(p *api.SearchCollectionParams) bool {
		return *p.Q == "go" &&
			*p.QueryBy == "title,author" &&
			*p.Page == 2 &&
			*p.PerPage == 2 &&
			*p.SortBy == "created_at:asc" &&
			*p.FilterBy == "type:=[`video`]"
	})).Return(searchResult(t, `{
		"found": 5,
		"hits": [
			{"document": {"id": "c-3", "title": "Goroutines", "author": "Dana", "type": "video"}},
			{"document": {"id": "c-4", "title": "Select", "author": "Lee", "type": "video"}}
		]
	}`), nil)

	adapter := NewTypesenseAdapter(searcher)
	page, err := adapter.FetchPage(context.Background(), entities.PageRequest{
		Query:    " go ",
		Page:     2,
		PageSize: 2,
		Filters:  entities.AppliedFilterPayload{"type": "video", "sort": "2"},
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "c-3", page.Items[0].ID)
	assert.Equal(t, "Goroutines", page.Items[0].Title)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.True(t, page.Pagination.HasNext, "4 of 5 shown")
	searcher.AssertExpectations(t)
}

func TestTypesenseAdapter_FetchPageDefaults(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.MatchedBy(func(p *api.SearchCollectionParams) bool {
		return *p.Q == "*" && *p.Page == 1 && *p.PerPage == defaultPerPage && p.FilterBy == nil && p.SortBy == nil
	})).Return(searchResult(t, `{"found": 0, "hits": []}`), nil)

	page, err := NewTypesenseAdapter(searcher).FetchPage(context.Background(), entities.PageRequest{})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.False(t, page.Pagination.HasNext)
}

func TestTypesenseAdapter_FetchPageError(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("status 503"))

	_, err := NewTypesenseAdapter(searcher).FetchPage(context.Background(), entities.PageRequest{Page: 1})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestTypesenseAdapter_FetchFilterDefinitions(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.MatchedBy(func(p *api.SearchCollectionParams) bool {
		return *p.FacetBy == "type,author"
	})).Return(searchResult(t, `{
		"found": 12,
		"facet_counts": [
			{"field_name": "type", "counts": [{"value": "video", "count": 7}, {"value": "course", "count": 5}]},
			{"field_name": "author", "counts": []},
			{"field_name": "unknown", "counts": [{"value": "x", "count": 1}]}
		]
	}`), nil)

	state, err := NewTypesenseAdapter(searcher).FetchFilterDefinitions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"sort", "type"}, state.Keys())
	sortGroup, _ := state.Group("sort")
	assert.Equal(t, entities.GroupTypeSingle, sortGroup.Type)
	assert.Len(t, sortGroup.Options, len(DefaultSortOptions))

	typeGroup, _ := state.Group("type")
	assert.Equal(t, entities.GroupTypeMulti, typeGroup.Type)
	assert.Equal(t, []entities.FilterOption{{ID: "video", Label: "video"}, {ID: "course", Label: "course"}}, typeGroup.Options)
}

func TestTypesenseAdapter_FetchFilterDefinitionsError(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	state, err := NewTypesenseAdapter(searcher).FetchFilterDefinitions(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Equal(t, 0, state.Len())
}

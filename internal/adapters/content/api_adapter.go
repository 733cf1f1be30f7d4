package content

import (
	"context"
	"fmt"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
	"github.com/zatekoja/contentexplore/internal/infrastructure/clients/contentapi"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

// APIAdapter serves explore lists and facets from the content REST API
type APIAdapter struct {
	client contentapi.Client
}

var (
	_ providers.PageFetcher              = (*APIAdapter)(nil)
	_ providers.FilterDefinitionProvider = (*APIAdapter)(nil)
)

// NewAPIAdapter creates a new content API adapter
func NewAPIAdapter(client contentapi.Client) *APIAdapter {
	return &APIAdapter{client: client}
}

// FetchPage implements providers.PageFetcher
func (a *APIAdapter) FetchPage(ctx context.Context, req entities.PageRequest) (*entities.Page, error) {
	resp, err := a.client.ListContent(ctx, contentapi.ListRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Query:    req.Query,
		Filters:  req.Filters,
	})
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("content api: list page %d", req.Page), err)
	}

	items := resp.Items
	if items == nil {
		items = []entities.ContentItem{}
	}
	return &entities.Page{
		Items:      items,
		Pagination: resp.Pagination,
	}, nil
}

// FetchFilterDefinitions implements providers.FilterDefinitionProvider
func (a *APIAdapter) FetchFilterDefinitions(ctx context.Context) (entities.FilterState, error) {
	resp, err := a.client.ListFilters(ctx)
	if err != nil {
		return entities.FilterState{}, apperrors.NewExternalError("content api: list filters", err)
	}

	state, err := entities.NewFilterState(resp.Filters...)
	if err != nil {
		return entities.FilterState{}, apperrors.NewExternalError("content api: invalid filter definitions", err)
	}
	return state, nil
}

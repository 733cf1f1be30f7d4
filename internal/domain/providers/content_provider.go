package providers

import (
	"context"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
)

// PageFetcher loads one page of an explore list
type PageFetcher interface {
	// FetchPage returns the items of req.Page for the given filters and query.
	// Implementations must not retry; failures surface to the caller as-is.
	FetchPage(ctx context.Context, req entities.PageRequest) (*entities.Page, error)
}

// FilterDefinitionProvider loads the available facets with nothing selected
type FilterDefinitionProvider interface {
	FetchFilterDefinitions(ctx context.Context) (entities.FilterState, error)
}

// PageFetcherFunc adapts a function to PageFetcher
type PageFetcherFunc func(ctx context.Context, req entities.PageRequest) (*entities.Page, error)

// FetchPage implements PageFetcher
func (f PageFetcherFunc) FetchPage(ctx context.Context, req entities.PageRequest) (*entities.Page, error) {
	return f(ctx, req)
}

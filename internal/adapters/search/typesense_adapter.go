package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

const (
	defaultPerPage = 20
	queryBy        = "title,author"
	maxFacetValues = 50

	// SortKey is the payload key mapped to sort_by instead of filter_by
	SortKey = "sort"
)

// Searcher runs a search against the content collection
type Searcher interface {
	Search(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error)
}

// SortOption is one entry of the sort facet
type SortOption struct {
	ID     entities.OptionID
	Label  string
	SortBy string
}

// DefaultSortOptions is the sort facet offered when none is configured
var DefaultSortOptions = []SortOption{
	{ID: "1", Label: "Newest", SortBy: "created_at:desc"},
	{ID: "2", Label: "Oldest", SortBy: "created_at:asc"},
	{ID: "3", Label: "Title", SortBy: "title:asc"},
}

// FacetField is a faceted collection field exposed as a multi-select group
type FacetField struct {
	Field string
	Label string
}

// DefaultFacetFields are the faceted fields of the content collection
var DefaultFacetFields = []FacetField{
	{Field: "type", Label: "Content type"},
	{Field: "author", Label: "Author"},
}

// TypesenseAdapter serves explore lists and facets from Typesense
type TypesenseAdapter struct {
	searcher Searcher
	sorts    []SortOption
	facets   []FacetField
}

var (
	_ providers.PageFetcher              = (*TypesenseAdapter)(nil)
	_ providers.FilterDefinitionProvider = (*TypesenseAdapter)(nil)
)

// NewTypesenseAdapter creates a new Typesense adapter with the default facets
func NewTypesenseAdapter(searcher Searcher) *TypesenseAdapter {
	return &TypesenseAdapter{
		searcher: searcher,
		sorts:    DefaultSortOptions,
		facets:   DefaultFacetFields,
	}
}

// FetchPage implements providers.PageFetcher
func (a *TypesenseAdapter) FetchPage(ctx context.Context, req entities.PageRequest) (*entities.Page, error) {
	params := a.searchParams(req)

	result, err := a.searcher.Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("typesense: search page %d", *params.Page), err)
	}

	page, err := pageFromResult(result, *params.Page, *params.PerPage)
	if err != nil {
		return nil, apperrors.NewExternalError("typesense: decode hits", err)
	}
	return page, nil
}

// FetchFilterDefinitions implements providers.FilterDefinitionProvider.
// The sort group comes first, followed by one multi group per facet field.
func (a *TypesenseAdapter) FetchFilterDefinitions(ctx context.Context) (entities.FilterState, error) {
	fields := make([]string, len(a.facets))
	for i, f := range a.facets {
		fields[i] = f.Field
	}

	result, err := a.searcher.Search(ctx, &api.SearchCollectionParams{
		Q:              pointer.String("*"),
		QueryBy:        pointer.String(queryBy),
		FacetBy:        pointer.String(strings.Join(fields, ",")),
		MaxFacetValues: pointer.Int(maxFacetValues),
		PerPage:        pointer.Int(0),
	})
	if err != nil {
		return entities.FilterState{}, apperrors.NewExternalError("typesense: facet search", err)
	}

	groups := make([]entities.FilterGroup, 0, len(a.facets)+1)
	if len(a.sorts) > 0 {
		sortGroup := entities.FilterGroup{Key: SortKey, Type: entities.GroupTypeSingle, Label: "Sort"}
		for _, s := range a.sorts {
			sortGroup.Options = append(sortGroup.Options, entities.FilterOption{ID: s.ID, Label: s.Label})
		}
		groups = append(groups, sortGroup)
	}
	groups = append(groups, a.facetGroups(result)...)

	state, err := entities.NewFilterState(groups...)
	if err != nil {
		return entities.FilterState{}, apperrors.NewExternalError("typesense: invalid facets", err)
	}
	return state, nil
}

func (a *TypesenseAdapter) searchParams(req entities.PageRequest) *api.SearchCollectionParams {
	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := req.PageSize
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		q = "*"
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String(queryBy),
		Page:    pointer.Int(page),
		PerPage: pointer.Int(perPage),
	}
	if filterBy := buildFilterBy(req.Filters); filterBy != "" {
		params.FilterBy = pointer.String(filterBy)
	}
	if sortBy := a.sortBy(req.Filters[SortKey]); sortBy != "" {
		params.SortBy = pointer.String(sortBy)
	}
	return params
}

func (a *TypesenseAdapter) sortBy(id string) string {
	if id == "" {
		return ""
	}
	for _, s := range a.sorts {
		if string(s.ID) == id {
			return s.SortBy
		}
	}
	return ""
}

func (a *TypesenseAdapter) facetGroups(result *api.SearchResult) []entities.FilterGroup {
	labels := make(map[string]string, len(a.facets))
	for _, f := range a.facets {
		labels[f.Field] = f.Label
	}

	var groups []entities.FilterGroup
	if result == nil || result.FacetCounts == nil {
		return groups
	}
	for _, fc := range *result.FacetCounts {
		if fc.FieldName == nil || fc.Counts == nil {
			continue
		}
		label, ok := labels[*fc.FieldName]
		if !ok {
			continue
		}
		group := entities.FilterGroup{Key: *fc.FieldName, Type: entities.GroupTypeMulti, Label: label}
		for _, c := range *fc.Counts {
			if c.Value == nil || *c.Value == "" {
				continue
			}
			group.Options = append(group.Options, entities.FilterOption{
				ID:    entities.OptionID(*c.Value),
				Label: *c.Value,
			})
		}
		if len(group.Options) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// buildFilterBy renders every non-sort payload entry as `key:=[v1,v2]`
func buildFilterBy(payload entities.AppliedFilterPayload) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k != SortKey && payload[k] != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	for _, k := range keys {
		values := payload.Values(k)
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = "`" + strings.ReplaceAll(v, "`", "") + "`"
		}
		clauses = append(clauses, fmt.Sprintf("%s:=[%s]", k, strings.Join(quoted, ",")))
	}
	return strings.Join(clauses, " && ")
}

func pageFromResult(result *api.SearchResult, page, perPage int) (*entities.Page, error) {
	out := &entities.Page{
		Items:      []entities.ContentItem{},
		Pagination: entities.Pagination{Page: page},
	}
	if result == nil {
		return out, nil
	}

	if result.Hits != nil {
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			item, err := itemFromDocument(*hit.Document)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, item)
		}
	}

	found := 0
	if result.Found != nil {
		found = *result.Found
	}
	out.Pagination.HasNext = page*perPage < found
	return out, nil
}

// itemFromDocument reuses the JSON decoding of ContentItem so ids and raw
// fields behave the same for every backend
func itemFromDocument(doc map[string]interface{}) (entities.ContentItem, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return entities.ContentItem{}, err
	}
	var item entities.ContentItem
	if err := json.Unmarshal(data, &item); err != nil {
		return entities.ContentItem{}, err
	}
	return item, nil
}

// Package explore wires a filter panel, a debounced search input and a list
// controller into one explore screen.
package explore

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/contentexplore/internal/application/filters"
	"github.com/zatekoja/contentexplore/internal/application/listquery"
	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
	"github.com/zatekoja/contentexplore/internal/infrastructure/observability"
)

// Config holds session settings
type Config struct {
	DebounceWindow time.Duration
	PageSize       int
	InitialQuery   string
}

// Session is one explore screen
type Session struct {
	panel    *filters.Panel
	list     *listquery.Controller
	debounce *listquery.Debouncer
	logger   zerolog.Logger
}

// NewSession creates a session. Nothing is fetched until Start.
func NewSession(
	fetcher providers.PageFetcher,
	definitions providers.FilterDefinitionProvider,
	cfg Config,
	logger zerolog.Logger,
	metrics *observability.ListMetrics,
	listeners ...listquery.Listener,
) *Session {
	opts := []listquery.Option{
		listquery.WithLogger(logger),
		listquery.WithMetrics(metrics),
		listquery.WithPageSize(cfg.PageSize),
		listquery.WithIdentity(strings.TrimSpace(cfg.InitialQuery), nil),
	}
	for _, l := range listeners {
		opts = append(opts, listquery.WithListener(l))
	}

	return &Session{
		panel:    filters.NewPanel(definitions, logger),
		list:     listquery.New(fetcher, opts...),
		debounce: listquery.NewDebouncer(cfg.DebounceWindow),
		logger:   logger.With().Str("component", "explore").Logger(),
	}
}

// Start loads page 1 for the initial query and no filters
func (s *Session) Start() {
	s.list.ResetAndFetch()
}

// TypeQuery records a keystroke. The query is applied once input has been
// quiet for the debounce window.
func (s *Session) TypeQuery(text string) {
	query := strings.TrimSpace(text)
	s.debounce.Debounce(func() {
		if s.list.SetQuery(query) {
			s.logger.Debug().Str("query", query).Msg("search query applied")
		}
	})
}

// SubmitQuery applies text at once, dropping any pending keystroke
func (s *Session) SubmitQuery(text string) bool {
	s.debounce.Cancel()
	return s.list.SetQuery(strings.TrimSpace(text))
}

// OpenFilters loads filter definitions on first use and returns the draft.
// Options the backend marks as selected are applied to the list on that first
// load so the panel and the list agree.
func (s *Session) OpenFilters(ctx context.Context) (entities.FilterState, error) {
	first := !s.panel.Loaded()
	state, err := s.panel.Open(ctx)
	if err != nil || !first {
		return state, err
	}

	payload := s.panel.Payload()
	if payload.Canonical() != s.list.Identity().Filters.Canonical() {
		s.list.ApplyFilter(payload)
		s.logger.Debug().Str("filters", payload.Canonical()).Msg("applied default filters")
	}
	return state, nil
}

// SelectSingle picks an option in a single-select group and refreshes the list
func (s *Session) SelectSingle(groupKey string, optionID entities.OptionID) error {
	payload, err := s.panel.SelectSingle(groupKey, optionID)
	if err != nil {
		return err
	}
	s.list.ApplyFilter(payload)
	return nil
}

// ToggleMulti stages a multi-select toggle until ApplyFilters
func (s *Session) ToggleMulti(groupKey string, optionID entities.OptionID) error {
	return s.panel.ToggleMulti(groupKey, optionID)
}

// ApplyFilters commits staged toggles and refreshes the list
func (s *Session) ApplyFilters() entities.AppliedFilterPayload {
	payload := s.panel.Apply()
	s.list.ApplyFilter(payload)
	return payload
}

// ClearGroup removes every selection in one group and refreshes the list
func (s *Session) ClearGroup(groupKey string) error {
	payload, err := s.panel.ClearGroup(groupKey)
	if err != nil {
		return err
	}
	s.list.ApplyFilter(payload)
	return nil
}

// DiscardFilters drops staged toggles
func (s *Session) DiscardFilters() {
	s.panel.Discard()
}

// HasActiveFilter reports whether groupKey has an applied selection
func (s *Session) HasActiveFilter(groupKey string) bool {
	return filters.IsFilterActive(s.list.Identity().Filters, groupKey)
}

// ActiveFilterCount returns the number of groups with an applied selection
func (s *Session) ActiveFilterCount() int {
	return filters.ActiveCount(s.list.Identity().Filters)
}

// LoadMore requests the next page
func (s *Session) LoadMore() bool {
	return s.list.LoadMore()
}

// Refresh reloads page 1 for the current query and filters
func (s *Session) Refresh() bool {
	return s.list.ResetAndFetch()
}

// State returns the visible list state
func (s *Session) State() listquery.Snapshot {
	return s.list.State()
}

// Wait blocks until in-flight fetches finish
func (s *Session) Wait() {
	s.list.Wait()
}

// Close drops pending input and in-flight fetches
func (s *Session) Close() {
	s.debounce.Cancel()
	s.list.Close()
}

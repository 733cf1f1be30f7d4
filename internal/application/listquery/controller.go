// Package listquery drives a paginated, filterable, searchable content list.
//
// A Controller owns the visible page state for one list. Changing the query or
// the filters resets the list and fetches page 1; LoadMore appends the next
// page. Every reset bumps a version number, and a fetch result is applied only
// if the version it was started for is still current. Results for an older
// identity are dropped, never merged.
package listquery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
	"github.com/zatekoja/contentexplore/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics records fetch outcomes on m
func WithMetrics(m *observability.ListMetrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithListener registers a transition listener.
// Listeners may read or mutate the controller but must not call Wait or Close.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// WithPageSize sets the page size sent with every request (0 leaves it to the backend)
func WithPageSize(n int) Option {
	return func(c *Controller) {
		c.pageSize = n
	}
}

// WithIdentity sets the query and filters used by the first reset
func WithIdentity(query string, filters entities.AppliedFilterPayload) Option {
	return func(c *Controller) {
		c.identity = Identity{Query: query, Filters: filters.Clone()}
	}
}

// Controller is the single source of truth for one explore list
type Controller struct {
	fetcher   providers.PageFetcher
	logger    zerolog.Logger
	metrics   *observability.ListMetrics
	listeners []Listener
	pageSize  int

	mu       sync.Mutex
	identity Identity
	version  uint64
	items    []entities.ContentItem
	page     int
	hasNext  bool
	loaded   bool
	phase    Phase
	err      error
	cancel   context.CancelFunc
	closed   bool

	// events waiting for delivery, in transition order; one goroutine at a
	// time drains them with mu released
	pending  []Event
	draining bool
	drained  *sync.Cond

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a controller in the idle, empty state. Call ResetAndFetch to
// load the first page.
func New(fetcher providers.PageFetcher, opts ...Option) *Controller {
	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:  fetcher,
		logger:   zerolog.Nop(),
		identity: Identity{Filters: entities.AppliedFilterPayload{}},
		page:     1,
		hasNext:  true,
		phase:    PhaseIdle,
		baseCtx:  ctx,
		stop:     stop,
	}
	c.drained = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	if c.identity.Filters == nil {
		c.identity.Filters = entities.AppliedFilterPayload{}
	}
	c.logger = c.logger.With().Str("component", "listquery").Logger()
	return c
}

// ResetAndFetch discards the loaded pages and fetches page 1 for the current
// identity. It returns false when a reset for the same identity is in flight.
func (c *Controller) ResetAndFetch() bool {
	c.mu.Lock()
	return c.reset(c.identity)
}

// SetQuery applies a settled search query. An unchanged query is a no-op.
func (c *Controller) SetQuery(query string) bool {
	c.mu.Lock()
	if query == c.identity.Query {
		c.mu.Unlock()
		return false
	}
	return c.reset(Identity{Query: query, Filters: c.identity.Filters})
}

// ApplyFilter resets the list with payload as the new filters
func (c *Controller) ApplyFilter(payload entities.AppliedFilterPayload) bool {
	c.mu.Lock()
	return c.reset(Identity{Query: c.identity.Query, Filters: payload.Clone()})
}

// LoadMore fetches the next page. It is a no-op unless the list is idle, page
// 1 of the current identity has loaded, and the backend reported more pages.
func (c *Controller) LoadMore() bool {
	c.mu.Lock()
	if c.closed || c.phase != PhaseIdle || !c.hasNext || !c.loaded {
		c.mu.Unlock()
		return false
	}

	c.phase = PhaseAppending
	c.err = nil
	next := c.page + 1
	c.start(next, observability.FetchKindAppend)
	ev := c.event(EventAppend, next)
	c.logger.Debug().Int("page", next).Uint64("version", c.version).Msg("append fetch started")

	c.emitLocked(ev)
	return true
}

// State returns a copy of the visible list state
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Identity returns the current query and filters
func (c *Controller) Identity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Identity{Query: c.identity.Query, Filters: c.identity.Filters.Clone()}
}

// Wait blocks until no fetch started by this controller is running and every
// event has reached the listeners
func (c *Controller) Wait() {
	c.wg.Wait()
	c.mu.Lock()
	for c.draining {
		c.drained.Wait()
	}
	c.mu.Unlock()
}

// Close cancels outstanding fetches, drops their results and waits for them
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.stop()
	c.Wait()
}

// reset is called with c.mu held and releases it
func (c *Controller) reset(id Identity) bool {
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if c.phase == PhaseResetting && c.identity.Key() == id.Key() {
		c.mu.Unlock()
		return false
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.version++
	c.identity = id
	c.items = nil
	c.page = 1
	c.hasNext = true
	c.loaded = false
	c.err = nil
	c.phase = PhaseResetting

	c.start(1, observability.FetchKindReset)
	ev := c.event(EventReset, 1)
	c.logger.Debug().
		Str("query", id.Query).
		Str("filters", id.Filters.Canonical()).
		Uint64("version", c.version).
		Msg("reset fetch started")

	c.emitLocked(ev)
	return true
}

// start launches the fetch for page under the current version; c.mu held
func (c *Controller) start(page int, kind string) {
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel

	version := c.version
	req := entities.PageRequest{
		Filters:  c.identity.Filters.Clone(),
		Query:    c.identity.Query,
		Page:     page,
		PageSize: c.pageSize,
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		started := time.Now()
		resp, err := c.fetcher.FetchPage(ctx, req)
		if err == nil && resp == nil {
			err = fmt.Errorf("content backend returned no page")
		}
		c.complete(version, kind, req, resp, err, time.Since(started))
	}()
}

func (c *Controller) complete(version uint64, kind string, req entities.PageRequest, resp *entities.Page, err error, latency time.Duration) {
	c.mu.Lock()

	if c.closed || version != c.version {
		current := c.version
		c.mu.Unlock()
		c.metrics.RecordFetch(context.Background(), kind, observability.OutcomeStale, latency)
		c.logger.Debug().
			Str("kind", kind).
			Int("page", req.Page).
			Uint64("version", version).
			Uint64("current_version", current).
			Msg("dropped stale response")
		return
	}
	c.cancel = nil

	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeExternal) {
			err = apperrors.NewExternalError(fmt.Sprintf("failed to fetch page %d", req.Page), err)
		}
		// a failed reset keeps the just-reset empty state; a failed append
		// keeps what was already loaded
		c.err = err
		c.phase = PhaseIdle
		ev := c.event(EventFailed, req.Page)
		ev.Err = err
		ev.Latency = latency
		c.logger.Warn().Err(err).Str("kind", kind).Int("page", req.Page).Msg("list fetch failed")
		c.metrics.RecordFetch(context.Background(), kind, observability.OutcomeError, latency)

		c.emitLocked(ev)
		return
	}

	if kind == observability.FetchKindReset {
		c.items = append([]entities.ContentItem(nil), resp.Items...)
	} else {
		c.items = append(c.items, resp.Items...)
	}
	c.page = req.Page
	if resp.Pagination.Page > 0 {
		c.page = resp.Pagination.Page
	}
	c.hasNext = resp.Pagination.HasNext
	c.loaded = true
	c.err = nil
	c.phase = PhaseIdle

	ev := c.event(EventPageLoaded, c.page)
	ev.Latency = latency
	c.logger.Debug().
		Str("kind", kind).
		Int("page", c.page).
		Int("received", len(resp.Items)).
		Int("total", len(c.items)).
		Bool("has_next", c.hasNext).
		Msg("page applied")
	c.metrics.RecordFetch(context.Background(), kind, observability.OutcomeOK, latency)

	c.emitLocked(ev)
}

func (c *Controller) event(kind EventKind, page int) Event {
	return Event{
		Kind:     kind,
		Page:     page,
		Identity: Identity{Query: c.identity.Query, Filters: c.identity.Filters.Clone()},
		State:    c.snapshot(),
	}
}

// emitLocked queues ev for the listeners. It is called with c.mu held and
// returns with it released. The goroutine that finds no drain running
// delivers the queue, including events added meanwhile, without holding c.mu.
func (c *Controller) emitLocked(ev Event) {
	if len(c.listeners) == 0 {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, ev)
	if c.draining {
		c.mu.Unlock()
		return
	}

	c.draining = true
	for len(c.pending) > 0 {
		batch := c.pending
		c.pending = nil
		c.mu.Unlock()
		for _, e := range batch {
			for _, l := range c.listeners {
				l(e)
			}
		}
		c.mu.Lock()
	}
	c.draining = false
	c.drained.Broadcast()
	c.mu.Unlock()
}

func (c *Controller) snapshot() Snapshot {
	items := make([]entities.ContentItem, len(c.items))
	copy(items, c.items)
	return Snapshot{
		Items:       items,
		Page:        c.page,
		HasNext:     c.hasNext,
		Loading:     c.phase == PhaseResetting,
		LoadingMore: c.phase == PhaseAppending,
		Err:         c.err,
		Query:       c.identity.Query,
		Filters:     c.identity.Filters.Clone(),
		Version:     c.version,
		Phase:       c.phase,
	}
}

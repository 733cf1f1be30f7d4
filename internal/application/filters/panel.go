package filters

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

// Panel holds the facet sheet of one explore screen.
//
// Definitions are fetched lazily on the first Open and kept for the lifetime of
// the Panel. A failed fetch is not remembered, so the next Open tries again.
//
// Selections live in a draft until committed. Single-select picks and group
// clears commit at once; multi-select toggles wait for Apply.
type Panel struct {
	provider providers.FilterDefinitionProvider
	logger   zerolog.Logger
	group    singleflight.Group

	mu        sync.Mutex
	loaded    bool
	draft     entities.FilterState
	committed entities.FilterState
}

// NewPanel creates a panel backed by provider
func NewPanel(provider providers.FilterDefinitionProvider, logger zerolog.Logger) *Panel {
	return &Panel{
		provider: provider,
		logger:   logger.With().Str("component", "filters").Logger(),
	}
}

// Open returns the current draft, fetching definitions if none are loaded yet.
// On failure it returns an empty state together with the error so callers can
// render "no filters available".
func (p *Panel) Open(ctx context.Context) (entities.FilterState, error) {
	p.mu.Lock()
	if p.loaded {
		draft := p.draft
		p.mu.Unlock()
		return draft, nil
	}
	p.mu.Unlock()

	// the shared fetch outlives any one caller; each caller stops waiting on
	// its own ctx
	ch := p.group.DoChan("definitions", func() (interface{}, error) {
		return p.provider.FetchFilterDefinitions(context.WithoutCancel(ctx))
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return entities.FilterState{}, apperrors.NewExternalError("failed to load filter definitions", ctx.Err())
	}

	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to load filter definitions")
		if !apperrors.IsType(err, apperrors.ErrorTypeExternal) {
			err = apperrors.NewExternalError("failed to load filter definitions", err)
		}
		return entities.FilterState{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		state := v.(entities.FilterState)
		p.draft = state
		p.committed = state
		p.loaded = true
		p.logger.Debug().Int("groups", state.Len()).Bool("shared", shared).Msg("filter definitions loaded")
	}
	return p.draft, nil
}

// Loaded reports whether definitions are cached
func (p *Panel) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Draft returns the working copy shown in the facet sheet
func (p *Panel) Draft() entities.FilterState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// Committed returns the last applied state
func (p *Panel) Committed() entities.FilterState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.committed
}

// Payload derives the filter parameters from the committed state
func (p *Panel) Payload() entities.AppliedFilterPayload {
	return DerivePayload(p.Committed())
}

// IsActive reports whether the committed state has a selection for key
func (p *Panel) IsActive(key string) bool {
	return IsFilterActive(p.Payload(), key)
}

// SelectSingle selects an option of a single group and commits the draft
func (p *Panel) SelectSingle(groupKey string, optionID entities.OptionID) (entities.AppliedFilterPayload, error) {
	return p.mutate(true, func(s entities.FilterState) (entities.FilterState, error) {
		return SelectSingle(s, groupKey, optionID)
	})
}

// ToggleMulti flips an option of a multi group in the draft only
func (p *Panel) ToggleMulti(groupKey string, optionID entities.OptionID) error {
	_, err := p.mutate(false, func(s entities.FilterState) (entities.FilterState, error) {
		return ToggleMulti(s, groupKey, optionID)
	})
	return err
}

// ClearGroup clears one group and commits the draft
func (p *Panel) ClearGroup(groupKey string) (entities.AppliedFilterPayload, error) {
	return p.mutate(true, func(s entities.FilterState) (entities.FilterState, error) {
		return ClearGroup(s, groupKey)
	})
}

// Apply commits the draft and returns the resulting payload
func (p *Panel) Apply() entities.AppliedFilterPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.committed = p.draft
	return DerivePayload(p.committed)
}

// Discard drops uncommitted draft changes
func (p *Panel) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = p.committed
}

// Dirty reports whether the draft differs from the committed state
func (p *Panel) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return DerivePayload(p.draft).Canonical() != DerivePayload(p.committed).Canonical()
}

func (p *Panel) mutate(commit bool, fn func(entities.FilterState) (entities.FilterState, error)) (entities.AppliedFilterPayload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return nil, apperrors.NewValidationError("filter definitions are not loaded")
	}

	next, err := fn(p.draft)
	if err != nil {
		return nil, err
	}
	p.draft = next
	if !commit {
		return nil, nil
	}
	p.committed = next
	return DerivePayload(next), nil
}

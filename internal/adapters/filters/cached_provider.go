package filters

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
)

const definitionsCacheKey = "filters:definitions"

// CachedProvider shares filter definitions between processes through a
// CacheProvider. Cache failures fall through to the wrapped provider.
type CachedProvider struct {
	provider providers.FilterDefinitionProvider
	cache    providers.CacheProvider
	ttl      time.Duration
	logger   zerolog.Logger
}

var _ providers.FilterDefinitionProvider = (*CachedProvider)(nil)

// NewCachedProvider wraps provider with cache entries that live for ttl
func NewCachedProvider(provider providers.FilterDefinitionProvider, cache providers.CacheProvider, ttl time.Duration, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With().Str("component", "filters_cache").Logger(),
	}
}

// FetchFilterDefinitions implements providers.FilterDefinitionProvider
func (p *CachedProvider) FetchFilterDefinitions(ctx context.Context) (entities.FilterState, error) {
	if cached, err := p.cache.Get(ctx, definitionsCacheKey); err == nil {
		var groups []entities.FilterGroup
		if err := json.Unmarshal(cached, &groups); err == nil {
			if state, err := entities.NewFilterState(groups...); err == nil {
				p.logger.Debug().Int("groups", state.Len()).Msg("filter definitions served from cache")
				return state, nil
			}
		}
		p.logger.Warn().Msg("dropping unreadable filter definitions cache entry")
		_ = p.cache.Delete(ctx, definitionsCacheKey)
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		p.logger.Warn().Err(err).Msg("filter definitions cache unavailable")
	}

	state, err := p.provider.FetchFilterDefinitions(ctx)
	if err != nil {
		return state, err
	}

	if data, err := json.Marshal(state); err == nil {
		if err := p.cache.Set(ctx, definitionsCacheKey, data, p.ttl); err != nil {
			p.logger.Warn().Err(err).Msg("failed to cache filter definitions")
		}
	}
	return state, nil
}

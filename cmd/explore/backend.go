package main

import (
	"fmt"

	"github.com/zatekoja/contentexplore/internal/adapters/cache"
	"github.com/zatekoja/contentexplore/internal/adapters/content"
	"github.com/zatekoja/contentexplore/internal/adapters/events"
	"github.com/zatekoja/contentexplore/internal/adapters/filters"
	"github.com/zatekoja/contentexplore/internal/adapters/search"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
	"github.com/zatekoja/contentexplore/internal/infrastructure/clients/contentapi"
	redisclient "github.com/zatekoja/contentexplore/internal/infrastructure/clients/redis"
	tsclient "github.com/zatekoja/contentexplore/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/contentexplore/pkg/config"
)

// backend is the set of collaborators a session runs against
type backend struct {
	pages       providers.PageFetcher
	definitions providers.FilterDefinitionProvider
}

func (a *app) buildBackend() (*backend, error) {
	b := &backend{}

	switch a.cfg.App.Backend {
	case config.BackendTypesense:
		client, err := tsclient.NewClient(&a.cfg.Typesense, a.logger)
		if err != nil {
			return nil, err
		}
		adapter := search.NewTypesenseAdapter(client)
		b.pages = adapter
		b.definitions = adapter
	case config.BackendAPI:
		adapter := content.NewAPIAdapter(contentapi.NewClient(a.cfg.ContentAPI.BaseURL, a.cfg.ContentAPI.Timeout))
		b.pages = adapter
		b.definitions = adapter
	default:
		return nil, fmt.Errorf("unsupported backend %q", a.cfg.App.Backend)
	}

	if a.cfg.Explore.FiltersFile != "" {
		b.definitions = filters.NewFileProvider(a.cfg.Explore.FiltersFile)
	}

	if a.cfg.Redis.Enabled && a.cfg.Explore.FiltersCacheTTL > 0 {
		client, err := a.redisClient()
		if err != nil {
			a.logger.Warn().Err(err).Msg("filter definitions cache disabled")
		} else {
			kv := cache.NewRedisAdapter(client.Client(), "explore:")
			b.definitions = filters.NewCachedProvider(b.definitions, kv, a.cfg.Explore.FiltersCacheTTL, a.logger)
		}
	}

	a.logger.Debug().
		Str("backend", a.cfg.App.Backend).
		Str("filters_file", a.cfg.Explore.FiltersFile).
		Msg("backend ready")
	return b, nil
}

// redisClient connects on first use; teardown closes it
func (a *app) redisClient() (*redisclient.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := redisclient.NewClient(&a.cfg.Redis, a.logger)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return client, nil
}

// buildEventBus returns a bus when Redis is enabled. The returned close
// func is never nil.
func (a *app) buildEventBus() (*events.RedisEventBus, func(), error) {
	if !a.cfg.Redis.Enabled {
		return nil, func() {}, nil
	}

	client, err := a.redisClient()
	if err != nil {
		return nil, func() {}, err
	}
	bus := events.NewRedisEventBus(client.Client(), a.logger)
	return bus, func() {
		if err := bus.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close event bus")
		}
	}, nil
}

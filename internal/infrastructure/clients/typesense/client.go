package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/contentexplore/pkg/config"
	"github.com/zatekoja/contentexplore/pkg/retry"
)

// DefaultCollection is the content collection name
const DefaultCollection = "content"

// Client represents a Typesense client
type Client struct {
	client     *typesense.Client
	collection string
	logger     zerolog.Logger
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig, logger zerolog.Logger) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)
	logger = logger.With().Str("component", "typesense").Logger()

	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	logger.Info().Str("url", cfg.URL).Str("collection", collection).Msg("connected to typesense")
	return &Client{client: client, collection: collection, logger: logger}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Collection returns the content collection name
func (c *Client) Collection() string {
	return c.collection
}

// Search runs a search against the content collection
func (c *Client) Search(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error) {
	return c.client.Collection(c.collection).Documents().Search(ctx, params)
}

// InitSchema ensures the content collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == c.collection {
			c.logger.Debug().Str("collection", c.collection).Msg("typesense collection already exists")
			return nil
		}
	}

	schema := &api.CollectionSchema{
		Name: c.collection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "author", Type: "string", Facet: pointer.True()},
			{Name: "type", Type: "string", Facet: pointer.True()},
			{Name: "thumbnail", Type: "string", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	if _, err := c.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	c.logger.Info().Str("collection", c.collection).Msg("created typesense collection")
	return nil
}

// IndexDocument upserts one content document
func (c *Client) IndexDocument(ctx context.Context, document map[string]interface{}) error {
	_, err := c.client.Collection(c.collection).Documents().Upsert(ctx, document)
	return err
}

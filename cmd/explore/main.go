package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	redisclient "github.com/zatekoja/contentexplore/internal/infrastructure/clients/redis"
	"github.com/zatekoja/contentexplore/internal/infrastructure/observability"
	"github.com/zatekoja/contentexplore/pkg/config"
)

// app carries what PersistentPreRunE set up for the subcommands
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *observability.ListMetrics
	shutdown func(context.Context) error
	redis    *redisclient.Client

	backend     string
	apiURL      string
	filtersFile string
	pageSize    int
	logLevel    string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse a paginated, filterable content list",
		Long: `explore drives the content list controller from the terminal.

Configuration comes from the environment (CONTENT_BACKEND, CONTENT_API_URL,
TYPESENSE_*, REDIS_*, FILTERS_FILE ...); flags override it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.backend, "backend", "", "content backend: api or typesense")
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "content API base URL")
	rootCmd.PersistentFlags().StringVar(&a.filtersFile, "filters-file", "", "YAML file with filter definitions")
	rootCmd.PersistentFlags().IntVar(&a.pageSize, "page-size", 0, "items per page")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newSearchCmd(a))
	rootCmd.AddCommand(newFiltersCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newIndexCmd(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.App.Backend = a.backend
	}
	if flags.Changed("api-url") {
		cfg.ContentAPI.BaseURL = a.apiURL
	}
	if flags.Changed("filters-file") {
		cfg.Explore.FiltersFile = a.filtersFile
	}
	if flags.Changed("page-size") {
		cfg.Explore.PageSize = a.pageSize
	}
	if flags.Changed("log-level") {
		cfg.App.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel, cmd.ErrOrStderr())
	a.logger = observability.Component("cli")

	if cfg.OTEL.Enabled {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to initialize OpenTelemetry, continuing without tracing")
		} else {
			a.shutdown = shutdown
		}
	}

	metrics, err := observability.InitListMetrics()
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to initialize list metrics")
	}
	a.metrics = metrics
	return nil
}

func (a *app) teardown() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("failed to flush traces")
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

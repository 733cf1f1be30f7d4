package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zatekoja/contentexplore/internal/domain/providers"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print list analytics events published on Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) runWatch(ctx context.Context, out io.Writer) error {
	if !a.cfg.Redis.Enabled {
		return fmt.Errorf("redis is disabled, set REDIS_ENABLED=true")
	}
	bus, closeBus, err := a.buildEventBus()
	if err != nil {
		return err
	}
	defer closeBus()

	events, err := bus.Subscribe(ctx, providers.EventChannelListEvents)
	if err != nil {
		return err
	}

	a.logger.Info().Str("channel", providers.EventChannelListEvents).Msg("watching list events")
	enc := json.NewEncoder(out)
	for event := range events {
		if err := enc.Encode(event); err != nil {
			return err
		}
	}
	return nil
}

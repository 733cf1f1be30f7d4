package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zatekoja/contentexplore/internal/application/filters"
)

func newFiltersCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "List the available filter groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFilters(cmd.Context(), cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print definitions as JSON")
	return cmd
}

func (a *app) runFilters(ctx context.Context, out io.Writer, asJSON bool) error {
	b, err := a.buildBackend()
	if err != nil {
		return err
	}

	panel := filters.NewPanel(b.definitions, a.logger)
	state, err := panel.Open(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	if state.Len() == 0 {
		fmt.Fprintln(out, "no filters available")
		return nil
	}
	for _, g := range state.Groups() {
		label := g.Label
		if label == "" {
			label = g.Key
		}
		fmt.Fprintf(out, "%s (%s, %s)\n", label, g.Key, g.Type)
		for _, opt := range g.Options {
			mark := " "
			if opt.Selected {
				mark = "*"
			}
			fmt.Fprintf(out, "  %s %-8s %s\n", mark, opt.ID, opt.Label)
		}
	}
	if payload := panel.Payload(); len(payload) > 0 {
		fmt.Fprintf(out, "default filters: %s\n", payload.Canonical())
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zatekoja/contentexplore/internal/application/explore"
	"github.com/zatekoja/contentexplore/internal/application/listquery"
	"github.com/zatekoja/contentexplore/internal/application/services"
	"github.com/zatekoja/contentexplore/internal/domain/entities"
)

type searchOptions struct {
	query   string
	filters []string
	pages   int
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Fetch pages of the content list",
		Long: `search runs one explore session: it applies the query and filters,
loads page 1, then keeps loading more pages until --pages is reached or the
backend reports no more results.

Filters use the group key and option ids, e.g. --filter sort=2 --filter content_type=1,3.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "search query")
	cmd.Flags().StringArrayVarP(&opts.filters, "filter", "f", nil, "filter selection as key=id[,id...] (repeatable)")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "maximum number of pages to load")
	return cmd
}

func (a *app) runSearch(ctx context.Context, out io.Writer, opts *searchOptions) error {
	selections, err := parseFilterFlags(opts.filters)
	if err != nil {
		return err
	}

	b, err := a.buildBackend()
	if err != nil {
		return err
	}
	bus, closeBus, err := a.buildEventBus()
	if err != nil {
		a.logger.Warn().Err(err).Msg("analytics disabled")
	}
	defer closeBus()

	var listeners []listquery.Listener
	var analytics *services.ListAnalyticsService
	if bus != nil {
		analytics = services.NewListAnalyticsService(bus, uuid.New().String(), a.logger)
		listeners = append(listeners, analytics.Listener())
	}

	session := explore.NewSession(b.pages, b.definitions, explore.Config{
		DebounceWindow: a.cfg.Explore.DebounceWindow,
		PageSize:       a.cfg.Explore.PageSize,
		InitialQuery:   opts.query,
	}, a.logger, a.metrics, listeners...)
	defer session.Close()

	if len(selections) == 0 {
		session.Start()
	} else if err := applySelections(ctx, session, selections); err != nil {
		return err
	}
	session.Wait()

	printed := 0
	for page := 1; ; page++ {
		state := session.State()
		if state.Err != nil {
			return state.Err
		}
		printed = printItems(out, state, printed)

		if page >= opts.pages || !session.LoadMore() {
			break
		}
		session.Wait()
	}

	final := session.State()
	if final.Empty() {
		fmt.Fprintln(out, "no results")
	}
	fmt.Fprintf(out, "-- %d items, page %d, more: %t\n", len(final.Items), final.Page, final.HasNext)

	if analytics != nil {
		analytics.Wait()
	}
	return nil
}

// applySelections opens the panel and applies every selection in one reset
func applySelections(ctx context.Context, session *explore.Session, selections []filterSelection) error {
	state, err := session.OpenFilters(ctx)
	if err != nil {
		return err
	}

	for _, sel := range selections {
		group, ok := state.Group(sel.key)
		if !ok {
			return fmt.Errorf("unknown filter group %q", sel.key)
		}
		for _, id := range sel.ids {
			switch group.Type {
			case entities.GroupTypeSingle:
				err = session.SelectSingle(sel.key, id)
			default:
				err = session.ToggleMulti(sel.key, id)
			}
			if err != nil {
				return err
			}
		}
	}
	session.ApplyFilters()
	return nil
}

func printItems(out io.Writer, state listquery.Snapshot, from int) int {
	for i := from; i < len(state.Items); i++ {
		item := state.Items[i]
		line := fmt.Sprintf("%4d  %-12s %s", i+1, item.ID, item.Title)
		if item.Type != "" {
			line += " [" + item.Type + "]"
		}
		if item.Author != "" {
			line += " by " + item.Author
		}
		fmt.Fprintln(out, line)
	}
	return len(state.Items)
}

type filterSelection struct {
	key string
	ids []entities.OptionID
}

// parseFilterFlags turns key=id[,id...] flags into selections, keeping flag order
func parseFilterFlags(values []string) ([]filterSelection, error) {
	var out []filterSelection
	for _, v := range values {
		key, list, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, want key=id[,id...]", v)
		}
		sel := filterSelection{key: key}
		for _, id := range strings.Split(list, ",") {
			if id = strings.TrimSpace(id); id != "" {
				sel.ids = append(sel.ids, entities.OptionID(id))
			}
		}
		if len(sel.ids) == 0 {
			return nil, fmt.Errorf("filter %q has no option ids", key)
		}
		out = append(out, sel)
	}
	return out, nil
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/pagination"
)

func newItemsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Look up the item catalog",
	}
	cmd.AddCommand(newItemsSearchCommand(a))
	return cmd
}

func newItemsSearchCommand(a *app) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog page by page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return a.runItemsSearch(cmd.Context(), cmd.OutOrStdout(), query, pages)
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")

	return cmd
}

func (a *app) runItemsSearch(ctx context.Context, w io.Writer, query string, pages int) error {
	if pages < 1 {
		return fmt.Errorf("--pages must be at least 1, got %d", pages)
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	ctx, _, err = a.signIn(ctx, c)
	if err != nil {
		return err
	}

	loader := pagination.NewLoader[model.CatalogItem](c.FetchItems, pagination.WithDebounce(a.cfg.Search.Debounce))
	defer loader.Cancel()
	select {
	case err := <-loader.Search(ctx, query):
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	items := loader.Items()
	if len(items) == 0 {
		fmt.Fprintf(w, "No items match %q\n", query)
		return nil
	}
	// Rows near the end pull in the next page until the page limit.
	for i := 0; i < len(items); i++ {
		it := items[i]
		fmt.Fprintf(w, "%-8s %-24s %-12s %10s/%s\n", it.Code, it.Name, it.Brand, money.Format(it.UnitPrice), it.UnitSuffix)
		if loader.Page() >= pages {
			continue
		}
		fetched, err := loader.Observe(ctx, i)
		if err != nil {
			return err
		}
		if fetched {
			items = loader.Items()
		}
	}
	if loader.HasMore() {
		fmt.Fprintf(w, "More results after page %d\n", loader.Page())
	}
	return nil
}

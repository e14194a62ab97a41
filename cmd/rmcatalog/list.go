package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/Sternrassler/rm-catalog-client/pkg/imagecache"
	"github.com/Sternrassler/rm-catalog-client/pkg/pagination"
	"github.com/spf13/cobra"
)

type listOptions struct {
	status string
	pages  int
	all    bool
	images bool
}

func newListCmd(a *app) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List characters page by page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := a.cfg.StatusFilter()
			if cmd.Flags().Changed("status") {
				f, err := catalog.ParseStatusFilter(opts.status)
				if err != nil {
					return err
				}
				filter = f
			}
			if opts.pages < 1 && !opts.all {
				return fmt.Errorf("--pages must be >= 1 (got %d)", opts.pages)
			}

			client, err := a.catalogClient()
			if err != nil {
				return err
			}

			var images *imagecache.Cache
			if opts.images {
				c, _, closeFn, err := a.imageCache(cmd.Context())
				if err != nil {
					return err
				}
				defer closeFn()
				images = c
			}

			return runList(cmd.Context(), cmd.OutOrStdout(), client, images, filter, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.status, "status", "s", "all", "status filter (all, alive, dead, unknown)")
	cmd.Flags().IntVarP(&opts.pages, "pages", "p", 1, "number of pages to load")
	cmd.Flags().BoolVar(&opts.all, "all", false, "load every page")
	cmd.Flags().BoolVar(&opts.images, "images", false, "prefetch the avatars of listed characters")
	return cmd
}

// runList drives a controller through the gate the way a scrolling list
// would: one filter application, then one page per step until the session
// ends or the page budget is spent.
func runList(ctx context.Context, out io.Writer, svc catalog.Service, images *imagecache.Cache, filter catalog.StatusFilter, opts *listOptions) error {
	gate := pagination.NewGate(pagination.NewController(svc))

	if err := gate.ApplyFilter(ctx, filter); err != nil {
		return err
	}
	for loaded := 1; gate.State().HasMore() && (opts.all || loaded < opts.pages); loaded++ {
		if err := gate.FetchNext(ctx); err != nil {
			return err
		}
	}

	state := gate.State()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSPECIES")
	for _, c := range state.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Status, c.Species)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nloaded %d characters (filter: %s, pages %d/%d)", state.Len(), filter, state.Cursor.CurrentPage-1, state.Cursor.TotalPages)
	if state.HasMore() {
		fmt.Fprint(out, ", more available")
	}
	fmt.Fprintln(out)

	if images != nil && state.Len() > 0 {
		urls := make([]string, 0, state.Len())
		for _, c := range state.Items {
			urls = append(urls, c.Image)
		}
		result := images.Prefetch(ctx, urls)
		fmt.Fprintf(out, "avatars: %d loaded, %d failed\n", result.Loaded, result.Failed)
	}
	return nil
}

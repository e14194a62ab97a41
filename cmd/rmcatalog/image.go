package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/Sternrassler/rm-catalog-client/pkg/imagecache"
	"github.com/spf13/cobra"
)

func newImageCmd(a *app) *cobra.Command {
	var repeat int

	cmd := &cobra.Command{
		Use:   "image <url>...",
		Short: "Load avatars through the image cache",
		Long: `Loads every URL concurrently through the image cache. With --repeat each
URL is requested several times at once; concurrent requests for the same
URL share a single download.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repeat < 1 {
				return fmt.Errorf("--repeat must be >= 1 (got %d)", repeat)
			}
			images, _, closeFn, err := a.imageCache(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return runImage(cmd.Context(), cmd.OutOrStdout(), images, args, repeat)
		},
	}

	cmd.Flags().IntVarP(&repeat, "repeat", "r", 1, "concurrent requests per URL")
	return cmd
}

type imageOutcome struct {
	img *imagecache.Image
	err error
}

func runImage(ctx context.Context, out io.Writer, images *imagecache.Cache, urls []string, repeat int) error {
	outcomes := make([]imageOutcome, len(urls)*repeat)

	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := images.Load(ctx, urls[i%len(urls)])
			outcomes[i] = imageOutcome{img: img, err: err}
		}(i)
	}
	wg.Wait()

	failed := 0
	for i, u := range urls {
		o := outcomes[i]
		if o.err != nil {
			failed++
			fmt.Fprintf(out, "%s: %s\n", u, catalog.Message(o.err))
			continue
		}
		b := o.img.Bounds()
		fmt.Fprintf(out, "%s: %s %dx%d (%d bytes)\n", u, o.img.Format, b.Dx(), b.Dy(), o.img.Size)
	}

	stats := images.Stats()
	fmt.Fprintf(out, "\n%d requests, %d downloads, %d shared-tier hits, %d cached\n",
		len(outcomes), stats.NetworkFetches, stats.SharedHits, stats.Entries)

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(urls))
	}
	return nil
}

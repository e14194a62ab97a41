package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/spf13/cobra"
)

// characterFetcher is the part of the catalog client show needs.
type characterFetcher interface {
	FetchCharacter(ctx context.Context, id int) (*catalog.Character, error)
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one character in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return fmt.Errorf("invalid character id %q", args[0])
			}
			client, err := a.catalogClient()
			if err != nil {
				return err
			}
			return runShow(cmd.Context(), cmd.OutOrStdout(), client, id)
		},
	}
}

func runShow(ctx context.Context, out io.Writer, f characterFetcher, id int) error {
	c, err := f.FetchCharacter(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", catalog.Message(err), err)
	}

	fmt.Fprintf(out, "%s (#%d)\n", c.Name, c.ID)
	fmt.Fprintf(out, "  Status:   %s\n", c.Status)
	fmt.Fprintf(out, "  Species:  %s\n", c.Species)
	if c.HasType() {
		fmt.Fprintf(out, "  Type:     %s\n", c.Type)
	}
	fmt.Fprintf(out, "  Gender:   %s\n", c.Gender)
	if !c.Origin.IsEmpty() {
		fmt.Fprintf(out, "  Origin:   %s\n", c.Origin.Name)
	}
	if !c.Location.IsEmpty() {
		fmt.Fprintf(out, "  Location: %s\n", c.Location.Name)
	}
	fmt.Fprintf(out, "  Episodes: %d\n", c.EpisodeCount())
	if created, err := c.CreatedAt(); err == nil {
		fmt.Fprintf(out, "  Created:  %s\n", created.Format("2006-01-02"))
	}
	fmt.Fprintf(out, "  Image:    %s\n", c.Image)
	return nil
}

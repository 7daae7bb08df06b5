package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/store"
)

func queryParentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parents <level>",
		Short: "List the parent assignments of a catalogued level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, db store.Store) error {
				edges, err := db.ListParents(ctx, args[0])
				if err != nil {
					return err
				}
				if len(edges) == 0 {
					fmt.Fprintln(os.Stdout, "No parent assignments found.")
					return nil
				}
				for _, e := range edges {
					stays := ""
					if e.WorldPositionStays {
						stays = " (world position stays)"
					}
					fmt.Fprintf(os.Stdout, "beat %g: %s -> %s%s\n", e.Beat, e.Child, e.Parent, stays)
				}
				return nil
			})
		},
	}
}

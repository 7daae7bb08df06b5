package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/store"
)

func queryTracksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tracks <level>",
		Short: "List the tracks of a catalogued level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, db store.Store) error {
				tracks, err := db.ListTracks(ctx, args[0])
				if err != nil {
					return err
				}
				if len(tracks) == 0 {
					fmt.Fprintln(os.Stdout, "No tracks found.")
					return nil
				}
				for _, t := range tracks {
					fmt.Fprintf(os.Stdout, "%s: %d objects\n", t.Name, t.Members)
				}
				return nil
			})
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/store"
)

func queryLevelsCmd() *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "List catalogued levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, db store.Store) error {
				return runQueryLevels(ctx, db, set)
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "Set to filter")
	return cmd
}

func runQueryLevels(ctx context.Context, db store.Store, set string) error {
	levels, err := db.ListLevels(ctx, set)
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		fmt.Fprintln(os.Stdout, "No levels found.")
		return nil
	}

	for _, level := range levels {
		legacy := ""
		if level.Legacy {
			legacy = ", legacy"
		}
		fmt.Fprintf(os.Stdout, "%s (%s%s) [%s] tracks=%d issues=%d\n", level.SourceFile, level.Version, legacy, level.Set, level.Tracks, level.Issues)
	}
	return nil
}

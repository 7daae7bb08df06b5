package main

import (
	"context"

	"github.com/spf13/cobra"

	"trackkit/internal/config"
	"trackkit/internal/store"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the level catalog from the CLI",
	}
	cmd.AddCommand(queryLevelsCmd())
	cmd.AddCommand(queryTracksCmd())
	cmd.AddCommand(queryParentsCmd())
	cmd.AddCommand(queryIssuesCmd())
	cmd.AddCommand(querySQLCmd())
	return cmd
}

// withDB opens the configured catalog for the duration of fn.
func withDB(fn func(ctx context.Context, db store.Store) error) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	return fn(ctx, db)
}

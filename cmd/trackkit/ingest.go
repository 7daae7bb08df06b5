package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/catalog"
	"trackkit/internal/config"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Synchronise the catalog with level files",
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	result, err := catalog.Run(ctx, cfg, db, catalog.Options{Full: ingestFull, Logger: newLogger(cfg)})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Levels upserted: %d\n", result.LevelsUpserted)
	fmt.Fprintf(os.Stdout, "  Levels removed:  %d\n", result.LevelsRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:   %d\n", result.FilesSkipped)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}

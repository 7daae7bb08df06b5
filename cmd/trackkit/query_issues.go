package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/store"
)

func queryIssuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issues [level]",
		Short: "List load issues recorded in the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceFile := ""
			if len(args) == 1 {
				sourceFile = args[0]
			}
			return withDB(func(ctx context.Context, db store.Store) error {
				issues, err := db.ListIssues(ctx, sourceFile)
				if err != nil {
					return err
				}
				if len(issues) == 0 {
					fmt.Fprintln(os.Stdout, "No issues found.")
					return nil
				}
				for _, i := range issues {
					fmt.Fprintf(os.Stdout, "[%s] %s %d: %s\n", i.Deserializer, i.Kind, i.Index, i.Message)
				}
				return nil
			})
		},
	}
}

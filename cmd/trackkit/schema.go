package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/features"
)

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of every deserializer payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := features.NewRegistry()
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(registry.Schemas(), "", "  ")
			if err != nil {
				return fmt.Errorf("encoding schemas: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(payload))
			return nil
		},
	}
}

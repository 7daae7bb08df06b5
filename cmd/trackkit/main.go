package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/config"
)

var (
	configPath string
	verbosity  int
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:   "trackkit",
		Short: "Custom-data loader and track animation engine for beatmap levels",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Project config file")
	root.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "Log verbosity")
	root.AddCommand(loadCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(evalCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(schemaCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	var levels string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new trackkit project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(configPath, projectName, levels)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&levels, "levels", "./levels/", "Directory holding level files")
	return cmd
}

func runInit(configPath, projectName, levels string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	configContents := fmt.Sprintf(`project: %s
version: 1

catalog:
  dsn: sqlite://./trackkit.db

playback:
  note_lines_distance: 0.6
  left_handed: false
  environment: []

features:
  disabled: []

log:
  verbosity: 0

sets:
  - name: levels
    paths:
      - %s

exclude:
  - ./assets/
`, projectName, levels)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	return nil
}

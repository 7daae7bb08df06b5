package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <level>",
		Short: "Deserialize a level and print what it produced",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	}
	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := levelConfig()
	if err != nil {
		return err
	}

	res, err := loadLevel(ctx, args[0], cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer res.Tracks.Close()
	defer res.Points.Close()

	level := res.Level
	fmt.Fprintf(os.Stdout, "%s (version %s", args[0], level.Version)
	if level.Legacy {
		fmt.Fprint(os.Stdout, ", legacy")
	}
	fmt.Fprintf(os.Stdout, ")\n  Objects: %d  Events: %d  Custom events: %d\n", len(level.Objects), len(level.Events), len(res.CustomEvents))

	fmt.Fprintf(os.Stdout, "\nTracks (%d):\n", res.Tracks.Len())
	for _, name := range res.Tracks.Names() {
		t, _ := res.Tracks.Get(name)
		fmt.Fprintf(os.Stdout, "  - %s: %d objects\n", name, t.Len())
	}

	fmt.Fprintf(os.Stdout, "\nPoint definitions (%d):\n", res.Points.Len())
	for _, name := range res.Points.Names() {
		def, _ := res.Points.Get(name)
		start, end := def.Duration()
		fmt.Fprintf(os.Stdout, "  - %s: width %d, %d keyframes over [%g, %g]\n", name, def.Width(), len(def.Points()), start, end)
	}

	fmt.Fprintln(os.Stdout, "\nBindings:")
	for _, id := range res.Bindings.IDs() {
		data, _ := res.Bindings.Get(id)
		customEvents, events, objects := data.Len()
		fmt.Fprintf(os.Stdout, "  - %s: %d custom events, %d events, %d objects\n", id, customEvents, events, objects)
	}

	if res.Report.Len() > 0 {
		fmt.Fprintf(os.Stdout, "\nIssues (%d):\n", res.Report.Len())
		for _, issue := range res.Report.Issues {
			fmt.Fprintf(os.Stdout, "  - %v\n", issue)
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/animation"
	"trackkit/internal/track"
)

func evalCmd() *cobra.Command {
	var point string
	var kind string
	var at []float64
	cmd := &cobra.Command{
		Use:   "eval <level>",
		Short: "Evaluate a point definition of a level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(args[0], point, kind, at)
		},
	}
	cmd.Flags().StringVar(&point, "point", "", "Point definition name")
	cmd.Flags().StringVar(&kind, "kind", "vector3", "Value kind: float, vector3, vector4 or quaternion")
	cmd.Flags().Float64SliceVar(&at, "at", []float64{0}, "Times to sample (repeatable or comma separated)")
	_ = cmd.MarkFlagRequired("point")
	return cmd
}

func runEval(path, point, kindName string, at []float64) error {
	ctx := context.Background()

	kind, err := track.ParseKind(kindName)
	if err != nil {
		return err
	}

	cfg, err := levelConfig()
	if err != nil {
		return err
	}

	res, err := loadLevel(ctx, path, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer res.Tracks.Close()
	defer res.Points.Close()

	def, ok := res.Points.Get(point)
	if !ok {
		return fmt.Errorf("point definition %q not found", point)
	}
	if !animation.Fits(def, kind) {
		return fmt.Errorf("a %d-wide definition cannot be read as %s", def.Width(), kind)
	}

	for _, t := range at {
		fmt.Fprintf(os.Stdout, "%g\t%s\n", t, animation.Evaluate(def, kind, t))
	}
	return nil
}

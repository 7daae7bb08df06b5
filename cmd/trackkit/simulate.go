package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackkit/internal/beatmap"
	"trackkit/internal/features"
	"trackkit/internal/session"
)

func simulateCmd() *cobra.Command {
	var from, to, step float64
	var tracks []string
	cmd := &cobra.Command{
		Use:   "simulate <level>",
		Short: "Play a level back and print where track members end up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if step <= 0 {
				return fmt.Errorf("--step must be positive")
			}
			if to < from {
				return fmt.Errorf("--to must not be before --from")
			}
			return runSimulate(args[0], from, to, step, tracks)
		},
	}
	cmd.Flags().Float64Var(&from, "from", 0, "First beat")
	cmd.Flags().Float64Var(&to, "to", 0, "Last beat")
	cmd.Flags().Float64Var(&step, "step", 1, "Beats between samples")
	cmd.Flags().StringSliceVar(&tracks, "track", nil, "Tracks to print (default all)")
	return cmd
}

func runSimulate(path string, from, to, step float64, tracks []string) error {
	ctx := context.Background()

	cfg, err := levelConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	level, err := beatmap.ParseFile(path)
	if err != nil {
		return err
	}
	registry, err := features.NewRegistry(cfg.Features.Disabled...)
	if err != nil {
		return err
	}
	s, err := session.Load(ctx, registry, level, session.Options{
		Logger:      logger,
		LeftHanded:  cfg.Playback.LeftHanded,
		Unit:        cfg.Playback.NoteLinesDistance,
		Environment: cfg.Playback.Environment,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	if len(tracks) == 0 {
		tracks = s.Result().Tracks.Names()
	}

	for i := 0; ; i++ {
		beat := from + float64(i)*step
		if beat > to {
			break
		}
		s.Advance(beat)
		fmt.Fprintf(os.Stdout, "beat %g\n", beat)
		for _, name := range tracks {
			t, ok := s.Result().Tracks.Get(name)
			if !ok {
				continue
			}
			for _, node := range t.Objects() {
				pos := node.WorldPosition()
				rot := node.WorldRotation()
				fmt.Fprintf(os.Stdout, "  %s\t%s\tpos (%.4f, %.4f, %.4f)\trot (%.4f, %.4f, %.4f, %.4f)\n",
					name, node.Path(), pos[0], pos[1], pos[2], rot.V[0], rot.V[1], rot.V[2], rot.W)
			}
		}
	}
	return nil
}

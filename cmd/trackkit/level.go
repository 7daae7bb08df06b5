package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/go-logr/logr"

	"trackkit/internal/beatmap"
	"trackkit/internal/config"
	"trackkit/internal/deserialize"
	"trackkit/internal/features"
	"trackkit/internal/logging"
	"trackkit/internal/scene"
)

// levelConfig loads the project config when there is one. Commands that work
// on a single level run without it using the defaults and the environment.
func levelConfig() (*config.ProjectConfig, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return config.Defaults()
	}
	return config.LoadProjectConfig(configPath)
}

func newLogger(cfg *config.ProjectConfig) logr.Logger {
	return logging.New(os.Stderr, max(verbosity, cfg.Log.Verbosity))
}

func loadLevel(ctx context.Context, path string, cfg *config.ProjectConfig, logger logr.Logger) (*deserialize.Result, error) {
	level, err := beatmap.ParseFile(path)
	if err != nil {
		return nil, err
	}
	registry, err := features.NewRegistry(cfg.Features.Disabled...)
	if err != nil {
		return nil, err
	}
	root := scene.NewRoot()
	root.Build(cfg.Playback.Environment...)
	return registry.Load(ctx, level, deserialize.LoadOptions{
		Logger:     logger,
		LeftHanded: cfg.Playback.LeftHanded,
		Root:       root,
	})
}

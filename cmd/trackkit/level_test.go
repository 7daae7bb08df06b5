package main

import (
	"path/filepath"
	"testing"
)

func TestLevelConfig_NoProjectFile(t *testing.T) {
	previous := configPath
	t.Cleanup(func() { configPath = previous })
	configPath = filepath.Join(t.TempDir(), "trackkit.yaml")

	t.Setenv("TRACKKIT_LEFT_HANDED", "true")
	cfg, err := levelConfig()
	if err != nil {
		t.Fatalf("expected defaults without a project file, got %v", err)
	}
	if !cfg.Playback.LeftHanded {
		t.Fatalf("expected the environment to apply without a project file")
	}
}

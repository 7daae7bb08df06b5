package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr/testr"

	"trackkit/internal/config"
	"trackkit/internal/store"
)

type mockStore struct {
	levels      []store.LevelInput
	removeCalls []struct {
		set   string
		files []string
	}
	ensureCalled bool
	failFile     string
	setHashes    map[string]map[string]string
}

func (m *mockStore) EnsureSchema(ctx context.Context) error {
	m.ensureCalled = true
	return nil
}

func (m *mockStore) GetSetHashes(ctx context.Context, set string) (map[string]string, error) {
	if hashes, ok := m.setHashes[set]; ok {
		return hashes, nil
	}
	return map[string]string{}, nil
}

func (m *mockStore) UpsertLevel(ctx context.Context, l store.LevelInput) error {
	if m.failFile != "" && filepath.Base(l.SourceFile) == m.failFile {
		return errors.New("forced error")
	}
	m.levels = append(m.levels, l)
	return nil
}

func (m *mockStore) RemoveStaleLevels(ctx context.Context, set string, currentSourceFiles []string) (int64, error) {
	m.removeCalls = append(m.removeCalls, struct {
		set   string
		files []string
	}{set: set, files: currentSourceFiles})
	return 0, nil
}

func (m *mockStore) level(name string) (store.LevelInput, bool) {
	for _, l := range m.levels {
		if filepath.Base(l.SourceFile) == name {
			return l, true
		}
	}
	return store.LevelInput{}, false
}

const parentedLevel = `{
	"version": "3.2.0",
	"colorNotes": [{"b": 1, "x": 0, "y": 0, "customData": {"track": "B"}}],
	"customData": {
		"pointDefinitions": {"rise": [[0, 0, 0, 0], [0, 10, 0, 2]]},
		"customEvents": [
			{"b": 4, "t": "AssignTrackParent", "d": {"parentTrack": "A", "childrenTracks": ["B", "C"], "worldPositionStays": true}},
			{"b": 5, "t": "AnimateTrack", "d": {"duration": 1}}
		]
	}
}`

const legacyLevel = `_version: "2.2.0"
_notes:
  - {_time: 1, _lineIndex: 0, _lineLayer: 0, _customData: {_track: lanes}}
`

func writeLevels(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"ExpertPlus.dat":       parentedLevel,
		"Easy.yaml":            legacyLevel,
		"notes.txt":            "not a level",
		"skip/Hard.dat":        parentedLevel,
		"broken/Broken.dat":    `{"colorNotes": []}`,
		"nested/deep/Info.dat": parentedLevel,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func testProjectConfig(dir string) *config.ProjectConfig {
	return &config.ProjectConfig{
		Project: "test",
		Version: 1,
		Sets:    []config.Set{{Name: "charts", Paths: []string{dir}}},
		Exclude: []string{filepath.Join(dir, "skip")},
	}
}

func TestRun_CataloguesLevels(t *testing.T) {
	dir := writeLevels(t)
	client := &mockStore{}

	result, err := Run(context.Background(), testProjectConfig(dir), client, Options{Logger: testr.New(t)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !client.ensureCalled {
		t.Fatalf("expected ensure schema")
	}
	if result.LevelsUpserted != 3 {
		t.Fatalf("expected 3 levels upserted, got %d (errors %v)", result.LevelsUpserted, result.Errors)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected the unversioned level to fail, got %v", result.Errors)
	}
	if _, ok := client.level("Hard.dat"); ok {
		t.Fatalf("expected excluded directory to be skipped")
	}

	level, ok := client.level("ExpertPlus.dat")
	if !ok {
		t.Fatalf("expected ExpertPlus.dat to be catalogued")
	}
	if level.Set != "charts" || level.SourceHash == "" || level.Version != "3.2.0" || level.Objects != 1 || level.CustomEvents != 2 {
		t.Fatalf("unexpected level %+v", level)
	}
	if len(level.PointDefinitions) != 1 {
		t.Fatalf("expected one point definition, got %+v", level.PointDefinitions)
	}
	def := level.PointDefinitions[0]
	if def.Name != "rise" || def.Width != 3 || def.Keyframes != 2 || def.Duration != 2 {
		t.Fatalf("unexpected point definition %+v", def)
	}
	if len(level.Parents) != 2 || level.Parents[0].Parent != "A" || level.Parents[1].Child != "C" || level.Parents[0].Beat != 4 || !level.Parents[0].WorldPositionStays {
		t.Fatalf("unexpected parent edges %+v", level.Parents)
	}
	members := map[string]int{}
	for _, tr := range level.Tracks {
		members[tr.Name] = tr.Members
	}
	if members["B"] != 1 || members["A"] != 0 {
		t.Fatalf("unexpected tracks %+v", level.Tracks)
	}
	if len(level.Issues) != 1 || level.Issues[0].Deserializer != "animation" {
		t.Fatalf("expected the animation without a track to be reported, got %+v", level.Issues)
	}

	legacy, ok := client.level("Easy.yaml")
	if !ok || !legacy.Legacy || legacy.Objects != 1 {
		t.Fatalf("unexpected legacy level %+v", legacy)
	}
}

func TestRun_ContinuesOnError(t *testing.T) {
	dir := writeLevels(t)
	client := &mockStore{failFile: "Easy.yaml"}

	result, err := Run(context.Background(), testProjectConfig(dir), client, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 2 || result.LevelsUpserted != 2 {
		t.Fatalf("expected the other levels to be catalogued, got %d upserted and %v", result.LevelsUpserted, result.Errors)
	}
}

func TestRun_RemoveStaleLevels(t *testing.T) {
	dir := writeLevels(t)
	client := &mockStore{}

	if _, err := Run(context.Background(), testProjectConfig(dir), client, Options{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(client.removeCalls) != 1 || client.removeCalls[0].set != "charts" {
		t.Fatalf("expected one remove stale levels call, got %+v", client.removeCalls)
	}
	// every walked file counts as current, including ones that failed to load
	if len(client.removeCalls[0].files) != 4 {
		t.Fatalf("expected 4 current files, got %v", client.removeCalls[0].files)
	}
}

func TestRun_IncrementalSkip(t *testing.T) {
	dir := writeLevels(t)
	path := filepath.Join(dir, "ExpertPlus.dat")
	hash, err := computeHash(path)
	if err != nil {
		t.Fatalf("compute hash: %v", err)
	}

	tests := []struct {
		name    string
		full    bool
		present bool
	}{
		{name: "incremental", full: false, present: false},
		{name: "full", full: true, present: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockStore{setHashes: map[string]map[string]string{"charts": {path: hash}}}
			result, err := Run(context.Background(), testProjectConfig(dir), client, Options{Full: tt.full})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if _, ok := client.level("ExpertPlus.dat"); ok != tt.present {
				t.Fatalf("expected ExpertPlus.dat present=%v", tt.present)
			}
			if !tt.full && result.FilesSkipped != 1 {
				t.Fatalf("expected 1 file skipped, got %d", result.FilesSkipped)
			}
		})
	}
}

func TestRun_DisabledFeatures(t *testing.T) {
	dir := writeLevels(t)
	cfg := testProjectConfig(dir)
	cfg.Features.Disabled = []string{"parent"}
	client := &mockStore{}

	if _, err := Run(context.Background(), cfg, client, Options{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	level, ok := client.level("ExpertPlus.dat")
	if !ok {
		t.Fatalf("expected ExpertPlus.dat to be catalogued")
	}
	if len(level.Parents) != 0 {
		t.Fatalf("expected no parent edges with the parent feature disabled, got %+v", level.Parents)
	}
}

func TestIsExcluded(t *testing.T) {
	excludes := []string{filepath.Clean("levels/wip")}
	cases := []struct {
		path string
		want bool
	}{
		{path: "levels/wip", want: true},
		{path: "levels/wip/a.dat", want: true},
		{path: "levels/wipe/a.dat", want: false},
		{path: "levels/a.dat", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			if got := isExcluded(filepath.FromSlash(tc.path), excludes); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

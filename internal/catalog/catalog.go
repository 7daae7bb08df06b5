// Package catalog synchronises level files on disk with a level store.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"trackkit/internal/beatmap"
	"trackkit/internal/config"
	"trackkit/internal/deserialize"
	"trackkit/internal/features"
	"trackkit/internal/parent"
	"trackkit/internal/scene"
	"trackkit/internal/store"
)

// Store is the part of store.Store the catalog writes through.
type Store interface {
	EnsureSchema(ctx context.Context) error
	GetSetHashes(ctx context.Context, set string) (map[string]string, error)
	UpsertLevel(ctx context.Context, level store.LevelInput) error
	RemoveStaleLevels(ctx context.Context, set string, currentSourceFiles []string) (int64, error)
}

type Result struct {
	LevelsUpserted int
	LevelsRemoved  int
	FilesSkipped   int
	Errors         []error
}

type Options struct {
	Full   bool
	Logger logr.Logger
}

var levelExtensions = map[string]bool{
	".dat":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
}

func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options) (*Result, error) {
	logger := options.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	result := &Result{}
	setFiles := make(map[string][]string)

	for _, set := range cfg.Sets {
		var existingHashes map[string]string
		if !options.Full {
			var err error
			existingHashes, err = db.GetSetHashes(ctx, set.Name)
			if err != nil {
				return nil, fmt.Errorf("get set hashes for %s: %w", set.Name, err)
			}
		}

		files, err := walkLevelFiles(set.Paths, cfg.Exclude)
		if err != nil {
			return nil, fmt.Errorf("walking files for set %s: %w", set.Name, err)
		}
		setFiles[set.Name] = files

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			hash, err := computeHash(path)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
				continue
			}
			if !options.Full {
				if existing, ok := existingHashes[path]; ok && existing == hash {
					result.FilesSkipped++
					continue
				}
			}

			input, err := Describe(ctx, cfg, path)
			if err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			input.Set = set.Name
			input.SourceHash = hash

			if err := db.UpsertLevel(ctx, *input); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
				continue
			}
			logger.V(1).Info("catalogued level", "set", set.Name, "file", path, "issues", len(input.Issues))
			result.LevelsUpserted++
		}
	}

	for _, set := range cfg.Sets {
		deleted, err := db.RemoveStaleLevels(ctx, set.Name, setFiles[set.Name])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("removing stale levels for %s: %w", set.Name, err))
			continue
		}
		result.LevelsRemoved += int(deleted)
	}

	return result, nil
}

// Describe loads the level at path with the configured features and
// summarises it for the store. Set and SourceHash are left empty.
func Describe(ctx context.Context, cfg *config.ProjectConfig, path string) (*store.LevelInput, error) {
	level, err := beatmap.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	// registries seal on load, so each level gets its own
	registry, err := features.NewRegistry(cfg.Features.Disabled...)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}
	root := scene.NewRoot()
	root.Build(cfg.Playback.Environment...)

	res, err := registry.Load(ctx, level, deserialize.LoadOptions{
		LeftHanded: cfg.Playback.LeftHanded,
		Root:       root,
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	defer res.Tracks.Close()
	defer res.Points.Close()

	input := &store.LevelInput{
		SourceFile:   path,
		Version:      level.Version,
		Legacy:       level.Legacy,
		Objects:      len(level.Objects),
		Events:       len(level.Events),
		CustomEvents: len(level.CustomEvents),
	}

	for _, name := range res.Tracks.Names() {
		t, _ := res.Tracks.Get(name)
		input.Tracks = append(input.Tracks, store.Track{Name: name, Members: t.Len()})
	}

	for _, name := range res.Points.Names() {
		def, _ := res.Points.Get(name)
		points, err := def.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encoding point definition %s in %s: %w", name, path, err)
		}
		start, end := def.Duration()
		input.PointDefinitions = append(input.PointDefinitions, store.PointDefinition{
			Name:      name,
			Width:     def.Width(),
			Keyframes: len(def.Points()),
			Duration:  end - start,
			Points:    points,
		})
	}

	input.Parents = parentEdges(res)

	for _, issue := range res.Report.Issues {
		input.Issues = append(input.Issues, store.Issue{
			Deserializer: issue.Deserializer,
			Kind:         string(issue.Kind),
			Index:        issue.Index,
			Message:      issue.Err.Error(),
		})
	}

	return input, nil
}

func parentEdges(res *deserialize.Result) []store.ParentEdge {
	data, ok := res.Bindings.Get(parent.ID)
	if !ok {
		return nil
	}
	var edges []store.ParentEdge
	for _, ev := range res.CustomEvents {
		payload, ok := deserialize.Resolve[parent.TrackData](data, ev)
		if !ok {
			continue
		}
		for _, child := range payload.ChildNames {
			edges = append(edges, store.ParentEdge{
				Parent:             payload.ParentName,
				Child:              child,
				Beat:               ev.Time,
				WorldPositionStays: payload.WorldPositionStays,
			})
		}
	}
	return edges
}

func walkLevelFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !levelExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

package store

import "context"

// Store is the level catalog. Every row belongs to one level file; upserting a
// level replaces everything previously recorded for it.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertLevel(ctx context.Context, level LevelInput) error
	RemoveStaleLevels(ctx context.Context, set string, currentSourceFiles []string) (int64, error)
	GetSetHashes(ctx context.Context, set string) (map[string]string, error)

	ListLevels(ctx context.Context, set string) ([]LevelSummary, error)
	GetLevel(ctx context.Context, sourceFile string) (*Level, error)
	ListTracks(ctx context.Context, sourceFile string) ([]Track, error)
	GetPointDefinition(ctx context.Context, sourceFile, name string) (*PointDefinition, error)
	ListParents(ctx context.Context, sourceFile string) ([]ParentEdge, error)
	ListIssues(ctx context.Context, sourceFile string) ([]Issue, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

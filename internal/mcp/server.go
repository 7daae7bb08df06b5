// Package mcp exposes the level catalog as Model Context Protocol tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"trackkit/internal/store"
)

// Querier is the read side of store.Store.
type Querier interface {
	ListLevels(ctx context.Context, set string) ([]store.LevelSummary, error)
	GetLevel(ctx context.Context, sourceFile string) (*store.Level, error)
	ListTracks(ctx context.Context, sourceFile string) ([]store.Track, error)
	GetPointDefinition(ctx context.Context, sourceFile, name string) (*store.PointDefinition, error)
	ListParents(ctx context.Context, sourceFile string) ([]store.ParentEdge, error)
	ListIssues(ctx context.Context, sourceFile string) ([]store.Issue, error)
}

type Server struct {
	db  Querier
	mcp *sdk.Server
}

func NewServer(db Querier, version string) *Server {
	s := &Server{
		db: db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "trackkit",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

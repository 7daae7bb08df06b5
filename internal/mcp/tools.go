package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"trackkit/internal/animation"
	"trackkit/internal/pointdef"
	"trackkit/internal/store"
	"trackkit/internal/track"
)

type ListLevelsInput struct {
	Set string `json:"set,omitempty" jsonschema:"restrict to a level set"`
}

type LevelInput struct {
	SourceFile string `json:"source_file" jsonschema:"level file path as catalogued"`
}

type EvaluatePointInput struct {
	SourceFile string  `json:"source_file" jsonschema:"level file path as catalogued"`
	Name       string  `json:"name" jsonschema:"point definition name"`
	Kind       string  `json:"kind,omitempty" jsonschema:"float, vector3, vector4 or quaternion; derived from the width when empty"`
	Time       float64 `json:"t" jsonschema:"normalized time to sample at"`
}

type LevelSummaryOutput struct {
	Set        string `json:"set"`
	SourceFile string `json:"source_file"`
	Version    string `json:"version"`
	Legacy     bool   `json:"legacy"`
	Tracks     int    `json:"tracks"`
	Issues     int    `json:"issues"`
}

type ListLevelsOutput struct {
	Levels []LevelSummaryOutput `json:"levels"`
}

type IssueOutput struct {
	Deserializer string `json:"deserializer"`
	Kind         string `json:"kind"`
	Index        int    `json:"index"`
	Message      string `json:"message"`
}

type LevelOutput struct {
	Set          string        `json:"set"`
	SourceFile   string        `json:"source_file"`
	SourceHash   string        `json:"source_hash"`
	Version      string        `json:"version"`
	Legacy       bool          `json:"legacy"`
	Objects      int           `json:"objects"`
	Events       int           `json:"events"`
	CustomEvents int           `json:"custom_events"`
	LastIngested string        `json:"last_ingested"`
	Issues       []IssueOutput `json:"issues"`
}

type TrackOutput struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

type ListTracksOutput struct {
	Tracks []TrackOutput `json:"tracks"`
}

type ParentOutput struct {
	Parent             string  `json:"parent"`
	Child              string  `json:"child"`
	Beat               float64 `json:"beat"`
	WorldPositionStays bool    `json:"world_position_stays"`
}

type GetParentsOutput struct {
	Parents []ParentOutput `json:"parents"`
}

type ListIssuesOutput struct {
	Issues []IssueOutput `json:"issues"`
}

type EvaluatePointOutput struct {
	Name   string    `json:"name"`
	Kind   string    `json:"kind"`
	Time   float64   `json:"t"`
	Values []float64 `json:"values"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_levels",
		Description: "List catalogued levels with track and issue counts",
	}, s.handleListLevels)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_level",
		Description: "Retrieve a catalogued level and its load issues",
	}, s.handleGetLevel)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_tracks",
		Description: "List the tracks of a level and how many objects each holds",
	}, s.handleListTracks)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_parents",
		Description: "List the parent assignments of a level",
	}, s.handleGetParents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_issues",
		Description: "List load issues, for one level or for the whole catalog",
	}, s.handleListIssues)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "evaluate_point",
		Description: "Sample a stored point definition at a normalized time",
	}, s.handleEvaluatePoint)
}

func (s *Server) handleListLevels(ctx context.Context, req *sdk.CallToolRequest, input ListLevelsInput) (*sdk.CallToolResult, ListLevelsOutput, error) {
	levels, err := s.db.ListLevels(ctx, input.Set)
	if err != nil {
		return nil, ListLevelsOutput{}, err
	}

	output := make([]LevelSummaryOutput, 0, len(levels))
	for _, l := range levels {
		output = append(output, LevelSummaryOutput(l))
	}
	return nil, ListLevelsOutput{Levels: output}, nil
}

func (s *Server) handleGetLevel(ctx context.Context, req *sdk.CallToolRequest, input LevelInput) (*sdk.CallToolResult, LevelOutput, error) {
	if input.SourceFile == "" {
		return nil, LevelOutput{}, fmt.Errorf("source_file is required")
	}
	level, err := s.db.GetLevel(ctx, input.SourceFile)
	if err != nil {
		return nil, LevelOutput{}, err
	}
	if level == nil {
		return nil, LevelOutput{}, fmt.Errorf("level not found")
	}
	issues, err := s.db.ListIssues(ctx, input.SourceFile)
	if err != nil {
		return nil, LevelOutput{}, err
	}

	return nil, LevelOutput{
		Set:          level.Set,
		SourceFile:   level.SourceFile,
		SourceHash:   level.SourceHash,
		Version:      level.Version,
		Legacy:       level.Legacy,
		Objects:      level.Objects,
		Events:       level.Events,
		CustomEvents: level.CustomEvents,
		LastIngested: level.LastIngested,
		Issues:       issueOutputs(issues),
	}, nil
}

func (s *Server) handleListTracks(ctx context.Context, req *sdk.CallToolRequest, input LevelInput) (*sdk.CallToolResult, ListTracksOutput, error) {
	if input.SourceFile == "" {
		return nil, ListTracksOutput{}, fmt.Errorf("source_file is required")
	}
	tracks, err := s.db.ListTracks(ctx, input.SourceFile)
	if err != nil {
		return nil, ListTracksOutput{}, err
	}

	output := make([]TrackOutput, 0, len(tracks))
	for _, t := range tracks {
		output = append(output, TrackOutput(t))
	}
	return nil, ListTracksOutput{Tracks: output}, nil
}

func (s *Server) handleGetParents(ctx context.Context, req *sdk.CallToolRequest, input LevelInput) (*sdk.CallToolResult, GetParentsOutput, error) {
	if input.SourceFile == "" {
		return nil, GetParentsOutput{}, fmt.Errorf("source_file is required")
	}
	edges, err := s.db.ListParents(ctx, input.SourceFile)
	if err != nil {
		return nil, GetParentsOutput{}, err
	}

	output := make([]ParentOutput, 0, len(edges))
	for _, e := range edges {
		output = append(output, ParentOutput(e))
	}
	return nil, GetParentsOutput{Parents: output}, nil
}

func (s *Server) handleListIssues(ctx context.Context, req *sdk.CallToolRequest, input LevelInput) (*sdk.CallToolResult, ListIssuesOutput, error) {
	issues, err := s.db.ListIssues(ctx, input.SourceFile)
	if err != nil {
		return nil, ListIssuesOutput{}, err
	}
	return nil, ListIssuesOutput{Issues: issueOutputs(issues)}, nil
}

func (s *Server) handleEvaluatePoint(ctx context.Context, req *sdk.CallToolRequest, input EvaluatePointInput) (*sdk.CallToolResult, EvaluatePointOutput, error) {
	if input.SourceFile == "" || input.Name == "" {
		return nil, EvaluatePointOutput{}, fmt.Errorf("source_file and name are required")
	}
	stored, err := s.db.GetPointDefinition(ctx, input.SourceFile, input.Name)
	if err != nil {
		return nil, EvaluatePointOutput{}, err
	}
	if stored == nil {
		return nil, EvaluatePointOutput{}, fmt.Errorf("point definition not found")
	}

	var raw any
	if err := json.Unmarshal(stored.Points, &raw); err != nil {
		return nil, EvaluatePointOutput{}, fmt.Errorf("decoding stored points: %w", err)
	}
	def, err := pointdef.Parse(raw)
	if err != nil {
		return nil, EvaluatePointOutput{}, fmt.Errorf("parsing stored points: %w", err)
	}

	kind, err := kindFor(input.Kind, def)
	if err != nil {
		return nil, EvaluatePointOutput{}, err
	}
	if !animation.Fits(def, kind) {
		return nil, EvaluatePointOutput{}, fmt.Errorf("a %d-wide definition cannot be read as %s", def.Width(), kind)
	}

	return nil, EvaluatePointOutput{
		Name:   input.Name,
		Kind:   kind.String(),
		Time:   input.Time,
		Values: components(animation.Evaluate(def, kind, input.Time)),
	}, nil
}

func kindFor(name string, def *pointdef.Definition) (track.Kind, error) {
	if name != "" {
		return track.ParseKind(name)
	}
	switch def.Width() {
	case 1:
		return track.KindFloat, nil
	case 3:
		return track.KindVector3, nil
	default:
		return track.KindVector4, nil
	}
}

func components(v track.Value) []float64 {
	switch v.Kind {
	case track.KindVector3:
		return v.Vector3[:]
	case track.KindVector4:
		return v.Vector4[:]
	case track.KindQuaternion:
		q := v.Quaternion
		return []float64{q.V[0], q.V[1], q.V[2], q.W}
	default:
		return []float64{v.Float}
	}
}

func issueOutputs(issues []store.Issue) []IssueOutput {
	output := make([]IssueOutput, 0, len(issues))
	for _, i := range issues {
		output = append(output, IssueOutput(i))
	}
	return output
}

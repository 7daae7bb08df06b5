package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trackkit/internal/store"
)

func (c *Client) ListTracks(ctx context.Context, sourceFile string) ([]store.Track, error) {
	query := `
SELECT t.name, t.members
FROM tracks t
JOIN levels l ON l.id = t.level_id
WHERE l.source_file = $1
ORDER BY t.name
`

	rows, err := c.pool.Query(ctx, query, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]store.Track, 0)
	for rows.Next() {
		var t store.Track
		if err := rows.Scan(&t.Name, &t.Members); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracks: %w", err)
	}

	return tracks, nil
}

func (c *Client) GetPointDefinition(ctx context.Context, sourceFile, name string) (*store.PointDefinition, error) {
	query := `
SELECT p.name, p.width, p.keyframes, p.duration, p.points
FROM point_definitions p
JOIN levels l ON l.id = p.level_id
WHERE l.source_file = $1 AND p.name = $2
`

	var p store.PointDefinition
	var points []byte
	err := c.pool.QueryRow(ctx, query, sourceFile, name).Scan(&p.Name, &p.Width, &p.Keyframes, &p.Duration, &points)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting point definition: %w", err)
	}
	p.Points = json.RawMessage(points)
	return &p, nil
}

func (c *Client) ListParents(ctx context.Context, sourceFile string) ([]store.ParentEdge, error) {
	query := `
SELECT p.parent, p.child, p.beat, p.world_position_stays
FROM track_parents p
JOIN levels l ON l.id = p.level_id
WHERE l.source_file = $1
ORDER BY p.id
`

	rows, err := c.pool.Query(ctx, query, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("listing parents: %w", err)
	}
	defer rows.Close()

	edges := make([]store.ParentEdge, 0)
	for rows.Next() {
		var e store.ParentEdge
		if err := rows.Scan(&e.Parent, &e.Child, &e.Beat, &e.WorldPositionStays); err != nil {
			return nil, fmt.Errorf("scanning parent edge: %w", err)
		}
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parent edges: %w", err)
	}

	return edges, nil
}

func (c *Client) ListIssues(ctx context.Context, sourceFile string) ([]store.Issue, error) {
	query := `
SELECT i.deserializer, i.kind, i.item_index, i.message
FROM issues i
JOIN levels l ON l.id = i.level_id
WHERE ($1 = '' OR l.source_file = $1)
ORDER BY l.source_file, i.id
`

	rows, err := c.pool.Query(ctx, query, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer rows.Close()

	issues := make([]store.Issue, 0)
	for rows.Next() {
		var i store.Issue
		if err := rows.Scan(&i.Deserializer, &i.Kind, &i.Index, &i.Message); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		issues = append(issues, i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}

	return issues, nil
}

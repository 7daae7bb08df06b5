package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trackkit/internal/store"
)

func (c *Client) UpsertLevel(ctx context.Context, l store.LevelInput) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO levels (set_name, source_file, source_hash, version, legacy, objects, events, custom_events, last_ingested)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (source_file) DO UPDATE SET
    set_name = EXCLUDED.set_name,
    source_hash = EXCLUDED.source_hash,
    version = EXCLUDED.version,
    legacy = EXCLUDED.legacy,
    objects = EXCLUDED.objects,
    events = EXCLUDED.events,
    custom_events = EXCLUDED.custom_events,
    last_ingested = now()
RETURNING id
`

	var levelID int64
	err = tx.QueryRow(ctx, query,
		l.Set,
		l.SourceFile,
		l.SourceHash,
		l.Version,
		l.Legacy,
		l.Objects,
		l.Events,
		l.CustomEvents,
	).Scan(&levelID)
	if err != nil {
		return fmt.Errorf("upserting level: %w", err)
	}

	batch := &pgx.Batch{}
	for _, table := range []string{"tracks", "point_definitions", "track_parents", "issues"} {
		batch.Queue("DELETE FROM "+table+" WHERE level_id = $1", levelID)
	}
	for _, t := range l.Tracks {
		batch.Queue("INSERT INTO tracks (level_id, name, members) VALUES ($1, $2, $3)", levelID, t.Name, t.Members)
	}
	for _, p := range l.PointDefinitions {
		batch.Queue(
			"INSERT INTO point_definitions (level_id, name, width, keyframes, duration, points) VALUES ($1, $2, $3, $4, $5, $6)",
			levelID, p.Name, p.Width, p.Keyframes, p.Duration, []byte(p.Points),
		)
	}
	for _, e := range l.Parents {
		batch.Queue(
			"INSERT INTO track_parents (level_id, parent, child, beat, world_position_stays) VALUES ($1, $2, $3, $4, $5)",
			levelID, e.Parent, e.Child, e.Beat, e.WorldPositionStays,
		)
	}
	for _, i := range l.Issues {
		batch.Queue(
			"INSERT INTO issues (level_id, deserializer, kind, item_index, message) VALUES ($1, $2, $3, $4, $5)",
			levelID, i.Deserializer, i.Kind, i.Index, i.Message,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("writing level details: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing level: %w", err)
	}
	return nil
}

func (c *Client) GetLevel(ctx context.Context, sourceFile string) (*store.Level, error) {
	query := `
SELECT set_name, source_file, source_hash, version, legacy, objects, events, custom_events, last_ingested::text
FROM levels
WHERE source_file = $1
`

	var l store.Level
	err := c.pool.QueryRow(ctx, query, sourceFile).Scan(
		&l.Set,
		&l.SourceFile,
		&l.SourceHash,
		&l.Version,
		&l.Legacy,
		&l.Objects,
		&l.Events,
		&l.CustomEvents,
		&l.LastIngested,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting level: %w", err)
	}
	return &l, nil
}

func (c *Client) ListLevels(ctx context.Context, set string) ([]store.LevelSummary, error) {
	query := `
SELECT l.set_name, l.source_file, l.version, l.legacy,
    (SELECT COUNT(*) FROM tracks t WHERE t.level_id = l.id),
    (SELECT COUNT(*) FROM issues i WHERE i.level_id = l.id)
FROM levels l
WHERE ($1 = '' OR l.set_name = $1)
ORDER BY l.source_file
`

	rows, err := c.pool.Query(ctx, query, set)
	if err != nil {
		return nil, fmt.Errorf("listing levels: %w", err)
	}
	defer rows.Close()

	summaries := make([]store.LevelSummary, 0)
	for rows.Next() {
		var s store.LevelSummary
		if err := rows.Scan(&s.Set, &s.SourceFile, &s.Version, &s.Legacy, &s.Tracks, &s.Issues); err != nil {
			return nil, fmt.Errorf("scanning level summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating level summaries: %w", err)
	}

	return summaries, nil
}

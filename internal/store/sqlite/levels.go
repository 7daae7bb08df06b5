package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trackkit/internal/store"
)

func (c *Client) UpsertLevel(ctx context.Context, l store.LevelInput) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO levels (set_name, source_file, source_hash, version, legacy, objects, events, custom_events, last_ingested)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (source_file) DO UPDATE SET
		set_name = excluded.set_name,
		source_hash = excluded.source_hash,
		version = excluded.version,
		legacy = excluded.legacy,
		objects = excluded.objects,
		events = excluded.events,
		custom_events = excluded.custom_events,
		last_ingested = datetime('now')
	RETURNING id
	`

	var levelID int64
	err = tx.QueryRowContext(ctx, query,
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

	for _, table := range []string{"tracks", "point_definitions", "track_parents", "issues"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE level_id = ?", levelID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, t := range l.Tracks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tracks (level_id, name, members) VALUES (?, ?, ?)",
			levelID, t.Name, t.Members,
		); err != nil {
			return fmt.Errorf("inserting track %q: %w", t.Name, err)
		}
	}
	for _, p := range l.PointDefinitions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO point_definitions (level_id, name, width, keyframes, duration, points) VALUES (?, ?, ?, ?, ?, ?)",
			levelID, p.Name, p.Width, p.Keyframes, p.Duration, string(p.Points),
		); err != nil {
			return fmt.Errorf("inserting point definition %q: %w", p.Name, err)
		}
	}
	for _, e := range l.Parents {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO track_parents (level_id, parent, child, beat, world_position_stays) VALUES (?, ?, ?, ?, ?)",
			levelID, e.Parent, e.Child, e.Beat, e.WorldPositionStays,
		); err != nil {
			return fmt.Errorf("inserting parent edge %s -> %s: %w", e.Parent, e.Child, err)
		}
	}
	for _, i := range l.Issues {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO issues (level_id, deserializer, kind, item_index, message) VALUES (?, ?, ?, ?, ?)",
			levelID, i.Deserializer, i.Kind, i.Index, i.Message,
		); err != nil {
			return fmt.Errorf("inserting issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing level: %w", err)
	}
	return nil
}

func (c *Client) GetLevel(ctx context.Context, sourceFile string) (*store.Level, error) {
	query := `
	SELECT set_name, source_file, source_hash, version, legacy, objects, events, custom_events, last_ingested
	FROM levels
	WHERE source_file = ?
	`

	var l store.Level
	err := c.db.QueryRowContext(ctx, query, sourceFile).Scan(
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
	if errors.Is(err, sql.ErrNoRows) {
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
	WHERE (? = '' OR l.set_name = ?)
	ORDER BY l.source_file
	`

	rows, err := c.db.QueryContext(ctx, query, set, set)
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

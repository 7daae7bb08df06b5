package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS levels (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	set_name      TEXT NOT NULL,
	source_file   TEXT NOT NULL,
	source_hash   TEXT NOT NULL,
	version       TEXT NOT NULL,
	legacy        INTEGER DEFAULT 0,
	objects       INTEGER DEFAULT 0,
	events        INTEGER DEFAULT 0,
	custom_events INTEGER DEFAULT 0,
	last_ingested TEXT DEFAULT (datetime('now')),
	CONSTRAINT uq_level_source UNIQUE (source_file)
);

CREATE TABLE IF NOT EXISTS tracks (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	level_id INTEGER NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
	name     TEXT NOT NULL,
	members  INTEGER DEFAULT 0,
	CONSTRAINT uq_track UNIQUE (level_id, name)
);

CREATE TABLE IF NOT EXISTS point_definitions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	level_id  INTEGER NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
	name      TEXT NOT NULL,
	width     INTEGER NOT NULL,
	keyframes INTEGER NOT NULL,
	duration  REAL DEFAULT 0,
	points    TEXT NOT NULL,
	CONSTRAINT uq_point_definition UNIQUE (level_id, name)
);

CREATE TABLE IF NOT EXISTS track_parents (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	level_id             INTEGER NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
	parent               TEXT NOT NULL,
	child                TEXT NOT NULL,
	beat                 REAL DEFAULT 0,
	world_position_stays INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS issues (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	level_id     INTEGER NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
	deserializer TEXT NOT NULL,
	kind         TEXT NOT NULL,
	item_index   INTEGER NOT NULL,
	message      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_levels_set ON levels (set_name);
CREATE INDEX IF NOT EXISTS idx_tracks_level ON tracks (level_id);
CREATE INDEX IF NOT EXISTS idx_point_definitions_level ON point_definitions (level_id);
CREATE INDEX IF NOT EXISTS idx_track_parents_level ON track_parents (level_id);
CREATE INDEX IF NOT EXISTS idx_track_parents_parent ON track_parents (parent);
CREATE INDEX IF NOT EXISTS idx_issues_level ON issues (level_id);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// splitStatements breaks ddl on lines ending in a semicolon and drops
// comment lines.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}

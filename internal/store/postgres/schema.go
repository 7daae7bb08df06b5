package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema runs the DDL as one multi-statement call, which PostgreSQL
// executes in an implicit transaction.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS levels (
    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    set_name      TEXT NOT NULL,
    source_file   TEXT NOT NULL,
    source_hash   TEXT NOT NULL,
    version       TEXT NOT NULL,
    legacy        BOOLEAN DEFAULT FALSE,
    objects       INTEGER DEFAULT 0,
    events        INTEGER DEFAULT 0,
    custom_events INTEGER DEFAULT 0,
    last_ingested TIMESTAMPTZ DEFAULT now(),
    CONSTRAINT uq_level_source UNIQUE (source_file)
);

CREATE TABLE IF NOT EXISTS tracks (
    id       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    level_id BIGINT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
    name     TEXT NOT NULL,
    members  INTEGER DEFAULT 0,
    CONSTRAINT uq_track UNIQUE (level_id, name)
);

CREATE TABLE IF NOT EXISTS point_definitions (
    id        BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    level_id  BIGINT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
    name      TEXT NOT NULL,
    width     INTEGER NOT NULL,
    keyframes INTEGER NOT NULL,
    duration  DOUBLE PRECISION DEFAULT 0,
    points    JSONB NOT NULL,
    CONSTRAINT uq_point_definition UNIQUE (level_id, name)
);

CREATE TABLE IF NOT EXISTS track_parents (
    id                   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    level_id             BIGINT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
    parent               TEXT NOT NULL,
    child                TEXT NOT NULL,
    beat                 DOUBLE PRECISION DEFAULT 0,
    world_position_stays BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS issues (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    level_id     BIGINT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
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
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

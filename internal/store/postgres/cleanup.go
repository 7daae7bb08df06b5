package postgres

import (
	"context"
	"fmt"
)

// RemoveStaleLevels deletes the levels of set whose files are no longer
// present. An empty file list empties the set.
func (c *Client) RemoveStaleLevels(ctx context.Context, set string, currentSourceFiles []string) (int64, error) {
	if currentSourceFiles == nil {
		currentSourceFiles = []string{}
	}
	query := `
DELETE FROM levels
WHERE set_name = $1
  AND NOT (source_file = ANY($2))
`

	tag, err := c.pool.Exec(ctx, query, set, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale levels: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetSetHashes(ctx context.Context, set string) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, "SELECT source_file, source_hash FROM levels WHERE set_name = $1", set)
	if err != nil {
		return nil, fmt.Errorf("query set hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning set hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating set hashes: %w", err)
	}

	return hashes, nil
}

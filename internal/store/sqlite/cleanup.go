package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// RemoveStaleLevels deletes the levels of set whose files are no longer
// present. An empty file list empties the set.
func (c *Client) RemoveStaleLevels(ctx context.Context, set string, currentSourceFiles []string) (int64, error) {
	if len(currentSourceFiles) == 0 {
		return c.exec(ctx, "DELETE FROM levels WHERE set_name = ?", set)
	}

	placeholders := make([]string, len(currentSourceFiles))
	args := make([]any, len(currentSourceFiles)+1)
	args[0] = set
	for i, f := range currentSourceFiles {
		placeholders[i] = "?"
		args[i+1] = f
	}

	query := fmt.Sprintf(`
	DELETE FROM levels
	WHERE set_name = ?
	  AND source_file NOT IN (%s)
	`, strings.Join(placeholders, ", "))

	return c.exec(ctx, query, args...)
}

func (c *Client) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale levels: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return affected, nil
}

func (c *Client) GetSetHashes(ctx context.Context, set string) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT source_file, source_hash FROM levels WHERE set_name = ?", set)
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

package db

import (
	"context"
	"fmt"
)

// Metadata keys written when a load completes.
const (
	MetaSchemaVersion    = "schema_version"
	MetaRelease          = "release"
	MetaSource           = "source"
	MetaLoadID           = "load_id"
	MetaLoadedAt         = "loaded_at"
	MetaEntryCount       = "entry_count"
	MetaDroppedRelations = "dropped_relations"
	MetaStatus           = "status"

	StatusComplete = "complete"
)

// SetMetadata writes or replaces one metadata value.
func SetMetadata(ctx context.Context, db DBExecutor, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// AllMetadata returns every metadata pair.
func AllMetadata(ctx context.Context, db DBExecutor) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM metadata ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

package cache

import (
	"database/sql"

	"github.com/japaniel/oewn/pkg/dictionary"
)

// Store is an open, read-only store. Lookup, Random and Metadata come from
// the embedded Engine.
type Store struct {
	Path string
	DB   *sql.DB
	*dictionary.Engine
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

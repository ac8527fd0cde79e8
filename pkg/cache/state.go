package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/japaniel/oewn/pkg/db"
)

// State describes the store at the cache path.
type State int

const (
	// Absent means no store file exists.
	Absent State = iota
	// Stale means a file exists but is unreadable, incomplete or stamped
	// with another schema version or release.
	Stale
	// Valid means the store can be queried as is.
	Valid
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Stale:
		return "stale"
	case Valid:
		return "valid"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// State inspects the store without parsing any source data. An error is
// returned only when the path itself cannot be examined.
func (m *Manager) State(ctx context.Context) (State, error) {
	st, reason, err := m.inspect(ctx)
	if err != nil {
		return st, err
	}
	if st == Stale {
		m.log().Info("cache is stale", zap.String("path", m.path), zap.String("reason", reason))
	}
	return st, nil
}

func (m *Manager) inspect(ctx context.Context) (State, string, error) {
	info, err := os.Stat(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Absent, "", nil
	}
	if err != nil {
		return Absent, "", fmt.Errorf("stat %s: %w", m.path, err)
	}
	if !info.Mode().IsRegular() {
		return Stale, "not a regular file", nil
	}

	conn, err := db.OpenReadOnly(ctx, m.path)
	if err != nil {
		return Stale, err.Error(), nil
	}
	defer conn.Close()

	meta, err := db.AllMetadata(ctx, conn)
	if err != nil {
		return Stale, err.Error(), nil
	}
	switch {
	case meta[db.MetaStatus] != db.StatusComplete:
		return Stale, "load did not complete", nil
	case meta[db.MetaSchemaVersion] != db.SchemaVersion:
		return Stale, fmt.Sprintf("schema version %q, want %q", meta[db.MetaSchemaVersion], db.SchemaVersion), nil
	case meta[db.MetaRelease] != m.cfg.Source.Release:
		return Stale, fmt.Sprintf("release %q, want %q", meta[db.MetaRelease], m.cfg.Source.Release), nil
	}
	return Valid, "", nil
}

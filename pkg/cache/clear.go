package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/japaniel/oewn/pkg/wnerr"
)

// siblings are the files SQLite may leave next to a store.
var siblings = []string{"", "-journal", "-wal", "-shm"}

// Clear removes the store at path and its SQLite side files. Clearing an
// absent store is not an error.
func Clear(path string) error {
	var errs []error
	for _, s := range siblings {
		if err := os.Remove(path + s); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return wnerr.Load("clear", err)
	}
	return nil
}

// Clear removes the managed store while holding the reload lock, so it never
// races a rebuild in another process.
func (m *Manager) Clear(ctx context.Context) error {
	unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := Clear(m.path); err != nil {
		return err
	}
	m.log().Info("cache cleared", zap.String("path", m.path))
	return nil
}

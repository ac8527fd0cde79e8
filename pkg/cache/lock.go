package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/japaniel/oewn/pkg/wnerr"
)

const lockRetry = 250 * time.Millisecond

// lock takes the advisory lock guarding reloads of m.path. It waits up to
// the configured lock timeout for another process to finish.
func (m *Manager) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return nil, wnerr.Load("create cache dir", err)
	}

	if d := m.cfg.Store.LockTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	fl := flock.New(m.path + ".lock")
	locked, err := fl.TryLock()
	if err == nil && !locked {
		m.log().Info("waiting for another reload to finish", zap.String("lock", fl.Path()))
		locked, err = fl.TryLockContext(ctx, lockRetry)
	}
	if err != nil {
		return nil, wnerr.Load("acquire reload lock", err)
	}
	if !locked {
		return nil, wnerr.Load("acquire reload lock", fmt.Errorf("%s is held by another process", fl.Path()))
	}
	return func() { _ = fl.Unlock() }, nil
}

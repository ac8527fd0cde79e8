package cache

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/oewn/internal/testfixture"
	"github.com/japaniel/oewn/pkg/config"
	"github.com/japaniel/oewn/pkg/db"
	"github.com/japaniel/oewn/pkg/ingest"
	"github.com/japaniel/oewn/pkg/progress"
	"github.com/japaniel/oewn/pkg/wnerr"
)

type countingFetcher struct {
	Fetcher
	calls atomic.Int32
}

func (c *countingFetcher) Scoped(ctx context.Context, source, parent string, sink progress.Sink, fn func(string) error) error {
	c.calls.Add(1)
	return c.Fetcher.Scoped(ctx, source, parent, sink, fn)
}

// newTestManager returns a manager whose source is a gzip of doc on disk.
func newTestManager(t *testing.T, doc []byte) (*Manager, *countingFetcher) {
	t.Helper()
	src := filepath.Join(t.TempDir(), "english-wordnet.xml.gz")
	require.NoError(t, os.WriteFile(src, testfixture.GzipBytes(t, doc), 0o644))

	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "oewn.db")
	cfg.Store.LockTimeout = 30 * time.Second
	cfg.Source.URL = src
	cfg.Source.ProgressInterval = 0

	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	cf := &countingFetcher{Fetcher: m.Fetcher}
	m.Fetcher = cf
	return m, cf
}

func loadID(t *testing.T, s *Store) string {
	t.Helper()
	meta, err := s.Metadata(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, meta[db.MetaLoadID])
	return meta[db.MetaLoadID]
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	m, fetches := newTestManager(t, []byte(testfixture.LMF))

	st, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Absent, st)

	s, err := m.ResolveOrBuild(ctx, false)
	require.NoError(t, err)
	res, err := s.Lookup(ctx, "run", "")
	require.NoError(t, err)
	assert.Len(t, res, 2)
	meta, err := s.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.StatusComplete, meta[db.MetaStatus])
	assert.Equal(t, "10", meta[db.MetaEntryCount])
	assert.Equal(t, "2", meta[db.MetaDroppedRelations])
	assert.Equal(t, config.DefaultRelease, meta[db.MetaRelease])
	require.NoError(t, s.Close())
	assert.EqualValues(t, 1, fetches.calls.Load())

	st, err = m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Valid, st)
	assert.Equal(t, []string{"oewn.db", "oewn.db.lock"}, dirNames(t, filepath.Dir(m.Path())))

	// A valid store is reused without fetching.
	s, err = m.ResolveOrBuild(ctx, false)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.EqualValues(t, 1, fetches.calls.Load())

	require.NoError(t, m.Clear(ctx))
	require.NoError(t, m.Clear(ctx), "clearing an absent store is not an error")
	st, err = m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Absent, st)

	s, err = m.ResolveOrBuild(ctx, false)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.EqualValues(t, 2, fetches.calls.Load())
}

func TestForceReload(t *testing.T) {
	ctx := context.Background()
	m, fetches := newTestManager(t, []byte(testfixture.LMF))

	s, err := m.ResolveOrBuild(ctx, false)
	require.NoError(t, err)
	first := loadID(t, s)
	require.NoError(t, s.Close())

	s, err = m.ResolveOrBuild(ctx, true)
	require.NoError(t, err)
	defer s.Close()
	assert.NotEqual(t, first, loadID(t, s))
	assert.EqualValues(t, 2, fetches.calls.Load())
}

func TestStaleStoreIsRebuilt(t *testing.T) {
	ctx := context.Background()
	m, fetches := newTestManager(t, []byte(testfixture.LMF))

	_, err := m.Rebuild(ctx)
	require.NoError(t, err)

	conn, err := db.OpenBuild(m.Path())
	require.NoError(t, err)
	require.NoError(t, db.SetMetadata(ctx, conn, db.MetaSchemaVersion, "0"))
	require.NoError(t, conn.Close())

	st, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stale, st)

	s, err := m.ResolveOrBuild(ctx, false)
	require.NoError(t, err)
	defer s.Close()
	assert.EqualValues(t, 2, fetches.calls.Load())

	st, err = m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Valid, st)
}

func TestReleaseMismatchIsStale(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, []byte(testfixture.LMF))
	_, err := m.Rebuild(ctx)
	require.NoError(t, err)

	m.cfg.Source.Release = "2099"
	st, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stale, st)
}

func TestGarbageFileIsStale(t *testing.T) {
	m, _ := newTestManager(t, []byte(testfixture.LMF))
	require.NoError(t, os.WriteFile(m.Path(), []byte("not a database"), 0o644))

	st, err := m.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stale, st)
}

func TestFailedReloadKeepsPreviousStore(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, []byte(testfixture.LMF))

	s, err := m.ResolveOrBuild(ctx, false)
	require.NoError(t, err)
	before := loadID(t, s)
	require.NoError(t, s.Close())

	injected := errors.New("injected failure")
	var readDuringBuild int
	m.LoaderFactory = func(conn *sql.DB) *ingest.Loader {
		l := m.DefaultLoader(conn)
		l.BeforeResolve = func(ctx context.Context) error {
			// Rows are staged in the new file; readers still see the old one.
			old, err := m.Open(ctx)
			if err != nil {
				return err
			}
			defer old.Close()
			res, err := old.Lookup(ctx, "run", "")
			if err != nil {
				return err
			}
			readDuringBuild = len(res)
			return injected
		}
		return l
	}

	_, err = m.ResolveOrBuild(ctx, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, injected)
	assert.True(t, wnerr.Is(err, wnerr.KindLoad))
	assert.Equal(t, 2, readDuringBuild)

	st, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Valid, st)

	s, err = m.Open(ctx)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, before, loadID(t, s))
	res, err := s.Lookup(ctx, "dog", "")
	require.NoError(t, err)
	assert.Len(t, res, 1)

	assert.Equal(t, []string{"oewn.db", "oewn.db.lock"}, dirNames(t, filepath.Dir(m.Path())))
}

func TestFailedFirstBuildLeavesNoStore(t *testing.T) {
	ctx := context.Background()
	doc := []byte(testfixture.LMF)
	m, _ := newTestManager(t, doc[:len(doc)/2])

	_, err := m.ResolveOrBuild(ctx, false)
	require.Error(t, err)
	assert.True(t, wnerr.Is(err, wnerr.KindParse), "got %v", err)

	st, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Absent, st)
	assert.Equal(t, []string{"oewn.db.lock"}, dirNames(t, filepath.Dir(m.Path())))
}

func TestConcurrentResolveBuildsOnce(t *testing.T) {
	ctx := context.Background()
	m, fetches := newTestManager(t, []byte(testfixture.LMF))

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.ResolveOrBuild(ctx, false)
			if err == nil {
				_, err = s.Lookup(ctx, "hot", "")
				s.Close()
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, fetches.calls.Load())
}

func TestProgressCoversEveryPhase(t *testing.T) {
	m, _ := newTestManager(t, []byte(testfixture.LMF))

	var mu sync.Mutex
	seen := map[progress.Phase]bool{}
	m.Progress = func(u progress.Update) {
		mu.Lock()
		seen[u.Phase] = true
		mu.Unlock()
	}

	rep, err := m.Rebuild(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, testfixture.Entries, rep.Stats.Entries)
	assert.Len(t, rep.Stats.Integrity.DroppedRelations, testfixture.DroppedRelations)

	for _, p := range []progress.Phase{progress.PhaseDownload, progress.PhaseExtract, progress.PhaseParse, progress.PhaseLoad, progress.PhaseResolve} {
		assert.True(t, seen[p], "no progress for %s", p)
	}
}

func TestClearRemovesSideFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oewn.db")
	for _, s := range []string{"", "-journal", "-wal", "-shm"} {
		require.NoError(t, os.WriteFile(path+s, []byte("x"), 0o644))
	}
	require.NoError(t, Clear(path))
	assert.Empty(t, dirNames(t, filepath.Dir(path)))
	require.NoError(t, Clear(path))
}

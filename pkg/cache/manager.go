// Package cache owns the on-disk store: it decides whether the store is
// usable, rebuilds it from the source archive when it is not, and swaps the
// rebuilt file into place atomically.
package cache

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/oewn/pkg/config"
	"github.com/japaniel/oewn/pkg/db"
	"github.com/japaniel/oewn/pkg/dictionary"
	"github.com/japaniel/oewn/pkg/fetch"
	"github.com/japaniel/oewn/pkg/ingest"
	"github.com/japaniel/oewn/pkg/lmf"
	"github.com/japaniel/oewn/pkg/logging"
	"github.com/japaniel/oewn/pkg/progress"
	"github.com/japaniel/oewn/pkg/wnerr"
)

// Fetcher produces the extracted XML for a source inside a scoped temporary
// directory. *fetch.Fetcher implements it.
type Fetcher interface {
	Scoped(ctx context.Context, source, parent string, sink progress.Sink, fn func(xmlPath string) error) error
}

// Manager coordinates the store at one path.
type Manager struct {
	cfg  config.Config
	path string

	Fetcher  Fetcher
	Logger   *zap.Logger
	Progress progress.Sink
	// LoaderFactory builds the loader for a new store. nil uses
	// DefaultLoader.
	LoaderFactory func(conn *sql.DB) *ingest.Loader
	// EngineOptions are passed to every Engine opened by the manager.
	EngineOptions []dictionary.Option
}

// Report summarizes a completed rebuild.
type Report struct {
	LoadID string
	Path   string
	Stats  ingest.Stats
	Took   time.Duration
}

// NewManager creates a Manager for the store cfg resolves to.
func NewManager(cfg config.Config, logger *zap.Logger) (*Manager, error) {
	path, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, err
	}
	f := fetch.New(cfg.Source.Timeout, cfg.Source.Member)
	f.ProgressInterval = cfg.Source.ProgressInterval
	f.Logger = logger
	return &Manager{cfg: cfg, path: path, Fetcher: f, Logger: logger}, nil
}

// Path returns the canonical store path.
func (m *Manager) Path() string { return m.path }

func (m *Manager) log() *zap.Logger { return logging.OrNop(m.Logger) }

// DefaultLoader returns a loader tuned from the manager's configuration.
func (m *Manager) DefaultLoader(conn *sql.DB) *ingest.Loader {
	l := ingest.NewLoader(conn)
	if m.cfg.Load.BatchSize > 0 {
		l.BatchSize = m.cfg.Load.BatchSize
	}
	l.Logger = m.Logger
	l.OnProgress = m.Progress
	return l
}

// ResolveOrBuild returns an open store, rebuilding it first when it is
// absent, stale or forceReload is set. A failed rebuild leaves any previous
// store in place and returns the failure.
func (m *Manager) ResolveOrBuild(ctx context.Context, forceReload bool) (*Store, error) {
	if !forceReload {
		st, err := m.State(ctx)
		if err != nil {
			return nil, wnerr.Load("inspect cache", err)
		}
		if st == Valid {
			return m.Open(ctx)
		}
	}

	unlock, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Another process may have finished a build while we waited.
	if !forceReload {
		if st, err := m.State(ctx); err == nil && st == Valid {
			m.log().Info("cache built by another process", zap.String("path", m.path))
			return m.Open(ctx)
		}
	}

	if _, err := m.rebuild(ctx); err != nil {
		return nil, err
	}
	return m.Open(ctx)
}

// Rebuild fetches, parses and loads the source into a fresh store and swaps
// it into place, whatever the current state.
func (m *Manager) Rebuild(ctx context.Context) (Report, error) {
	unlock, err := m.lock(ctx)
	if err != nil {
		return Report{}, err
	}
	defer unlock()
	return m.rebuild(ctx)
}

// rebuild must be called with the reload lock held.
func (m *Manager) rebuild(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{LoadID: uuid.NewString(), Path: m.path}
	log := m.log().With(zap.String("load_id", rep.LoadID))
	dir := filepath.Dir(m.path)
	source := m.cfg.Source.URL

	log.Info("rebuilding cache", zap.String("source", source), zap.String("path", m.path))

	// The scoped directory lives next to the store so the final rename
	// stays on one filesystem.
	err := m.Fetcher.Scoped(ctx, source, dir, m.Progress, func(xmlPath string) error {
		tmp := filepath.Join(filepath.Dir(xmlPath), "build-"+rep.LoadID+".db")
		stats, err := m.build(ctx, xmlPath, tmp, rep.LoadID)
		if err != nil {
			return err
		}
		rep.Stats = stats

		if err := os.Rename(tmp, m.path); err != nil {
			return wnerr.Load("swap", fmt.Errorf("%w: %v", wnerr.ErrSwap, err))
		}
		syncDir(dir)
		return nil
	})
	if err != nil {
		log.Error("rebuild failed", zap.Error(err))
		return rep, err
	}

	rep.Took = time.Since(start)
	log.Info("cache rebuilt",
		zap.Int64("entries", rep.Stats.Entries),
		zap.Int64("synsets", rep.Stats.Synsets),
		zap.Int64("relations", rep.Stats.Relations),
		zap.Int("integrity_warnings", rep.Stats.Integrity.Total()),
		zap.Duration("took", rep.Took))
	return rep, nil
}

// build loads xmlPath into a new database at dest, stamps it and flushes it
// to disk. dest is closed when build returns.
func (m *Manager) build(ctx context.Context, xmlPath, dest, loadID string) (ingest.Stats, error) {
	f, err := os.Open(xmlPath)
	if err != nil {
		return ingest.Stats{}, wnerr.Parse("open payload", err)
	}
	defer f.Close()
	var size int64 = progress.Unknown
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	conn, err := db.OpenBuild(dest)
	if err != nil {
		return ingest.Stats{}, wnerr.Load("open build store", err)
	}
	defer conn.Close()

	loader := m.newLoader(conn)
	sink := progress.Throttle(m.Progress, m.cfg.Source.ProgressInterval)
	parser := lmf.NewParser(bufio.NewReaderSize(&parseProgress{r: f, sink: sink, total: size}, 1<<16))

	queue := m.cfg.Load.QueueSize
	if queue <= 0 {
		queue = 1024
	}
	items := make(chan ingest.Item, queue)

	var stats ingest.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ingest.Produce(gctx, parser, items)
	})
	g.Go(func() error {
		var err error
		stats, err = loader.Load(gctx, ingest.NewChannelSource(gctx, items))
		return err
	})
	if err := g.Wait(); err != nil {
		return stats, err
	}

	if err := m.stamp(ctx, conn, loadID, stats); err != nil {
		return stats, wnerr.Load("stamp metadata", err)
	}
	if err := conn.Close(); err != nil {
		return stats, wnerr.Load("close build store", err)
	}
	if err := syncFile(dest); err != nil {
		return stats, wnerr.Load("sync build store", err)
	}
	return stats, nil
}

func (m *Manager) newLoader(conn *sql.DB) *ingest.Loader {
	if m.LoaderFactory != nil {
		return m.LoaderFactory(conn)
	}
	return m.DefaultLoader(conn)
}

// stamp writes the completion metadata. The status key goes last so a
// store without it is never taken for complete.
func (m *Manager) stamp(ctx context.Context, conn *sql.DB, loadID string, st ingest.Stats) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	pairs := [][2]string{
		{db.MetaSchemaVersion, db.SchemaVersion},
		{db.MetaRelease, m.cfg.Source.Release},
		{db.MetaSource, m.cfg.Source.URL},
		{db.MetaLoadID, loadID},
		{db.MetaLoadedAt, time.Now().UTC().Format(time.RFC3339)},
		{db.MetaEntryCount, strconv.FormatInt(st.Entries, 10)},
		{db.MetaDroppedRelations, strconv.Itoa(len(st.Integrity.DroppedRelations))},
		{db.MetaStatus, db.StatusComplete},
	}
	for _, p := range pairs {
		if err := db.SetMetadata(ctx, tx, p[0], p[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Open opens the store read-only without checking its state.
func (m *Manager) Open(ctx context.Context) (*Store, error) {
	conn, err := db.OpenReadOnly(ctx, m.path)
	if err != nil {
		return nil, wnerr.Query("open store", err)
	}
	opts := append([]dictionary.Option{dictionary.WithLogger(m.Logger)}, m.EngineOptions...)
	return &Store{Path: m.path, DB: conn, Engine: dictionary.NewEngine(conn, opts...)}, nil
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// syncDir flushes a rename. Not every platform can open a directory, so
// failures are ignored.
func syncDir(dir string) {
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
}

// parseProgress reports bytes consumed by the parser.
type parseProgress struct {
	r     io.Reader
	sink  progress.Sink
	total int64
	n     int64
	calls int
}

func (p *parseProgress) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.n += int64(n)
	p.calls++
	if err == io.EOF || p.calls%64 == 0 {
		p.sink.Report(progress.Update{Phase: progress.PhaseParse, Current: p.n, Total: p.total})
	}
	return n, err
}

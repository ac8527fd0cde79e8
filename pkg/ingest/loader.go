package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/oewn/pkg/db"
	"github.com/japaniel/oewn/pkg/lmf"
	"github.com/japaniel/oewn/pkg/logging"
	"github.com/japaniel/oewn/pkg/progress"
	"github.com/japaniel/oewn/pkg/wnerr"
)

// RecordSource yields parsed records; io.EOF ends the stream.
// *lmf.Parser satisfies it.
type RecordSource interface {
	Next() (lmf.Record, error)
}

// Stats summarizes one load.
type Stats struct {
	Records        int64
	Lexicons       int64
	Entries        int64
	Senses         int64
	Synsets        int64
	Definitions    int64
	Examples       int64
	Pronunciations int64
	Relations      int64
	Ignored        int64
	// Duplicates counts entries, senses, synsets and relations whose id (or
	// edge) had already been stored.
	Duplicates    int64
	RowsCommitted int64
	Integrity     db.IntegrityReport
	Duration      time.Duration
}

// Loader stages records into an empty database and then resolves relation
// endpoints.
type Loader struct {
	DB        *sql.DB
	BatchSize int
	// Logger is used for phase and integrity messages. nil means no logging.
	Logger *zap.Logger
	// OnProgress receives a load update after every committed batch and a
	// resolve update at the end.
	OnProgress progress.Sink

	// BeforeResolve, when set, runs after all rows are committed and before
	// the integrity pass. A non-nil error aborts the load.
	BeforeResolve func(ctx context.Context) error
}

// NewLoader creates a Loader with default settings.
func NewLoader(conn *sql.DB) *Loader {
	return &Loader{
		DB:        conn,
		BatchSize: 5000,
	}
}

// tally is only touched by the committer goroutine until the writer is
// closed.
type tally struct {
	seq        int64
	entries    int64
	senses     int64
	synsets    int64
	relations  int64
	duplicates int64
}

func (t *tally) count(n *int64, ok bool, err error) error {
	if err != nil {
		return err
	}
	if ok {
		*n++
	} else {
		t.duplicates++
	}
	return nil
}

// Load consumes src until io.EOF. The stream must contain the End record;
// a stream that stops before it is treated as truncated.
func (l *Loader) Load(ctx context.Context, src RecordSource) (Stats, error) {
	start := time.Now()
	log := logging.OrNop(l.Logger)
	var st Stats

	if err := db.InitDB(ctx, l.DB); err != nil {
		return st, wnerr.Load("init schema", err)
	}

	bw := NewBatchWriter(ctx, l.DB, l.BatchSize)
	bw.OnError = func(err error) { log.Error("batch failed", zap.Error(err)) }
	bw.OnCommit = func(total int64) {
		l.OnProgress.Report(progress.Update{Phase: progress.PhaseLoad, Current: total, Total: progress.Unknown})
	}
	t := &tally{}

	sawEnd := false
	var srcErr error
	for srcErr == nil && bw.Err() == nil {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			srcErr = err
			break
		}
		st.Records++

		var w WriteFunc
		switch r := rec.(type) {
		case lmf.Lexicon:
			st.Lexicons++
			w = func(ctx context.Context, tx *sql.Tx) error { return db.InsertLexicon(ctx, tx, r) }
		case lmf.LexicalEntry:
			w = func(ctx context.Context, tx *sql.Tx) error {
				ok, err := db.InsertEntry(ctx, tx, t.seq+1, r)
				if ok {
					t.seq++
				}
				return t.count(&t.entries, ok, err)
			}
		case lmf.Pronunciation:
			st.Pronunciations++
			w = func(ctx context.Context, tx *sql.Tx) error { return db.InsertPronunciation(ctx, tx, r) }
		case lmf.Sense:
			w = func(ctx context.Context, tx *sql.Tx) error {
				ok, err := db.InsertSense(ctx, tx, r)
				return t.count(&t.senses, ok, err)
			}
		case lmf.Synset:
			w = func(ctx context.Context, tx *sql.Tx) error {
				ok, err := db.InsertSynset(ctx, tx, r)
				return t.count(&t.synsets, ok, err)
			}
		case lmf.Definition:
			st.Definitions++
			w = func(ctx context.Context, tx *sql.Tx) error { return db.InsertDefinition(ctx, tx, r) }
		case lmf.ILIDefinition:
			w = func(ctx context.Context, tx *sql.Tx) error { return db.InsertILIDefinition(ctx, tx, r) }
		case lmf.Example:
			st.Examples++
			w = func(ctx context.Context, tx *sql.Tx) error { return db.InsertExample(ctx, tx, r) }
		case lmf.Relation:
			w = func(ctx context.Context, tx *sql.Tx) error {
				ok, err := db.InsertRelation(ctx, tx, r)
				return t.count(&t.relations, ok, err)
			}
		case lmf.Ignored:
			st.Ignored++
			log.Debug("skipped element",
				zap.String("element", r.Element),
				zap.String("parent", r.Parent),
				zap.String("reason", r.Reason),
				zap.Int("line", r.Line))
		case lmf.End:
			sawEnd = true
		}

		if w != nil {
			if err := bw.Submit(w); err != nil {
				srcErr = err
				break
			}
		}
	}

	werr := bw.Close()
	st.RowsCommitted = bw.Committed()
	st.Entries, st.Senses, st.Synsets = t.entries, t.senses, t.synsets
	st.Relations, st.Duplicates = t.relations, t.duplicates

	switch {
	case srcErr != nil:
		return st, wnerr.Load("read records", srcErr)
	case werr != nil:
		return st, wnerr.Load("stage rows", fmt.Errorf("%d rows committed before failure: %w", st.RowsCommitted, werr))
	case !sawEnd:
		return st, wnerr.Load("read records", wnerr.ErrTruncated)
	}
	l.OnProgress.Report(progress.Update{Phase: progress.PhaseLoad, Current: st.RowsCommitted, Total: st.RowsCommitted})
	log.Info("rows staged",
		zap.Int64("records", st.Records),
		zap.Int64("rows", st.RowsCommitted),
		zap.Int64("duplicates", st.Duplicates))

	if l.BeforeResolve != nil {
		if err := l.BeforeResolve(ctx); err != nil {
			return st, wnerr.Load("before resolve", err)
		}
	}

	rep, err := l.resolve(ctx)
	if err != nil {
		return st, wnerr.Load("resolve relations", err)
	}
	st.Integrity = rep
	st.Relations -= int64(len(rep.DroppedRelations))
	st.Senses -= int64(rep.DroppedSenses)
	for _, r := range rep.DroppedRelations {
		log.Debug("dropped relation with unresolved endpoint",
			zap.String("scope", string(r.Scope)),
			zap.String("type", string(r.Type)),
			zap.String("source", r.SourceID),
			zap.String("target", r.TargetID))
	}
	if rep.Total() > 0 {
		log.Warn("integrity warnings",
			zap.Int("dropped_relations", len(rep.DroppedRelations)),
			zap.Int("dropped_senses", rep.DroppedSenses),
			zap.Int("dropped_pronunciations", rep.DroppedPronunciations))
	}
	l.OnProgress.Report(progress.Update{Phase: progress.PhaseResolve, Current: 1, Total: 1})

	st.Duration = time.Since(start)
	return st, nil
}

func (l *Loader) resolve(ctx context.Context) (db.IntegrityReport, error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return db.IntegrityReport{}, err
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	rep, err := db.ResolveIntegrity(ctx, tx)
	if err != nil {
		return rep, err
	}
	return rep, tx.Commit()
}

package dictionary

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/japaniel/oewn/pkg/db"
	"github.com/japaniel/oewn/pkg/lmf"
	"github.com/japaniel/oewn/pkg/logging"
	"github.com/japaniel/oewn/pkg/wnerr"
)

// Engine answers lookups against a loaded store. It never writes.
type Engine struct {
	conn   *sql.DB
	kinds  []lmf.RelationType
	logger *zap.Logger

	// rng is not safe for concurrent use; guarded by mu.
	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRelationKinds replaces the relation kinds resolved for every sense.
func WithRelationKinds(kinds ...lmf.RelationType) Option {
	return func(e *Engine) { e.kinds = append([]lmf.RelationType(nil), kinds...) }
}

// WithRand sets the random source used by Random.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over conn.
func NewEngine(conn *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		conn:  conn,
		kinds: lmf.DefaultRelationKinds,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(e)
	}
	e.logger = logging.OrNop(e.logger)
	return e
}

// Lookup returns every entry whose lemma matches lemma after case folding,
// restricted to pos unless pos is empty. No match gives an empty slice.
func (e *Engine) Lookup(ctx context.Context, lemma string, pos lmf.PartOfSpeech) ([]EntryResult, error) {
	folded := lmf.FoldLemma(lemma)
	if folded == "" {
		return nil, nil
	}
	var codes []string
	if pos != "" {
		codes = pos.Codes()
	}

	conn, err := e.conn.Conn(ctx)
	if err != nil {
		return nil, wnerr.Query("lookup", err)
	}
	defer conn.Close()

	entries, err := db.FindEntries(ctx, conn, folded, codes)
	if err != nil {
		return nil, wnerr.Query("lookup", err)
	}

	a := newAssembler(conn, e.kinds)
	out := make([]EntryResult, 0, len(entries))
	for _, ent := range entries {
		res, err := a.entry(ctx, ent)
		if err != nil {
			return nil, wnerr.Query("lookup", err)
		}
		out = append(out, res)
	}
	e.logger.Debug("lookup", zap.String("lemma", lemma), zap.String("pos", string(pos)), zap.Int("entries", len(out)))
	return out, nil
}

// Random returns one entry drawn uniformly from all stored entries.
func (e *Engine) Random(ctx context.Context) (EntryResult, error) {
	conn, err := e.conn.Conn(ctx)
	if err != nil {
		return EntryResult{}, wnerr.Query("random", err)
	}
	defer conn.Close()

	max, err := db.MaxEntrySeq(ctx, conn)
	if err != nil {
		return EntryResult{}, wnerr.Query("random", err)
	}
	if max == 0 {
		return EntryResult{}, wnerr.Query("random", wnerr.ErrEmptyStore)
	}

	e.mu.Lock()
	seq := e.rng.Int64N(max) + 1
	e.mu.Unlock()

	ent, ok, err := db.EntryBySeq(ctx, conn, seq)
	if err != nil {
		return EntryResult{}, wnerr.Query("random", err)
	}
	if !ok {
		return EntryResult{}, wnerr.Query("random", fmt.Errorf("entry %d of %d missing", seq, max))
	}
	res, err := newAssembler(conn, e.kinds).entry(ctx, ent)
	if err != nil {
		return EntryResult{}, wnerr.Query("random", err)
	}
	return res, nil
}

// Metadata returns the store's metadata stamp.
func (e *Engine) Metadata(ctx context.Context) (map[string]string, error) {
	m, err := db.AllMetadata(ctx, e.conn)
	if err != nil {
		return nil, wnerr.Query("metadata", err)
	}
	return m, nil
}

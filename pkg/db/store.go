package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/japaniel/oewn/pkg/lmf"
)

// DBExecutor is an interface that allows methods to accept *sql.DB,
// *sql.Tx or *sql.Conn.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inserted reports whether an INSERT OR IGNORE wrote a row.
func inserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// InsertLexicon stores lexicon metadata. A repeated id is ignored.
func InsertLexicon(ctx context.Context, db DBExecutor, l lmf.Lexicon) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO lexicons (id, label, language, email, license, version, url, citation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, nullable(l.Label), nullable(l.Language), nullable(l.Email), nullable(l.License),
		nullable(l.Version), nullable(l.URL), nullable(l.Citation),
	)
	if err != nil {
		return fmt.Errorf("insert lexicon %s: %w", l.ID, err)
	}
	return nil
}

// InsertEntry stores an entry under seq. It returns false without error if
// the entry id already exists.
func InsertEntry(ctx context.Context, db DBExecutor, seq int64, e lmf.LexicalEntry) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO lexical_entries (seq, id, lexicon_id, lemma, lemma_folded, part_of_speech)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		seq, e.ID, nullable(e.LexiconID), e.Lemma, lmf.FoldLemma(e.Lemma), string(e.POS),
	)
	if err != nil {
		return false, fmt.Errorf("insert entry %s: %w", e.ID, err)
	}
	return inserted(res)
}

// InsertPronunciation stores a pronunciation of an entry.
func InsertPronunciation(ctx context.Context, db DBExecutor, p lmf.Pronunciation) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO pronunciations (entry_id, variety, notation, phonemic, audio, text) VALUES (?, ?, ?, ?, ?, ?)`,
		p.EntryID, nullable(p.Variety), nullable(p.Notation), p.Phonemic, nullable(p.Audio), p.Text,
	)
	if err != nil {
		return fmt.Errorf("insert pronunciation of %s: %w", p.EntryID, err)
	}
	return nil
}

// InsertSense stores a sense; false means the id was already present.
func InsertSense(ctx context.Context, db DBExecutor, s lmf.Sense) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO senses (id, entry_id, synset_id, sense_index) VALUES (?, ?, ?, ?)`,
		s.ID, s.EntryID, s.SynsetID, s.Index,
	)
	if err != nil {
		return false, fmt.Errorf("insert sense %s: %w", s.ID, err)
	}
	return inserted(res)
}

// InsertSynset stores a synset; false means the id was already present.
func InsertSynset(ctx context.Context, db DBExecutor, s lmf.Synset) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO synsets (id, lexicon_id, part_of_speech, ili, lexfile, members) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, nullable(s.LexiconID), string(s.POS), nullable(s.ILI), nullable(s.LexFile), strings.Join(s.Members, " "),
	)
	if err != nil {
		return false, fmt.Errorf("insert synset %s: %w", s.ID, err)
	}
	return inserted(res)
}

// InsertDefinition stores a definition.
func InsertDefinition(ctx context.Context, db DBExecutor, d lmf.Definition) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO definitions (synset_id, position, text, source) VALUES (?, ?, ?, ?)`,
		d.SynsetID, d.Position, d.Text, nullable(d.Source),
	)
	if err != nil {
		return fmt.Errorf("insert definition of %s: %w", d.SynsetID, err)
	}
	return nil
}

// InsertILIDefinition stores the interlingual definition; the first one wins.
func InsertILIDefinition(ctx context.Context, db DBExecutor, d lmf.ILIDefinition) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ili_definitions (synset_id, text) VALUES (?, ?)`,
		d.SynsetID, d.Text,
	)
	if err != nil {
		return fmt.Errorf("insert ili definition of %s: %w", d.SynsetID, err)
	}
	return nil
}

// InsertExample stores an example.
func InsertExample(ctx context.Context, db DBExecutor, e lmf.Example) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO examples (synset_id, position, text, source) VALUES (?, ?, ?, ?)`,
		e.SynsetID, e.Position, e.Text, nullable(e.Source),
	)
	if err != nil {
		return fmt.Errorf("insert example of %s: %w", e.SynsetID, err)
	}
	return nil
}

// InsertRelation stores a relation without checking its endpoints; false
// means the same edge was already present.
func InsertRelation(ctx context.Context, db DBExecutor, r lmf.Relation) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO relations (scope, source_id, rel_type, target_id) VALUES (?, ?, ?, ?)`,
		string(r.Scope), r.SourceID, string(r.Type), r.TargetID,
	)
	if err != nil {
		return false, fmt.Errorf("insert %s relation %s -> %s: %w", r.Type, r.SourceID, r.TargetID, err)
	}
	return inserted(res)
}

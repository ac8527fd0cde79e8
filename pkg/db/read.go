package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/japaniel/oewn/pkg/lmf"
)

var entryColumns = []string{"seq", "id", "lexicon_id", "lemma", "part_of_speech"}

func query(ctx context.Context, db DBExecutor, b sq.Sqlizer) (*sql.Rows, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return db.QueryContext(ctx, q, args...)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var lexicon sql.NullString
		var pos string
		if err := rows.Scan(&e.Seq, &e.ID, &lexicon, &e.Lemma, &pos); err != nil {
			return nil, err
		}
		e.LexiconID, e.POS = lexicon.String, lmf.PartOfSpeech(pos)
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindEntries returns entries whose folded lemma equals folded, restricted
// to the given part-of-speech codes when any are given, in load order.
func FindEntries(ctx context.Context, db DBExecutor, folded string, posCodes []string) ([]Entry, error) {
	b := sq.Select(entryColumns...).From("lexical_entries").Where(sq.Eq{"lemma_folded": folded})
	if len(posCodes) > 0 {
		b = b.Where(sq.Eq{"part_of_speech": posCodes})
	}
	rows, err := query(ctx, db, b.OrderBy("seq"))
	if err != nil {
		return nil, fmt.Errorf("find entries %q: %w", folded, err)
	}
	return scanEntries(rows)
}

// EntryBySeq returns the entry at position seq.
func EntryBySeq(ctx context.Context, db DBExecutor, seq int64) (Entry, bool, error) {
	rows, err := query(ctx, db, sq.Select(entryColumns...).From("lexical_entries").Where(sq.Eq{"seq": seq}))
	if err != nil {
		return Entry{}, false, fmt.Errorf("entry %d: %w", seq, err)
	}
	entries, err := scanEntries(rows)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

// MaxEntrySeq returns the highest entry sequence number, 0 for an empty store.
func MaxEntrySeq(ctx context.Context, db DBExecutor) (int64, error) {
	var n sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(seq) FROM lexical_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n.Int64, nil
}

// SensesByEntry returns an entry's senses ordered by their index.
func SensesByEntry(ctx context.Context, db DBExecutor, entryID string) ([]Sense, error) {
	rows, err := query(ctx, db, sq.Select("id", "entry_id", "synset_id", "sense_index").
		From("senses").Where(sq.Eq{"entry_id": entryID}).OrderBy("sense_index", "id"))
	if err != nil {
		return nil, fmt.Errorf("senses of %s: %w", entryID, err)
	}
	defer rows.Close()
	var out []Sense
	for rows.Next() {
		var s Sense
		if err := rows.Scan(&s.ID, &s.EntryID, &s.SynsetID, &s.Index); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SenseMember returns a sense joined with its entry's lemma.
func SenseMember(ctx context.Context, db DBExecutor, senseID string) (Member, string, bool, error) {
	var m Member
	var synsetID string
	err := db.QueryRowContext(ctx,
		`SELECT s.id, s.entry_id, e.lemma, s.synset_id
		 FROM senses s JOIN lexical_entries e ON e.id = s.entry_id
		 WHERE s.id = ?`, senseID).Scan(&m.SenseID, &m.EntryID, &m.Lemma, &synsetID)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, "", false, nil
	}
	if err != nil {
		return Member{}, "", false, fmt.Errorf("sense %s: %w", senseID, err)
	}
	return m, synsetID, true, nil
}

// GetSynset returns a synset by id.
func GetSynset(ctx context.Context, db DBExecutor, id string) (Synset, bool, error) {
	var s Synset
	var lexicon, ili, lexfile sql.NullString
	var pos, members string
	err := db.QueryRowContext(ctx,
		`SELECT id, lexicon_id, part_of_speech, ili, lexfile, members FROM synsets WHERE id = ?`, id).
		Scan(&s.ID, &lexicon, &pos, &ili, &lexfile, &members)
	if errors.Is(err, sql.ErrNoRows) {
		return Synset{}, false, nil
	}
	if err != nil {
		return Synset{}, false, fmt.Errorf("synset %s: %w", id, err)
	}
	s.LexiconID, s.ILI, s.LexFile = lexicon.String, ili.String, lexfile.String
	s.POS, s.Members = lmf.PartOfSpeech(pos), strings.Fields(members)
	return s, true, nil
}

// SynsetMembers returns the member senses of a synset with their lemmas,
// in the synset's declared member order; senses not named in members
// follow in entry load order.
func SynsetMembers(ctx context.Context, db DBExecutor, s Synset) ([]Member, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT s.id, s.entry_id, e.lemma
		 FROM senses s JOIN lexical_entries e ON e.id = s.entry_id
		 WHERE s.synset_id = ?
		 ORDER BY e.seq`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("members of %s: %w", s.ID, err)
	}
	defer rows.Close()

	byID := make(map[string]Member)
	var order []string
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.SenseID, &m.EntryID, &m.Lemma); err != nil {
			return nil, err
		}
		byID[m.SenseID] = m
		order = append(order, m.SenseID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Member, 0, len(order))
	for _, id := range s.Members {
		if m, ok := byID[id]; ok {
			out = append(out, m)
			delete(byID, id)
		}
	}
	for _, id := range order {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func texts(ctx context.Context, db DBExecutor, table, synsetID string, order ...string) ([]Text, error) {
	rows, err := query(ctx, db, sq.Select("text", "source").From(table).
		Where(sq.Eq{"synset_id": synsetID}).OrderBy(order...))
	if err != nil {
		return nil, fmt.Errorf("%s of %s: %w", table, synsetID, err)
	}
	defer rows.Close()
	var out []Text
	for rows.Next() {
		var t Text
		var src sql.NullString
		if err := rows.Scan(&t.Text, &src); err != nil {
			return nil, err
		}
		t.Source = src.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// Definitions returns a synset's definitions in source order.
func Definitions(ctx context.Context, db DBExecutor, synsetID string) ([]Text, error) {
	return texts(ctx, db, "definitions", synsetID, "position", "rowid")
}

// Examples returns a synset's examples in document order. Position restarts
// for each enclosing Sense or Synset, so rows are ordered by insertion.
func Examples(ctx context.Context, db DBExecutor, synsetID string) ([]Text, error) {
	return texts(ctx, db, "examples", synsetID, "rowid")
}

// ILIDefinition returns a synset's interlingual definition, if any.
func ILIDefinition(ctx context.Context, db DBExecutor, synsetID string) (string, error) {
	var text string
	err := db.QueryRowContext(ctx, `SELECT text FROM ili_definitions WHERE synset_id = ?`, synsetID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ili definition of %s: %w", synsetID, err)
	}
	return text, nil
}

// OutgoingRelations returns relations leaving sourceID within scope whose
// type is one of kinds, ordered by type then target.
func OutgoingRelations(ctx context.Context, db DBExecutor, scope lmf.Scope, sourceID string, kinds []lmf.RelationType) ([]Relation, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	types := make([]string, len(kinds))
	for i, k := range kinds {
		types[i] = string(k)
	}
	rows, err := query(ctx, db, sq.Select("rel_type", "target_id").From("relations").
		Where(sq.Eq{"scope": string(scope), "source_id": sourceID, "rel_type": types}).
		OrderBy("rel_type", "target_id"))
	if err != nil {
		return nil, fmt.Errorf("relations of %s: %w", sourceID, err)
	}
	defer rows.Close()
	var out []Relation
	for rows.Next() {
		r := Relation{Scope: scope, SourceID: sourceID}
		var relType string
		if err := rows.Scan(&relType, &r.TargetID); err != nil {
			return nil, err
		}
		r.Type = lmf.RelationType(relType)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Pronunciations returns an entry's pronunciations.
func Pronunciations(ctx context.Context, db DBExecutor, entryID string) ([]Pronunciation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT variety, notation, phonemic, audio, text FROM pronunciations WHERE entry_id = ? ORDER BY rowid`, entryID)
	if err != nil {
		return nil, fmt.Errorf("pronunciations of %s: %w", entryID, err)
	}
	defer rows.Close()
	var out []Pronunciation
	for rows.Next() {
		var p Pronunciation
		var variety, notation, audio sql.NullString
		if err := rows.Scan(&variety, &notation, &p.Phonemic, &audio, &p.Text); err != nil {
			return nil, err
		}
		p.Variety, p.Notation, p.Audio = variety.String, notation.String, audio.String
		out = append(out, p)
	}
	return out, rows.Err()
}

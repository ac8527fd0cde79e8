package dictionary

import (
	"context"
	"fmt"

	"github.com/japaniel/oewn/pkg/db"
	"github.com/japaniel/oewn/pkg/lmf"
)

// assembler builds results on one connection and memoizes relation targets
// for the duration of a single call.
type assembler struct {
	q       db.DBExecutor
	kinds   []lmf.RelationType
	targets map[string]Related
}

func newAssembler(q db.DBExecutor, kinds []lmf.RelationType) *assembler {
	return &assembler{q: q, kinds: kinds, targets: make(map[string]Related)}
}

func (a *assembler) entry(ctx context.Context, ent db.Entry) (EntryResult, error) {
	res := EntryResult{EntryID: ent.ID, Lemma: ent.Lemma, POS: ent.POS}

	prons, err := db.Pronunciations(ctx, a.q, ent.ID)
	if err != nil {
		return res, err
	}
	res.Pronunciations = prons

	senses, err := db.SensesByEntry(ctx, a.q, ent.ID)
	if err != nil {
		return res, err
	}
	for _, s := range senses {
		sr, err := a.sense(ctx, ent, s)
		if err != nil {
			return res, err
		}
		res.Senses = append(res.Senses, sr)
	}
	return res, nil
}

func (a *assembler) sense(ctx context.Context, ent db.Entry, s db.Sense) (SenseResult, error) {
	sr := SenseResult{SenseID: s.ID, SynsetID: s.SynsetID, Index: s.Index}

	syn, ok, err := db.GetSynset(ctx, a.q, s.SynsetID)
	if err != nil {
		return sr, err
	}
	if !ok {
		return sr, fmt.Errorf("sense %s: synset %s not in store", s.ID, s.SynsetID)
	}
	sr.ILI = syn.ILI

	defs, err := db.Definitions(ctx, a.q, syn.ID)
	if err != nil {
		return sr, err
	}
	sr.Definitions = textsOf(defs)

	exs, err := db.Examples(ctx, a.q, syn.ID)
	if err != nil {
		return sr, err
	}
	sr.Examples = textsOf(exs)

	if sr.ILIDefinition, err = db.ILIDefinition(ctx, a.q, syn.ID); err != nil {
		return sr, err
	}

	members, err := db.SynsetMembers(ctx, a.q, syn)
	if err != nil {
		return sr, err
	}
	self := lmf.FoldLemma(ent.Lemma)
	seen := make(map[string]bool)
	for _, m := range members {
		key := lmf.FoldLemma(m.Lemma)
		if m.EntryID == ent.ID || key == self || seen[key] {
			continue
		}
		seen[key] = true
		sr.Synonyms = append(sr.Synonyms, m.Lemma)
	}

	sr.Relations, err = a.relations(ctx, syn.ID, s.ID)
	return sr, err
}

func (a *assembler) relations(ctx context.Context, synsetID, senseID string) ([]RelationGroup, error) {
	synRels, err := db.OutgoingRelations(ctx, a.q, lmf.ScopeSynset, synsetID, a.kinds)
	if err != nil {
		return nil, err
	}
	senseRels, err := db.OutgoingRelations(ctx, a.q, lmf.ScopeSense, senseID, a.kinds)
	if err != nil {
		return nil, err
	}

	byKind := make(map[lmf.RelationType][]Related)
	for _, r := range append(synRels, senseRels...) {
		t, ok, err := a.target(ctx, r.Scope, r.TargetID)
		if err != nil {
			return nil, err
		}
		if ok {
			byKind[r.Type] = append(byKind[r.Type], t)
		}
	}

	var groups []RelationGroup
	for _, k := range a.kinds {
		if targets := byKind[k]; len(targets) > 0 {
			groups = append(groups, RelationGroup{Type: k, Targets: targets})
		}
	}
	return groups, nil
}

func (a *assembler) target(ctx context.Context, scope lmf.Scope, id string) (Related, bool, error) {
	key := string(scope) + "\x00" + id
	if t, ok := a.targets[key]; ok {
		return t, true, nil
	}

	t := Related{ID: id, Scope: scope}
	synsetID := id
	if scope == lmf.ScopeSense {
		m, sid, ok, err := db.SenseMember(ctx, a.q, id)
		if err != nil || !ok {
			return t, false, err
		}
		t.Lemma, t.Members, synsetID = m.Lemma, []string{m.Lemma}, sid
	}

	syn, ok, err := db.GetSynset(ctx, a.q, synsetID)
	if err != nil || !ok {
		return t, false, err
	}
	if scope == lmf.ScopeSynset {
		members, err := db.SynsetMembers(ctx, a.q, syn)
		if err != nil {
			return t, false, err
		}
		for _, m := range members {
			t.Members = append(t.Members, m.Lemma)
		}
		if len(t.Members) > 0 {
			t.Lemma = t.Members[0]
		}
	}

	defs, err := db.Definitions(ctx, a.q, syn.ID)
	if err != nil {
		return t, false, err
	}
	if len(defs) > 0 {
		t.Gloss = defs[0].Text
	}

	a.targets[key] = t
	return t, true, nil
}

func textsOf(ts []db.Text) []string {
	if len(ts) == 0 {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Text
	}
	return out
}

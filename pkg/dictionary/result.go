package dictionary

import (
	"github.com/japaniel/oewn/pkg/db"
	"github.com/japaniel/oewn/pkg/lmf"
)

// EntryResult is one lexical entry with everything reachable from it.
type EntryResult struct {
	EntryID        string
	Lemma          string
	POS            lmf.PartOfSpeech
	Pronunciations []db.Pronunciation
	Senses         []SenseResult
}

// SenseResult is one sense of an entry and its synset's content.
type SenseResult struct {
	SenseID       string
	SynsetID      string
	Index         int
	ILI           string
	Definitions   []string
	ILIDefinition string
	Examples      []string
	// Synonyms are the lemmas of the other entries sharing the synset.
	Synonyms  []string
	Relations []RelationGroup
}

// RelationGroup holds the targets of one relation kind.
type RelationGroup struct {
	Type    lmf.RelationType
	Targets []Related
}

// Related is a relation target reduced to what a reader needs.
type Related struct {
	ID    string
	Scope lmf.Scope
	// Lemma is the representative lemma: the first member of the target
	// synset, or the target sense's own lemma.
	Lemma   string
	Members []string
	Gloss   string
}

// Relation returns the targets of kind, or nil.
func (s SenseResult) Relation(kind lmf.RelationType) []Related {
	for _, g := range s.Relations {
		if g.Type == kind {
			return g.Targets
		}
	}
	return nil
}

// Lemmas returns the representative lemma of every target.
func Lemmas(targets []Related) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Lemma
	}
	return out
}

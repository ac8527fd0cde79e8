package db

import "github.com/japaniel/oewn/pkg/lmf"

// Entry is a stored lexical entry. Seq is its dense 1-based position in
// load order.
type Entry struct {
	Seq       int64
	ID        string
	LexiconID string
	Lemma     string
	POS       lmf.PartOfSpeech
}

// Sense is a stored sense.
type Sense struct {
	ID       string
	EntryID  string
	SynsetID string
	Index    int
}

// Member is a synset member sense joined with its entry.
type Member struct {
	SenseID string
	EntryID string
	Lemma   string
}

// Synset is a stored synset.
type Synset struct {
	ID        string
	LexiconID string
	POS       lmf.PartOfSpeech
	ILI       string
	LexFile   string
	Members   []string
}

// Text is a definition or example.
type Text struct {
	Text   string
	Source string
}

// Relation is a stored relation row.
type Relation struct {
	Scope    lmf.Scope
	Type     lmf.RelationType
	SourceID string
	TargetID string
}

// Pronunciation is a stored pronunciation.
type Pronunciation struct {
	Variety  string
	Notation string
	Phonemic bool
	Audio    string
	Text     string
}

// Package lmf reads WN-LMF XML documents as a forward-only stream of typed
// records.
//
// The parser never builds a document tree. It keeps a stack of the open
// elements it cares about so that senses, definitions, examples and
// relations can be attributed to the entry, sense or synset enclosing them.
package lmf

// Record is one item of the parsed stream. The concrete types are the
// structs in this file.
type Record interface {
	isRecord()
}

// Lexicon is emitted when a Lexicon element opens.
type Lexicon struct {
	ID       string
	Label    string
	Language string
	Email    string
	License  string
	Version  string
	URL      string
	Citation string
}

// LexicalEntry is emitted at the entry's Lemma, so Lemma and POS are set.
type LexicalEntry struct {
	ID        string
	LexiconID string
	Lemma     string
	POS       PartOfSpeech
}

// Pronunciation belongs to the enclosing entry.
type Pronunciation struct {
	EntryID  string
	Variety  string
	Notation string
	Phonemic bool
	Audio    string
	Text     string
}

// Sense binds an entry to a synset. Index is its zero-based position among
// the entry's senses.
type Sense struct {
	ID       string
	EntryID  string
	SynsetID string
	Index    int
}

// Synset is emitted when a Synset element opens. Members lists sense ids in
// the order given by the members attribute.
type Synset struct {
	ID        string
	LexiconID string
	POS       PartOfSpeech
	ILI       string
	LexFile   string
	Members   []string
}

// Definition is a gloss of a synset.
type Definition struct {
	SynsetID string
	Position int
	Text     string
	Source   string
}

// ILIDefinition is the interlingual definition of a synset.
type ILIDefinition struct {
	SynsetID string
	Text     string
}

// Example is a usage example. Examples nested in a Sense are attributed to
// that sense's synset.
type Example struct {
	SynsetID string
	Position int
	Text     string
	Source   string
}

// Relation is a SenseRelation or SynsetRelation.
type Relation struct {
	Scope    Scope
	Type     RelationType
	SourceID string
	TargetID string
}

// Ignored reports an element the parser skipped.
type Ignored struct {
	Element string
	Parent  string
	Reason  string
	Line    int
}

// End marks the end of a complete document.
type End struct{}

func (Lexicon) isRecord()       {}
func (LexicalEntry) isRecord()  {}
func (Pronunciation) isRecord() {}
func (Sense) isRecord()         {}
func (Synset) isRecord()        {}
func (Definition) isRecord()    {}
func (ILIDefinition) isRecord() {}
func (Example) isRecord()       {}
func (Relation) isRecord()      {}
func (Ignored) isRecord()       {}
func (End) isRecord()           {}

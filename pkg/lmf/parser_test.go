package lmf

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/oewn/internal/testfixture"
	"github.com/japaniel/oewn/pkg/wnerr"
)

func collect(t *testing.T, doc string) []Record {
	t.Helper()
	var out []Record
	for rec, err := range NewParser(strings.NewReader(doc)).All() {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func ofType[T Record](recs []Record) []T {
	var out []T
	for _, r := range recs {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestParseFixtureCounts(t *testing.T) {
	recs := collect(t, testfixture.LMF)

	assert.Len(t, ofType[Lexicon](recs), 1)
	assert.Len(t, ofType[LexicalEntry](recs), testfixture.Entries)
	assert.Len(t, ofType[Synset](recs), testfixture.Synsets)
	assert.Len(t, ofType[Relation](recs), testfixture.Relations)
	assert.Len(t, ofType[Sense](recs), 11)
	assert.Len(t, ofType[Definition](recs), 9)
	assert.Len(t, ofType[Example](recs), 6)
	assert.Len(t, ofType[Pronunciation](recs), 3)
	assert.Len(t, ofType[ILIDefinition](recs), 1)

	ignored := ofType[Ignored](recs)
	require.Len(t, ignored, 2)
	assert.Equal(t, "Requires", ignored[0].Element)
	assert.Equal(t, "SyntacticBehaviour", ignored[1].Element)
	assert.Equal(t, "LexicalEntry", ignored[1].Parent)

	assert.Equal(t, End{}, recs[len(recs)-1])
}

func TestParseAssociatesChildrenWithParents(t *testing.T) {
	recs := collect(t, testfixture.LMF)

	senses := ofType[Sense](recs)
	assert.Equal(t, Sense{ID: "oewn-run-v-2", EntryID: "oewn-run-v", SynsetID: "oewn-00003-v", Index: 1}, senses[2])

	entries := ofType[LexicalEntry](recs)
	assert.Equal(t, LexicalEntry{ID: "oewn-run-v", LexiconID: "oewn", Lemma: "run", POS: Verb}, entries[1])

	rels := ofType[Relation](recs)
	assert.Equal(t, Relation{Scope: ScopeSense, Type: Antonym, SourceID: "oewn-run-v-1", TargetID: "oewn-missing-v-1"}, rels[0])
	assert.Contains(t, rels, Relation{Scope: ScopeSynset, Type: Hypernym, SourceID: "oewn-00002-v", TargetID: "oewn-00004-v"})

	synsets := ofType[Synset](recs)
	assert.Equal(t, []string{"oewn-operate-v-1", "oewn-run-v-2"}, synsets[2].Members)
	assert.Equal(t, "i3", synsets[2].ILI)

	examples := ofType[Example](recs)
	assert.Equal(t, Example{SynsetID: "oewn-00002-v", Position: 1, Text: "The children ran to the store", Source: "Lewis Carroll"}, examples[2])

	prons := ofType[Pronunciation](recs)
	assert.Equal(t, Pronunciation{EntryID: "oewn-dog-n", Variety: "US", Phonemic: true, Text: "dɔɡ"}, prons[2])
}

func TestParseTextIsLossless(t *testing.T) {
	recs := collect(t, testfixture.LMF)

	var cafe Definition
	for _, d := range ofType[Definition](recs) {
		if d.SynsetID == "oewn-00009-n" {
			cafe = d
		}
	}
	assert.Equal(t, testfixture.CafeDefinition, cafe.Text)

	entries := ofType[LexicalEntry](recs)
	assert.Equal(t, "Café", entries[len(entries)-1].Lemma)
}

func TestParseNextAfterEnd(t *testing.T) {
	p := NewParser(strings.NewReader(`<LexicalResource/>`))
	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, End{}, rec)

	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
}

func TestParseOrphanIsError(t *testing.T) {
	cases := map[string]string{
		"sense outside entry": `<LexicalResource><Lexicon id="x"><Sense id="s" synset="y"/></Lexicon></LexicalResource>`,
		"definition in entry": `<LexicalResource><Lexicon id="x"><LexicalEntry id="e"><Definition>d</Definition></LexicalEntry></Lexicon></LexicalResource>`,
		"synset without id":   `<LexicalResource><Lexicon id="x"><Synset><SynsetRelation relType="hypernym" target="t"/></Synset></Lexicon></LexicalResource>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			p := NewParser(strings.NewReader(doc))
			var err error
			for err == nil {
				_, err = p.Next()
			}
			require.NotEqual(t, io.EOF, err)
			assert.True(t, wnerr.Is(err, wnerr.KindParse))
			assert.True(t, errors.Is(err, wnerr.ErrOrphanElement))

			_, again := p.Next()
			assert.Equal(t, err, again)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	docs := []string{
		``,
		`<LexicalResource><Lexicon id="x">`,
		`<LexicalResource><Lexicon id="x"></LexicalEntry></LexicalResource>`,
		`<Other/>`,
	}
	for _, doc := range docs {
		p := NewParser(strings.NewReader(doc))
		var err error
		for err == nil {
			_, err = p.Next()
		}
		assert.True(t, wnerr.Is(err, wnerr.KindParse), "doc %q: %v", doc, err)
	}
}

func TestParseSkipsIncompleteElements(t *testing.T) {
	doc := `<LexicalResource><Lexicon id="x">
  <LexicalEntry id="e"><Lemma writtenForm="w" partOfSpeech="zz"/>
    <Sense id="s1"/>
    <Sense id="s2" synset="y"><SenseRelation relType="antonym"/></Sense>
  </LexicalEntry>
</Lexicon></LexicalResource>`
	recs := collect(t, doc)

	entries := ofType[LexicalEntry](recs)
	require.Len(t, entries, 1)
	assert.Equal(t, Unknown, entries[0].POS)

	senses := ofType[Sense](recs)
	require.Len(t, senses, 1)
	assert.Equal(t, 1, senses[0].Index)

	ignored := ofType[Ignored](recs)
	require.Len(t, ignored, 2)
	assert.Equal(t, "missing synset", ignored[0].Reason)
	assert.Equal(t, "SenseRelation", ignored[1].Element)
}

func TestParseIgnoredNamesEnclosingElement(t *testing.T) {
	doc := `<LexicalResource><Lexicon id="x">
  <LexicalEntry id="e"><Lemma partOfSpeech="n"/>
    <Sense id="s1"/>
    <Sense id="s2" synset="y"><SenseRelation relType="antonym"/></Sense>
  </LexicalEntry>
  <Synset partOfSpeech="n"/>
  <Synset id="y"><SynsetRelation target="z"/></Synset>
</Lexicon></LexicalResource>`
	recs := collect(t, doc)

	var got [][2]string
	for _, ig := range ofType[Ignored](recs) {
		got = append(got, [2]string{ig.Element, ig.Parent})
	}
	assert.Equal(t, [][2]string{
		{"Lemma", "LexicalEntry"},
		{"Sense", "LexicalEntry"},
		{"SenseRelation", "Sense"},
		{"Synset", "Lexicon"},
		{"SynsetRelation", "Synset"},
	}, got)
}

func TestParseSkipsExamplesOfIncompleteSense(t *testing.T) {
	doc := `<LexicalResource><Lexicon id="x">
  <LexicalEntry id="e"><Lemma writtenForm="w" partOfSpeech="n"/>
    <Sense id="s1"><Example>lost</Example></Sense>
    <Sense synset="y"><Example>also lost</Example><SenseRelation relType="antonym" target="s1"/></Sense>
    <Sense id="s3" synset="y"><Example>kept</Example></Sense>
  </LexicalEntry>
  <Synset id="y"/>
</Lexicon></LexicalResource>`
	recs := collect(t, doc)

	examples := ofType[Example](recs)
	require.Len(t, examples, 1)
	assert.Equal(t, "kept", examples[0].Text)
	assert.Equal(t, "y", examples[0].SynsetID)
	assert.Empty(t, ofType[Relation](recs))

	var reasons []string
	for _, ig := range ofType[Ignored](recs) {
		if ig.Parent == "Sense" {
			reasons = append(reasons, ig.Element+": "+ig.Reason)
		}
	}
	assert.Equal(t, []string{
		"Example: sense has no synset",
		"Example: sense has no id",
		"SenseRelation: sense has no id",
	}, reasons)
}

func TestParsePartOfSpeech(t *testing.T) {
	for in, want := range map[string]PartOfSpeech{"noun": Noun, "V": Verb, "adj": Adjective, "adj_sat": AdjectiveSatellite, "adverb": Adverb} {
		got, err := ParsePartOfSpeech(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePartOfSpeech("gerund")
	assert.Error(t, err)

	assert.Equal(t, "adjective satellite", AdjectiveSatellite.String())
	assert.Equal(t, []string{"a", "s"}, Adjective.Codes())
}

func TestFoldLemma(t *testing.T) {
	assert.Equal(t, FoldLemma("run"), FoldLemma("Run"))
	assert.Equal(t, FoldLemma("café"), FoldLemma("CAFÉ"))
	assert.Equal(t, "run", FoldLemma("  RUN "))
}

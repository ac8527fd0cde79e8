// Package testfixture holds a small LMF document shared by tests.
//
// Shape: 10 entries, 9 synsets, 8 relations of which 2 point at ids that do
// not exist ("oewn-99999-n" and "oewn-missing-v-1").
package testfixture

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const (
	Entries          = 10
	Synsets          = 9
	Relations        = 8
	DroppedRelations = 2
)

// LMF is a WN-LMF 1.3 document in the OEWN layout.
const LMF = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE LexicalResource SYSTEM "http://globalwordnet.github.io/schemas/WN-LMF-1.3.dtd">
<LexicalResource xmlns:dc="https://globalwordnet.github.io/schemas/dc/">
  <Lexicon id="oewn" label="Open English WordNet" language="en" email="english-wordnet@googlegroups.com" license="https://creativecommons.org/licenses/by/4.0/" version="2024" url="https://github.com/globalwordnet/english-wordnet">
    <Requires id="ili" version="1.0"/>
    <LexicalEntry id="oewn-run-n">
      <Lemma writtenForm="run" partOfSpeech="n"/>
      <Sense id="oewn-run-n-1" synset="oewn-00001-n"/>
    </LexicalEntry>
    <LexicalEntry id="oewn-run-v">
      <Lemma writtenForm="run" partOfSpeech="v">
        <Pronunciation variety="GB">rʌn</Pronunciation>
      </Lemma>
      <Sense id="oewn-run-v-1" synset="oewn-00002-v">
        <SenseRelation relType="antonym" target="oewn-missing-v-1"/>
      </Sense>
      <Sense id="oewn-run-v-2" synset="oewn-00003-v"/>
      <SyntacticBehaviour subcategorizationFrame="Somebody ----s"/>
    </LexicalEntry>
    <LexicalEntry id="oewn-sprint-v">
      <Lemma writtenForm="sprint" partOfSpeech="v"/>
      <Sense id="oewn-sprint-v-1" synset="oewn-00002-v"/>
    </LexicalEntry>
    <LexicalEntry id="oewn-move-v">
      <Lemma writtenForm="move" partOfSpeech="v"/>
      <Sense id="oewn-move-v-1" synset="oewn-00004-v"/>
    </LexicalEntry>
    <LexicalEntry id="oewn-operate-v">
      <Lemma writtenForm="operate" partOfSpeech="v"/>
      <Sense id="oewn-operate-v-1" synset="oewn-00003-v"/>
    </LexicalEntry>
    <LexicalEntry id="oewn-hot-a">
      <Lemma writtenForm="hot" partOfSpeech="a"/>
      <Sense id="oewn-hot-a-1" synset="oewn-00005-a">
        <SenseRelation relType="antonym" target="oewn-cold-a-1"/>
      </Sense>
    </LexicalEntry>
    <LexicalEntry id="oewn-cold-a">
      <Lemma writtenForm="cold" partOfSpeech="a"/>
      <Sense id="oewn-cold-a-1" synset="oewn-00006-a">
        <SenseRelation relType="antonym" target="oewn-hot-a-1"/>
      </Sense>
    </LexicalEntry>
    <LexicalEntry id="oewn-dog-n">
      <Lemma writtenForm="dog" partOfSpeech="n">
        <Pronunciation variety="GB">dɒɡ</Pronunciation>
        <Pronunciation variety="US">dɔɡ</Pronunciation>
      </Lemma>
      <Sense id="oewn-dog-n-1" synset="oewn-00007-n"/>
    </LexicalEntry>
    <LexicalEntry id="oewn-animal-n">
      <Lemma writtenForm="animal" partOfSpeech="n"/>
      <Sense id="oewn-animal-n-1" synset="oewn-00008-n"/>
    </LexicalEntry>
    <LexicalEntry id="oewn-cafe-n">
      <Lemma writtenForm="Café" partOfSpeech="n"/>
      <Sense id="oewn-cafe-n-1" synset="oewn-00009-n"/>
    </LexicalEntry>
    <Synset id="oewn-00001-n" ili="i1" partOfSpeech="n" members="oewn-run-n-1" lexfile="noun.act">
      <Definition>a score in baseball made by a runner touching all four bases safely</Definition>
      <Example>the Yankees scored 3 runs in the bottom of the 9th</Example>
    </Synset>
    <Synset id="oewn-00002-v" ili="i2" partOfSpeech="v" members="oewn-run-v-1 oewn-sprint-v-1" lexfile="verb.motion">
      <Definition>move fast by using one's feet, with one foot off the ground at any given time</Definition>
      <ILIDefinition>move fast on foot</ILIDefinition>
      <SynsetRelation relType="hypernym" target="oewn-00004-v"/>
      <Example>Don't run--you'll be out of breath</Example>
      <Example dc:source="Lewis Carroll">The children ran to the store</Example>
    </Synset>
    <Synset id="oewn-00003-v" ili="i3" partOfSpeech="v" members="oewn-operate-v-1 oewn-run-v-2" lexfile="verb.social">
      <Definition>direct or control; projects, businesses, etc.</Definition>
      <Example>She is running a relief operation in the Sudan</Example>
    </Synset>
    <Synset id="oewn-00004-v" ili="i4" partOfSpeech="v" members="oewn-move-v-1" lexfile="verb.motion">
      <Definition>change location; move, travel, or proceed, also metaphorically</Definition>
      <SynsetRelation relType="hyponym" target="oewn-00002-v"/>
    </Synset>
    <Synset id="oewn-00005-a" ili="i5" partOfSpeech="a" members="oewn-hot-a-1" lexfile="adj.all">
      <Definition>used of physical heat; having a high or higher than desirable temperature</Definition>
    </Synset>
    <Synset id="oewn-00006-a" ili="i6" partOfSpeech="a" members="oewn-cold-a-1" lexfile="adj.all">
      <Definition>having a low or inadequate temperature or feeling a sensation of coldness</Definition>
    </Synset>
    <Synset id="oewn-00007-n" ili="i7" partOfSpeech="n" members="oewn-dog-n-1" lexfile="noun.animal">
      <Definition>a member of the genus Canis</Definition>
      <SynsetRelation relType="hypernym" target="oewn-00008-n"/>
      <SynsetRelation relType="hypernym" target="oewn-99999-n"/>
      <Example>the dog barked all night</Example>
    </Synset>
    <Synset id="oewn-00008-n" ili="i8" partOfSpeech="n" members="oewn-animal-n-1" lexfile="noun.Tops">
      <Definition>a living organism characterized by voluntary movement</Definition>
      <SynsetRelation relType="hyponym" target="oewn-00007-n"/>
    </Synset>
    <Synset id="oewn-00009-n" ili="i9" partOfSpeech="n" members="oewn-cafe-n-1" lexfile="noun.artifact">
      <Definition>a small restaurant &amp; bar serving &quot;coffee&quot; &lt;and&gt; light meals</Definition>
      <Example>we met at the café on the corner</Example>
    </Synset>
  </Lexicon>
</LexicalResource>
`

// CafeDefinition is the decoded text of the entity-laden definition above.
const CafeDefinition = `a small restaurant & bar serving "coffee" <and> light meals`

// Gzip returns LMF compressed with gzip.
func Gzip(t testing.TB) []byte {
	t.Helper()
	return GzipBytes(t, []byte(LMF))
}

// GzipBytes compresses b with gzip.
func GzipBytes(t testing.TB, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

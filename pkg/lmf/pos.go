package lmf

import (
	"fmt"
	"strings"
)

// PartOfSpeech is the single-letter WN-LMF part-of-speech code.
type PartOfSpeech string

const (
	Noun               PartOfSpeech = "n"
	Verb               PartOfSpeech = "v"
	Adjective          PartOfSpeech = "a"
	AdjectiveSatellite PartOfSpeech = "s"
	Adverb             PartOfSpeech = "r"
	Conjunction        PartOfSpeech = "c"
	Adposition         PartOfSpeech = "p"
	Other              PartOfSpeech = "x"
	Unknown            PartOfSpeech = "u"
)

var posNames = map[PartOfSpeech]string{
	Noun:               "noun",
	Verb:               "verb",
	Adjective:          "adjective",
	AdjectiveSatellite: "adjective satellite",
	Adverb:             "adverb",
	Conjunction:        "conjunction",
	Adposition:         "adposition",
	Other:              "other",
	Unknown:            "unknown",
}

// String returns the display name, e.g. "adjective satellite".
func (p PartOfSpeech) String() string {
	if name, ok := posNames[p]; ok {
		return name
	}
	return string(p)
}

// Valid reports whether p is one of the known codes.
func (p PartOfSpeech) Valid() bool {
	_, ok := posNames[p]
	return ok
}

// Codes returns the stored codes a filter on p should match. Adjective
// covers satellites as well.
func (p PartOfSpeech) Codes() []string {
	if p == Adjective {
		return []string{string(Adjective), string(AdjectiveSatellite)}
	}
	return []string{string(p)}
}

// ParsePartOfSpeech accepts a code or a common name ("noun", "adj",
// "adverb", "adj_sat", ...), case-insensitively.
func ParsePartOfSpeech(s string) (PartOfSpeech, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "noun":
		return Noun, nil
	case "v", "verb":
		return Verb, nil
	case "a", "adj", "adjective":
		return Adjective, nil
	case "s", "adj_sat", "adjective_satellite", "adjective satellite", "satellite":
		return AdjectiveSatellite, nil
	case "r", "adv", "adverb":
		return Adverb, nil
	case "c", "conj", "conjunction":
		return Conjunction, nil
	case "p", "adp", "adposition", "prep", "preposition":
		return Adposition, nil
	case "x", "other":
		return Other, nil
	case "u", "unknown":
		return Unknown, nil
	}
	return "", fmt.Errorf("unknown part of speech %q", s)
}

// posFromAttr maps a partOfSpeech attribute to a code; values outside the
// vocabulary are kept as Unknown rather than rejected.
func posFromAttr(s string) PartOfSpeech {
	p := PartOfSpeech(strings.TrimSpace(s))
	if p.Valid() {
		return p
	}
	return Unknown
}

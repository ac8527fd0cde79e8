package lmf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/japaniel/oewn/pkg/wnerr"
)

type frame struct {
	name     string
	id       string
	synsetID string // Sense only

	senses   int // LexicalEntry: senses seen so far
	defs     int // Synset: definitions seen so far
	examples int // Synset or Sense: examples seen so far

	text   *strings.Builder
	source string
	attrs  xml.StartElement
}

// Parser turns an LMF byte stream into records. It is single-pass and not
// safe for concurrent use.
type Parser struct {
	dec     *xml.Decoder
	stack   []*frame
	sawRoot bool
	done    bool
	err     error
}

// NewParser returns a parser reading from r.
func NewParser(r io.Reader) *Parser {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &Parser{dec: dec}
}

// Next returns the next record. After the End record it returns io.EOF.
// Any other error is a parse error and is returned again by later calls.
func (p *Parser) Next() (Record, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.done {
		return nil, io.EOF
	}
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return p.finish()
		}
		if err != nil {
			return nil, p.fail(err)
		}

		var rec Record
		switch t := tok.(type) {
		case xml.StartElement:
			rec, err = p.start(t)
		case xml.EndElement:
			rec = p.end()
		case xml.CharData:
			if top := p.top(); top != nil && top.text != nil {
				top.text.Write(t)
			}
		}
		if err != nil {
			return nil, p.fail(err)
		}
		if rec != nil {
			return rec, nil
		}
	}
}

// All adapts Next to a range-over-func sequence. Iteration stops after the
// first error.
func (p *Parser) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := p.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func (p *Parser) finish() (Record, error) {
	if len(p.stack) > 0 {
		return nil, p.fail(fmt.Errorf("document ends inside <%s>: %w", p.top().name, io.ErrUnexpectedEOF))
	}
	if !p.sawRoot {
		return nil, p.fail(errors.New("document has no root element"))
	}
	p.done = true
	return End{}, nil
}

func (p *Parser) fail(err error) error {
	line, _ := p.dec.InputPos()
	p.err = wnerr.Parse("decode", fmt.Errorf("line %d: %w", line, err))
	return p.err
}

func (p *Parser) orphan(child string) error {
	parent := "document"
	if top := p.top(); top != nil {
		parent = "<" + top.name + ">"
		if top.id == "" {
			parent += " without id"
		}
	}
	return fmt.Errorf("<%s> inside %s: %w", child, parent, wnerr.ErrOrphanElement)
}

func (p *Parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// nearest returns the innermost open frame named name.
func (p *Parser) nearest(name string) *frame {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].name == name {
			return p.stack[i]
		}
	}
	return nil
}

func (p *Parser) push(f *frame) { p.stack = append(p.stack, f) }

func (p *Parser) ignore(se xml.StartElement, reason string) (Record, error) {
	line, _ := p.dec.InputPos()
	parent := ""
	if top := p.top(); top != nil {
		parent = top.name
	}
	return Ignored{Element: se.Name.Local, Parent: parent, Reason: reason, Line: line}, nil
}

// skip records an unknown element and consumes its subtree.
func (p *Parser) skip(se xml.StartElement, reason string) (Record, error) {
	rec, _ := p.ignore(se, reason)
	if err := p.dec.Skip(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *Parser) start(se xml.StartElement) (Record, error) {
	name := se.Name.Local
	top := p.top()

	if top == nil {
		if p.sawRoot {
			return nil, fmt.Errorf("second root element <%s>", name)
		}
		p.sawRoot = true
		if name != "LexicalResource" {
			return nil, fmt.Errorf("root element is <%s>, want <LexicalResource>", name)
		}
		p.push(&frame{name: name})
		return nil, nil
	}
	if top.text != nil {
		return p.skip(se, "markup inside text element")
	}

	switch name {
	case "Lexicon":
		f := &frame{name: name, id: attr(se, "id")}
		p.push(f)
		return Lexicon{
			ID:       f.id,
			Label:    attr(se, "label"),
			Language: attr(se, "language"),
			Email:    attr(se, "email"),
			License:  attr(se, "license"),
			Version:  attr(se, "version"),
			URL:      attr(se, "url"),
			Citation: attr(se, "citation"),
		}, nil

	case "LexicalEntry":
		p.push(&frame{name: name, id: attr(se, "id")})
		return nil, nil

	case "Lemma":
		if top.name != "LexicalEntry" || top.id == "" {
			return nil, p.orphan(name)
		}
		var rec Record
		if form, ok := attrOK(se, "writtenForm"); ok {
			rec = LexicalEntry{
				ID:        top.id,
				LexiconID: p.lexiconID(),
				Lemma:     form,
				POS:       posFromAttr(attr(se, "partOfSpeech")),
			}
		} else {
			rec, _ = p.ignore(se, "missing writtenForm")
		}
		p.push(&frame{name: name, id: top.id})
		return rec, nil

	case "Pronunciation":
		if (top.name != "LexicalEntry" && top.name != "Lemma") || top.id == "" {
			return nil, p.orphan(name)
		}
		p.push(&frame{name: name, id: top.id, text: &strings.Builder{}, attrs: se})
		return nil, nil

	case "Sense":
		if top.name != "LexicalEntry" || top.id == "" {
			return nil, p.orphan(name)
		}
		index := top.senses
		top.senses++
		f := &frame{name: name, id: attr(se, "id"), synsetID: attr(se, "synset")}
		var rec Record
		switch {
		case f.id == "":
			rec, _ = p.ignore(se, "missing id")
		case f.synsetID == "":
			rec, _ = p.ignore(se, "missing synset")
		default:
			rec = Sense{ID: f.id, EntryID: top.id, SynsetID: f.synsetID, Index: index}
		}
		p.push(f)
		return rec, nil

	case "SenseRelation":
		if top.name != "Sense" {
			return nil, p.orphan(name)
		}
		if top.id == "" {
			return p.skip(se, "sense has no id")
		}
		rec, _ := relation(p, se, ScopeSense, top.id)
		p.push(&frame{name: name})
		return rec, nil

	case "Synset":
		f := &frame{name: name, id: attr(se, "id")}
		var rec Record
		if f.id == "" {
			rec, _ = p.ignore(se, "missing id")
		} else {
			rec = Synset{
				ID:        f.id,
				LexiconID: p.lexiconID(),
				POS:       posFromAttr(attr(se, "partOfSpeech")),
				ILI:       attr(se, "ili"),
				LexFile:   attr(se, "lexfile"),
				Members:   strings.Fields(attr(se, "members")),
			}
		}
		p.push(f)
		return rec, nil

	case "SynsetRelation":
		if top.name != "Synset" || top.id == "" {
			return nil, p.orphan(name)
		}
		rec, _ := relation(p, se, ScopeSynset, top.id)
		p.push(&frame{name: name})
		return rec, nil

	case "Definition", "ILIDefinition":
		if top.name != "Synset" || top.id == "" {
			return nil, p.orphan(name)
		}
		p.push(&frame{name: name, id: top.id, text: &strings.Builder{}, source: attr(se, "source")})
		return nil, nil

	case "Example":
		var synsetID string
		switch top.name {
		case "Synset":
			synsetID = top.id
		case "Sense":
			switch {
			case top.id == "":
				return p.skip(se, "sense has no id")
			case top.synsetID == "":
				return p.skip(se, "sense has no synset")
			}
			synsetID = top.synsetID
		}
		if synsetID == "" {
			return nil, p.orphan(name)
		}
		p.push(&frame{name: name, id: synsetID, text: &strings.Builder{}, source: attr(se, "source")})
		return nil, nil
	}

	return p.skip(se, "unsupported element")
}

func (p *Parser) end() Record {
	f := p.top()
	if f == nil {
		return nil
	}
	p.stack = p.stack[:len(p.stack)-1]
	parent := p.top()

	switch f.name {
	case "Pronunciation":
		return Pronunciation{
			EntryID:  f.id,
			Variety:  attr(f.attrs, "variety"),
			Notation: attr(f.attrs, "notation"),
			Phonemic: attr(f.attrs, "phonemic") != "false",
			Audio:    attr(f.attrs, "audio"),
			Text:     f.text.String(),
		}
	case "Definition":
		pos := parent.defs
		parent.defs++
		return Definition{SynsetID: f.id, Position: pos, Text: f.text.String(), Source: f.source}
	case "ILIDefinition":
		return ILIDefinition{SynsetID: f.id, Text: f.text.String()}
	case "Example":
		pos := parent.examples
		parent.examples++
		return Example{SynsetID: f.id, Position: pos, Text: f.text.String(), Source: f.source}
	}
	return nil
}

func (p *Parser) lexiconID() string {
	if f := p.nearest("Lexicon"); f != nil {
		return f.id
	}
	return ""
}

func relation(p *Parser, se xml.StartElement, scope Scope, source string) (Record, error) {
	relType, target := attr(se, "relType"), attr(se, "target")
	if relType == "" || target == "" {
		return p.ignore(se, "missing relType or target")
	}
	return Relation{Scope: scope, Type: RelationType(relType), SourceID: source, TargetID: target}, nil
}

// attr returns the value of the attribute with the given local name. The
// namespace is not compared, so dc:source matches "source".
func attr(se xml.StartElement, local string) string {
	v, _ := attrOK(se, local)
	return v
}

func attrOK(se xml.StartElement, local string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

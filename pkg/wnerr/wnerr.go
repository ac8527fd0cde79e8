// Package wnerr classifies the failures that can abort a reload or a query.
//
// Every error leaving a pipeline phase is wrapped in an *Error carrying the
// Kind of the phase that failed and the operation in progress, so callers can
// print a precise message and decide whether the cache needs rebuilding.
package wnerr

import (
	"errors"
	"fmt"
)

// Kind identifies the pipeline phase an error belongs to.
type Kind int

const (
	// KindUnknown is returned by KindOf for unclassified errors.
	KindUnknown Kind = iota
	// KindTransport covers network and HTTP failures while fetching.
	KindTransport
	// KindArchive covers corrupt or unsupported containers and missing members.
	KindArchive
	// KindParse covers malformed XML and unresolvable element nesting.
	KindParse
	// KindLoad covers storage writes, transactions and the final swap.
	KindLoad
	// KindQuery covers an unreadable or corrupt store at query time.
	KindQuery
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindArchive:
		return "archive"
	case KindParse:
		return "parse"
	case KindLoad:
		return "load"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Sentinel causes. Compare with errors.Is.
var (
	ErrBadStatus          = errors.New("unexpected http status")
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	ErrCorruptArchive     = errors.New("corrupt archive")
	ErrMissingMember      = errors.New("expected xml member not found in archive")
	ErrAmbiguousMember    = errors.New("archive holds more than one candidate xml member")
	ErrOrphanElement      = errors.New("element has no identifiable parent")
	ErrTruncated          = errors.New("record stream ended before end of document")
	ErrSwap               = errors.New("could not replace cache file")
	ErrEmptyStore         = errors.New("store holds no entries")
)

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind and op. A nil err yields nil. An err that is
// already classified keeps its original kind.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transport wraps err as a transport failure.
func Transport(op string, err error) error { return New(KindTransport, op, err) }

// Archive wraps err as an archive failure.
func Archive(op string, err error) error { return New(KindArchive, op, err) }

// Parse wraps err as a parse failure.
func Parse(op string, err error) error { return New(KindParse, op, err) }

// Load wraps err as a load failure.
func Load(op string, err error) error { return New(KindLoad, op, err) }

// Query wraps err as a query failure.
func Query(op string, err error) error { return New(KindQuery, op, err) }

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

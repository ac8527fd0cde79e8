package lmf

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldLemma returns the case-folded key used to store and look up lemmas.
// The same function must be used on both sides.
func FoldLemma(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

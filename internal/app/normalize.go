package app

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeAnswer folds an answer for correctness comparison: whitespace runs
// (non-breaking spaces included) collapse to one space, ends are trimmed and
// case is folded. NormalizeAnswer(NormalizeAnswer(x)) == NormalizeAnswer(x).
func NormalizeAnswer(s string) string {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	// Casers keep state, so one per call.
	return norm.NFC.String(cases.Fold().String(s))
}

// matchOption returns the option equal to answer, falling back to a normalized match.
func matchOption(options []string, answer string) (string, bool) {
	for _, opt := range options {
		if opt == answer {
			return opt, true
		}
	}
	want := NormalizeAnswer(answer)
	for _, opt := range options {
		if NormalizeAnswer(opt) == want {
			return opt, true
		}
	}
	return "", false
}

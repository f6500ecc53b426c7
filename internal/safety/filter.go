package safety

import (
	"strings"
	"unicode"
)

// Filter matches inbound text against the emergency and exit phrase lists.
// It is immutable after construction and safe for concurrent use.
type Filter struct {
	emergency []string
	exit      [][]string
}

// NewFilter builds a filter from the given keywords, falling back to the defaults.
func NewFilter(kw *Keywords) *Filter {
	if kw == nil {
		kw = DefaultKeywords()
	}
	f := &Filter{
		emergency: make([]string, 0, len(kw.Emergency)),
		exit:      make([][]string, 0, len(kw.Exit)),
	}
	for _, phrase := range kw.Emergency {
		if norm := Normalize(phrase); norm != "" {
			f.emergency = append(f.emergency, norm)
		}
	}
	for _, phrase := range kw.Exit {
		if tokens := Tokens(phrase); len(tokens) > 0 {
			f.exit = append(f.exit, tokens)
		}
	}
	return f
}

// IsEmergency reports whether text contains any emergency phrase.
func (f *Filter) IsEmergency(text string) bool {
	_, ok := f.MatchEmergency(text)
	return ok
}

// MatchEmergency returns the first emergency phrase found in text.
func (f *Filter) MatchEmergency(text string) (string, bool) {
	if f == nil {
		return "", false
	}
	norm := Normalize(text)
	if norm == "" {
		return "", false
	}
	for _, phrase := range f.emergency {
		if strings.Contains(norm, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// IsExit reports whether the whole message is an exit phrase, ignoring
// punctuation and case. "no" ends the session; "no fever" does not.
func (f *Filter) IsExit(text string) bool {
	if f == nil {
		return false
	}
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return false
	}
	for _, phrase := range f.exit {
		if equalTokens(tokens, phrase) {
			return true
		}
	}
	return false
}

// Normalize lowercases text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Tokens splits text into lowercase words. Combining marks stay attached so
// Devanagari and Bengali words survive intact.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

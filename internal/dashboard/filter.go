package dashboard

import "strings"

// NameFilter matches wall names against comma-separated substrings.
type NameFilter struct {
	tokens []string
}

// ParseNameFilter splits raw on commas and drops blank tokens. A filter with
// no tokens matches every name.
func ParseNameFilter(raw string) NameFilter {
	var f NameFilter
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		f.tokens = append(f.tokens, strings.ToLower(tok))
	}
	return f
}

// Tokens returns the lower-cased substrings.
func (f NameFilter) Tokens() []string { return f.tokens }

// MatchAll reports whether the filter accepts every name.
func (f NameFilter) MatchAll() bool { return len(f.tokens) == 0 }

// Match reports whether name contains any token, ignoring case.
func (f NameFilter) Match(name string) bool {
	if f.MatchAll() {
		return true
	}
	lower := strings.ToLower(name)
	for _, tok := range f.tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

package lexicon

import (
	"strings"
	"unicode"

	"github.com/memberdesk/backend/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// maxSpan is the widest run of tokens joined when looking for a compound keyword.
const maxSpan = 3

const edgePunct = ".,!?;:\"'()[]{}"

// Split segments text on whitespace and trims edge punctuation.
func Split(text string) []string {
	fields := strings.FieldsFunc(norm.NFC.String(text), unicode.IsSpace)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, edgePunct)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Span is a field keyword found at tokens[Start:End].
type Span struct {
	Field   domain.Field
	Synonym string
	Start   int
	End     int
}

// MatchSpans scans tokens left to right. At each position the widest run
// of adjacent tokens that resolves to a field wins, so "회원 번호" reads as
// one compound.
func (l *Lexicon) MatchSpans(tokens []string) []Span {
	var spans []Span
	for i := 0; i < len(tokens); {
		matched := false
		for w := min(maxSpan, len(tokens)-i); w >= 1; w-- {
			m, ok := l.Lookup(strings.Join(tokens[i:i+w], ""))
			if !ok {
				continue
			}
			spans = append(spans, Span{Field: m.Field, Synonym: m.Synonym, Start: i, End: i + w})
			i += w
			matched = true
			break
		}
		if !matched {
			i++
		}
	}
	return spans
}

// MatchFields returns the fields named in tokens, first-seen order, deduplicated.
func (l *Lexicon) MatchFields(tokens []string) []domain.Field {
	seen := make(map[domain.Field]bool)
	var out []domain.Field
	for _, s := range l.MatchSpans(tokens) {
		if !seen[s.Field] {
			seen[s.Field] = true
			out = append(out, s.Field)
		}
	}
	return out
}

// ContainsAny reports whether any token, bare or particle-stripped, is in set.
func (l *Lexicon) ContainsAny(tokens []string, set KeywordSet) bool {
	return l.IndexAny(tokens, set) >= 0
}

// IndexAny returns the index of the first token in set, or -1.
func (l *Lexicon) IndexAny(tokens []string, set KeywordSet) int {
	for i, t := range tokens {
		for _, v := range l.norm.variants(NormalizeSpacing(t)) {
			if set.Has(v) {
				return i
			}
		}
	}
	return -1
}

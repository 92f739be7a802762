package lexicon

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultParticleMinLength is the shortest token (in runes) particles are stripped from.
const DefaultParticleMinLength = 3

// defaultParticles are trailing case markers, longest first.
var defaultParticles = []string{
	"에서는", "으로는", "에게서",
	"에서", "으로", "에게", "까지", "부터",
	"은", "는", "이", "가", "을", "를", "의", "로", "와", "과", "도", "만", "에",
}

// NormalizeSpacing removes all whitespace, composes Hangul (NFC) and folds
// case so that stored keywords and user phrasing compare symmetrically.
func NormalizeSpacing(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = norm.NFC.String(s)
	// Caser carries state; build one per call.
	s = cases.Fold().String(s)
	return norm.NFC.String(s)
}

// Digits keeps only ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalizer strips grammatical particles from tokens.
type Normalizer struct {
	minLength int
	particles []string
}

// NewNormalizer returns a Normalizer that leaves tokens shorter than
// minLength runes untouched.
func NewNormalizer(minLength int) Normalizer {
	if minLength <= 0 {
		minLength = DefaultParticleMinLength
	}
	return Normalizer{minLength: minLength, particles: defaultParticles}
}

// StripParticles removes the longest known particle suffix from token.
func (n Normalizer) StripParticles(token string) string {
	if utf8.RuneCountInString(token) < n.minLength {
		return token
	}
	for _, p := range n.particles {
		if strings.HasSuffix(token, p) && len(token) > len(p) {
			return strings.TrimSuffix(token, p)
		}
	}
	return token
}

// variants returns token followed by every particle-stripped form, longest first.
func (n Normalizer) variants(token string) []string {
	out := []string{token}
	if utf8.RuneCountInString(token) < n.minLength {
		return out
	}
	for _, p := range n.particles {
		if strings.HasSuffix(token, p) && len(token) > len(p) {
			out = append(out, strings.TrimSuffix(token, p))
		}
	}
	return out
}

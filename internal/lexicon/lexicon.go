package lexicon

import (
	"fmt"
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/memberdesk/backend/internal/domain"
)

var nameShape = regexp.MustCompile(`^[가-힣]{2,4}$`)

// FieldDef maps one canonical field to its surface synonyms.
type FieldDef struct {
	Field    domain.Field
	Synonyms []string
}

// Triggers are the fixed intent keyword sets.
type Triggers struct {
	Delete     []string
	Update     []string
	Save       []string
	Search     []string
	Order      []string
	Commission []string
	LogTypes   []string
}

// Config describes the tables a Lexicon is built from.
type Config struct {
	Fields            []FieldDef
	Triggers          Triggers
	ParticleMinLength int
}

// KeywordSet is an immutable set of normalized keywords.
type KeywordSet struct {
	words map[string]string
}

func newKeywordSet(words []string) KeywordSet {
	ks := KeywordSet{words: make(map[string]string, len(words))}
	for _, w := range words {
		ks.words[NormalizeSpacing(w)] = w
	}
	return ks
}

// Has reports whether the normalized token is in the set.
func (ks KeywordSet) Has(token string) bool {
	_, ok := ks.words[NormalizeSpacing(token)]
	return ok
}

// Len returns the number of keywords.
func (ks KeywordSet) Len() int { return len(ks.words) }

// Words returns the keywords as configured, sorted.
func (ks KeywordSet) Words() []string {
	out := make([]string, 0, len(ks.words))
	for _, w := range ks.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

type synonymEntry struct {
	field   domain.Field
	synonym string
	order   int
}

// Match is a resolved field keyword.
type Match struct {
	Field   domain.Field
	Synonym string
}

// Lexicon holds the field synonym map and trigger sets. It is built once
// and only read afterwards, so it is safe for concurrent use.
type Lexicon struct {
	fields   []FieldDef
	synonyms map[string]synonymEntry
	norm     Normalizer

	Delete     KeywordSet
	Update     KeywordSet
	Save       KeywordSet
	Search     KeywordSet
	Order      KeywordSet
	Commission KeywordSet
	LogTypes   KeywordSet

	reserved KeywordSet
}

// New builds a Lexicon. A synonym may belong to only one field.
func New(cfg Config) (*Lexicon, error) {
	l := &Lexicon{
		fields:   cfg.Fields,
		synonyms: make(map[string]synonymEntry),
		norm:     NewNormalizer(cfg.ParticleMinLength),
	}

	var all []string
	for i, def := range cfg.Fields {
		if len(def.Synonyms) == 0 {
			return nil, fmt.Errorf("field %s has no synonyms", def.Field)
		}
		for _, s := range def.Synonyms {
			key := NormalizeSpacing(s)
			if prev, ok := l.synonyms[key]; ok && prev.field != def.Field {
				return nil, fmt.Errorf("synonym %q maps to both %s and %s", s, prev.field, def.Field)
			}
			l.synonyms[key] = synonymEntry{field: def.Field, synonym: key, order: i}
			all = append(all, s)
		}
	}

	t := cfg.Triggers
	l.Delete = newKeywordSet(t.Delete)
	l.Update = newKeywordSet(t.Update)
	l.Save = newKeywordSet(t.Save)
	l.Search = newKeywordSet(t.Search)
	l.Order = newKeywordSet(t.Order)
	l.Commission = newKeywordSet(t.Commission)
	l.LogTypes = newKeywordSet(t.LogTypes)

	for _, set := range [][]string{t.Delete, t.Update, t.Save, t.Search, t.Order, t.Commission, t.LogTypes} {
		all = append(all, set...)
	}
	l.reserved = newKeywordSet(all)

	return l, nil
}

// Default returns the built-in Korean lexicon.
func Default(particleMinLength int) *Lexicon {
	l, err := New(Config{Fields: DefaultFields, Triggers: DefaultTriggers, ParticleMinLength: particleMinLength})
	if err != nil {
		panic(err)
	}
	return l
}

// Fields returns the field table in declaration order.
func (l *Lexicon) Fields() []FieldDef {
	out := make([]FieldDef, len(l.fields))
	copy(out, l.fields)
	return out
}

// Normalizer returns the particle normalizer.
func (l *Lexicon) Normalizer() Normalizer { return l.norm }

// Lookup resolves token to a field. Candidates are the token itself and its
// particle-stripped forms; the longest matched synonym wins and ties go to
// the field declared first.
func (l *Lexicon) Lookup(token string) (Match, bool) {
	var best synonymEntry
	found := false
	for _, v := range l.norm.variants(NormalizeSpacing(token)) {
		e, ok := l.synonyms[v]
		if !ok {
			continue
		}
		if !found || longer(e, best) {
			best, found = e, true
		}
	}
	if !found {
		return Match{}, false
	}
	return Match{Field: best.field, Synonym: best.synonym}, true
}

func longer(a, b synonymEntry) bool {
	la, lb := utf8.RuneCountInString(a.synonym), utf8.RuneCountInString(b.synonym)
	if la != lb {
		return la > lb
	}
	return a.order < b.order
}

// Resolve returns the field token denotes.
func (l *Lexicon) Resolve(token string) (domain.Field, bool) {
	m, ok := l.Lookup(token)
	return m.Field, ok
}

// IsFieldKeyword reports whether token names a field.
func (l *Lexicon) IsFieldKeyword(token string) bool {
	_, ok := l.Lookup(token)
	return ok
}

// IsReserved reports whether token is a field synonym or a trigger word,
// with or without a trailing particle.
func (l *Lexicon) IsReserved(token string) bool {
	if l.IsFieldKeyword(token) {
		return true
	}
	for _, v := range l.norm.variants(NormalizeSpacing(token)) {
		if l.reserved.Has(v) {
			return true
		}
	}
	return false
}

// IsName reports whether token looks like a person name: 2 to 4 Hangul
// syllables that are not a keyword.
func (l *Lexicon) IsName(token string) bool {
	return nameShape.MatchString(token) && !l.IsReserved(token)
}

// Name returns the member name a name-shaped token refers to, or "". A
// 4-syllable token ending in a particle ("홍길동의", "이판여는") yields its
// 3-syllable stem. Shorter tokens are returned whole (박지은).
func (l *Lexicon) Name(token string) string {
	if !l.IsName(token) {
		return ""
	}
	if utf8.RuneCountInString(token) > 3 {
		for _, v := range l.norm.variants(token)[1:] {
			if utf8.RuneCountInString(v) >= 3 && nameShape.MatchString(v) && !l.IsReserved(v) {
				return v
			}
		}
	}
	return token
}

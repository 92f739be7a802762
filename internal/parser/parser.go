// Package parser turns short Korean commands into ParsedCommands. Every
// parser is a pure function of its input text and the shared Lexicon.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

var (
	memberNumberPattern = regexp.MustCompile(`^\d{5,8}$`)
	phonePattern        = regexp.MustCompile(`^(010-\d{3,4}-\d{4}|\d{10,11})$`)
)

// Parser holds the read-only tables shared by all parsers.
type Parser struct {
	lex *lexicon.Lexicon
	now func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock fixes the clock used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New creates a Parser over lex.
func New(lex *lexicon.Lexicon, opts ...Option) *Parser {
	p := &Parser{lex: lex, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lexicon returns the tables the parser reads.
func (p *Parser) Lexicon() *lexicon.Lexicon { return p.lex }

// isTrigger reports whether token is any intent keyword.
func (p *Parser) isTrigger(token string) bool {
	l := p.lex
	one := []string{token}
	return l.ContainsAny(one, l.Delete) || l.ContainsAny(one, l.Update) ||
		l.ContainsAny(one, l.Save) || l.ContainsAny(one, l.Search)
}

// firstName returns the index of the first name-shaped token not in skip.
func (p *Parser) firstName(tokens []string, skip []bool) int {
	for i, t := range tokens {
		if skip != nil && skip[i] {
			continue
		}
		if p.lex.IsName(t) {
			return i
		}
	}
	return -1
}

// fieldValues reads "keyword value..." fragments. A value runs from the end
// of a keyword span to the next keyword, a trigger word or the end of the
// tokens. A change keyword right after the keyword is skipped, and a 로/으로
// ending in front of a trailing change keyword is dropped. consumed marks
// every token that belongs to a keyword or a value.
func (p *Parser) fieldValues(tokens []string, spans []lexicon.Span) (values map[domain.Field]string, order []domain.Field, consumed []bool) {
	values = make(map[domain.Field]string)
	consumed = make([]bool, len(tokens))

	for k, s := range spans {
		for i := s.Start; i < s.End; i++ {
			consumed[i] = true
		}
		end := len(tokens)
		if k+1 < len(spans) {
			end = spans[k+1].Start
		}

		j := s.End
		for j < end && p.lex.ContainsAny(tokens[j:j+1], p.lex.Update) {
			consumed[j] = true
			j++
		}

		var parts []string
		stoppedAtChange := false
		for ; j < end; j++ {
			if p.isTrigger(tokens[j]) {
				stoppedAtChange = p.lex.ContainsAny(tokens[j:j+1], p.lex.Update)
				break
			}
			consumed[j] = true
			parts = append(parts, tokens[j])
		}

		for len(parts) > 0 && (parts[len(parts)-1] == "로" || parts[len(parts)-1] == "으로") {
			parts = parts[:len(parts)-1]
			stoppedAtChange = true
		}
		if stoppedAtChange && len(parts) > 0 {
			parts[len(parts)-1] = trimDirectional(parts[len(parts)-1])
		}

		value := strings.TrimSpace(strings.Join(parts, " "))
		if value == "" {
			continue
		}
		if _, seen := values[s.Field]; !seen {
			order = append(order, s.Field)
		}
		values[s.Field] = value
	}
	return values, order, consumed
}

// trimDirectional drops a trailing 으로/로 ("부산으로" becomes "부산").
func trimDirectional(token string) string {
	for _, suffix := range []string{"으로", "로"} {
		if strings.HasSuffix(token, suffix) && len(token) > len(suffix) {
			return strings.TrimSuffix(token, suffix)
		}
	}
	return token
}

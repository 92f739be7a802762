package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

// DateLayout is the canonical date form.
const DateLayout = "2006-01-02"

var (
	koreanFullDate  = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
	koreanMonthDay  = regexp.MustCompile(`(\d{1,2})월\s*(\d{1,2})일`)
	separatedDate   = regexp.MustCompile(`\b(\d{4})[-./](\d{1,2})[-./](\d{1,2})\b`)
	shortYearDate   = regexp.MustCompile(`\b(\d{2})[-./](\d{1,2})[-./](\d{1,2})\b`)
	compactDate     = regexp.MustCompile(`\b(\d{4})(\d{2})(\d{2})\b`)
	amountToken     = regexp.MustCompile(`^(\d{1,3}(,\d{3})+원?|\d+원)$`)
	bareAmount      = regexp.MustCompile(`^\d+$`)
	relativeDayWord = map[string]int{"오늘": 0, "어제": -1, "그제": -2}
)

// ExtractDate finds the first date in text and returns it in DateLayout
// together with text minus the date phrase.
func (p *Parser) ExtractDate(text string) (date, rest string, ok bool) {
	now := p.now()

	type pattern struct {
		re    *regexp.Regexp
		build func(m []string) (int, int, int)
	}
	patterns := []pattern{
		{koreanFullDate, func(m []string) (int, int, int) { return atoi(m[1]), atoi(m[2]), atoi(m[3]) }},
		{separatedDate, func(m []string) (int, int, int) { return atoi(m[1]), atoi(m[2]), atoi(m[3]) }},
		{shortYearDate, func(m []string) (int, int, int) { return 2000 + atoi(m[1]), atoi(m[2]), atoi(m[3]) }},
		{compactDate, func(m []string) (int, int, int) { return atoi(m[1]), atoi(m[2]), atoi(m[3]) }},
		{koreanMonthDay, func(m []string) (int, int, int) { return now.Year(), atoi(m[1]), atoi(m[2]) }},
	}

	for _, pt := range patterns {
		loc := pt.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		m := submatches(text, loc)
		y, mo, d := pt.build(m)
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.Local)
		if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
			continue
		}
		return t.Format(DateLayout), collapse(text[:loc[0]] + " " + text[loc[1]:]), true
	}

	for _, tok := range lexicon.Split(text) {
		if offset, found := relativeDayWord[tok]; found {
			day := now.AddDate(0, 0, offset)
			return day.Format(DateLayout), collapse(strings.Replace(text, tok, " ", 1)), true
		}
	}
	return "", text, false
}

// NormalizeDate rewrites any supported date form to DateLayout.
func (p *Parser) NormalizeDate(s string) (string, bool) {
	date, rest, ok := p.ExtractDate(s)
	if !ok || strings.TrimSpace(rest) != "" {
		return "", false
	}
	return date, true
}

// ParseCommission reads commission commands such as
// "홍길동 후원수당 2025.08.27 조회" or "홍길동 후원수당 150,000원 8월 27일 등록".
func (p *Parser) ParseCommission(text string) (domain.ParsedCommand, error) {
	date, rest, hasDate := p.ExtractDate(text)
	tokens := lexicon.Split(rest)

	intent := domain.IntentSearch
	switch {
	case p.lex.ContainsAny(tokens, p.lex.Delete):
		intent = domain.IntentDelete
	case p.lex.ContainsAny(tokens, p.lex.Update):
		intent = domain.IntentUpdate
	case p.lex.ContainsAny(tokens, p.lex.Save):
		intent = domain.IntentCreate
	}

	i := p.firstName(tokens, nil)
	if i < 0 {
		return domain.ParsedCommand{}, domain.ErrMissingName
	}

	cmd := domain.NewCommand(intent, domain.EntityCommission, text)
	cmd.Identifiers[domain.FieldName] = p.lex.Name(tokens[i])
	if hasDate {
		cmd.Identifiers[domain.FieldPaidDate] = date
	}
	if amount := p.commissionAmount(tokens, intent); amount != "" {
		cmd.Fields[domain.FieldCommission] = amount
	}
	if intent == domain.IntentCreate && cmd.Fields[domain.FieldCommission] == "" {
		return domain.ParsedCommand{}, fmt.Errorf("%w: commission amount missing", domain.ErrParseFailure)
	}
	return cmd, nil
}

// commissionAmount finds the amount in tokens. "150,000" and "150000원" are
// amounts for any intent; a bare digit run only when registering or
// updating, so a member number in a lookup is not read as money.
func (p *Parser) commissionAmount(tokens []string, intent domain.Intent) string {
	for _, t := range tokens {
		if amountToken.MatchString(t) {
			return lexicon.Digits(t)
		}
	}
	if intent != domain.IntentCreate && intent != domain.IntentUpdate {
		return ""
	}
	for _, t := range tokens {
		if bareAmount.MatchString(t) {
			return t
		}
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

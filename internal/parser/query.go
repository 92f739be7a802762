package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

var (
	codeQuery        = regexp.MustCompile(`(?i)^(?:코드|code)\s*[:：]?\s*([a-z0-9]+)$`)
	specialQuery     = regexp.MustCompile(`^특수번호\s*[:：]?\s*(\S+)$`)
	phoneQuery       = regexp.MustCompile(`^(010-\d{3,4}-\d{4}|010\d{7,8})$`)
	memberQueryNoise = map[string]bool{"회원": true, "회원정보": true, "정보": true}
)

// ParseMemberQuery reads a member lookup. In order it recognizes a code
// ("코드 A", "code:a"), a 5 to 8 digit member number, a phone number, a
// special number, "<field keyword> <value>" and finally a bare name.
func (p *Parser) ParseMemberQuery(text string) (domain.ParsedCommand, error) {
	var tokens []string
	for _, t := range lexicon.Split(text) {
		if p.lex.Search.Has(t) || memberQueryNoise[t] {
			continue
		}
		tokens = append(tokens, t)
	}
	q := strings.Join(tokens, " ")
	if q == "" {
		return domain.ParsedCommand{}, fmt.Errorf("%w: empty member query", domain.ErrParseFailure)
	}

	cmd := domain.NewCommand(domain.IntentSearch, domain.EntityMember, text)
	c := domain.NewCriteria()
	c.Sort = domain.SortSpec{Field: domain.FieldName}
	cmd.Criteria = c

	switch {
	case codeQuery.MatchString(q):
		c.Equality[domain.FieldCode] = strings.ToUpper(codeQuery.FindStringSubmatch(q)[1])
		c.Normalized[domain.FieldCode] = true
		return cmd, nil
	case memberNumberPattern.MatchString(q):
		c.Equality[domain.FieldMemberNumber] = q
		return cmd, nil
	case phoneQuery.MatchString(q):
		c.Equality[domain.FieldPhone] = q
		c.DigitNormalized[domain.FieldPhone] = true
		return cmd, nil
	case specialQuery.MatchString(q):
		c.Equality[domain.FieldSpecialNumber] = specialQuery.FindStringSubmatch(q)[1]
		return cmd, nil
	}

	if spans := p.lex.MatchSpans(tokens); len(spans) > 0 && spans[0].Start == 0 && spans[0].End < len(tokens) {
		f := spans[0].Field
		value := strings.Join(tokens[spans[0].End:], " ")
		c.Equality[f] = value
		switch f {
		case domain.FieldPhone:
			c.DigitNormalized[f] = true
		case domain.FieldLineage, domain.FieldCode, domain.FieldAddress, domain.FieldWorkplace:
			c.Normalized[f] = true
		}
		if f == domain.FieldName {
			cmd.Identifiers[domain.FieldName] = value
		}
		return cmd, nil
	}

	if i := p.firstName(tokens, nil); i >= 0 {
		name := p.lex.Name(tokens[i])
		c.Equality[domain.FieldName] = name
		cmd.Identifiers[domain.FieldName] = name
		return cmd, nil
	}
	return domain.ParsedCommand{}, fmt.Errorf("%w: cannot tell what to search for in %q", domain.ErrParseFailure, q)
}

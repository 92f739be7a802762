package parser

import (
	"strings"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

// ParseRegistration reads a member registration such as
// "회원등록 홍길동 12345678 010-1234-5678 계보도 김철수 우측".
// Leftover tokens that no keyword claims become the lineage.
func (p *Parser) ParseRegistration(text string) (domain.ParsedCommand, error) {
	cmd := domain.NewCommand(domain.IntentCreate, domain.EntityMember, text)
	tokens := lexicon.Split(text)

	values, _, consumed := p.fieldValues(tokens, p.lex.MatchSpans(tokens))

	nameIdx := -1
	if v, ok := values[domain.FieldName]; ok && p.lex.IsName(v) {
		cmd.Identifiers[domain.FieldName] = v
		delete(values, domain.FieldName)
	}

	var rest []string
	for i, t := range tokens {
		if consumed[i] || p.isTrigger(t) {
			continue
		}
		switch {
		case memberNumberPattern.MatchString(t) && values[domain.FieldMemberNumber] == "":
			values[domain.FieldMemberNumber] = t
		case phonePattern.MatchString(t) && values[domain.FieldPhone] == "":
			values[domain.FieldPhone] = t
		case nameIdx < 0 && cmd.Name() == "" && p.lex.IsName(t):
			nameIdx = i
			cmd.Identifiers[domain.FieldName] = p.lex.Name(t)
		default:
			rest = append(rest, t)
		}
	}

	if cmd.Name() == "" {
		return domain.ParsedCommand{}, domain.ErrMissingName
	}
	if len(rest) > 0 && values[domain.FieldLineage] == "" {
		values[domain.FieldLineage] = strings.Join(rest, " ")
	}
	for f, v := range values {
		cmd.Fields[f] = v
	}
	return cmd, nil
}

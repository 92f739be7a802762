package parser

import (
	"fmt"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

// ParseDeletion reads field-level deletions such as "이판여 휴대폰번호 삭제".
// It needs both a delete trigger and at least one field keyword. A name
// with a trigger but no field is a whole-member deletion, which this parser
// refuses; that operation is only reachable through the explicit member
// delete call.
func (p *Parser) ParseDeletion(text string) (domain.ParsedCommand, error) {
	tokens := lexicon.Split(text)

	if !p.lex.ContainsAny(tokens, p.lex.Delete) {
		return domain.ParsedCommand{}, fmt.Errorf("%w: no delete keyword", domain.ErrNotADeletion)
	}

	fields := p.lex.MatchFields(tokens)
	if len(fields) == 0 {
		return domain.ParsedCommand{}, fmt.Errorf("%w: no field keyword; whole-member deletion requires explicit confirmation", domain.ErrNotADeletion)
	}

	cmd := domain.NewCommand(domain.IntentDelete, domain.EntityMember, text)
	if i := p.firstName(tokens, nil); i >= 0 {
		cmd.Identifiers[domain.FieldName] = p.lex.Name(tokens[i])
	}
	cmd.Targets = fields
	return cmd, nil
}

// ParseMemberDeletion reads a whole-member deletion ("홍길동 삭제"). Only
// the explicit member delete operation calls it.
func (p *Parser) ParseMemberDeletion(text string) (domain.ParsedCommand, error) {
	tokens := lexicon.Split(text)
	i := p.firstName(tokens, nil)
	if i < 0 {
		return domain.ParsedCommand{}, domain.ErrMissingName
	}
	cmd := domain.NewCommand(domain.IntentDelete, domain.EntityMember, text)
	cmd.Identifiers[domain.FieldName] = p.lex.Name(tokens[i])
	for _, t := range tokens {
		if memberNumberPattern.MatchString(t) {
			cmd.Identifiers[domain.FieldMemberNumber] = t
			break
		}
	}
	return cmd, nil
}

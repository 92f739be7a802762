package parser

import (
	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

// ParseUpdate reads field changes such as "홍길동 주소 부산 해운대로 변경".
// When name is empty the first name-shaped token ahead of the first field
// keyword is used.
func (p *Parser) ParseUpdate(text, name string) (domain.ParsedCommand, error) {
	cmd := domain.NewCommand(domain.IntentUpdate, domain.EntityMember, text)
	tokens := lexicon.Split(text)
	spans := p.lex.MatchSpans(tokens)

	if name == "" {
		limit := len(tokens)
		if len(spans) > 0 {
			limit = spans[0].Start
		}
		if i := p.firstName(tokens[:limit], nil); i >= 0 {
			name = p.lex.Name(tokens[i])
		}
	}
	if name == "" {
		return domain.ParsedCommand{}, domain.ErrMissingName
	}
	cmd.Identifiers[domain.FieldName] = name

	values, _, _ := p.fieldValues(tokens, spans)
	if len(values) == 0 {
		return domain.ParsedCommand{}, domain.ErrNoFieldValues
	}
	for f, v := range values {
		cmd.Fields[f] = v
	}
	return cmd, nil
}

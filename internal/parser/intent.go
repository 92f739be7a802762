package parser

import (
	"fmt"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

// Rule is one step of the intent guesser: when Trigger accepts the tokens,
// Parse is tried.
type Rule struct {
	Name    string
	Trigger func(tokens []string) bool
	Parse   func(text string) ([]domain.ParsedCommand, error)
}

// Guess is the outcome of intent guessing. Rule is empty when no parser
// succeeded, in which case Commands holds a single Unknown command.
type Guess struct {
	Rule     string                 `json:"rule"`
	Commands []domain.ParsedCommand `json:"commands"`
	Failures map[string]string      `json:"failures,omitempty"`
}

// Unknown reports whether no rule produced a command.
func (g Guess) Unknown() bool { return g.Rule == "" }

// Guesser classifies free text by trying parsers in a fixed priority order.
type Guesser struct {
	p     *Parser
	rules []Rule
}

// NewGuesser builds the rule list: deletion, update, order, memo,
// commission, search.
func NewGuesser(p *Parser) *Guesser {
	l := p.lex
	single := func(fn func(string) (domain.ParsedCommand, error)) func(string) ([]domain.ParsedCommand, error) {
		return func(text string) ([]domain.ParsedCommand, error) {
			cmd, err := fn(text)
			if err != nil {
				return nil, err
			}
			return []domain.ParsedCommand{cmd}, nil
		}
	}

	g := &Guesser{p: p}
	g.rules = []Rule{
		{
			Name:    "deletion",
			Trigger: func(t []string) bool { return l.ContainsAny(t, l.Delete) },
			Parse:   single(p.ParseDeletion),
		},
		{
			Name:    "update",
			Trigger: func(t []string) bool { return l.ContainsAny(t, l.Update) },
			Parse:   single(func(text string) (domain.ParsedCommand, error) { return p.ParseUpdate(text, "") }),
		},
		{
			Name:    "order",
			Trigger: func(t []string) bool { return l.ContainsAny(splitOrderKeyword(t), l.Order) },
			Parse: func(text string) ([]domain.ParsedCommand, error) {
				if l.ContainsAny(lexicon.Split(text), l.Save) {
					return p.ParseOrder(text)
				}
				return single(p.ParseOrderLoose)(text)
			},
		},
		{
			Name:    "memo",
			Trigger: func(t []string) bool { return l.ContainsAny(t, l.LogTypes) },
			Parse: func(text string) ([]domain.ParsedCommand, error) {
				tokens := lexicon.Split(text)
				switch {
				case l.ContainsAny(tokens, l.Save):
					return single(p.ParseMemo)(text)
				case l.ContainsAny(tokens, l.Search):
					return single(p.ParseMemoSearch)(text)
				}
				return nil, fmt.Errorf("%w: memo command needs 저장 or 검색", domain.ErrParseFailure)
			},
		},
		{
			Name:    "commission",
			Trigger: func(t []string) bool { return l.ContainsAny(t, l.Commission) },
			Parse:   single(p.ParseCommission),
		},
		{
			Name:    "search",
			Trigger: func(t []string) bool { return len(t) == 1 || l.ContainsAny(t, l.Search) },
			Parse:   single(p.ParseMemberQuery),
		},
	}
	return g
}

// Rules returns the rule names in evaluation order.
func (g *Guesser) Rules() []string {
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name
	}
	return names
}

// Guess returns the commands of the first rule whose parser succeeds.
//
// A sentence in the memo template ("<name> <log type> 저장 ...") is a memo
// whatever its content says, so a log about a deleted phone number does not
// become a field deletion. Text carrying both a delete and an update
// trigger is settled next:
// deletion wins only when it names fields and no update values parse,
// update wins when deletion finds no field, and when both parse the text
// is rejected as ambiguous instead of guessing a destructive intent.
func (g *Guesser) Guess(text string) (Guess, error) {
	tokens := lexicon.Split(text)
	l := g.p.lex
	failures := make(map[string]string)

	if memoTemplate.MatchString(text) {
		cmd, err := g.p.ParseMemo(text)
		if err == nil {
			return Guess{Rule: "memo", Commands: []domain.ParsedCommand{cmd}, Failures: failures}, nil
		}
		failures["memo"] = err.Error()
	}

	if l.ContainsAny(tokens, l.Delete) && l.ContainsAny(tokens, l.Update) {
		del, derr := g.p.ParseDeletion(text)
		upd, uerr := g.p.ParseUpdate(text, "")
		switch {
		case derr == nil && uerr == nil:
			return Guess{Failures: failures}, fmt.Errorf("%w: text both deletes %v and updates %v", domain.ErrAmbiguousIntent, del.Targets, fieldNames(upd.Fields))
		case derr == nil:
			return Guess{Rule: "deletion", Commands: []domain.ParsedCommand{del}, Failures: failures}, nil
		case uerr == nil:
			return Guess{Rule: "update", Commands: []domain.ParsedCommand{upd}, Failures: failures}, nil
		}
		failures["deletion"] = derr.Error()
		failures["update"] = uerr.Error()
	}

	for _, r := range g.rules {
		if _, tried := failures[r.Name]; tried || !r.Trigger(tokens) {
			continue
		}
		cmds, err := r.Parse(text)
		if err != nil {
			failures[r.Name] = err.Error()
			continue
		}
		return Guess{Rule: r.Name, Commands: cmds, Failures: failures}, nil
	}

	return Guess{
		Commands: []domain.ParsedCommand{domain.NewCommand(domain.IntentUnknown, "", text)},
		Failures: failures,
	}, nil
}

func fieldNames(m map[domain.Field]string) []domain.Field {
	out := make([]domain.Field, 0, len(m))
	for _, f := range domain.MemberColumns {
		if _, ok := m[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

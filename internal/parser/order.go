package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

var (
	// "헤모힘2개", "홍삼3박스"
	productWithQuantity = regexp.MustCompile(`^([가-힣A-Za-z][가-힣A-Za-z&]*)(\d+)(개|박스|세트|병|통)?$`)
	productRun          = regexp.MustCompile(`^[가-힣A-Za-z][가-힣A-Za-z0-9&]*$`)
	quantityWithUnit    = regexp.MustCompile(`^(\d+)(개|박스|세트|병|통)$`)
	bareNumber          = regexp.MustCompile(`^\d+$`)
	priceToken          = regexp.MustCompile(`^(\d[\d,]*)원$`)
)

var paymentWords = map[string]string{
	"카드":   "카드",
	"카드결제": "카드",
	"현금":   "현금",
	"현금결제": "현금",
	"계좌이체": "계좌이체",
	"무통장":  "계좌이체",
}

type orderLine struct {
	product  string
	quantity string
	price    string
}

// ParseOrder is the strict order parser used for saving, e.g.
// "김상민 제품주문 헤모힘 2개 39000원 홍삼3박스 카드 저장". It returns one
// command per product.
func (p *Parser) ParseOrder(text string) ([]domain.ParsedCommand, error) {
	tokens := splitOrderKeyword(lexicon.Split(text))

	kw := p.lex.IndexAny(tokens, p.lex.Order)
	if kw < 0 {
		return nil, fmt.Errorf("%w: no order keyword", domain.ErrParseFailure)
	}

	member := -1
	if kw > 0 && p.lex.IsName(tokens[kw-1]) {
		member = kw - 1
	} else {
		member = p.firstName(tokens, nil)
	}
	if member < 0 {
		return nil, domain.ErrMissingName
	}

	var (
		lines   []orderLine
		payment string
	)
	last := func() *orderLine {
		if len(lines) == 0 {
			return nil
		}
		return &lines[len(lines)-1]
	}

	for i, t := range tokens {
		if i == member || i == kw || p.isTrigger(t) || p.lex.Order.Has(t) {
			continue
		}
		if pay, ok := paymentWords[t]; ok {
			payment = pay
			continue
		}
		switch {
		case priceToken.MatchString(t):
			if l := last(); l != nil {
				l.price = digitsOf(t)
			}
		case quantityWithUnit.MatchString(t):
			if l := last(); l != nil {
				l.quantity = quantityWithUnit.FindStringSubmatch(t)[1]
			}
		case bareNumber.MatchString(t):
			if l := last(); l != nil {
				if len(t) <= 3 {
					l.quantity = t
				} else {
					l.price = t
				}
			}
		case productWithQuantity.MatchString(t):
			m := productWithQuantity.FindStringSubmatch(t)
			lines = append(lines, orderLine{product: m[1], quantity: m[2]})
		case productRun.MatchString(t) && !p.lex.IsReserved(t):
			lines = append(lines, orderLine{product: t})
		}
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no product found", domain.ErrParseFailure)
	}

	cmds := make([]domain.ParsedCommand, 0, len(lines))
	for _, l := range lines {
		cmd := domain.NewCommand(domain.IntentCreate, domain.EntityOrder, text)
		cmd.Identifiers[domain.FieldName] = p.lex.Name(tokens[member])
		cmd.Identifiers[domain.FieldProduct] = l.product
		cmd.Fields[domain.FieldProduct] = l.product
		cmd.Fields[domain.FieldQuantity] = firstNonEmpty(l.quantity, "1")
		if l.price != "" {
			cmd.Fields[domain.FieldPrice] = l.price
		}
		if payment != "" {
			cmd.Fields[domain.FieldPayment] = payment
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// ParseOrderLoose reads lookups and deletions such as "김상민 헤모힘 주문 조회".
// The first name-shaped token is the member and the next free token the product.
func (p *Parser) ParseOrderLoose(text string) (domain.ParsedCommand, error) {
	tokens := splitOrderKeyword(lexicon.Split(text))

	intent := domain.IntentSearch
	if p.lex.ContainsAny(tokens, p.lex.Delete) {
		intent = domain.IntentDelete
	}
	cmd := domain.NewCommand(intent, domain.EntityOrder, text)

	member := p.firstName(tokens, nil)
	if member >= 0 {
		cmd.Identifiers[domain.FieldName] = p.lex.Name(tokens[member])
	}
	for i, t := range tokens {
		if i <= member || p.lex.IsReserved(t) {
			continue
		}
		if productRun.MatchString(t) {
			cmd.Identifiers[domain.FieldProduct] = t
			break
		}
	}

	if len(cmd.Identifiers) == 0 {
		return domain.ParsedCommand{}, fmt.Errorf("%w: no member or product found", domain.ErrParseFailure)
	}
	return cmd, nil
}

// orderEditable are the order columns a text update may name directly.
var orderEditable = []domain.Field{
	domain.FieldOrderDate, domain.FieldPrice, domain.FieldPV, domain.FieldPayment,
	domain.FieldCustomerName, domain.FieldCustomerPhone, domain.FieldShipTo, domain.FieldReceived,
}

func orderColumn(token string) (domain.Field, bool) {
	for _, f := range orderEditable {
		if token == string(f) {
			return f, true
		}
	}
	return "", false
}

// ParseOrderUpdate reads changes to an existing order, e.g.
// "김상민 헤모힘 주문 결재방법 카드로 변경". Columns are named by their
// header text and take the tokens up to the next column or trigger word.
func (p *Parser) ParseOrderUpdate(text string) (domain.ParsedCommand, error) {
	tokens := splitOrderKeyword(lexicon.Split(text))

	member := p.firstName(tokens, nil)
	if member < 0 {
		return domain.ParsedCommand{}, domain.ErrMissingName
	}
	cmd := domain.NewCommand(domain.IntentUpdate, domain.EntityOrder, text)
	cmd.Identifiers[domain.FieldName] = p.lex.Name(tokens[member])

	firstCol := len(tokens)
	for i := 0; i < len(tokens); i++ {
		f, ok := orderColumn(tokens[i])
		if !ok {
			continue
		}
		if i < firstCol {
			firstCol = i
		}
		var parts []string
		j := i + 1
		for ; j < len(tokens); j++ {
			if _, next := orderColumn(tokens[j]); next || p.isTrigger(tokens[j]) || p.lex.Order.Has(tokens[j]) {
				break
			}
			parts = append(parts, tokens[j])
		}
		if len(parts) > 0 && j < len(tokens) && p.lex.Update.Has(tokens[j]) {
			parts[len(parts)-1] = trimDirectional(parts[len(parts)-1])
		}
		if v := strings.Join(parts, " "); v != "" {
			cmd.Fields[f] = v
		}
		i = j - 1
	}

	for i := member + 1; i < firstCol; i++ {
		t := tokens[i]
		if !p.lex.IsReserved(t) && !p.isTrigger(t) && !p.lex.Order.Has(t) && productRun.MatchString(t) {
			cmd.Identifiers[domain.FieldProduct] = t
			break
		}
	}

	if len(cmd.Fields) == 0 {
		return domain.ParsedCommand{}, domain.ErrNoFieldValues
	}
	return cmd, nil
}

// splitOrderKeyword separates an order keyword glued to the member name
// ("홍길동제품주문" becomes "홍길동", "제품주문").
func splitOrderKeyword(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		split := false
		for _, kw := range []string{"제품주문", "주문"} {
			if t == kw {
				break
			}
			if strings.HasSuffix(t, kw) {
				out = append(out, strings.TrimSuffix(t, kw), kw)
				split = true
				break
			}
		}
		if !split {
			out = append(out, t)
		}
	}
	return out
}

func digitsOf(s string) string {
	return lexicon.Digits(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

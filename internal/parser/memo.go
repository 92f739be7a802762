package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

var memoTemplate = regexp.MustCompile(`([가-힣]{2,10})\s*(상담일지|개인일지|활동일지)\s*저장`)

// allKeywordsWords switch a memo search to require every keyword.
var allKeywordsWords = map[string]bool{"동시": true, "동시검색": true}

// memoSearchNoise are words dropped from memo search keywords.
var memoSearchNoise = map[string]bool{
	"검색": true, "해주세요": true, "내용": true, "다음": true, "에서": true,
	"메모": true, "동시": true, "동시검색": true, "전체메모": true,
	domain.LogPersonal: true, domain.LogCounseling: true, domain.LogActivity: true,
}

// ParseMemo reads "{name} {log type} 저장 {content}". The content is the
// sentence with the template phrase removed.
func (p *Parser) ParseMemo(text string) (domain.ParsedCommand, error) {
	loc := memoTemplate.FindStringSubmatchIndex(text)
	if loc == nil {
		return domain.ParsedCommand{}, fmt.Errorf("%w: expected \"<name> <log type> 저장 <content>\"", domain.ErrParseFailure)
	}
	m := submatches(text, loc)

	content := collapse(text[:loc[0]] + " " + text[loc[1]:])
	if content == "" {
		return domain.ParsedCommand{}, domain.ErrEmptyContent
	}

	cmd := domain.NewCommand(domain.IntentCreate, domain.EntityMemo, text)
	cmd.Identifiers[domain.FieldName] = m[1]
	cmd.Fields[domain.FieldLogType] = m[2]
	cmd.Fields[domain.FieldContent] = content
	return cmd, nil
}

// ParseMemoSearch reads memo searches such as "상담일지 검색 중국" or
// "홍길동 개인일지 검색 동시 제품 설명". A log type hint narrows the sheets;
// without one all three are searched. 동시 requires every keyword.
func (p *Parser) ParseMemoSearch(text string) (domain.ParsedCommand, error) {
	tokens := lexicon.Split(text)
	if !p.lex.ContainsAny(tokens, p.lex.Search) {
		return domain.ParsedCommand{}, fmt.Errorf("%w: memo search needs 검색", domain.ErrParseFailure)
	}

	cmd := domain.NewCommand(domain.IntentSearch, domain.EntityMemo, text)
	cmd.Categories = memoSheets(text)

	criteria := domain.NewCriteria()
	criteria.KeywordFields = []domain.Field{domain.FieldContent}
	criteria.Sort = domain.SortSpec{Field: domain.FieldWrittenAt, Descending: true}
	for _, t := range tokens {
		if allKeywordsWords[t] {
			criteria.Mode = domain.ModeAll
			break
		}
	}

	member := -1
	for i := 0; i+1 < len(tokens); i++ {
		if p.lex.IsName(tokens[i]) && p.lex.LogTypes.Has(tokens[i+1]) {
			member = i
			criteria.MemberName = p.lex.Name(tokens[i])
			cmd.Identifiers[domain.FieldName] = criteria.MemberName
			break
		}
	}

	for i, t := range tokens {
		if i == member || memoSearchNoise[t] || p.lex.Search.Has(t) {
			continue
		}
		criteria.Keywords = append(criteria.Keywords, t)
	}

	if len(criteria.Keywords) == 0 && criteria.MemberName == "" {
		return domain.ParsedCommand{}, fmt.Errorf("%w: no search keywords", domain.ErrParseFailure)
	}
	cmd.Criteria = criteria
	return cmd, nil
}

// memoSheets picks memo sheets from hints in text, all three when none is named.
func memoSheets(text string) []string {
	hints := map[string]string{
		domain.LogActivity:   "활동",
		domain.LogCounseling: "상담",
		domain.LogPersonal:   "개인",
	}
	var sheets []string
	for _, lt := range domain.LogTypes {
		if strings.Contains(text, hints[lt]) {
			sheets = append(sheets, lt)
		}
	}
	if len(sheets) == 0 {
		return append([]string(nil), domain.LogTypes...)
	}
	return sheets
}

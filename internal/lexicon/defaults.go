package lexicon

import "github.com/memberdesk/backend/internal/domain"

// DefaultFields is the member field synonym table in declaration order.
var DefaultFields = []FieldDef{
	{Field: domain.FieldName, Synonyms: []string{"회원명", "이름", "성명"}},
	{Field: domain.FieldMemberNumber, Synonyms: []string{"회원번호", "번호"}},
	{Field: domain.FieldSpecialNumber, Synonyms: []string{"특수번호"}},
	{Field: domain.FieldPhone, Synonyms: []string{"휴대폰번호", "휴대폰", "핸드폰번호", "핸드폰", "전화번호", "전화", "연락처"}},
	{Field: domain.FieldCode, Synonyms: []string{"코드", "등급"}},
	{Field: domain.FieldBirthDate, Synonyms: []string{"생년월일", "생일"}},
	{Field: domain.FieldWorkplace, Synonyms: []string{"근무처", "직장", "회사"}},
	{Field: domain.FieldLineage, Synonyms: []string{"계보도", "계보"}},
	{Field: domain.FieldAddress, Synonyms: []string{"주소", "집주소", "거주지"}},
	{Field: domain.FieldMemo, Synonyms: []string{"메모", "비고"}},
}

// DefaultTriggers holds the built-in trigger words.
var DefaultTriggers = Triggers{
	Delete:     []string{"삭제", "삭제해줘", "비워", "비워줘", "초기화", "초기화해줘", "없애", "없애줘", "지워", "지워줘"},
	Update:     []string{"변경", "변경해줘", "수정", "수정해줘", "바꿔", "바꿔줘"},
	Save:       []string{"저장", "저장해줘", "등록", "등록해줘", "회원등록"},
	Search:     []string{"검색", "검색해줘", "조회", "조회해줘", "찾아", "찾아줘", "알려줘"},
	Order:      []string{"주문", "제품주문"},
	Commission: []string{"후원수당", "수당"},
	LogTypes:   []string{domain.LogCounseling, domain.LogPersonal, domain.LogActivity},
}

package domain

// Field is a canonical field identifier. Its value is the column header used
// by the record store, so records can be looked up by field directly.
type Field string

// Member fields, in declaration order.
const (
	FieldName          Field = "회원명"
	FieldMemberNumber  Field = "회원번호"
	FieldSpecialNumber Field = "특수번호"
	FieldPhone         Field = "휴대폰번호"
	FieldCode          Field = "코드"
	FieldBirthDate     Field = "생년월일"
	FieldWorkplace     Field = "근무처"
	FieldLineage       Field = "계보도"
	FieldAddress       Field = "주소"
	FieldMemo          Field = "메모"
)

// Order fields
const (
	FieldOrderDate     Field = "주문일자"
	FieldProduct       Field = "제품명"
	FieldPrice         Field = "제품가격"
	FieldPV            Field = "PV"
	FieldPayment       Field = "결재방법"
	FieldCustomerName  Field = "소비자_고객명"
	FieldCustomerPhone Field = "소비자_휴대폰번호"
	FieldShipTo        Field = "배송처"
	FieldReceived      Field = "수령확인"
	FieldQuantity      Field = "수량"
)

// Commission fields
const (
	FieldPaidDate   Field = "지급일자"
	FieldCommission Field = "후원수당"
	FieldNote       Field = "비고"
)

// Memo fields
const (
	FieldWrittenAt Field = "작성일자"
	FieldContent   Field = "내용"
	FieldLogType   Field = "일지종류"
)

// Column layouts of each record category, in sheet order.
var (
	MemberColumns     = []Field{FieldName, FieldMemberNumber, FieldSpecialNumber, FieldPhone, FieldCode, FieldBirthDate, FieldWorkplace, FieldLineage, FieldAddress, FieldMemo}
	OrderColumns      = []Field{FieldOrderDate, FieldName, FieldMemberNumber, FieldPhone, FieldProduct, FieldPrice, FieldPV, FieldPayment, FieldCustomerName, FieldCustomerPhone, FieldShipTo, FieldReceived}
	CommissionColumns = []Field{FieldPaidDate, FieldName, FieldCommission, FieldNote}
	MemoColumns       = []Field{FieldWrittenAt, FieldName, FieldContent}
)

// Entity is the kind of record a command targets.
type Entity string

const (
	EntityMember     Entity = "member"
	EntityOrder      Entity = "order"
	EntityCommission Entity = "commission"
	EntityMemo       Entity = "memo"
)

// Intent is the operation a command asks for.
type Intent string

const (
	IntentCreate  Intent = "create"
	IntentUpdate  Intent = "update"
	IntentDelete  Intent = "delete"
	IntentSearch  Intent = "search"
	IntentUnknown Intent = "unknown"
)

// Log types double as memo sheet names.
const (
	LogCounseling = "상담일지"
	LogPersonal   = "개인일지"
	LogActivity   = "활동일지"
)

// LogTypes lists memo sheets in display order.
var LogTypes = []string{LogActivity, LogCounseling, LogPersonal}

// IsLogType reports whether s names a memo sheet.
func IsLogType(s string) bool {
	for _, lt := range LogTypes {
		if lt == s {
			return true
		}
	}
	return false
}

// Record categories. Memo categories are the log types themselves.
const (
	CategoryMember     = "member"
	CategoryOrder      = "order"
	CategoryCommission = "commission"
)

// ColumnsFor returns the column layout of a category.
func ColumnsFor(category string) []Field {
	switch {
	case category == CategoryMember:
		return MemberColumns
	case category == CategoryOrder:
		return OrderColumns
	case category == CategoryCommission:
		return CommissionColumns
	case IsLogType(category):
		return MemoColumns
	}
	return nil
}

package sheets

import (
	"context"
	"net/http"
	"testing"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListRecords(t *testing.T) {
	fake := newFakeSheets("DB")
	fake.seed("DB",
		[]string{"회원명", "회원번호", "휴대폰번호"},
		[]string{"김민지", "12345", "010-1234-5678"},
		[]string{},
		[]string{"이철수", "67890"},
	)
	c := newTestClient(t, fake, 1)

	records, err := c.ListRecords(context.Background(), "member")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Row)
	assert.Equal(t, "김민지", records[0].Get(domain.FieldName))
	assert.Equal(t, 4, records[1].Row)
	assert.Equal(t, "", records[1].Get(domain.FieldPhone))
}

func TestClient_UnknownCategory(t *testing.T) {
	c := newTestClient(t, newFakeSheets("DB"), 1)

	_, err := c.ListRecords(context.Background(), "inventory")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClient_AppendWritesHeaderOnEmptySheet(t *testing.T) {
	fake := newFakeSheets("상담일지")
	c := newTestClient(t, fake, 1)

	rec := domain.NewRecord(map[domain.Field]string{
		domain.FieldName:      "김민지",
		domain.FieldWrittenAt: "2025-08-27",
		domain.FieldContent:   "제품 상담",
	})
	require.NoError(t, c.AppendRecord(context.Background(), "상담일지", rec))

	rows := fake.rows("상담일지")
	require.Len(t, rows, 2)
	assert.Equal(t, string(domain.MemoColumns[0]), rows[0][0])

	records, err := c.ListRecords(context.Background(), "상담일지")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "제품 상담", records[0].Get(domain.FieldContent))
}

func TestClient_InsertRecordAtTop(t *testing.T) {
	fake := newFakeSheets("제품주문")
	fake.seed("제품주문",
		[]string{"주문일자", "회원명", "제품명"},
		[]string{"2025-08-01", "이철수", "홍삼"},
	)
	c := newTestClient(t, fake, 1)

	rec := domain.NewRecord(map[domain.Field]string{
		domain.FieldOrderDate: "2025-08-27",
		domain.FieldName:      "김민지",
		domain.FieldProduct:   "헤모힘",
	})
	require.NoError(t, c.InsertRecord(context.Background(), "order", 2, rec))

	records, err := c.ListRecords(context.Background(), "order")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "헤모힘", records[0].Get(domain.FieldProduct))
	assert.Equal(t, 2, records[0].Row)
	assert.Equal(t, "홍삼", records[1].Get(domain.FieldProduct))
	assert.Equal(t, 3, records[1].Row)

	assert.ErrorIs(t, c.InsertRecord(context.Background(), "order", 1, rec), domain.ErrValidation)
}

func TestClient_UpdateCell(t *testing.T) {
	fake := newFakeSheets("DB")
	fake.seed("DB",
		[]string{"회원명", "회원번호", "휴대폰번호"},
		[]string{"김민지", "12345", "010-1234-5678"},
	)
	c := newTestClient(t, fake, 1)

	require.NoError(t, c.UpdateCell(context.Background(), "member", 2, domain.FieldPhone, "010-9999-0000"))
	assert.Equal(t, []string{"김민지", "12345", "010-9999-0000"}, fake.rows("DB")[1])

	err := c.UpdateCell(context.Background(), "member", 2, domain.FieldLineage, "x")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClient_DeleteRecord(t *testing.T) {
	fake := newFakeSheets("DB")
	fake.seed("DB",
		[]string{"회원명"},
		[]string{"김민지"},
		[]string{"이철수"},
	)
	c := newTestClient(t, fake, 1)

	require.NoError(t, c.DeleteRecord(context.Background(), "member", 2))

	records, err := c.ListRecords(context.Background(), "member")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "이철수", records[0].Get(domain.FieldName))
	assert.Equal(t, 2, records[0].Row)

	assert.ErrorIs(t, c.DeleteRecord(context.Background(), "member", 1), domain.ErrValidation)
}

func TestClient_RetriesQuotaErrors(t *testing.T) {
	fake := newFakeSheets("DB")
	fake.seed("DB", []string{"회원명"}, []string{"김민지"})
	fake.failN, fake.failAt = 1, http.StatusTooManyRequests
	c := newTestClient(t, fake, 2)

	records, err := c.ListRecords(context.Background(), "member")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, fake.calls, 2)
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	fake := newFakeSheets("DB")
	fake.failN, fake.failAt = 1, http.StatusBadRequest
	c := newTestClient(t, fake, 3)

	_, err := c.ListRecords(context.Background(), "member")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Len(t, fake.calls, 1)
}

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, "500ms", exponentialBackoff(1).String())
	assert.Equal(t, "1s", exponentialBackoff(2).String())
	assert.Equal(t, "2s", exponentialBackoff(3).String())
}

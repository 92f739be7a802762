package parser

import (
	"testing"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrder(t *testing.T) {
	p := newTestParser()

	t.Run("one command per product", func(t *testing.T) {
		cmds, err := p.ParseOrder("김상민 제품주문 헤모힘 2개 39000원 홍삼3박스 카드 저장")
		require.NoError(t, err)
		require.Len(t, cmds, 2)

		assert.Equal(t, "김상민", cmds[0].Name())
		assert.Equal(t, domain.EntityOrder, cmds[0].Entity)
		assert.Equal(t, domain.IntentCreate, cmds[0].Intent)
		assert.Equal(t, "헤모힘", cmds[0].Fields[domain.FieldProduct])
		assert.Equal(t, "2", cmds[0].Fields[domain.FieldQuantity])
		assert.Equal(t, "39000", cmds[0].Fields[domain.FieldPrice])
		assert.Equal(t, "카드", cmds[0].Fields[domain.FieldPayment])

		assert.Equal(t, "홍삼", cmds[1].Fields[domain.FieldProduct])
		assert.Equal(t, "3", cmds[1].Fields[domain.FieldQuantity])
		assert.NotContains(t, cmds[1].Fields, domain.FieldPrice)
		assert.Equal(t, "카드", cmds[1].Fields[domain.FieldPayment])
	})

	t.Run("member glued to keyword", func(t *testing.T) {
		cmds, err := p.ParseOrder("홍길동제품주문 HY세럼 저장")
		require.NoError(t, err)
		require.Len(t, cmds, 1)
		assert.Equal(t, "홍길동", cmds[0].Name())
		assert.Equal(t, "HY세럼", cmds[0].Fields[domain.FieldProduct])
		assert.Equal(t, "1", cmds[0].Fields[domain.FieldQuantity])
	})

	t.Run("bare price after product", func(t *testing.T) {
		cmds, err := p.ParseOrder("김상민 주문 헤모힘 1 45,000원 현금결제 저장")
		require.NoError(t, err)
		require.Len(t, cmds, 1)
		assert.Equal(t, "1", cmds[0].Fields[domain.FieldQuantity])
		assert.Equal(t, "45000", cmds[0].Fields[domain.FieldPrice])
		assert.Equal(t, "현금", cmds[0].Fields[domain.FieldPayment])
	})

	t.Run("no order keyword", func(t *testing.T) {
		_, err := p.ParseOrder("김상민 헤모힘 저장")
		assert.ErrorIs(t, err, domain.ErrParseFailure)
	})

	t.Run("no product", func(t *testing.T) {
		_, err := p.ParseOrder("김상민 제품주문 저장")
		assert.ErrorIs(t, err, domain.ErrParseFailure)
	})
}

func TestParseOrderLoose(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		text    string
		intent  domain.Intent
		member  string
		product string
	}{
		{"김상민 헤모힘 주문 조회", domain.IntentSearch, "김상민", "헤모힘"},
		{"김상민 주문 조회", domain.IntentSearch, "김상민", ""},
		{"김상민 헤모힘 주문 삭제", domain.IntentDelete, "김상민", "헤모힘"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, err := p.ParseOrderLoose(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.intent, cmd.Intent)
			assert.Equal(t, tt.member, cmd.Name())
			assert.Equal(t, tt.product, cmd.Identifiers[domain.FieldProduct])
		})
	}

	_, err := p.ParseOrderLoose("주문 조회")
	assert.ErrorIs(t, err, domain.ErrParseFailure)
}

func TestParseOrderUpdate(t *testing.T) {
	p := newTestParser()

	t.Run("payment change with directional ending", func(t *testing.T) {
		cmd, err := p.ParseOrderUpdate("김상민 헤모힘 주문 결재방법 카드로 변경")
		require.NoError(t, err)
		assert.Equal(t, domain.IntentUpdate, cmd.Intent)
		assert.Equal(t, "김상민", cmd.Name())
		assert.Equal(t, "헤모힘", cmd.Identifiers[domain.FieldProduct])
		assert.Equal(t, map[domain.Field]string{domain.FieldPayment: "카드"}, cmd.Fields)
	})

	t.Run("several columns without product", func(t *testing.T) {
		cmd, err := p.ParseOrderUpdate("김상민 주문 배송처 부산 지점 수령확인 Y 수정")
		require.NoError(t, err)
		assert.NotContains(t, cmd.Identifiers, domain.FieldProduct)
		assert.Equal(t, "부산 지점", cmd.Fields[domain.FieldShipTo])
		assert.Equal(t, "Y", cmd.Fields[domain.FieldReceived])
	})

	t.Run("no column", func(t *testing.T) {
		_, err := p.ParseOrderUpdate("김상민 헤모힘 주문 변경")
		assert.ErrorIs(t, err, domain.ErrNoFieldValues)
	})
}

package parser

import (
	"testing"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuesser_RuleOrderIsStable(t *testing.T) {
	g := NewGuesser(newTestParser())
	assert.Equal(t, []string{"deletion", "update", "order", "memo", "commission", "search"}, g.Rules())
}

func TestGuesser_Guess(t *testing.T) {
	g := NewGuesser(newTestParser())

	tests := []struct {
		name   string
		text   string
		rule   string
		intent domain.Intent
		entity domain.Entity
		count  int
	}{
		{"field deletion", "이판여 휴대폰번호 삭제", "deletion", domain.IntentDelete, domain.EntityMember, 1},
		{"field update", "홍길동 주소 부산 해운대로 변경", "update", domain.IntentUpdate, domain.EntityMember, 1},
		{"order save", "김상민 제품주문 헤모힘 2개 홍삼 1개 저장", "order", domain.IntentCreate, domain.EntityOrder, 2},
		{"order delete falls past deletion", "김상민 헤모힘 주문 삭제", "order", domain.IntentDelete, domain.EntityOrder, 1},
		{"memo save", "홍길동 상담일지 저장 제품 문의", "memo", domain.IntentCreate, domain.EntityMemo, 1},
		{"memo search", "상담일지 검색 중국", "memo", domain.IntentSearch, domain.EntityMemo, 1},
		{"commission lookup", "홍길동 후원수당 조회", "commission", domain.IntentSearch, domain.EntityCommission, 1},
		{"bare name", "홍길동", "search", domain.IntentSearch, domain.EntityMember, 1},
		{"member search", "계보도 장천수 검색", "search", domain.IntentSearch, domain.EntityMember, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guess, err := g.Guess(tt.text)
			require.NoError(t, err)
			require.False(t, guess.Unknown(), "failures: %v", guess.Failures)
			assert.Equal(t, tt.rule, guess.Rule)
			require.Len(t, guess.Commands, tt.count)
			assert.Equal(t, tt.intent, guess.Commands[0].Intent)
			assert.Equal(t, tt.entity, guess.Commands[0].Entity)
		})
	}
}

func TestGuesser_Unknown(t *testing.T) {
	g := NewGuesser(newTestParser())

	guess, err := g.Guess("안녕하세요 좋은 아침")
	require.NoError(t, err)
	assert.True(t, guess.Unknown())
	require.Len(t, guess.Commands, 1)
	assert.Equal(t, domain.IntentUnknown, guess.Commands[0].Intent)
}

func TestGuesser_DeleteAndUpdateTriggers(t *testing.T) {
	g := NewGuesser(newTestParser())

	t.Run("fields without update values prefer deletion", func(t *testing.T) {
		guess, err := g.Guess("홍길동 주소 삭제 변경")
		require.NoError(t, err)
		assert.Equal(t, "deletion", guess.Rule)
		assert.Equal(t, []domain.Field{domain.FieldAddress}, guess.Commands[0].Targets)
	})

	t.Run("memo template wins over field deletion", func(t *testing.T) {
		guess, err := g.Guess("이태수 상담일지 저장 휴대폰 삭제 문의가 있었음")
		require.NoError(t, err)
		assert.Equal(t, "memo", guess.Rule)
		require.Len(t, guess.Commands, 1)
		cmd := guess.Commands[0]
		assert.Equal(t, domain.EntityMemo, cmd.Entity)
		assert.Equal(t, domain.IntentCreate, cmd.Intent)
		assert.Empty(t, cmd.Targets)
		assert.Equal(t, "이태수", cmd.Name())
		assert.Equal(t, "휴대폰 삭제 문의가 있었음", cmd.Fields[domain.FieldContent])
	})

	t.Run("memo template wins over update", func(t *testing.T) {
		guess, err := g.Guess("홍길동 개인일지 저장 주소 변경 요청 받음")
		require.NoError(t, err)
		assert.Equal(t, "memo", guess.Rule)
		assert.Equal(t, domain.LogPersonal, guess.Commands[0].Fields[domain.FieldLogType])
	})

	t.Run("both parse is ambiguous", func(t *testing.T) {
		_, err := g.Guess("홍길동 주소 부산으로 변경 메모 삭제")
		assert.ErrorIs(t, err, domain.ErrAmbiguousIntent)
	})

	t.Run("order deletion is not a field deletion", func(t *testing.T) {
		guess, err := g.Guess("김상민 헤모힘 주문 삭제 변경")
		require.NoError(t, err)
		assert.Equal(t, "order", guess.Rule)
		assert.Contains(t, guess.Failures, "deletion")
		assert.Contains(t, guess.Failures, "update")
	})
}

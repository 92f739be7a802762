package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberCmd(intent domain.Intent, name string) domain.ParsedCommand {
	cmd := domain.NewCommand(intent, domain.EntityMember, "")
	if name != "" {
		cmd.Identifiers[domain.FieldName] = name
	}
	return cmd
}

func TestMemberService_Find(t *testing.T) {
	f := newFixture(t)

	c := domain.NewCriteria()
	c.Equality[domain.FieldPhone] = "010-5555-6666"
	c.DigitNormalized[domain.FieldPhone] = true

	res, err := f.members.Find(context.Background(), c)
	require.NoError(t, err)
	match := res.Payload.(domain.MatchResult)
	require.Equal(t, 1, match.Total)
	assert.Equal(t, "이판여", match.Records[0].Get(domain.FieldName))

	c = domain.NewCriteria()
	c.Equality[domain.FieldName] = "없는사람"
	res, err = f.members.Find(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Payload.(domain.MatchResult).Total)
}

func TestMemberService_Lookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.members.Lookup(ctx, "홍길동", "")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Row)

	_, err = f.members.Lookup(ctx, "없는사람", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.members.Lookup(ctx, "박민수", "")
	var cand *domain.CandidatesError
	require.True(t, errors.As(err, &cand))
	assert.Len(t, cand.Candidates, 2)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	m, err = f.members.Lookup(ctx, "박민수", "5678901")
	require.NoError(t, err)
	assert.Equal(t, 6, m.Row)
}

func TestMemberService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a new member", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentCreate, "최수진")
		cmd.Fields[domain.FieldMemberNumber] = "7654321"
		cmd.Fields[domain.FieldPhone] = "010-7777-8888"

		res, err := f.members.Register(ctx, cmd)
		require.NoError(t, err)
		assert.True(t, res.Created)

		members := f.list(t, domain.CategoryMember)
		last := members[len(members)-1]
		assert.Equal(t, "최수진", last.Get(domain.FieldName))
		assert.Equal(t, "7654321", last.Get(domain.FieldMemberNumber))
	})

	t.Run("requires name and number", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.members.Register(ctx, memberCmd(domain.IntentCreate, "최수진"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects a used member number", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentCreate, "최수진")
		cmd.Fields[domain.FieldMemberNumber] = "1234567"

		_, err := f.members.Register(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Len(t, f.list(t, domain.CategoryMember), 5)
	})
}

func TestMemberService_Save(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cmd := memberCmd(domain.IntentCreate, "홍길동")
	cmd.Fields[domain.FieldWorkplace] = "LG"
	res, err := f.members.Save(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "LG", f.list(t, domain.CategoryMember)[0].Get(domain.FieldWorkplace))

	cmd = memberCmd(domain.IntentCreate, "최수진")
	cmd.Fields[domain.FieldMemberNumber] = "7654321"
	res, err = f.members.Save(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, f.list(t, domain.CategoryMember), 6)
}

func TestMemberService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("writes every field", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentUpdate, "홍길동")
		cmd.Fields[domain.FieldAddress] = "부산 해운대"
		cmd.Fields[domain.FieldPhone] = "010-9999-0000"

		_, err := f.members.Update(ctx, cmd)
		require.NoError(t, err)
		m := f.list(t, domain.CategoryMember)[0]
		assert.Equal(t, "부산 해운대", m.Get(domain.FieldAddress))
		assert.Equal(t, "010-9999-0000", m.Get(domain.FieldPhone))
	})

	t.Run("unknown member", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentUpdate, "없는사람")
		cmd.Fields[domain.FieldAddress] = "부산"
		_, err := f.members.Update(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("same name needs member number", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentUpdate, "박민수")
		cmd.Fields[domain.FieldAddress] = "부산"
		_, err := f.members.Update(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)

		cmd.Identifiers[domain.FieldMemberNumber] = "4567890"
		_, err = f.members.Update(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, "부산", f.list(t, domain.CategoryMember)[3].Get(domain.FieldAddress))
		assert.Equal(t, "", f.list(t, domain.CategoryMember)[4].Get(domain.FieldAddress))
	})

	t.Run("field outside the member sheet", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentUpdate, "홍길동")
		cmd.Fields[domain.FieldProduct] = "헤모힘"
		_, err := f.members.Update(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestMemberService_DeleteFields(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the named cells", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentDelete, "이판여")
		cmd.Targets = []domain.Field{domain.FieldPhone, domain.FieldWorkplace}

		_, err := f.members.DeleteFields(ctx, cmd)
		require.NoError(t, err)
		m := f.list(t, domain.CategoryMember)[2]
		assert.Equal(t, "", m.Get(domain.FieldPhone))
		assert.Equal(t, "", m.Get(domain.FieldWorkplace))
		assert.Equal(t, "3456789", m.Get(domain.FieldMemberNumber))
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentDelete, "")
		cmd.Targets = []domain.Field{domain.FieldPhone}
		_, err := f.members.DeleteFields(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("protected fields", func(t *testing.T) {
		f := newFixture(t)
		cmd := memberCmd(domain.IntentDelete, "이판여")
		cmd.Targets = []domain.Field{domain.FieldMemberNumber}
		_, err := f.members.DeleteFields(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, "3456789", f.list(t, domain.CategoryMember)[2].Get(domain.FieldMemberNumber))
	})
}

func TestMemberService_DeleteMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.members.DeleteMember(ctx, memberCmd(domain.IntentDelete, "홍길동"), false)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, f.list(t, domain.CategoryMember), 5)

	_, err = f.members.DeleteMember(ctx, memberCmd(domain.IntentDelete, "홍길동"), true)
	require.NoError(t, err)
	members := f.list(t, domain.CategoryMember)
	assert.Len(t, members, 4)
	assert.Equal(t, "김상민", members[0].Get(domain.FieldName))
}

func TestMemberService_UpstreamFailure(t *testing.T) {
	svc := NewMemberService(failingStore{}, nil)

	_, err := svc.Find(context.Background(), domain.NewCriteria())
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/matcher"
	"go.uber.org/zap"
)

// protectedFields cannot be cleared by a field deletion.
var protectedFields = map[domain.Field]bool{
	domain.FieldName:         true,
	domain.FieldMemberNumber: true,
}

// MemberService runs member operations against the member sheet.
type MemberService struct {
	store  domain.RecordStore
	logger *zap.Logger
}

// NewMemberService creates a member service over store.
func NewMemberService(store domain.RecordStore, logger *zap.Logger) *MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{store: store, logger: logger.With(zap.String("service", "member"))}
}

// Find returns the members matching c. An empty result is not an error.
func (s *MemberService) Find(ctx context.Context, c *domain.MatchCriteria) (*domain.OperationResult, error) {
	records, err := s.store.ListRecords(ctx, domain.CategoryMember)
	if err != nil {
		return nil, err
	}
	res := matcher.Match(records, c)
	return domain.Success(fmt.Sprintf("%d members found", res.Total), res), nil
}

// Lookup returns the single member named name. A member number narrows
// same-name matches; without one several matches are a CandidatesError.
func (s *MemberService) Lookup(ctx context.Context, name, number string) (domain.Record, error) {
	if name == "" && number == "" {
		return domain.Record{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	}
	records, err := s.store.ListRecords(ctx, domain.CategoryMember)
	if err != nil {
		return domain.Record{}, err
	}

	c := domain.NewCriteria()
	if name != "" {
		c.Equality[domain.FieldName] = name
	}
	if number != "" {
		c.Equality[domain.FieldMemberNumber] = number
		c.DigitNormalized[domain.FieldMemberNumber] = true
	}
	res := matcher.Match(records, c)

	switch {
	case res.Total == 0:
		return domain.Record{}, fmt.Errorf("%w: member %s", domain.ErrNotFound, firstNonBlank(name, number))
	case res.Total > 1:
		return domain.Record{}, &domain.CandidatesError{Name: name, Candidates: res.Records}
	}
	return res.Records[0], nil
}

// Register appends a new member. 회원명 and 회원번호 are required and the
// member number must be unused.
func (s *MemberService) Register(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	values := mergeValues(cmd)
	name, number := values[domain.FieldName], values[domain.FieldMemberNumber]
	if name == "" || number == "" {
		return nil, fmt.Errorf("%w: %s and %s are required", domain.ErrValidation, domain.FieldName, domain.FieldMemberNumber)
	}

	records, err := s.store.ListRecords(ctx, domain.CategoryMember)
	if err != nil {
		return nil, err
	}
	c := domain.NewCriteria()
	c.Equality[domain.FieldMemberNumber] = number
	c.DigitNormalized[domain.FieldMemberNumber] = true
	if dup := matcher.Match(records, c); dup.Total > 0 {
		return nil, fmt.Errorf("%w: member number %s is already registered to %s", domain.ErrValidation, number, dup.Records[0].Get(domain.FieldName))
	}

	rec, err := recordFor(domain.MemberColumns, values)
	if err != nil {
		return nil, err
	}
	if err := s.store.AppendRecord(ctx, domain.CategoryMember, rec); err != nil {
		return nil, err
	}

	s.logger.Info("member registered", zap.String("name", name))
	res := domain.Success(fmt.Sprintf("member %s registered", name), rec)
	res.Created = true
	return res, nil
}

// Save upserts a member by name: an existing member gets the given fields,
// otherwise a new row is appended.
func (s *MemberService) Save(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	values := mergeValues(cmd)
	name := values[domain.FieldName]
	if name == "" {
		return nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	}

	existing, err := s.Lookup(ctx, name, cmd.Identifiers[domain.FieldMemberNumber])
	switch {
	case err == nil:
		delete(values, domain.FieldName)
		if err := s.writeFields(ctx, existing, values); err != nil {
			return nil, err
		}
		return domain.Success(fmt.Sprintf("member %s updated", name), fieldList(values)), nil
	case domain.KindOf(err) != domain.KindNotFound:
		return nil, err
	}

	rec, err := recordFor(domain.MemberColumns, values)
	if err != nil {
		return nil, err
	}
	if err := s.store.AppendRecord(ctx, domain.CategoryMember, rec); err != nil {
		return nil, err
	}
	res := domain.Success(fmt.Sprintf("member %s saved", name), rec)
	res.Created = true
	return res, nil
}

// Update writes cmd.Fields onto the member identified by cmd.Identifiers.
func (s *MemberService) Update(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	if len(cmd.Fields) == 0 {
		return nil, domain.ErrNoFieldValues
	}
	member, err := s.Lookup(ctx, cmd.Name(), cmd.Identifiers[domain.FieldMemberNumber])
	if err != nil {
		return nil, err
	}
	if err := s.writeFields(ctx, member, cmd.Fields); err != nil {
		return nil, err
	}

	s.logger.Info("member updated", zap.String("name", cmd.Name()), zap.Int("fields", len(cmd.Fields)))
	return domain.Success(fmt.Sprintf("member %s updated", cmd.Name()), fieldList(cmd.Fields)), nil
}

// DeleteFields clears the cells named by cmd.Targets.
func (s *MemberService) DeleteFields(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	if cmd.Name() == "" {
		return nil, fmt.Errorf("%w: %s is required to delete fields", domain.ErrValidation, domain.FieldName)
	}
	if len(cmd.Targets) == 0 {
		return nil, fmt.Errorf("%w: no field to delete", domain.ErrValidation)
	}
	for _, f := range cmd.Targets {
		if protectedFields[f] {
			return nil, fmt.Errorf("%w: %s cannot be deleted", domain.ErrValidation, f)
		}
	}

	member, err := s.Lookup(ctx, cmd.Name(), cmd.Identifiers[domain.FieldMemberNumber])
	if err != nil {
		return nil, err
	}
	for _, f := range cmd.Targets {
		if err := s.store.UpdateCell(ctx, domain.CategoryMember, member.Row, f, ""); err != nil {
			return nil, err
		}
	}

	s.logger.Info("member fields cleared", zap.String("name", cmd.Name()), zap.Any("fields", cmd.Targets))
	return domain.Success(fmt.Sprintf("cleared %d fields of %s", len(cmd.Targets), cmd.Name()), cmd.Targets), nil
}

// DeleteMember removes the whole member row. confirm must be true.
func (s *MemberService) DeleteMember(ctx context.Context, cmd domain.ParsedCommand, confirm bool) (*domain.OperationResult, error) {
	if cmd.Name() == "" {
		return nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	}
	if !confirm {
		return nil, fmt.Errorf("%w: deleting member %s requires confirm", domain.ErrValidation, cmd.Name())
	}

	member, err := s.Lookup(ctx, cmd.Name(), cmd.Identifiers[domain.FieldMemberNumber])
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteRecord(ctx, domain.CategoryMember, member.Row); err != nil {
		return nil, err
	}

	s.logger.Warn("member deleted", zap.String("name", cmd.Name()), zap.Int("row", member.Row))
	return domain.Success(fmt.Sprintf("member %s deleted", cmd.Name()), member), nil
}

func (s *MemberService) writeFields(ctx context.Context, member domain.Record, values map[domain.Field]string) error {
	for f := range values {
		if !hasColumn(domain.MemberColumns, f) {
			return fmt.Errorf("%w: members have no field %s", domain.ErrValidation, f)
		}
	}
	for _, f := range domain.MemberColumns {
		v, ok := values[f]
		if !ok {
			continue
		}
		if err := s.store.UpdateCell(ctx, domain.CategoryMember, member.Row, f, v); err != nil {
			return err
		}
	}
	return nil
}

// mergeValues flattens identifiers and fields; fields win.
func mergeValues(cmd domain.ParsedCommand) map[domain.Field]string {
	out := make(map[domain.Field]string, len(cmd.Identifiers)+len(cmd.Fields))
	for f, v := range cmd.Identifiers {
		out[f] = v
	}
	for f, v := range cmd.Fields {
		out[f] = v
	}
	return out
}

// recordFor builds a record over columns, rejecting unknown fields.
func recordFor(columns []domain.Field, values map[domain.Field]string) (domain.Record, error) {
	for f := range values {
		if !hasColumn(columns, f) {
			return domain.Record{}, fmt.Errorf("%w: unknown field %s", domain.ErrValidation, f)
		}
	}
	rec := domain.Record{Values: make(map[string]string, len(columns))}
	for _, f := range columns {
		rec.Values[string(f)] = values[f]
	}
	return rec, nil
}

func hasColumn(columns []domain.Field, f domain.Field) bool {
	for _, c := range columns {
		if c == f {
			return true
		}
	}
	return false
}

// fieldList converts values to a plain map for responses.
func fieldList(values map[domain.Field]string) map[string]string {
	out := make(map[string]string, len(values))
	for f, v := range values {
		out[string(f)] = v
	}
	return out
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func today(now func() time.Time) string {
	return now().Format("2006-01-02")
}

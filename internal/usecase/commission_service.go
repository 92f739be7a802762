package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
	"github.com/memberdesk/backend/internal/matcher"
	"go.uber.org/zap"
)

// CommissionService manages the commission sheet.
type CommissionService struct {
	store  domain.RecordStore
	now    func() time.Time
	logger *zap.Logger
}

// NewCommissionService creates a commission service over store.
func NewCommissionService(store domain.RecordStore, now func() time.Time, logger *zap.Logger) *CommissionService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommissionService{store: store, now: now, logger: logger.With(zap.String("service", "commission"))}
}

// matching returns the commission rows of cmd's member, narrowed to the
// paid date when one is given, newest first.
func (s *CommissionService) matching(ctx context.Context, cmd domain.ParsedCommand) (domain.MatchResult, error) {
	if cmd.Name() == "" {
		return domain.MatchResult{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	}
	records, err := s.store.ListRecords(ctx, domain.CategoryCommission)
	if err != nil {
		return domain.MatchResult{}, err
	}

	c := domain.NewCriteria()
	c.Equality[domain.FieldName] = cmd.Name()
	if d := cmd.Identifiers[domain.FieldPaidDate]; d != "" {
		t, ok := matcher.ParseDate(d)
		if !ok {
			return domain.MatchResult{}, fmt.Errorf("%w: bad %s %q", domain.ErrValidation, domain.FieldPaidDate, d)
		}
		c.DateRange = &domain.DateRange{Field: domain.FieldPaidDate, Start: t, End: t.AddDate(0, 0, 1).Add(-time.Nanosecond)}
	}
	c.Sort = domain.SortSpec{Field: domain.FieldPaidDate, Descending: true}
	return matcher.Match(records, c), nil
}

// Find lists commissions of a member, optionally on one date.
func (s *CommissionService) Find(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	res, err := s.matching(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return domain.Success(fmt.Sprintf("%d commissions found", res.Total), res), nil
}

// Register appends a commission. The paid date defaults to today.
func (s *CommissionService) Register(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	values := mergeValues(cmd)
	if values[domain.FieldName] == "" || values[domain.FieldCommission] == "" {
		return nil, fmt.Errorf("%w: %s and %s are required", domain.ErrValidation, domain.FieldName, domain.FieldCommission)
	}
	values[domain.FieldCommission] = lexicon.Digits(values[domain.FieldCommission])
	setDefault(values, domain.FieldPaidDate, today(s.now))

	rec, err := recordFor(domain.CommissionColumns, values)
	if err != nil {
		return nil, err
	}
	if err := s.store.AppendRecord(ctx, domain.CategoryCommission, rec); err != nil {
		return nil, err
	}

	s.logger.Info("commission registered", zap.String("name", cmd.Name()))
	res := domain.Success(fmt.Sprintf("commission for %s registered", cmd.Name()), rec)
	res.Created = true
	return res, nil
}

// Update rewrites the commissions of a member on one paid date.
func (s *CommissionService) Update(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	if cmd.Identifiers[domain.FieldPaidDate] == "" {
		return nil, fmt.Errorf("%w: %s and %s are required", domain.ErrValidation, domain.FieldName, domain.FieldPaidDate)
	}
	if len(cmd.Fields) == 0 {
		return nil, domain.ErrNoFieldValues
	}
	for f := range cmd.Fields {
		if f != domain.FieldCommission && f != domain.FieldNote {
			return nil, fmt.Errorf("%w: %s cannot be changed", domain.ErrValidation, f)
		}
	}

	res, err := s.matching(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res.Total == 0 {
		return nil, fmt.Errorf("%w: no commission for %s on %s", domain.ErrNotFound, cmd.Name(), cmd.Identifiers[domain.FieldPaidDate])
	}

	for _, r := range res.Records {
		for f, v := range cmd.Fields {
			if f == domain.FieldCommission {
				v = lexicon.Digits(v)
			}
			if err := s.store.UpdateCell(ctx, domain.CategoryCommission, r.Row, f, v); err != nil {
				return nil, err
			}
		}
	}
	return domain.Success(fmt.Sprintf("%d commissions updated", res.Total), fieldList(cmd.Fields)), nil
}

// Delete removes every commission of a member, or only those on the
// given paid date.
func (s *CommissionService) Delete(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	res, err := s.matching(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res.Total == 0 {
		return nil, fmt.Errorf("%w: no commission for %s", domain.ErrNotFound, cmd.Name())
	}

	// Bottom rows first so earlier row numbers stay valid.
	rows := make([]int, len(res.Records))
	for i, r := range res.Records {
		rows[i] = r.Row
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rows)))
	for _, row := range rows {
		if err := s.store.DeleteRecord(ctx, domain.CategoryCommission, row); err != nil {
			return nil, err
		}
	}

	s.logger.Info("commissions deleted", zap.String("name", cmd.Name()), zap.Int("count", len(rows)))
	return domain.Success(fmt.Sprintf("%d commissions deleted", len(rows)), res.Records), nil
}

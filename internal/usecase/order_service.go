package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
	"github.com/memberdesk/backend/internal/matcher"
	"go.uber.org/zap"
)

// OrderService runs order operations against the order sheet. New orders
// go on top of the sheet so the newest order is the first data row.
type OrderService struct {
	store      domain.RecordStore
	members    *MemberService
	membership domain.MembershipClient
	now        func() time.Time
	logger     *zap.Logger
}

// NewOrderService creates an order service. membership may be nil, in
// which case Proxy reports NotConfigured.
func NewOrderService(store domain.RecordStore, members *MemberService, membership domain.MembershipClient, now func() time.Time, logger *zap.Logger) *OrderService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		store:      store,
		members:    members,
		membership: membership,
		now:        now,
		logger:     logger.With(zap.String("service", "order")),
	}
}

func (s *OrderService) criteria(cmd domain.ParsedCommand) (*domain.MatchCriteria, error) {
	name, product := cmd.Name(), cmd.Identifiers[domain.FieldProduct]
	if name == "" && product == "" {
		return nil, fmt.Errorf("%w: %s or %s is required", domain.ErrValidation, domain.FieldName, domain.FieldProduct)
	}
	c := domain.NewCriteria()
	if name != "" {
		c.Equality[domain.FieldName] = name
	}
	if product != "" {
		c.Equality[domain.FieldProduct] = product
		c.Normalized[domain.FieldProduct] = true
	}
	c.Sort = domain.SortSpec{Field: domain.FieldOrderDate, Descending: true}
	return c, nil
}

// Find lists orders by member and/or product, newest first.
func (s *OrderService) Find(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	c, err := s.criteria(cmd)
	if err != nil {
		return nil, err
	}
	if cmd.Criteria != nil {
		c.Limit, c.Offset = cmd.Criteria.Limit, cmd.Criteria.Offset
	}
	records, err := s.store.ListRecords(ctx, domain.CategoryOrder)
	if err != nil {
		return nil, err
	}
	res := matcher.Match(records, c)
	return domain.Success(fmt.Sprintf("%d orders found", res.Total), res), nil
}

// Register saves one order per command. Each command is an item of the
// result; the batch fails only when every item fails.
func (s *OrderService) Register(ctx context.Context, cmds []domain.ParsedCommand) (*domain.OperationResult, error) {
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: no order lines", domain.ErrValidation)
	}

	res := &domain.OperationResult{Status: domain.StatusSuccess}
	var firstErr error
	saved := 0
	// Inserting at the top reverses the batch, so walk it backwards to keep
	// the first line on top.
	items := make([]domain.ItemResult, len(cmds))
	for i := len(cmds) - 1; i >= 0; i-- {
		rec, err := s.registerOne(ctx, cmds[i])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			items[i] = domain.ItemResult{Index: i, Status: domain.StatusError, Message: err.Error()}
			continue
		}
		saved++
		items[i] = domain.ItemResult{Index: i, Status: domain.StatusSuccess, Record: &rec}
	}
	res.Items = items

	if saved == 0 {
		return nil, firstErr
	}
	res.Created = true
	res.Message = fmt.Sprintf("%d of %d orders saved", saved, len(cmds))
	s.logger.Info("orders registered", zap.Int("saved", saved), zap.Int("total", len(cmds)))
	return res, nil
}

// RegisterRecords saves extracted order lines for member name.
func (s *OrderService) RegisterRecords(ctx context.Context, name string, records []domain.Record) (*domain.OperationResult, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	}
	cmds := make([]domain.ParsedCommand, 0, len(records))
	for _, r := range records {
		cmd := domain.NewCommand(domain.IntentCreate, domain.EntityOrder, "")
		cmd.Identifiers[domain.FieldName] = name
		for k, v := range r.Values {
			if f := domain.Field(k); hasColumn(domain.OrderColumns, f) && f != domain.FieldName {
				cmd.Fields[f] = v
			}
		}
		cmds = append(cmds, cmd)
	}
	return s.Register(ctx, cmds)
}

func (s *OrderService) registerOne(ctx context.Context, cmd domain.ParsedCommand) (domain.Record, error) {
	values := mergeValues(cmd)
	// The order sheet has no quantity column.
	delete(values, domain.FieldQuantity)
	name := values[domain.FieldName]
	if name == "" {
		return domain.Record{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	}
	if values[domain.FieldProduct] == "" {
		return domain.Record{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldProduct)
	}

	if values[domain.FieldMemberNumber] == "" || values[domain.FieldPhone] == "" {
		member, err := s.members.Lookup(ctx, name, values[domain.FieldMemberNumber])
		switch {
		case err == nil:
			setDefault(values, domain.FieldMemberNumber, member.Get(domain.FieldMemberNumber))
			setDefault(values, domain.FieldPhone, member.Get(domain.FieldPhone))
		case domain.KindOf(err) == domain.KindUpstream:
			return domain.Record{}, err
		default:
			s.logger.Debug("order for unknown member", zap.String("name", name), zap.Error(err))
		}
	}

	if d := values[domain.FieldOrderDate]; d != "" {
		t, ok := matcher.ParseDate(d)
		if !ok {
			return domain.Record{}, fmt.Errorf("%w: bad %s %q", domain.ErrValidation, domain.FieldOrderDate, d)
		}
		values[domain.FieldOrderDate] = t.Format("2006-01-02")
	}
	setDefault(values, domain.FieldOrderDate, today(s.now))
	setDefault(values, domain.FieldReceived, "N")
	for _, f := range []domain.Field{domain.FieldPrice, domain.FieldPV} {
		if v, ok := values[f]; ok {
			values[f] = lexicon.Digits(v)
		}
	}

	rec, err := recordFor(domain.OrderColumns, values)
	if err != nil {
		return domain.Record{}, err
	}
	if err := s.store.InsertRecord(ctx, domain.CategoryOrder, 2, rec); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// newest returns the most recent order matching cmd.
func (s *OrderService) newest(ctx context.Context, cmd domain.ParsedCommand) (domain.Record, error) {
	if cmd.Name() == "" {
		return domain.Record{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	}
	c, err := s.criteria(cmd)
	if err != nil {
		return domain.Record{}, err
	}
	c.Limit = 1
	records, err := s.store.ListRecords(ctx, domain.CategoryOrder)
	if err != nil {
		return domain.Record{}, err
	}
	res := matcher.Match(records, c)
	if res.Total == 0 {
		return domain.Record{}, fmt.Errorf("%w: no order for %s", domain.ErrNotFound, cmd.Name())
	}
	return res.Records[0], nil
}

// Update writes cmd.Fields onto the newest matching order.
func (s *OrderService) Update(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	if len(cmd.Fields) == 0 {
		return nil, domain.ErrNoFieldValues
	}
	for f := range cmd.Fields {
		if !hasColumn(domain.OrderColumns, f) {
			return nil, fmt.Errorf("%w: orders have no field %s", domain.ErrValidation, f)
		}
	}
	order, err := s.newest(ctx, cmd)
	if err != nil {
		return nil, err
	}
	for _, f := range domain.OrderColumns {
		if v, ok := cmd.Fields[f]; ok {
			if err := s.store.UpdateCell(ctx, domain.CategoryOrder, order.Row, f, v); err != nil {
				return nil, err
			}
		}
	}
	return domain.Success(fmt.Sprintf("order of %s updated", cmd.Name()), fieldList(cmd.Fields)), nil
}

// Delete removes the newest matching order.
func (s *OrderService) Delete(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	order, err := s.newest(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteRecord(ctx, domain.CategoryOrder, order.Row); err != nil {
		return nil, err
	}
	s.logger.Info("order deleted", zap.String("name", cmd.Name()), zap.Int("row", order.Row))
	return domain.Success(fmt.Sprintf("order of %s deleted", cmd.Name()), order), nil
}

// Proxy forwards an order payload to the membership API unchanged.
func (s *OrderService) Proxy(ctx context.Context, payload map[string]interface{}) (*domain.OperationResult, error) {
	if s.membership == nil {
		return nil, fmt.Errorf("%w: membership api", domain.ErrNotConfigured)
	}
	reply, err := s.membership.SaveOrder(ctx, payload)
	if err != nil {
		return nil, err
	}
	return domain.Success("order forwarded", reply), nil
}

func setDefault(values map[domain.Field]string, f domain.Field, v string) {
	if values[f] == "" {
		values[f] = v
	}
}

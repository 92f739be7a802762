package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/metrics"
	"github.com/memberdesk/backend/internal/parser"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// ImageFetcher downloads an image referenced by URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Services are the business operations the dispatcher executes. Extractor
// and Fetcher are optional.
type Services struct {
	Members     *MemberService
	Orders      *OrderService
	Memos       *MemoService
	Commissions *CommissionService
	Extractor   domain.Extractor
	Fetcher     ImageFetcher
}

// Response is the transport-neutral outcome of Handle.
type Response struct {
	Status     domain.Status `json:"status"`
	HTTPStatus int           `json:"httpStatusHint"`
	Body       interface{}   `json:"body"`
}

// ErrorBody is the body of a failed Response.
type ErrorBody struct {
	Status     domain.Status     `json:"status"`
	Kind       domain.ErrorKind  `json:"kind"`
	Message    string            `json:"message"`
	Candidates []domain.Record   `json:"candidates,omitempty"`
	Failures   map[string]string `json:"failures,omitempty"`
}

// CommandResult wraps the result of a guessed command with the rule that
// produced it.
type CommandResult struct {
	Rule      string                  `json:"rule"`
	Operation Operation               `json:"operation"`
	Commands  []domain.ParsedCommand  `json:"commands"`
	Result    *domain.OperationResult `json:"result"`
}

// Dispatcher turns inbound requests into business operations: it detects
// the request shape, resolves a ParsedCommand, executes it and maps the
// outcome to a Response. It holds no per-request state.
type Dispatcher struct {
	parser  *parser.Parser
	guesser *parser.Guesser
	svc     Services
	schemas map[Operation]*gojsonschema.Schema
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher over p and svc.
func NewDispatcher(p *parser.Parser, svc Services, logger *zap.Logger) (*Dispatcher, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		parser:  p,
		guesser: parser.NewGuesser(p),
		svc:     svc,
		schemas: schemas,
		logger:  logger.With(zap.String("component", "dispatcher")),
	}, nil
}

// Operations lists every operation Handle accepts.
func Operations() []Operation {
	return []Operation{
		OpMemberFind, OpMemberRegister, OpMemberSave, OpMemberUpdate, OpMemberDelete,
		OpOrderFind, OpOrderRegister, OpOrderUpdate, OpOrderDelete, OpOrderProxy,
		OpMemoSave, OpMemoSearch,
		OpCommissionFind, OpCommissionRegister, OpCommissionUpdate, OpCommissionDelete,
		OpCommand,
	}
}

func knownOperation(op Operation) bool {
	for _, o := range Operations() {
		if o == op {
			return true
		}
	}
	return false
}

// Handle runs op for req. It never returns an error: failures become error
// responses carrying the error kind and an HTTP status hint.
func (d *Dispatcher) Handle(ctx context.Context, op Operation, req Request) Response {
	start := time.Now()

	shape := Shape(InvalidShape{Reason: "unknown operation " + string(op)})
	if knownOperation(op) {
		shape = DetectMode(op, req)
	}

	var failures map[string]string
	res, err := d.run(ctx, op, shape, &failures)
	resp := respond(res, err, failures)

	metrics.DispatchDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	metrics.DispatchRequests.WithLabelValues(string(op), shape.mode(), string(resp.Status)).Inc()

	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.String("mode", shape.mode()),
		zap.Int("status", resp.HTTPStatus),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		fields = append(fields, zap.String("kind", string(domain.KindOf(err))), zap.Error(err))
		if resp.HTTPStatus >= http.StatusInternalServerError {
			d.logger.Error("dispatch failed", fields...)
		} else {
			d.logger.Info("dispatch rejected", fields...)
		}
	} else {
		d.logger.Debug("dispatch finished", fields...)
	}
	return resp
}

func (d *Dispatcher) run(ctx context.Context, op Operation, shape Shape, failures *map[string]string) (*domain.OperationResult, error) {
	switch s := shape.(type) {
	case InvalidShape:
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, s.Reason)

	case TextShape:
		if op == OpCommand {
			return d.runCommand(ctx, s.Text, failures)
		}
		cmds, err := d.resolveText(op, s)
		if err != nil {
			metrics.ParseFailures.WithLabelValues(string(op)).Inc()
			return nil, err
		}
		return d.execute(ctx, op, cmds, s.Fields)

	case StructuredShape:
		if err := validatePayload(d.schemas[op], s.Fields); err != nil {
			return nil, err
		}
		cmds, err := d.resolveStructured(op, s.Fields)
		if err != nil {
			return nil, err
		}
		return d.execute(ctx, op, cmds, s.Fields)

	case FileShape:
		return d.runFile(ctx, s)
	}
	return nil, fmt.Errorf("%w: unsupported request shape %T", domain.ErrValidation, shape)
}

// runCommand guesses the intent of free text and executes the operation
// it implies.
func (d *Dispatcher) runCommand(ctx context.Context, text string, failures *map[string]string) (*domain.OperationResult, error) {
	guess, err := d.guesser.Guess(text)
	*failures = guess.Failures
	for rule := range guess.Failures {
		metrics.ParseFailures.WithLabelValues(rule).Inc()
	}
	if err != nil {
		return nil, err
	}
	if guess.Unknown() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnrecognizedCmd, text)
	}

	op, err := operationFor(guess.Commands[0])
	if err != nil {
		return nil, err
	}
	res, err := d.execute(ctx, op, guess.Commands, nil)
	if err != nil {
		return nil, err
	}
	return &domain.OperationResult{
		Status:  res.Status,
		Message: res.Message,
		Created: res.Created,
		Items:   res.Items,
		Payload: CommandResult{Rule: guess.Rule, Operation: op, Commands: guess.Commands, Result: res},
	}, nil
}

// operationFor maps a guessed command to the operation executing it.
func operationFor(cmd domain.ParsedCommand) (Operation, error) {
	table := map[domain.Entity]map[domain.Intent]Operation{
		domain.EntityMember: {
			domain.IntentSearch: OpMemberFind,
			domain.IntentCreate: OpMemberSave,
			domain.IntentUpdate: OpMemberUpdate,
			domain.IntentDelete: OpMemberDelete,
		},
		domain.EntityOrder: {
			domain.IntentSearch: OpOrderFind,
			domain.IntentCreate: OpOrderRegister,
			domain.IntentUpdate: OpOrderUpdate,
			domain.IntentDelete: OpOrderDelete,
		},
		domain.EntityMemo: {
			domain.IntentSearch: OpMemoSearch,
			domain.IntentCreate: OpMemoSave,
		},
		domain.EntityCommission: {
			domain.IntentSearch: OpCommissionFind,
			domain.IntentCreate: OpCommissionRegister,
			domain.IntentUpdate: OpCommissionUpdate,
			domain.IntentDelete: OpCommissionDelete,
		},
	}
	if op, ok := table[cmd.Entity][cmd.Intent]; ok {
		return op, nil
	}
	return "", fmt.Errorf("%w: %s %s", domain.ErrUnrecognizedCmd, cmd.Intent, cmd.Entity)
}

// resolveText runs the parser implied by op over the text, then lets
// payload fields supply identifiers the text lacks.
func (d *Dispatcher) resolveText(op Operation, s TextShape) ([]domain.ParsedCommand, error) {
	p := d.parser
	one := func(cmd domain.ParsedCommand, err error) ([]domain.ParsedCommand, error) {
		if err != nil {
			return nil, err
		}
		overlayIdentifiers(&cmd, s.Fields)
		return []domain.ParsedCommand{cmd}, nil
	}

	switch op {
	case OpMemberFind:
		return one(p.ParseMemberQuery(s.Text))
	case OpMemberRegister, OpMemberSave:
		return one(p.ParseRegistration(s.Text))
	case OpMemberUpdate:
		return one(p.ParseUpdate(s.Text, stringField(s.Fields, string(domain.FieldName))))
	case OpMemberDelete:
		cmd, err := p.ParseDeletion(s.Text)
		if errors.Is(err, domain.ErrNotADeletion) {
			cmd, err = p.ParseMemberDeletion(s.Text)
		}
		return one(cmd, err)
	case OpOrderFind:
		return one(p.ParseOrderLoose(s.Text))
	case OpOrderRegister:
		cmds, err := p.ParseOrder(s.Text)
		if err != nil {
			return nil, err
		}
		for i := range cmds {
			overlayIdentifiers(&cmds[i], s.Fields)
		}
		return cmds, nil
	case OpOrderUpdate:
		return one(p.ParseOrderUpdate(s.Text))
	case OpOrderDelete:
		cmd, err := p.ParseOrderLoose(s.Text)
		cmd.Intent = domain.IntentDelete
		return one(cmd, err)
	case OpMemoSave:
		return one(p.ParseMemo(s.Text))
	case OpMemoSearch:
		return one(p.ParseMemoSearch(s.Text))
	case OpCommissionFind, OpCommissionRegister, OpCommissionUpdate, OpCommissionDelete:
		cmd, err := p.ParseCommission(s.Text)
		cmd.Intent = commissionIntents[op]
		return one(cmd, err)
	}
	return nil, fmt.Errorf("%w: operation %s takes no text", domain.ErrValidation, op)
}

var commissionIntents = map[Operation]domain.Intent{
	OpCommissionFind:     domain.IntentSearch,
	OpCommissionRegister: domain.IntentCreate,
	OpCommissionUpdate:   domain.IntentUpdate,
	OpCommissionDelete:   domain.IntentDelete,
}

// overlayIdentifiers copies identifying payload fields the text did not
// provide.
func overlayIdentifiers(cmd *domain.ParsedCommand, fields map[string]interface{}) {
	for _, f := range []domain.Field{domain.FieldName, domain.FieldMemberNumber, domain.FieldProduct, domain.FieldPaidDate} {
		if v := stringField(fields, string(f)); v != "" && cmd.Identifiers[f] == "" {
			cmd.Identifiers[f] = v
		}
	}
}

// resolveStructured builds commands straight from payload keys.
func (d *Dispatcher) resolveStructured(op Operation, fields map[string]interface{}) ([]domain.ParsedCommand, error) {
	switch op {
	case OpMemberFind:
		cmd := domain.NewCommand(domain.IntentSearch, domain.EntityMember, "")
		c := domain.NewCriteria()
		for _, f := range domain.MemberColumns {
			if v := stringField(fields, string(f)); v != "" {
				c.Equality[f] = v
				switch f {
				case domain.FieldPhone, domain.FieldMemberNumber:
					c.DigitNormalized[f] = true
				case domain.FieldCode, domain.FieldLineage, domain.FieldAddress, domain.FieldWorkplace:
					c.Normalized[f] = true
				}
			}
		}
		c.Sort = domain.SortSpec{Field: domain.FieldName}
		c.Limit, c.Offset = intField(fields, "limit"), intField(fields, "offset")
		cmd.Criteria = c
		return []domain.ParsedCommand{cmd}, nil

	case OpMemberRegister, OpMemberSave:
		cmd := domain.NewCommand(domain.IntentCreate, domain.EntityMember, "")
		copyColumns(cmd.Fields, fields, domain.MemberColumns)
		cmd.Identifiers[domain.FieldName] = cmd.Fields[domain.FieldName]
		delete(cmd.Fields, domain.FieldName)
		return []domain.ParsedCommand{cmd}, nil

	case OpMemberUpdate:
		cmd := domain.NewCommand(domain.IntentUpdate, domain.EntityMember, "")
		copyColumns(cmd.Fields, fields, domain.MemberColumns)
		for _, f := range []domain.Field{domain.FieldName, domain.FieldMemberNumber} {
			if v := cmd.Fields[f]; v != "" {
				cmd.Identifiers[f] = v
			}
			delete(cmd.Fields, f)
		}
		return []domain.ParsedCommand{cmd}, nil

	case OpMemberDelete:
		cmd := domain.NewCommand(domain.IntentDelete, domain.EntityMember, "")
		overlayIdentifiers(&cmd, fields)
		names, _ := fields["fields"].([]interface{})
		for _, n := range names {
			s, _ := n.(string)
			f, ok := d.parser.Lexicon().Resolve(s)
			if !ok {
				return nil, fmt.Errorf("%w: unknown member field %q", domain.ErrValidation, s)
			}
			cmd.Targets = append(cmd.Targets, f)
		}
		return []domain.ParsedCommand{cmd}, nil

	case OpOrderFind, OpOrderDelete:
		intent := domain.IntentSearch
		if op == OpOrderDelete {
			intent = domain.IntentDelete
		}
		cmd := domain.NewCommand(intent, domain.EntityOrder, "")
		overlayIdentifiers(&cmd, fields)
		c := domain.NewCriteria()
		c.Limit, c.Offset = intField(fields, "limit"), intField(fields, "offset")
		cmd.Criteria = c
		return []domain.ParsedCommand{cmd}, nil

	case OpOrderRegister:
		items, _ := fields["orders"].([]interface{})
		if len(items) == 0 {
			items = []interface{}{fields}
		}
		cmds := make([]domain.ParsedCommand, 0, len(items))
		for _, it := range items {
			m, _ := it.(map[string]interface{})
			cmd := domain.NewCommand(domain.IntentCreate, domain.EntityOrder, "")
			copyColumns(cmd.Fields, m, domain.OrderColumns)
			if cmd.Fields[domain.FieldName] == "" {
				cmd.Fields[domain.FieldName] = stringField(fields, string(domain.FieldName))
			}
			cmd.Identifiers[domain.FieldName] = cmd.Fields[domain.FieldName]
			delete(cmd.Fields, domain.FieldName)
			cmds = append(cmds, cmd)
		}
		return cmds, nil

	case OpOrderUpdate:
		cmd := domain.NewCommand(domain.IntentUpdate, domain.EntityOrder, "")
		overlayIdentifiers(&cmd, fields)
		copyColumns(cmd.Fields, fields, domain.OrderColumns)
		delete(cmd.Fields, domain.FieldName)
		delete(cmd.Fields, domain.FieldProduct)
		return []domain.ParsedCommand{cmd}, nil

	case OpOrderProxy:
		return nil, nil

	case OpMemoSave:
		cmd := domain.NewCommand(domain.IntentCreate, domain.EntityMemo, "")
		cmd.Identifiers[domain.FieldName] = stringField(fields, string(domain.FieldName))
		cmd.Fields[domain.FieldLogType] = stringField(fields, string(domain.FieldLogType))
		cmd.Fields[domain.FieldContent] = stringField(fields, string(domain.FieldContent))
		return []domain.ParsedCommand{cmd}, nil

	case OpMemoSearch:
		return d.memoSearchCommand(fields)

	case OpCommissionFind, OpCommissionRegister, OpCommissionUpdate, OpCommissionDelete:
		cmd := domain.NewCommand(commissionIntents[op], domain.EntityCommission, "")
		cmd.Identifiers[domain.FieldName] = stringField(fields, string(domain.FieldName))
		if raw := stringField(fields, string(domain.FieldPaidDate)); raw != "" {
			date, ok := d.parser.NormalizeDate(raw)
			if !ok {
				return nil, fmt.Errorf("%w: bad %s %q", domain.ErrValidation, domain.FieldPaidDate, raw)
			}
			cmd.Identifiers[domain.FieldPaidDate] = date
		}
		for _, f := range []domain.Field{domain.FieldCommission, domain.FieldNote} {
			if v := stringField(fields, string(f)); v != "" {
				cmd.Fields[f] = v
			}
		}
		return []domain.ParsedCommand{cmd}, nil
	}
	return nil, fmt.Errorf("%w: operation %s takes no structured payload", domain.ErrValidation, op)
}

func (d *Dispatcher) memoSearchCommand(fields map[string]interface{}) ([]domain.ParsedCommand, error) {
	cmd := domain.NewCommand(domain.IntentSearch, domain.EntityMemo, "")
	c := domain.NewCriteria()

	switch sheet := stringField(fields, "sheet"); {
	case sheet == "" || sheet == "all" || sheet == "전체":
		cmd.Categories = append([]string(nil), domain.LogTypes...)
	default:
		for _, sh := range strings.Split(sheet, ",") {
			cmd.Categories = append(cmd.Categories, strings.TrimSpace(sh))
		}
	}

	switch kw := fields["keywords"].(type) {
	case string:
		c.Keywords = strings.Fields(kw)
	case []interface{}:
		for _, k := range kw {
			if s, ok := k.(string); ok && strings.TrimSpace(s) != "" {
				c.Keywords = append(c.Keywords, strings.TrimSpace(s))
			}
		}
	}
	if m := stringField(fields, "mode"); m == "all" || m == "동시" {
		c.Mode = domain.ModeAll
	}
	c.MemberName = stringField(fields, "member_name")
	if c.MemberName != "" {
		cmd.Identifiers[domain.FieldName] = c.MemberName
	}

	start, end := stringField(fields, "start_date"), stringField(fields, "end_date")
	if start != "" || end != "" {
		r := &domain.DateRange{Field: domain.FieldWrittenAt}
		for _, b := range []struct {
			raw  string
			dest *time.Time
			end  bool
		}{{start, &r.Start, false}, {end, &r.End, true}} {
			if b.raw == "" {
				continue
			}
			date, ok := d.parser.NormalizeDate(b.raw)
			if !ok {
				return nil, fmt.Errorf("%w: bad date %q", domain.ErrValidation, b.raw)
			}
			t, _ := time.ParseInLocation(parser.DateLayout, date, time.Local)
			if b.end {
				t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
			*b.dest = t
		}
		c.DateRange = r
	}

	c.KeywordFields = []domain.Field{domain.FieldContent}
	c.Sort = domain.SortSpec{Field: domain.FieldWrittenAt, Descending: true}
	c.Limit, c.Offset = intField(fields, "limit"), intField(fields, "offset")
	cmd.Criteria = c
	return []domain.ParsedCommand{cmd}, nil
}

// execute calls the business operation for op.
func (d *Dispatcher) execute(ctx context.Context, op Operation, cmds []domain.ParsedCommand, fields map[string]interface{}) (*domain.OperationResult, error) {
	if op != OpOrderProxy && len(cmds) == 0 {
		return nil, fmt.Errorf("%w: nothing to execute", domain.ErrParseFailure)
	}
	var cmd domain.ParsedCommand
	if len(cmds) > 0 {
		cmd = cmds[0]
	}

	switch op {
	case OpMemberFind:
		return d.svc.Members.Find(ctx, cmd.Criteria)
	case OpMemberRegister:
		return d.svc.Members.Register(ctx, cmd)
	case OpMemberSave:
		return d.svc.Members.Save(ctx, cmd)
	case OpMemberUpdate:
		return d.svc.Members.Update(ctx, cmd)
	case OpMemberDelete:
		if len(cmd.Targets) > 0 {
			return d.svc.Members.DeleteFields(ctx, cmd)
		}
		confirm, _ := fields["confirm"].(bool)
		return d.svc.Members.DeleteMember(ctx, cmd, confirm)

	case OpOrderFind:
		return d.svc.Orders.Find(ctx, cmd)
	case OpOrderRegister:
		return d.svc.Orders.Register(ctx, cmds)
	case OpOrderUpdate:
		return d.svc.Orders.Update(ctx, cmd)
	case OpOrderDelete:
		return d.svc.Orders.Delete(ctx, cmd)
	case OpOrderProxy:
		return d.svc.Orders.Proxy(ctx, fields)

	case OpMemoSave:
		return d.svc.Memos.Save(ctx, cmd)
	case OpMemoSearch:
		return d.svc.Memos.Search(ctx, cmd)

	case OpCommissionFind:
		return d.svc.Commissions.Find(ctx, cmd)
	case OpCommissionRegister:
		return d.svc.Commissions.Register(ctx, cmd)
	case OpCommissionUpdate:
		return d.svc.Commissions.Update(ctx, cmd)
	case OpCommissionDelete:
		return d.svc.Commissions.Delete(ctx, cmd)
	}
	return nil, fmt.Errorf("%w: unknown operation %s", domain.ErrValidation, op)
}

// runFile extracts order lines from an image and registers them for the
// member named in the payload.
func (d *Dispatcher) runFile(ctx context.Context, s FileShape) (*domain.OperationResult, error) {
	if d.svc.Extractor == nil {
		return nil, fmt.Errorf("%w: image extraction", domain.ErrNotConfigured)
	}

	name := stringField(s.Fields, string(domain.FieldName))
	if name == "" {
		msg := stringField(s.Fields, "message")
		name = strings.TrimSpace(strings.ReplaceAll(msg, "제품주문 저장", ""))
	}
	if name == "" {
		return nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	}

	upload := s.Upload
	if upload == nil {
		if d.svc.Fetcher == nil {
			return nil, fmt.Errorf("%w: image download", domain.ErrNotConfigured)
		}
		data, ct, err := d.svc.Fetcher.Fetch(ctx, s.URL)
		if err != nil {
			return nil, err
		}
		upload = &Upload{Data: data, ContentType: ct}
	}

	records, err := d.svc.Extractor.Extract(ctx, upload.Data, upload.ContentType)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no order found in image", domain.ErrValidation)
	}
	return d.svc.Orders.RegisterRecords(ctx, name, records)
}

// respond is the single translation from results and error kinds to
// status hints.
func respond(res *domain.OperationResult, err error, failures map[string]string) Response {
	if err != nil {
		body := ErrorBody{
			Status:  domain.StatusError,
			Kind:    domain.KindOf(err),
			Message: err.Error(),
		}
		var cand *domain.CandidatesError
		if errors.As(err, &cand) {
			body.Candidates = cand.Candidates
		}
		if len(failures) > 0 {
			body.Failures = failures
		}
		return Response{Status: domain.StatusError, HTTPStatus: HTTPStatus(body.Kind), Body: body}
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return Response{Status: domain.StatusSuccess, HTTPStatus: status, Body: res}
}

// HTTPStatus maps an error kind to its HTTP status hint.
func HTTPStatus(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNone:
		return http.StatusOK
	case domain.KindParseFailure, domain.KindAmbiguousIntent, domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNotConfigured:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// stringField reads key as a string; numbers are formatted without
// exponent.
func stringField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func intField(fields map[string]interface{}, key string) int {
	n, _ := strconv.Atoi(stringField(fields, key))
	return n
}

func copyColumns(dst map[domain.Field]string, src map[string]interface{}, columns []domain.Field) {
	for _, f := range columns {
		if v := stringField(src, string(f)); v != "" {
			dst[f] = v
		}
	}
}

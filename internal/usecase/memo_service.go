package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/matcher"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	memoTimeLayout  = "2006-01-02 15:04"
	memoSearchLimit = 20
)

// MemoService saves and searches the three memo sheets.
type MemoService struct {
	store  domain.RecordStore
	now    func() time.Time
	logger *zap.Logger
}

// MemoSearchResult is a memo search page plus the same page grouped by
// log type.
type MemoSearchResult struct {
	domain.MatchResult
	Groups []matcher.Group `json:"groups"`
}

// NewMemoService creates a memo service over store.
func NewMemoService(store domain.RecordStore, now func() time.Time, logger *zap.Logger) *MemoService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoService{store: store, now: now, logger: logger.With(zap.String("service", "memo"))}
}

// Save inserts a memo on top of its log type sheet.
func (s *MemoService) Save(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	name := cmd.Name()
	logType := cmd.Fields[domain.FieldLogType]
	content := cmd.Fields[domain.FieldContent]

	switch {
	case name == "":
		return nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, domain.FieldName)
	case !domain.IsLogType(logType):
		return nil, fmt.Errorf("%w: %s must be one of %v", domain.ErrValidation, domain.FieldLogType, domain.LogTypes)
	case content == "":
		return nil, domain.ErrEmptyContent
	}

	rec := domain.NewRecord(map[domain.Field]string{
		domain.FieldWrittenAt: s.now().Format(memoTimeLayout),
		domain.FieldName:      name,
		domain.FieldContent:   content,
	})
	if err := s.store.InsertRecord(ctx, logType, 2, rec); err != nil {
		return nil, err
	}

	s.logger.Info("memo saved", zap.String("name", name), zap.String("sheet", logType))
	res := domain.Success(fmt.Sprintf("%s saved for %s", logType, name), rec)
	res.Created = true
	return res, nil
}

// Search reads the selected sheets concurrently, tags every memo with its
// sheet and runs the criteria over the union.
func (s *MemoService) Search(ctx context.Context, cmd domain.ParsedCommand) (*domain.OperationResult, error) {
	sheets := cmd.Categories
	if len(sheets) == 0 {
		sheets = domain.LogTypes
	}
	for _, sh := range sheets {
		if !domain.IsLogType(sh) {
			return nil, fmt.Errorf("%w: unknown memo sheet %q", domain.ErrValidation, sh)
		}
	}

	c := cmd.Criteria
	if c == nil {
		c = domain.NewCriteria()
	}
	if len(c.KeywordFields) == 0 {
		c.KeywordFields = []domain.Field{domain.FieldContent}
	}
	if c.Sort.Field == "" {
		c.Sort = domain.SortSpec{Field: domain.FieldWrittenAt, Descending: true}
	}
	if c.Limit <= 0 {
		c.Limit = memoSearchLimit
	}

	perSheet := make([][]domain.Record, len(sheets))
	g, gctx := errgroup.WithContext(ctx)
	for i, sh := range sheets {
		g.Go(func() error {
			records, err := s.store.ListRecords(gctx, sh)
			if err != nil {
				return err
			}
			for j := range records {
				records[j].Values[string(domain.FieldLogType)] = sh
			}
			perSheet[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Record
	for _, records := range perSheet {
		all = append(all, records...)
	}

	res := matcher.Match(all, c)
	out := MemoSearchResult{
		MatchResult: res,
		Groups:      matcher.GroupBy(res.Records, domain.FieldLogType, domain.LogTypes),
	}
	return domain.Success(fmt.Sprintf("%d memos found", res.Total), out), nil
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/infrastructure/memstore"
	"github.com/memberdesk/backend/internal/lexicon"
	"github.com/memberdesk/backend/internal/parser"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2025, 8, 27, 10, 30, 0, 0, time.Local)

func clock() time.Time { return fixedNow }

func rec(values map[domain.Field]string) domain.Record { return domain.NewRecord(values) }

// seedStore returns a store holding a small member, order, commission and
// memo data set.
func seedStore() *memstore.Store {
	s := memstore.New()
	s.Seed(domain.CategoryMember,
		rec(map[domain.Field]string{domain.FieldName: "홍길동", domain.FieldMemberNumber: "1234567", domain.FieldPhone: "010-1111-2222", domain.FieldAddress: "서울 강남구", domain.FieldCode: "A"}),
		rec(map[domain.Field]string{domain.FieldName: "김상민", domain.FieldMemberNumber: "2345678", domain.FieldPhone: "010-3333-4444"}),
		rec(map[domain.Field]string{domain.FieldName: "이판여", domain.FieldMemberNumber: "3456789", domain.FieldPhone: "01055556666", domain.FieldWorkplace: "삼성"}),
		rec(map[domain.Field]string{domain.FieldName: "박민수", domain.FieldMemberNumber: "4567890"}),
		rec(map[domain.Field]string{domain.FieldName: "박민수", domain.FieldMemberNumber: "5678901"}),
	)
	s.Seed(domain.CategoryOrder,
		rec(map[domain.Field]string{domain.FieldOrderDate: "2025-08-20", domain.FieldName: "김상민", domain.FieldProduct: "헤모힘", domain.FieldPrice: "45000"}),
		rec(map[domain.Field]string{domain.FieldOrderDate: "2025-08-10", domain.FieldName: "김상민", domain.FieldProduct: "헤모힘", domain.FieldPrice: "45000"}),
		rec(map[domain.Field]string{domain.FieldOrderDate: "2025-08-01", domain.FieldName: "홍길동", domain.FieldProduct: "홍삼"}),
	)
	s.Seed(domain.CategoryCommission,
		rec(map[domain.Field]string{domain.FieldPaidDate: "2025-07-15", domain.FieldName: "홍길동", domain.FieldCommission: "100000"}),
		rec(map[domain.Field]string{domain.FieldPaidDate: "2025-08-15", domain.FieldName: "홍길동", domain.FieldCommission: "150000"}),
		rec(map[domain.Field]string{domain.FieldPaidDate: "2025-08-15", domain.FieldName: "김상민", domain.FieldCommission: "90000"}),
	)
	s.Seed(domain.LogCounseling,
		rec(map[domain.Field]string{domain.FieldWrittenAt: "2025-08-25 09:00", domain.FieldName: "홍길동", domain.FieldContent: "중국 출장 전 제품 상담"}),
		rec(map[domain.Field]string{domain.FieldWrittenAt: "2025-08-20 14:00", domain.FieldName: "김상민", domain.FieldContent: "헤모힘 복용법 설명"}),
	)
	s.Seed(domain.LogPersonal,
		rec(map[domain.Field]string{domain.FieldWrittenAt: "2025-08-26 08:00", domain.FieldName: "홍길동", domain.FieldContent: "중국 시장 조사"}),
	)
	s.Seed(domain.LogActivity,
		rec(map[domain.Field]string{domain.FieldWrittenAt: "2025-08-24 18:00", domain.FieldName: "김상민", domain.FieldContent: "세미나 참석"}),
	)
	return s
}

type fixture struct {
	store      *memstore.Store
	members    *MemberService
	orders     *OrderService
	memos      *MemoService
	commission *CommissionService
	dispatcher *Dispatcher
	membership *mockMembership
	extractor  *mockExtractor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := seedStore()

	f := &fixture{store: store, membership: &mockMembership{}, extractor: &mockExtractor{}}
	f.members = NewMemberService(store, logger)
	f.orders = NewOrderService(store, f.members, f.membership, clock, logger)
	f.memos = NewMemoService(store, clock, logger)
	f.commission = NewCommissionService(store, clock, logger)

	p := parser.New(lexicon.Default(0), parser.WithClock(clock))
	d, err := NewDispatcher(p, Services{
		Members:     f.members,
		Orders:      f.orders,
		Memos:       f.memos,
		Commissions: f.commission,
		Extractor:   f.extractor,
		Fetcher:     f.extractor,
	}, logger)
	require.NoError(t, err)
	f.dispatcher = d
	return f
}

func (f *fixture) list(t *testing.T, category string) []domain.Record {
	t.Helper()
	records, err := f.store.ListRecords(context.Background(), category)
	require.NoError(t, err)
	return records
}

// mockMembership is a mock implementation of domain.MembershipClient
type mockMembership struct {
	saved []map[string]interface{}
	err   error
}

func (m *mockMembership) SaveOrder(ctx context.Context, order map[string]interface{}) (map[string]interface{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = append(m.saved, order)
	return map[string]interface{}{"ok": true}, nil
}

// mockExtractor implements domain.Extractor and ImageFetcher.
type mockExtractor struct {
	records     []domain.Record
	err         error
	gotImage    []byte
	fetchedURLs []string
}

func (m *mockExtractor) Extract(ctx context.Context, image []byte, contentType string) ([]domain.Record, error) {
	m.gotImage = image
	return m.records, m.err
}

func (m *mockExtractor) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	m.fetchedURLs = append(m.fetchedURLs, url)
	return []byte("fetched"), "image/png", nil
}

// failingStore fails every call with an upstream error.
type failingStore struct{}

var errSheetsDown = errors.New("sheets down")

func (failingStore) ListRecords(context.Context, string) ([]domain.Record, error) {
	return nil, errSheetsDown
}
func (failingStore) AppendRecord(context.Context, string, domain.Record) error { return errSheetsDown }
func (failingStore) InsertRecord(context.Context, string, int, domain.Record) error {
	return errSheetsDown
}
func (failingStore) UpdateCell(context.Context, string, int, domain.Field, string) error {
	return errSheetsDown
}
func (failingStore) DeleteRecord(context.Context, string, int) error { return errSheetsDown }

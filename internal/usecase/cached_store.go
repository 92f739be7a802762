package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/metrics"
	"go.uber.org/zap"
)

// CachedStore decorates a RecordStore with a listing cache. Any write to a
// category drops that category's cached listing.
type CachedStore struct {
	store  domain.RecordStore
	cache  domain.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore wraps store. A zero ttl defaults to 30 seconds.
func NewCachedStore(store domain.RecordStore, cache domain.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{store: store, cache: cache, ttl: ttl, logger: logger}
}

// cacheKey format: "records:{category}"
func cacheKey(category string) string {
	return "records:" + category
}

// ListRecords serves from cache when possible. Cache failures fall through
// to the store.
func (s *CachedStore) ListRecords(ctx context.Context, category string) ([]domain.Record, error) {
	key := cacheKey(category)

	if cached, err := s.getFromCache(ctx, key); err == nil {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	records, err := s.store.ListRecords(ctx, category)
	if err != nil {
		return nil, err
	}

	if err := s.setInCache(ctx, key, records); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return records, nil
}

func (s *CachedStore) AppendRecord(ctx context.Context, category string, rec domain.Record) error {
	defer s.invalidate(ctx, category)
	return s.store.AppendRecord(ctx, category, rec)
}

func (s *CachedStore) InsertRecord(ctx context.Context, category string, row int, rec domain.Record) error {
	defer s.invalidate(ctx, category)
	return s.store.InsertRecord(ctx, category, row, rec)
}

func (s *CachedStore) UpdateCell(ctx context.Context, category string, row int, field domain.Field, value string) error {
	defer s.invalidate(ctx, category)
	return s.store.UpdateCell(ctx, category, row, field, value)
}

func (s *CachedStore) DeleteRecord(ctx context.Context, category string, row int) error {
	defer s.invalidate(ctx, category)
	return s.store.DeleteRecord(ctx, category, row)
}

func (s *CachedStore) invalidate(ctx context.Context, category string) {
	if err := s.cache.Delete(ctx, cacheKey(category)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("category", category), zap.Error(err))
	}
}

// cachedRecord keeps the row number, which Record's JSON form omits.
type cachedRecord struct {
	Row    int               `json:"row"`
	Values map[string]string `json:"values"`
}

func (s *CachedStore) getFromCache(ctx context.Context, key string) ([]domain.Record, error) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var cached []cachedRecord
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, domain.ErrCacheMiss
	}

	records := make([]domain.Record, len(cached))
	for i, c := range cached {
		records[i] = domain.Record{Row: c.Row, Values: c.Values}
	}
	return records, nil
}

func (s *CachedStore) setInCache(ctx context.Context, key string, records []domain.Record) error {
	cached := make([]cachedRecord, len(records))
	for i, r := range records {
		cached[i] = cachedRecord{Row: r.Row, Values: r.Values}
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, s.ttl)
}

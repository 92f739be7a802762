package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RecordStore is the tabular backend holding every record category. Row
// numbers are 1-based sheet rows; row 1 is the header.
type RecordStore interface {
	ListRecords(ctx context.Context, category string) ([]Record, error)
	AppendRecord(ctx context.Context, category string, rec Record) error
	// InsertRecord places rec at row, shifting later rows down.
	InsertRecord(ctx context.Context, category string, row int, rec Record) error
	UpdateCell(ctx context.Context, category string, row int, field Field, value string) error
	DeleteRecord(ctx context.Context, category string, row int) error
}

// Extractor turns an uploaded image into order records.
type Extractor interface {
	Extract(ctx context.Context, image []byte, contentType string) ([]Record, error)
}

// MembershipClient forwards saved orders to the external membership API.
type MembershipClient interface {
	SaveOrder(ctx context.Context, order map[string]interface{}) (map[string]interface{}, error)
}

// Package memstore is an in-memory record store used for development and
// tests. It keeps the sheet row semantics of the spreadsheet backend.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/memberdesk/backend/internal/domain"
)

const firstDataRow = 2

// Store holds records per category in sheet order.
type Store struct {
	mu   sync.RWMutex
	data map[string][]map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{data: make(map[string][]map[string]string)}
}

// LoadFile seeds a store from a JSON file of the form
// {"member": [{"회원명": "김민지", ...}], "상담일지": [...]}.
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed map[string][]map[string]string
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	s := New()
	for category, rows := range seed {
		for _, row := range rows {
			s.data[category] = append(s.data[category], copyValues(row))
		}
	}
	return s, nil
}

// Seed appends records to a category.
func (s *Store) Seed(category string, records ...domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.data[category] = append(s.data[category], copyValues(r.Values))
	}
}

func (s *Store) ListRecords(ctx context.Context, category string) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[category]
	out := make([]domain.Record, len(rows))
	for i, row := range rows {
		out[i] = domain.Record{Row: firstDataRow + i, Values: copyValues(row)}
	}
	return out, nil
}

func (s *Store) AppendRecord(ctx context.Context, category string, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[category] = append(s.data[category], copyValues(rec.Values))
	return nil
}

func (s *Store) InsertRecord(ctx context.Context, category string, row int, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.data[category]
	at := row - firstDataRow
	if at < 0 || at > len(rows) {
		return fmt.Errorf("%w: row %d out of range", domain.ErrValidation, row)
	}
	rows = append(rows, nil)
	copy(rows[at+1:], rows[at:])
	rows[at] = copyValues(rec.Values)
	s.data[category] = rows
	return nil
}

func (s *Store) UpdateCell(ctx context.Context, category string, row int, field domain.Field, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	at, err := s.index(category, row)
	if err != nil {
		return err
	}
	s.data[category][at][string(field)] = value
	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, category string, row int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	at, err := s.index(category, row)
	if err != nil {
		return err
	}
	rows := s.data[category]
	s.data[category] = append(rows[:at], rows[at+1:]...)
	return nil
}

func (s *Store) index(category string, row int) (int, error) {
	at := row - firstDataRow
	if at < 0 || at >= len(s.data[category]) {
		return 0, fmt.Errorf("%w: %s row %d", domain.ErrNotFound, category, row)
	}
	return at, nil
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

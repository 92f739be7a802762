// Package sheets stores records in a Google Sheets spreadsheet, one tab
// per record category.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// Config configures a Client.
type Config struct {
	SpreadsheetID     string
	Tabs              map[string]string // category -> tab name
	RequestsPerSecond float64
	MaxRetries        int
}

// Client implements domain.RecordStore on top of the Sheets v4 API.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	tabs          map[string]string
	rateLimiter   *rate.Limiter
	maxRetries    int
	logger        *zap.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewService authenticates with a service account key file. Each API
// request is bounded by timeout when it is positive.
func NewService(ctx context.Context, credentialsFile string, timeout time.Duration) (*sheetsapi.Service, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = timeout
	return sheetsapi.NewService(ctx, option.WithHTTPClient(httpClient))
}

// NewClient creates a record store over svc.
func NewClient(svc *sheetsapi.Service, cfg Config, logger *zap.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		tabs:          cfg.Tabs,
		rateLimiter:   rate.NewLimiter(rate.Limit(rps), 5),
		maxRetries:    retries,
		logger:        logger.With(zap.String("component", "sheets")),
		sheetIDs:      make(map[string]int64),
	}
}

func (c *Client) tab(category string) (string, error) {
	if t, ok := c.tabs[category]; ok && t != "" {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown record category %q", domain.ErrValidation, category)
}

// exponentialBackoff returns the wait before retrying attempt (1-based).
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500<<(attempt-1)) * time.Millisecond
}

// isRetryable reports quota and server errors.
func isRetryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
	}
	return false
}

// call runs fn under the rate limiter, retrying quota and server errors.
func (c *Client) call(ctx context.Context, method, category string, fn func() error) error {
	start := time.Now()
	defer func() {
		metrics.StoreCallDuration.WithLabelValues(method, category).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstream, err)
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == c.maxRetries {
			break
		}

		wait := exponentialBackoff(attempt)
		c.logger.Warn("sheets call failed, retrying",
			zap.String("method", method),
			zap.String("category", category),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrUpstream, ctx.Err())
		case <-time.After(wait):
		}
	}

	c.logger.Error("sheets call failed", zap.String("method", method), zap.String("category", category), zap.Error(lastErr))
	return fmt.Errorf("%w: sheets %s %s: %v", domain.ErrUpstream, method, category, lastErr)
}

// ListRecords reads every record of a category.
func (c *Client) ListRecords(ctx context.Context, category string) ([]domain.Record, error) {
	tab, err := c.tab(category)
	if err != nil {
		return nil, err
	}

	var values [][]interface{}
	err = c.call(ctx, "list", category, func() error {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, A1(tab, "")).Context(ctx).Do()
		if err != nil {
			return err
		}
		values = resp.Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return RowsToRecords(values), nil
}

// headers returns the header row of tab, writing the default header when
// the sheet is empty.
func (c *Client) headers(ctx context.Context, category, tab string) ([]string, error) {
	var row []interface{}
	err := c.call(ctx, "headers", category, func() error {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, A1(tab, "1:1")).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Values) > 0 {
			row = resp.Values[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(row) == 0 {
		row = HeaderRow(category)
		if len(row) == 0 {
			return nil, fmt.Errorf("%w: sheet %q has no header", domain.ErrValidation, tab)
		}
		c.logger.Info("writing header row", zap.String("tab", tab))
		err := c.call(ctx, "header", category, func() error {
			vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
			_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, A1(tab, "A1"), vr).
				ValueInputOption(valueInputOption).Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return cellsToStrings(row), nil
}

// AppendRecord adds rec after the last row.
func (c *Client) AppendRecord(ctx context.Context, category string, rec domain.Record) error {
	tab, err := c.tab(category)
	if err != nil {
		return err
	}
	headers, err := c.headers(ctx, category, tab)
	if err != nil {
		return err
	}

	return c.call(ctx, "append", category, func() error {
		vr := &sheetsapi.ValueRange{Values: [][]interface{}{RecordToRow(headers, rec)}}
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, A1(tab, "A1"), vr).
			ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
}

// InsertRecord inserts a blank row at row and writes rec into it.
func (c *Client) InsertRecord(ctx context.Context, category string, row int, rec domain.Record) error {
	if row < firstDataRow {
		return fmt.Errorf("%w: cannot insert above row %d", domain.ErrValidation, firstDataRow)
	}
	tab, err := c.tab(category)
	if err != nil {
		return err
	}
	headers, err := c.headers(ctx, category, tab)
	if err != nil {
		return err
	}
	sheetID, err := c.sheetID(ctx, category, tab)
	if err != nil {
		return err
	}

	err = c.call(ctx, "insert", category, func() error {
		req := &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: []*sheetsapi.Request{{
			InsertDimension: &sheetsapi.InsertDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}}}
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}

	return c.call(ctx, "write", category, func() error {
		vr := &sheetsapi.ValueRange{Values: [][]interface{}{RecordToRow(headers, rec)}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, A1(tab, fmt.Sprintf("A%d", row)), vr).
			ValueInputOption(valueInputOption).Context(ctx).Do()
		return err
	})
}

// UpdateCell overwrites one field of the record at row.
func (c *Client) UpdateCell(ctx context.Context, category string, row int, field domain.Field, value string) error {
	tab, err := c.tab(category)
	if err != nil {
		return err
	}
	headers, err := c.headers(ctx, category, tab)
	if err != nil {
		return err
	}

	col := -1
	for i, h := range headers {
		if h == string(field) {
			col = i
			break
		}
	}
	if col < 0 {
		return fmt.Errorf("%w: sheet %q has no column %q", domain.ErrValidation, tab, field)
	}

	return c.call(ctx, "update", category, func() error {
		vr := &sheetsapi.ValueRange{Values: [][]interface{}{{value}}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, A1(tab, fmt.Sprintf("%s%d", ColumnName(col), row)), vr).
			ValueInputOption(valueInputOption).Context(ctx).Do()
		return err
	})
}

// DeleteRecord removes the row, shifting later rows up.
func (c *Client) DeleteRecord(ctx context.Context, category string, row int) error {
	if row < firstDataRow {
		return fmt.Errorf("%w: cannot delete row %d", domain.ErrValidation, row)
	}
	tab, err := c.tab(category)
	if err != nil {
		return err
	}
	sheetID, err := c.sheetID(ctx, category, tab)
	if err != nil {
		return err
	}

	return c.call(ctx, "delete", category, func() error {
		req := &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}}}
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
}

// sheetID resolves the numeric id of tab, caching the spreadsheet layout.
func (c *Client) sheetID(ctx context.Context, category, tab string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[tab]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	var ss *sheetsapi.Spreadsheet
	err := c.call(ctx, "layout", category, func() error {
		var err error
		ss, err = c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok = c.sheetIDs[tab]
	if !ok {
		return 0, fmt.Errorf("%w: spreadsheet has no tab %q", domain.ErrUpstream, tab)
	}
	return id, nil
}

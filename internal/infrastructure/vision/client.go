// Package vision extracts order lines from photographed order forms
// through an external extraction service.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	extractPath  = "/v1/extract"
	maxImageSize = 10 << 20
)

// Client calls the extraction service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

type extractResponse struct {
	Orders []map[string]interface{} `json:"orders"`
	Error  string                   `json:"error,omitempty"`
}

// NewClient creates a new extraction client
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With(zap.String("component", "vision")),
	}
}

// Extract uploads image and returns one record per recognized order line.
func (c *Client) Extract(ctx context.Context, image []byte, contentType string) ([]domain.Record, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: vision base url", domain.ErrNotConfigured)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrValidation)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="image"; filename="order"`},
		"Content-Type":        {contentType},
	})
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+extractPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: vision: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: vision: read response: %v", domain.ErrUpstream, err)
	}
	c.logger.Debug("extraction finished", zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: vision status %d: %s", domain.ErrUpstream, resp.StatusCode, string(body))
	}

	var out extractResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: vision: decode response: %v", domain.ErrUpstream, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, out.Error)
	}

	records := make([]domain.Record, 0, len(out.Orders))
	for _, o := range out.Orders {
		rec := domain.Record{Values: make(map[string]string, len(o))}
		for k, v := range o {
			if v == nil {
				continue
			}
			rec.Values[k] = strings.TrimSpace(fmt.Sprint(v))
		}
		records = append(records, rec)
	}
	return records, nil
}

// Fetch downloads an image by URL and returns its bytes and content type.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: image url: %v", domain.ErrValidation, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: image download: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: image download status %d", domain.ErrValidation, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", fmt.Errorf("%w: image download: %v", domain.ErrUpstream, err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}

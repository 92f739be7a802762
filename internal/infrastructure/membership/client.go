// Package membership forwards saved orders to the external membership API.
package membership

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client posts order payloads to the membership API.
type Client struct {
	httpClient  *http.Client
	url         string
	rateLimiter *rate.Limiter
	maxRetries  int
	logger      *zap.Logger
}

// NewClient creates a new membership API client
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		url:         url,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 5),
		maxRetries:  3,
		logger:      logger.With(zap.String("component", "membership")),
	}
}

// exponentialBackoff returns the wait before retrying attempt (1-based).
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500<<(attempt-1)) * time.Millisecond
}

// readLimitedBody reads at most maxBodySize bytes of body.
func readLimitedBody(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, maxBodySize))
}

func (c *Client) doRequest(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", "MemberDesk/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: membership api: %v", domain.ErrUpstream, err)
	}
	return resp, nil
}

// SaveOrder posts order as JSON and returns the decoded reply. Server
// errors and 429s are retried with exponential backoff.
func (c *Client) SaveOrder(ctx context.Context, order map[string]interface{}) (map[string]interface{}, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: membership api url", domain.ErrNotConfigured)
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("%w: encode order: %v", domain.ErrValidation, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, ctx.Err())
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstream, err)
		}

		resp, err := c.doRequest(ctx, payload)
		if err != nil {
			c.logger.Warn("membership request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}

		body, readErr := readLimitedBody(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: read response: %v", domain.ErrUpstream, readErr)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			c.logger.Warn("membership api error",
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", body))
			lastErr = fmt.Errorf("%w: membership api status %d", domain.ErrUpstream, resp.StatusCode)
			continue
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("%w: membership api status %d: %s", domain.ErrUpstream, resp.StatusCode, string(body))
		}

		out := map[string]interface{}{}
		if len(bytes.TrimSpace(body)) == 0 {
			return out, nil
		}
		if err := json.Unmarshal(body, &out); err != nil {
			// Non-object replies are passed through as text.
			return map[string]interface{}{"raw": string(body)}, nil
		}
		return out, nil
	}

	c.logger.Error("membership api retries exhausted", zap.Error(lastErr))
	return nil, lastErr
}

// Package client talks to the DataJud public search API. Requests are
// POSTed as Elasticsearch bodies with a static API key, and transient
// failures (transport errors, 429 and 5xx) are retried with exponential
// backoff while respecting context cancellation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/query"
	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/farxc/datajud_wrapper/internal/logger"
)

const (
	DefaultBaseURL  = "https://api-publica.datajud.cnj.jus.br"
	DefaultTribunal = "tjpe"

	KindCase   = "case"
	KindCohort = "cohort"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4096

// RemoteRequestFailedError is returned when DataJud answers with a non-2xx
// status, including after retries on transient statuses were exhausted.
type RemoteRequestFailedError struct {
	StatusCode int
	Body       string
}

func (e *RemoteRequestFailedError) Error() string {
	return fmt.Sprintf("datajud request failed: status=%d body=%s", e.StatusCode, e.Body)
}

// IsRemoteRequestFailed unwraps err looking for a RemoteRequestFailedError.
func IsRemoteRequestFailed(err error) (*RemoteRequestFailedError, bool) {
	var target *RemoteRequestFailedError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Recorder receives per-attempt request outcomes. status is 0 on
// transport errors.
type Recorder interface {
	ObserveRequest(kind string, status int, elapsed time.Duration)
	IncRetry(kind string)
}

// Config configures the client. Zero values get defaults:
//   - BaseURL:        DefaultBaseURL
//   - Tribunal:       DefaultTribunal
//   - Timeout:        60s
//   - MaxRetries:     0 (negative values are treated as 0)
//   - InitialBackoff: 500ms
//   - MaxBackoff:     10s
type Config struct {
	BaseURL        string
	Tribunal       string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Transport      http.RoundTripper
	Recorder       Recorder
	Logger         *logger.Logger
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	tribunal       string
	apiKey         string
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	recorder       Recorder
	logger         *logger.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Tribunal == "" {
		cfg.Tribunal = DefaultTribunal
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = &logger.Logger{MinLevel: logger.LevelInfo}
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		tribunal:       strings.ToLower(cfg.Tribunal),
		apiKey:         cfg.APIKey,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		recorder:       cfg.Recorder,
		logger:         cfg.Logger,
	}
}

// SearchURL is the `_search` endpoint of the configured tribunal index.
func (c *Client) SearchURL() string {
	return fmt.Sprintf("%s/api_publica_%s/_search", c.baseURL, c.tribunal)
}

func (c *Client) Tribunal() string {
	return c.tribunal
}

// FindCase runs the exact-number lookup for a normalized case number.
func (c *Client) FindCase(ctx context.Context, numero string) (*types.SearchResponse, error) {
	return c.Search(ctx, KindCase, query.CaseByNumber(numero))
}

// FindCohort fetches up to size cases of a judging unit.
func (c *Client) FindCohort(ctx context.Context, unitCode string, size int) (*types.SearchResponse, error) {
	return c.Search(ctx, KindCohort, query.CasesByUnit(unitCode, size))
}

// Search posts body and decodes the response. Non-2xx answers yield a
// *RemoteRequestFailedError.
func (c *Client) Search(ctx context.Context, kind string, body query.SearchBody) (*types.SearchResponse, error) {
	const component = "DataJudClient"

	payload, err := body.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	url := c.SearchURL()
	c.logger.Debug(component, "Posting search: kind=%s url=%s bytes=%d", kind, url, len(payload))

	resp, err := c.do(ctx, kind, url, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out types.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	c.logger.Debug(component, "Search decoded: kind=%s hits=%d took=%dms", kind, len(out.Hits.Hits), out.Took)
	return &out, nil
}

func (c *Client) do(ctx context.Context, kind, url string, payload []byte) (*http.Response, error) {
	const component = "DataJudClient"

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "APIKey "+c.apiKey)
		}

		started := time.Now()
		resp, err := c.httpClient.Do(req)
		elapsed := time.Since(started)

		if err != nil {
			c.observe(kind, 0, elapsed)
			lastErr = fmt.Errorf("post %s: %w", url, err)
			c.logger.Warn(component, "Request failed: kind=%s attempt=%d error=%v", kind, attempt+1, err)
		} else {
			c.observe(kind, resp.StatusCode, elapsed)
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			remoteErr := &RemoteRequestFailedError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
			resp.Body.Close()

			if !isRetryableStatus(resp.StatusCode) {
				return nil, remoteErr
			}
			lastErr = remoteErr
			c.logger.Warn(component, "Retryable status: kind=%s attempt=%d status=%d", kind, attempt+1, resp.StatusCode)
		}

		if attempt+1 >= attempts {
			break
		}

		if c.recorder != nil {
			c.recorder.IncRetry(kind)
		}
		if err := sleepWithContext(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) observe(kind string, status int, elapsed time.Duration) {
	if c.recorder != nil {
		c.recorder.ObserveRequest(kind, status, elapsed)
	}
}

func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

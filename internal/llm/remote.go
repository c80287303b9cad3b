package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coinsift/sift/internal/common"
)

// Config holds configuration for the remote classifier client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	CacheTTL  time.Duration
	RateLimit int // Requests per minute
}

// HTTPClient implements Client against the remote categorization endpoint.
type HTTPClient struct {
	httpClient *http.Client
	limiter    *rateLimiter
	cache      *responseCache
	baseURL    string
	apiKey     string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a classifier client from config.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: classifier base URL is required", common.ErrMissingConfig)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: newRateLimiter(cfg.RateLimit),
		cache:   newResponseCache(cfg.CacheTTL),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Classify sends a single transaction to the service.
func (c *HTTPClient) Classify(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error) {
	if cached, ok := c.cache.get(req.Description); ok {
		return ClassifyResponse{Category: cached, Confidence: 0.8}, nil
	}

	if err := c.limiter.wait(ctx); err != nil {
		return ClassifyResponse{}, err
	}

	var resp ClassifyResponse
	if err := c.post(ctx, "/categorize", req, &resp); err != nil {
		return ClassifyResponse{}, err
	}

	if resp.Category == "" {
		return ClassifyResponse{}, fmt.Errorf("classifier returned no category")
	}

	c.cache.set(req.Description, resp.Category)
	return resp, nil
}

// ClassifyBatch sends a batch of descriptions and returns one category per
// description, positionally aligned. Descriptions already cached are not
// re-sent; a length-mismatched response fails the whole call.
func (c *HTTPClient) ClassifyBatch(ctx context.Context, descriptions []string) ([]string, error) {
	if len(descriptions) == 0 {
		return nil, nil
	}

	categories := make([]string, len(descriptions))
	var misses []string
	var missIdx []int

	for i, desc := range descriptions {
		if cached, ok := c.cache.get(desc); ok {
			categories[i] = cached
			continue
		}
		misses = append(misses, desc)
		missIdx = append(missIdx, i)
	}

	if len(misses) == 0 {
		return categories, nil
	}

	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	request := struct {
		Descriptions []string `json:"descriptions"`
	}{Descriptions: misses}

	var response struct {
		Categories []string `json:"categories"`
	}

	if err := c.post(ctx, "/categorize/batch", request, &response); err != nil {
		return nil, err
	}

	if len(response.Categories) != len(misses) {
		return nil, fmt.Errorf("%w: sent %d, received %d",
			ErrLengthMismatch, len(misses), len(response.Categories))
	}

	for i, category := range response.Categories {
		categories[missIdx[i]] = category
		c.cache.set(misses[i], category)
	}

	return categories, nil
}

// post issues one JSON request and decodes the response into out.
func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 200)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("malformed classifier response: %w", err)
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Close releases client resources.
func (c *HTTPClient) Close() error {
	return nil
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsift/sift/internal/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(Config{
		BaseURL:   server.URL,
		APIKey:    "test-key",
		RateLimit: 6000,
	})
	require.NoError(t, err)
	return client
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestClassifyBatch(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/categorize/batch", r.URL.Path)

		var req struct {
			Descriptions []string `json:"descriptions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		categories := make([]string, len(req.Descriptions))
		for i := range req.Descriptions {
			categories[i] = "Groceries"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"categories": categories})
	})

	got, err := client.ClassifyBatch(context.Background(), []string{"WOOLWORTHS 1234", "COLES 99"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries", "Groceries"}, got)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestClassifyBatchLengthMismatchFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"categories": []string{"Groceries"}})
	})

	_, err := client.ClassifyBatch(context.Background(), []string{"A", "B", "C"})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestClassifyBatchRateLimitedIsTyped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ClassifyBatch(context.Background(), []string{"A"})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.True(t, statusErr.Retryable())
	assert.ErrorIs(t, err, common.ErrRateLimit)
}

func TestClassifyBatchServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ClassifyBatch(context.Background(), []string{"A"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.Retryable())
	assert.False(t, errors.Is(err, common.ErrRateLimit))
}

func TestClassifyBatchMalformedResponseFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.ClassifyBatch(context.Background(), []string{"A"})
	assert.Error(t, err)
}

func TestClassifyBatchUsesCache(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Descriptions []string `json:"descriptions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		categories := make([]string, len(req.Descriptions))
		for i := range req.Descriptions {
			categories[i] = "Transport"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"categories": categories})
	})

	ctx := context.Background()
	_, err := client.ClassifyBatch(ctx, []string{"UBER TRIP 1", "UBER TRIP 2"})
	require.NoError(t, err)

	got, err := client.ClassifyBatch(ctx, []string{"UBER TRIP 1", "UBER TRIP 2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Transport", "Transport"}, got)
	assert.Equal(t, 1, calls)
}

func TestClassifyBatchEmptyInput(t *testing.T) {
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for empty batch")
	})

	got, err := client.ClassifyBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassifySingle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categorize", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ClassifyResponse{Category: "Dining", Confidence: 0.91})
	})

	resp, err := client.Classify(context.Background(), ClassifyRequest{
		Description: "CAFE GOOD DAY",
		Amount:      -14.50,
		Date:        time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dining", resp.Category)
	assert.InDelta(t, 0.91, resp.Confidence, 0.001)
}

func TestResponseCacheExpiry(t *testing.T) {
	cache := newResponseCache(10 * time.Millisecond)
	cache.set("NETFLIX.COM", "Entertainment")

	got, ok := cache.get("NETFLIX.COM")
	require.True(t, ok)
	assert.Equal(t, "Entertainment", got)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.get("NETFLIX.COM")
	assert.False(t, ok)
}

func TestRateLimiterAcquire(t *testing.T) {
	rl := newRateLimiter(6000)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.tryAcquire())
	}

	slow := newRateLimiter(60)
	slow.tokens = 0
	assert.False(t, slow.tryAcquire())
}

// Package llm talks to the remote generative categorization service. The
// service is treated as untrusted and unreliable: every response shape is
// validated before use, and failures surface as typed errors the retry
// layer can reason about without inspecting message strings.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coinsift/sift/internal/common"
)

// Client defines the transport boundary to the categorization service.
type Client interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error)
	ClassifyBatch(ctx context.Context, descriptions []string) ([]string, error)
}

// ClassifyRequest describes a single transaction for the service.
type ClassifyRequest struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
}

// ClassifyResponse is the service's answer for a single transaction.
type ClassifyResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ErrLengthMismatch indicates the service returned a category array whose
// length does not match the request. The response is discarded, never
// truncated or padded.
var ErrLengthMismatch = errors.New("classifier response length does not match request")

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("classifier returned status %d: %s", e.StatusCode, e.Body)
}

// Is maps rate-limit statuses onto common.ErrRateLimit so errors.Is works
// without string matching.
func (e *StatusError) Is(target error) bool {
	return target == common.ErrRateLimit && e.StatusCode == http.StatusTooManyRequests
}

// Retryable reports whether the status is worth another attempt. Rate
// limits, server errors, and timeouts are transient; 4xx (other than 429)
// are not.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}

package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coinsift/sift/internal/common"
	"github.com/coinsift/sift/internal/llm"
	"github.com/coinsift/sift/internal/service"
)

// batchRunner splits descriptions into fixed-size chunks for the remote
// classifier and retries each chunk independently. Failure is chunk-scoped:
// one exhausted chunk never affects the others. Chunks run sequentially so
// backoff on a rate-limited chunk does not compound across chunks.
type batchRunner struct {
	classifier Classifier

	// onChunk, when set, is called with the chunk length after each chunk
	// finishes, exhausted chunks included.
	onChunk func(n int)

	chunkSize int
	retryOpts service.RetryOptions
}

// batchOutcome holds per-description results; ok is false for every entry
// of a chunk whose retries were exhausted.
type batchOutcome struct {
	categories []string
	ok         []bool
}

func newBatchRunner(classifier Classifier, chunkSize int, retryOpts service.RetryOptions) *batchRunner {
	if chunkSize <= 0 {
		chunkSize = 15
	}
	if retryOpts.MaxAttempts <= 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay <= 0 {
		retryOpts.InitialDelay = 500 * time.Millisecond
	}
	return &batchRunner{
		classifier: classifier,
		chunkSize:  chunkSize,
		retryOpts:  retryOpts,
	}
}

// run classifies every description, chunk by chunk.
func (r *batchRunner) run(ctx context.Context, descriptions []string) batchOutcome {
	outcome := batchOutcome{
		categories: make([]string, len(descriptions)),
		ok:         make([]bool, len(descriptions)),
	}

	for start := 0; start < len(descriptions); start += r.chunkSize {
		end := start + r.chunkSize
		if end > len(descriptions) {
			end = len(descriptions)
		}
		chunk := descriptions[start:end]

		categories, err := r.classifyChunk(ctx, chunk)
		if err != nil {
			slog.Warn("Chunk classification exhausted retries, falling back",
				"chunk_start", start,
				"chunk_size", len(chunk),
				"error", err)
		} else {
			for i, category := range categories {
				outcome.categories[start+i] = category
				outcome.ok[start+i] = true
			}
		}

		if r.onChunk != nil {
			r.onChunk(len(chunk))
		}
	}

	return outcome
}

// classifyChunk attempts one chunk with retry and backoff. Responses of the
// wrong length and transient HTTP failures count as failed attempts;
// permanent request errors stop the retry loop early.
func (r *batchRunner) classifyChunk(ctx context.Context, chunk []string) ([]string, error) {
	var categories []string

	err := common.WithRetry(ctx, func() error {
		result, callErr := r.classifier.ClassifyBatch(ctx, chunk)
		if callErr != nil {
			var statusErr *llm.StatusError
			if errors.As(callErr, &statusErr) && !statusErr.Retryable() {
				return &common.RetryableError{Err: callErr, Retryable: false}
			}
			return callErr
		}

		if len(result) != len(chunk) {
			return llm.ErrLengthMismatch
		}

		categories = result
		return nil
	}, r.retryOpts)

	if err != nil {
		return nil, err
	}
	return categories, nil
}

package engine

import "context"

// Classifier is the remote AI tier as the engine sees it: one batch of
// descriptions in, one positionally aligned category per description out.
// A nil Classifier disables the AI tier entirely.
type Classifier interface {
	ClassifyBatch(ctx context.Context, descriptions []string) ([]string, error)
}

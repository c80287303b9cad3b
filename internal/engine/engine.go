// Package engine implements the tiered categorization pipeline for
// imported transactions.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/coinsift/sift/internal/history"
	"github.com/coinsift/sift/internal/model"
	"github.com/coinsift/sift/internal/rules"
	"github.com/coinsift/sift/internal/service"
)

// Config holds configuration options for the categorization engine.
type Config struct {
	// OnProgress, when set, is called after each transaction (or chunk of
	// transactions) is classified, with a running completed count and the
	// batch total.
	OnProgress func(completed, total int)

	ChunkSize              int           // Transactions per remote classifier call
	MaxAttempts            int           // Retry budget per chunk
	InitialBackoff         time.Duration // Base delay, doubled per attempt
	AIConfidence           float64       // Confidence assigned to AI batch results
	LabelTransferDirection bool          // Annotate transfers with In/Out by amount sign
}

// DefaultConfig returns the default configuration. A chunk of 15 is the
// accuracy/throughput sweet spot for this class of classifier; larger
// chunks degrade accuracy, smaller ones waste round-trips.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      15,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		AIConfidence:   0.8,
	}
}

// Engine walks each transaction through the tier chain: user history, user
// rules, system rules, the remote AI classifier, then the keyword fallback.
// The earlier tier always wins; there is no cross-tier confidence
// comparison. Categorize is total: one result per transaction, in order,
// and no error ever escapes the engine boundary.
type Engine struct {
	loader     *rules.Loader
	history    *history.Matcher
	classifier Classifier
	config     Config
}

// New creates an engine with default configuration. classifier may be nil,
// which disables the AI tier; misses then resolve directly against the
// keyword table.
func New(loader *rules.Loader, historyMatcher *history.Matcher, classifier Classifier) *Engine {
	return NewWithConfig(loader, historyMatcher, classifier, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(loader *rules.Loader, historyMatcher *history.Matcher, classifier Classifier, config Config) *Engine {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 15
	}
	if config.AIConfidence <= 0 || config.AIConfidence > 1 {
		config.AIConfidence = 0.8
	}
	return &Engine{
		loader:     loader,
		history:    historyMatcher,
		classifier: classifier,
		config:     config,
	}
}

// ClearCaches drops the cached rule sets so the next run reloads them.
func (e *Engine) ClearCaches() {
	e.loader.ClearCache()
}

// Categorize resolves a category for every transaction in the batch.
// The result slice is the same length and order as the input.
func (e *Engine) Categorize(ctx context.Context, userID string, txns []model.Transaction) []model.Classification {
	results := make([]model.Classification, len(txns))
	stats := model.NewStats()

	completed := 0
	advance := func(n int) {
		if e.config.OnProgress == nil {
			return
		}
		completed += n
		e.config.OnProgress(completed, len(txns))
	}

	var pendingIdx []int
	for i, txn := range txns {
		if result, done := e.categorizeLocal(ctx, userID, txn); done {
			results[i] = result
			advance(1)
			continue
		}
		pendingIdx = append(pendingIdx, i)
	}

	e.categorizeRemote(ctx, txns, pendingIdx, results, advance)

	groups := e.loader.CategoryGroups(ctx)
	for i := range results {
		results[i].Group = resolveGroup(results[i].Category, groups)
		if e.config.LabelTransferDirection {
			results[i].DisplayLabel = transferLabel(results[i])
		}
		stats.Record(results[i].Source)
	}

	slog.Info("Categorization complete",
		"user_id", userID,
		"transactions", len(txns),
		"ai_batch", len(pendingIdx),
		"stats", stats)

	return results
}

// categorizeLocal runs the synchronous tiers for one transaction. The
// second return is false when the transaction must go to the AI batch.
// Any panic inside a tier degrades that transaction to Uncategorized
// instead of escaping the engine.
func (e *Engine) categorizeLocal(ctx context.Context, userID string, txn model.Transaction) (result model.Classification, done bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Tier panic recovered, degrading to uncategorized",
				"transaction_id", txn.ID,
				"panic", r)
			result = model.Classification{
				Transaction: txn,
				Category:    model.UncategorizedName,
				Source:      model.SourceUncategorized,
				Confidence:  0.1,
			}
			done = true
		}
	}()

	// A pre-categorized transaction is the user's own prior assignment.
	if txn.Category != "" {
		return model.Classification{
			Transaction: txn,
			Category:    txn.Category,
			Source:      model.SourceUserHistory,
			Confidence:  1.0,
		}, true
	}

	if match, ok := e.history.FindSimilar(ctx, txn); ok {
		return model.Classification{
			Transaction: txn,
			Category:    match.Category,
			Source:      model.SourceUserHistory,
			Confidence:  match.Confidence,
		}, true
	}

	if match, ok := rules.FirstMatch(e.loader.UserRules(ctx, userID), txn.Description); ok {
		return model.Classification{
			Transaction: txn,
			Category:    match.Category,
			Source:      model.SourceUserRule,
			Confidence:  match.Confidence,
		}, true
	}

	if match, ok := rules.FirstMatch(e.loader.SystemRules(ctx), txn.Description); ok {
		return model.Classification{
			Transaction: txn,
			Category:    match.Category,
			Source:      model.SourceSystemRule,
			Confidence:  match.Confidence,
		}, true
	}

	return model.Classification{}, false
}

// categorizeRemote resolves the transactions no local tier claimed, either
// through the chunked AI batch or, when the classifier is absent or a chunk
// exhausted its retries, through the keyword fallback.
func (e *Engine) categorizeRemote(ctx context.Context, txns []model.Transaction, pendingIdx []int, results []model.Classification, advance func(int)) {
	if len(pendingIdx) == 0 {
		return
	}

	if e.classifier == nil {
		for _, idx := range pendingIdx {
			results[idx] = e.keywordResult(txns[idx], model.SourceSystemKeywords)
			advance(1)
		}
		return
	}

	descriptions := make([]string, len(pendingIdx))
	for i, idx := range pendingIdx {
		descriptions[i] = txns[idx].Description
	}

	runner := newBatchRunner(e.classifier, e.config.ChunkSize, service.RetryOptions{
		MaxAttempts:  e.config.MaxAttempts,
		InitialDelay: e.config.InitialBackoff,
		Multiplier:   2.0,
	})
	runner.onChunk = advance
	outcome := runner.run(ctx, descriptions)

	known := e.loader.CategoryGroups(ctx)
	for i, idx := range pendingIdx {
		if !outcome.ok[i] || outcome.categories[i] == "" {
			results[idx] = e.keywordResult(txns[idx], model.SourceFallback)
			continue
		}

		category := outcome.categories[i]
		_, exists := known[category]
		results[idx] = model.Classification{
			Transaction:   txns[idx],
			Category:      category,
			Source:        model.SourceAI,
			Confidence:    e.config.AIConfidence,
			IsNewCategory: !exists,
		}
	}
}

// keywordResult resolves one transaction against the fallback table.
// hitSource attributes a keyword hit; the terminal default is always
// uncategorized.
func (e *Engine) keywordResult(txn model.Transaction, hitSource model.Source) model.Classification {
	category, hit := fallbackCategorize(txn.Description)
	source := hitSource
	confidence := 0.5
	if !hit {
		source = model.SourceUncategorized
		confidence = 0.1
	}
	return model.Classification{
		Transaction: txn,
		Category:    category,
		Source:      source,
		Confidence:  confidence,
	}
}

// transferLabel derives a direction-aware display label for transfers from
// the amount sign. This is presentation only; the stored category name is
// unchanged.
func transferLabel(result model.Classification) string {
	if result.Group != model.GroupTransfer {
		return ""
	}
	if result.Transaction.IsIncome() {
		return "Transfer In"
	}
	return "Transfer Out"
}

package model

// Source indicates which tier of the pipeline produced a classification.
type Source string

// Classification source constants, in tier precedence order.
const (
	SourceUserHistory    Source = "user_history"
	SourceUserRule       Source = "user_rule"
	SourceSystemRule     Source = "system_rule"
	SourceSystemKeywords Source = "system_keywords"
	SourceAI             Source = "ai"
	SourceFallback       Source = "fallback"
	SourceUncategorized  Source = "uncategorized"
)

// UncategorizedName is the terminal category when every tier misses or fails.
const UncategorizedName = "Uncategorized"

// Classification is the pipeline's output for a single transaction.
// The engine guarantees exactly one Classification per submitted Transaction.
type Classification struct {
	Category      string
	DisplayLabel  string // Direction-aware label (e.g. "Transfer Out"), empty unless enabled
	Source        Source
	Group         Group
	Transaction   Transaction
	Confidence    float64
	IsNewCategory bool // True only for AI results naming a previously unknown category
}

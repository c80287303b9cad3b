// Package service defines the interfaces for all application collaborators.
package service

import (
	"context"
	"time"

	"github.com/coinsift/sift/internal/model"
)

// RuleStore provides read access to the two rule collections and the known
// categories. Implementations return rules ordered by confidence descending;
// GetSystemRules returns inactive rules too, and callers filter on IsActive
// (the rules.Loader does this when building the matching set).
type RuleStore interface {
	GetUserRules(ctx context.Context, userID string) ([]model.Rule, error)
	GetSystemRules(ctx context.Context) ([]model.Rule, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// HistoryStore provides read access to a user's previously categorized
// transactions, most recent first.
type HistoryStore interface {
	GetRecentCategorized(ctx context.Context, userID string, limit int) ([]model.Transaction, error)
}

// TransactionStore is the persistence collaborator for the import and
// write-back paths. The categorization core itself only reads.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetUncategorized(ctx context.Context, userID string) ([]model.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, transactionID, category string) error
	CreateCategory(ctx context.Context, name string, group model.Group) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

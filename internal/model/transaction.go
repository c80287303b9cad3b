// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single normalized bank transaction handed to the
// categorization pipeline. Instances are immutable once submitted; the
// pipeline produces a parallel Classification rather than mutating them.
type Transaction struct {
	Date        time.Time
	ID          string
	UserID      string
	Description string // Raw transaction description as imported
	Currency    string // ISO currency code
	Category    string // Pre-existing category, empty if uncategorized
	AccountID   string // Optional linked asset/liability account
	Amount      float64
}

// GenerateHash creates a unique hash for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s:%s",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// IsIncome reports whether the amount sign indicates money entering the account.
func (t *Transaction) IsIncome() bool {
	return t.Amount > 0
}

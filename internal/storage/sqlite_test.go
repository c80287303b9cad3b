package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsift/sift/internal/common"
	"github.com/coinsift/sift/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "sift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testTxn(id, userID, description, category string, daysAgo int) model.Transaction {
	return model.Transaction{
		ID:          id,
		UserID:      userID,
		Description: description,
		Category:    category,
		Amount:      -12.30,
		Currency:    "AUD",
		Date:        time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
	}
}

func TestUserRulesOrderedByConfidence(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO user_rules (user_id, pattern, category, confidence) VALUES
		('u1', 'coffee', 'Dining', 0.6),
		('u1', 'netflix', 'Entertainment', 0.95),
		('u2', 'gym', 'Health', 0.9)`)
	require.NoError(t, err)

	got, err := store.GetUserRules(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Entertainment", got[0].Category)
	assert.Equal(t, "Dining", got[1].Category)
}

func TestCreateUserRule(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUserRule(ctx, model.Rule{
		UserID: "u1", Pattern: "gym", Category: "Health", Confidence: 0.8,
	}))
	// Out-of-range confidence falls back to the default.
	require.NoError(t, store.CreateUserRule(ctx, model.Rule{
		UserID: "u1", Pattern: "vet", Category: "Pets", Confidence: 7,
	}))
	assert.Error(t, store.CreateUserRule(ctx, model.Rule{UserID: "u1"}))

	got, err := store.GetUserRules(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pets", got[0].Category)
	assert.InDelta(t, 0.9, got[0].Confidence, 0.001)
}

func TestSystemRulesIncludeActiveFlag(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SeedSystemRules(ctx, []model.Rule{
		{Pattern: "uber eats", Category: "Takeaway", Confidence: 0.85, IsActive: true},
		{Pattern: "legacy", Category: "Old", Confidence: 0.9, IsActive: false},
	}))

	got, err := store.GetSystemRules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Old", got[0].Category) // 0.9 sorts first
	assert.False(t, got[0].IsActive)
	assert.True(t, got[1].IsActive)

	// Seeding again must not duplicate.
	require.NoError(t, store.SeedSystemRules(ctx, []model.Rule{
		{Pattern: "uber eats", Category: "Takeaway", Confidence: 0.85, IsActive: true},
	}))
	got, err = store.GetSystemRules(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCategoryRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	created, err := store.CreateCategory(ctx, "Groceries", model.GroupExpense)
	require.NoError(t, err)
	assert.Equal(t, model.GroupExpense, created.Group)

	// Creating again returns the existing row.
	again, err := store.CreateCategory(ctx, "Groceries", model.GroupIncome)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, model.GroupExpense, again.Group)

	_, err = store.GetCategoryByName(ctx, "Nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	all, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveTransactionsSkipsDuplicates(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	batch := []model.Transaction{
		testTxn("t1", "u1", "WOOLWORTHS 1234", "", 1),
		testTxn("t2", "u1", "NETFLIX.COM", "", 2),
	}

	inserted, err := store.SaveTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Same rows again: identical hashes, nothing inserted.
	dup := []model.Transaction{testTxn("t3", "u1", "WOOLWORTHS 1234", "", 1)}
	inserted, err = store.SaveTransactions(ctx, dup)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestUncategorizedAndWriteBack(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, []model.Transaction{
		testTxn("t1", "u1", "WOOLWORTHS 1234", "", 3),
		testTxn("t2", "u1", "NETFLIX.COM", "Entertainment", 2),
	})
	require.NoError(t, err)

	pending, err := store.GetUncategorized(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "t1", pending[0].ID)

	require.NoError(t, store.UpdateTransactionCategory(ctx, "t1", "Groceries"))

	pending, err = store.GetUncategorized(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Error(t, store.UpdateTransactionCategory(ctx, "missing", "X"))
}

func TestRecentCategorizedMostRecentFirst(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, []model.Transaction{
		testTxn("t1", "u1", "OLD PURCHASE", "Shopping", 30),
		testTxn("t2", "u1", "NEW PURCHASE", "Groceries", 1),
		testTxn("t3", "u1", "PENDING", "", 0),
		testTxn("t4", "u2", "OTHER USER", "Dining", 1),
	})
	require.NoError(t, err)

	recent, err := store.GetRecentCategorized(ctx, "u1", 100)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "t2", recent[0].ID)
	assert.Equal(t, "t1", recent[1].ID)

	limited, err := store.GetRecentCategorized(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

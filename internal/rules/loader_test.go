package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsift/sift/internal/model"
)

type stubRuleStore struct {
	userRules   []model.Rule
	systemRules []model.Rule
	categories  []model.Category
	userErr     error
	systemErr   error
	categoryErr error
	userCalls   int
	systemCalls int
}

func (s *stubRuleStore) GetUserRules(_ context.Context, _ string) ([]model.Rule, error) {
	s.userCalls++
	return s.userRules, s.userErr
}

func (s *stubRuleStore) GetSystemRules(_ context.Context) ([]model.Rule, error) {
	s.systemCalls++
	return s.systemRules, s.systemErr
}

func (s *stubRuleStore) GetCategories(_ context.Context) ([]model.Category, error) {
	return s.categories, s.categoryErr
}

func TestLoaderCachesRules(t *testing.T) {
	store := &stubRuleStore{
		userRules: []model.Rule{
			{ID: 1, Pattern: "netflix", Category: "Entertainment", Confidence: 0.9},
		},
		systemRules: []model.Rule{
			{ID: 2, Pattern: "uber eats", Category: "Takeaway", Confidence: 0.85, IsActive: true},
		},
	}
	loader := NewLoader(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Len(t, loader.UserRules(ctx, "u1"), 1)
		assert.Len(t, loader.SystemRules(ctx), 1)
	}

	assert.Equal(t, 1, store.userCalls)
	assert.Equal(t, 1, store.systemCalls)

	loader.ClearCache()
	loader.UserRules(ctx, "u1")
	loader.SystemRules(ctx)
	assert.Equal(t, 2, store.userCalls)
	assert.Equal(t, 2, store.systemCalls)
}

func TestLoaderSortsByConfidenceDescending(t *testing.T) {
	store := &stubRuleStore{
		systemRules: []model.Rule{
			{ID: 1, Pattern: "coffee", Category: "Dining", Confidence: 0.6, IsActive: true},
			{ID: 2, Pattern: "coffee bean", Category: "Groceries", Confidence: 0.95, IsActive: true},
			{ID: 3, Pattern: "inactive", Category: "Nope", Confidence: 0.99, IsActive: false},
		},
	}
	loader := NewLoader(store)

	got := loader.SystemRules(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, "Groceries", got[0].Category)
	assert.Equal(t, "Dining", got[1].Category)
}

func TestLoaderDegradesToEmptyOnStoreFailure(t *testing.T) {
	store := &stubRuleStore{
		userErr:     errors.New("storage unavailable"),
		systemErr:   errors.New("storage unavailable"),
		categoryErr: errors.New("storage unavailable"),
	}
	loader := NewLoader(store)
	ctx := context.Background()

	assert.Empty(t, loader.UserRules(ctx, "u1"))
	assert.Empty(t, loader.SystemRules(ctx))
	assert.Empty(t, loader.CategoryGroups(ctx))
}

func TestLoaderCategoryGroups(t *testing.T) {
	store := &stubRuleStore{
		categories: []model.Category{
			{Name: "Salary", Group: model.GroupIncome},
			{Name: "Groceries", Group: model.GroupExpense},
		},
	}
	loader := NewLoader(store)

	groups := loader.CategoryGroups(context.Background())
	assert.Equal(t, model.GroupIncome, groups["Salary"])
	assert.Equal(t, model.GroupExpense, groups["Groceries"])
}

func TestFirstMatch(t *testing.T) {
	ruleList := []model.Rule{
		{Pattern: "woolworths", Category: "Groceries", Confidence: 0.95},
		{Pattern: "uber", Category: "Transport", Confidence: 0.8},
	}

	match, ok := FirstMatch(ruleList, "WOOLWORTHS 1234")
	require.True(t, ok)
	assert.Equal(t, "Groceries", match.Category)
	assert.InDelta(t, 0.95, match.Confidence, 0.001)

	_, ok = FirstMatch(ruleList, "SHELL FUEL")
	assert.False(t, ok)

	_, ok = FirstMatch(nil, "anything")
	assert.False(t, ok)
}

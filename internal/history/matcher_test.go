package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsift/sift/internal/model"
)

type stubHistoryStore struct {
	rows []model.Transaction
	err  error
}

func (s *stubHistoryStore) GetRecentCategorized(_ context.Context, _ string, _ int) ([]model.Transaction, error) {
	return s.rows, s.err
}

func historyRow(description, category string, daysAgo int) model.Transaction {
	return model.Transaction{
		Description: description,
		Category:    category,
		Date:        time.Now().AddDate(0, 0, -daysAgo),
	}
}

func TestFindSimilarContainment(t *testing.T) {
	store := &stubHistoryStore{rows: []model.Transaction{
		historyRow("NETFLIX.COM", "Entertainment", 3),
	}}
	m := NewMatcher(store)

	match, ok := m.FindSimilar(context.Background(), model.Transaction{Description: "NETFLIX.COM AU"})
	require.True(t, ok)
	assert.Equal(t, "Entertainment", match.Category)
	assert.GreaterOrEqual(t, match.Similarity, 0.8)
	assert.InDelta(t, 0.9, match.Confidence, 0.001)
}

func TestFindSimilarExactMatchCapsConfidence(t *testing.T) {
	store := &stubHistoryStore{rows: []model.Transaction{
		historyRow("SPOTIFY PREMIUM", "Entertainment", 1),
	}}
	m := NewMatcher(store)

	match, ok := m.FindSimilar(context.Background(), model.Transaction{Description: "SPOTIFY PREMIUM"})
	require.True(t, ok)
	assert.InDelta(t, 1.0, match.Similarity, 0.001)
	assert.InDelta(t, 0.95, match.Confidence, 0.001)
}

func TestFindSimilarPrefersMostRecent(t *testing.T) {
	// Most-recent-first scan order: the first row similar enough wins even
	// when a later row is just as similar.
	store := &stubHistoryStore{rows: []model.Transaction{
		historyRow("WOOLWORTHS 9001", "Groceries", 1),
		historyRow("WOOLWORTHS 1234", "Shopping", 30),
	}}
	m := NewMatcher(store)

	match, ok := m.FindSimilar(context.Background(), model.Transaction{Description: "WOOLWORTHS 5555"})
	require.True(t, ok)
	assert.Equal(t, "Groceries", match.Category)
}

func TestFindSimilarMissesOnUnrelatedHistory(t *testing.T) {
	store := &stubHistoryStore{rows: []model.Transaction{
		historyRow("SHELL FUEL STATION", "Transport", 2),
	}}
	m := NewMatcher(store)

	_, ok := m.FindSimilar(context.Background(), model.Transaction{Description: "DENTAL CLINIC PAYMENT"})
	assert.False(t, ok)
}

func TestFindSimilarStoreFailureIsAMiss(t *testing.T) {
	store := &stubHistoryStore{err: errors.New("storage unavailable")}
	m := NewMatcher(store)

	_, ok := m.FindSimilar(context.Background(), model.Transaction{Description: "NETFLIX.COM"})
	assert.False(t, ok)
}

func TestFindSimilarSkipsUncategorizedRows(t *testing.T) {
	store := &stubHistoryStore{rows: []model.Transaction{
		historyRow("NETFLIX.COM", "", 1),
	}}
	m := NewMatcher(store)

	_, ok := m.FindSimilar(context.Background(), model.Transaction{Description: "NETFLIX.COM"})
	assert.False(t, ok)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "exact after normalization", a: "UBER *EATS", b: "uber eats", want: 1.0},
		{name: "same merchant before digits", a: "WOOLWORTHS 1234", b: "WOOLWORTHS 9001 SYD", want: 0.9},
		{name: "containment", a: "NETFLIX.COM AU", b: "NETFLIX.COM", want: 0.8},
		{name: "unrelated", a: "SHELL FUEL", b: "DENTAL CLINIC", want: 0},
		{name: "empty", a: "", b: "NETFLIX.COM", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 0.001)
		})
	}
}

func TestSimilarityLevenshteinBand(t *testing.T) {
	// Close but not containing: only accepted above the 0.6 floor.
	sim := Similarity("AMAZON MKTP US", "AMAZON MKT US")
	assert.Greater(t, sim, 0.6)
	assert.Less(t, sim, 1.0)
}

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "WOOLWORTHS 1234", want: "woolworths"},
		{in: "SQ *COFFEE CART", want: "sq"},
		{in: "ACME DIRECT DEBIT", want: "acme"},
		{in: "RENT PAYMENT 44", want: "rent"},
		{in: "NETFLIX.COM", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMerchant(tt.in))
		})
	}
}

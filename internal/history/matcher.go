// Package history mines a user's previously categorized transactions for a
// fuzzy-similar description and reuses its category. This tier is
// self-reinforcing: every correction the user makes becomes the strongest
// future signal for similar descriptions.
package history

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/coinsift/sift/internal/model"
	"github.com/coinsift/sift/internal/pattern"
	"github.com/coinsift/sift/internal/service"
)

const (
	// defaultLimit bounds the history scan to the most recent rows.
	defaultLimit = 100

	// matchThreshold is the minimum similarity for a history hit.
	matchThreshold = 0.7

	// levenshteinFloor rejects weak edit-distance similarities outright.
	levenshteinFloor = 0.6

	maxConfidence = 0.95
)

// Merchant-name extraction patterns: the leading name before a
// PAYMENT/DIRECT suffix, trailing digits, or a card-network asterisk.
// The suffix rule runs first so "RENT PAYMENT 44" yields "rent".
var merchantRes = []*regexp.Regexp{
	regexp.MustCompile(`^([a-z][a-z\s&'.-]*[a-z])\s+(?:payment|direct)\b`),
	regexp.MustCompile(`^([a-z][a-z\s&'.-]*[a-z])\s*\d`),
	regexp.MustCompile(`^([a-z][a-z\s&'.-]*[a-z])\s*\*`),
}

// Match is a successful history lookup.
type Match struct {
	Category   string
	Confidence float64
	Similarity float64
}

// Matcher finds similar previously categorized transactions for a user.
type Matcher struct {
	store service.HistoryStore
	limit int
}

// NewMatcher creates a history matcher over the given store.
func NewMatcher(store service.HistoryStore) *Matcher {
	return &Matcher{store: store, limit: defaultLimit}
}

// FindSimilar returns the category of the first (most recent) historical
// transaction whose description is similar enough to the candidate. History
// load failure is a miss, never an error: the pipeline continues with lower
// tiers.
func (m *Matcher) FindSimilar(ctx context.Context, txn model.Transaction) (Match, bool) {
	recent, err := m.store.GetRecentCategorized(ctx, txn.UserID, m.limit)
	if err != nil {
		slog.Warn("Failed to load transaction history, skipping history tier",
			"user_id", txn.UserID,
			"error", err)
		return Match{}, false
	}

	for _, past := range recent {
		if past.Category == "" {
			continue
		}

		sim := Similarity(txn.Description, past.Description)
		if sim <= matchThreshold {
			continue
		}

		confidence := sim + 0.1
		if confidence > maxConfidence {
			confidence = maxConfidence
		}

		return Match{
			Category:   past.Category,
			Confidence: confidence,
			Similarity: sim,
		}, true
	}

	return Match{}, false
}

// Similarity scores how alike two transaction descriptions are, in [0,1].
// Scan order in FindSimilar is most recent first, so recency is the
// implicit tie-break between equally similar rows.
func Similarity(a, b string) float64 {
	na := pattern.Clean(a)
	nb := pattern.Clean(b)
	if na == "" || nb == "" {
		return 0
	}

	if na == nb {
		return 1.0
	}

	if ma, mb := ExtractMerchant(a), ExtractMerchant(b); ma != "" && ma == mb {
		return 0.9
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}

	dist := levenshtein.ComputeDistance(na, nb)
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 0
	}

	sim := 1 - float64(dist)/float64(maxLen)
	if sim > levenshteinFloor {
		return sim
	}
	return 0
}

// ExtractMerchant pulls the merchant name out of a raw description, or
// returns empty when no known shape applies.
func ExtractMerchant(description string) string {
	desc := strings.ToLower(strings.TrimSpace(description))
	for _, re := range merchantRes {
		if parts := re.FindStringSubmatch(desc); parts != nil {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

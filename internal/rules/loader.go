// Package rules loads and applies the user and system categorization rules.
package rules

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/coinsift/sift/internal/model"
	"github.com/coinsift/sift/internal/service"
)

// Loader caches the two rule sets and the category-group map for the
// lifetime of one engine instance. A failed load degrades to an empty set so
// categorization continues with the remaining tiers; rule edits are rare
// relative to import volume, so session staleness is acceptable.
type Loader struct {
	store       service.RuleStore
	userRules   map[string][]model.Rule
	systemRules []model.Rule
	groups      map[string]model.Group
	hasSystem   bool
	mu          sync.Mutex
}

// NewLoader creates a rule loader backed by the given store.
func NewLoader(store service.RuleStore) *Loader {
	return &Loader{
		store:     store,
		userRules: make(map[string][]model.Rule),
	}
}

// UserRules returns the cached rules for one user, sorted by confidence
// descending, loading them on first access.
func (l *Loader) UserRules(ctx context.Context, userID string) []model.Rule {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.userRules[userID]; ok {
		return cached
	}

	loaded, err := l.store.GetUserRules(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load user rules, continuing without them",
			"user_id", userID,
			"error", err)
		return nil
	}

	sortByConfidence(loaded)
	l.userRules[userID] = loaded
	return loaded
}

// SystemRules returns the cached shared rules, sorted by confidence
// descending, loading them on first access. Inactive rules are excluded.
func (l *Loader) SystemRules(ctx context.Context) []model.Rule {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasSystem {
		return l.systemRules
	}

	loaded, err := l.store.GetSystemRules(ctx)
	if err != nil {
		slog.Warn("Failed to load system rules, continuing without them", "error", err)
		return nil
	}

	active := loaded[:0]
	for _, rule := range loaded {
		if rule.IsActive {
			active = append(active, rule)
		}
	}
	sortByConfidence(active)

	l.systemRules = active
	l.hasSystem = true
	return active
}

// CategoryGroups returns the category name -> group map, loading it on first
// access. A failed load returns an empty map.
func (l *Loader) CategoryGroups(ctx context.Context) map[string]model.Group {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.groups != nil {
		return l.groups
	}

	categories, err := l.store.GetCategories(ctx)
	if err != nil {
		slog.Warn("Failed to load categories, group resolution degrades to defaults", "error", err)
		return map[string]model.Group{}
	}

	groups := make(map[string]model.Group, len(categories))
	for _, cat := range categories {
		groups[cat.Name] = cat.Group
	}

	l.groups = groups
	return groups
}

// ClearCache drops everything cached so the next access reloads from the store.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.userRules = make(map[string][]model.Rule)
	l.systemRules = nil
	l.hasSystem = false
	l.groups = nil
}

// sortByConfidence orders rules highest confidence first, so a first-match
// scan is equivalent to a highest-confidence match. Rule ID breaks ties to
// keep runs deterministic.
func sortByConfidence(rules []model.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		return rules[i].ID < rules[j].ID
	})
}

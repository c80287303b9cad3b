package rules

import (
	"github.com/coinsift/sift/internal/model"
	"github.com/coinsift/sift/internal/pattern"
)

// Match is a successful rule lookup.
type Match struct {
	Category   string
	Confidence float64
}

// FirstMatch scans a pre-sorted rule list and returns the first rule whose
// pattern matches the transaction description. Because the list is sorted by
// confidence descending, first match wins is highest confidence wins.
func FirstMatch(ruleList []model.Rule, description string) (Match, bool) {
	for _, rule := range ruleList {
		if pattern.Matches(description, rule.Pattern) {
			return Match{Category: rule.Category, Confidence: rule.Confidence}, true
		}
	}
	return Match{}, false
}

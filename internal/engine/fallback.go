package engine

import (
	"github.com/coinsift/sift/internal/model"
	"github.com/coinsift/sift/internal/pattern"
)

// keywordRule is one row of the guaranteed-total fallback table.
type keywordRule struct {
	keyword  string
	category string
}

// fallbackRules covers the highest-value universal cases only. The table
// does not need to be comprehensive, just total: evaluation always ends in
// Uncategorized.
var fallbackRules = []keywordRule{
	{keyword: "transfer", category: "Transfer"},
	{keyword: "tfr", category: "Transfer"},
	{keyword: "bpay", category: "Transfer"},
	{keyword: "atm", category: "Cash"},
	{keyword: "cash withdrawal", category: "Cash"},
	{keyword: "woolworths", category: "Groceries"},
	{keyword: "coles", category: "Groceries"},
	{keyword: "aldi", category: "Groceries"},
	{keyword: "iga", category: "Groceries"},
	{keyword: "uber", category: "Transport"},
	{keyword: "taxi", category: "Transport"},
	{keyword: "opal", category: "Transport"},
	{keyword: "salary", category: "Salary"},
	{keyword: "payroll", category: "Salary"},
	{keyword: "interest", category: "Interest"},
}

// fallbackCategorize resolves a description against the keyword table. The
// second return reports whether a keyword matched; either way the category
// is never empty.
func fallbackCategorize(description string) (string, bool) {
	for _, rule := range fallbackRules {
		if pattern.Matches(description, rule.keyword) {
			return rule.category, true
		}
	}
	return model.UncategorizedName, false
}

package engine

import "github.com/coinsift/sift/internal/model"

// builtinGroups backs group resolution for categories the store doesn't
// know, including everything the fallback table can produce.
var builtinGroups = map[string]model.Group{
	"Salary":                model.GroupIncome,
	"Interest":              model.GroupIncome,
	"Transfer":              model.GroupTransfer,
	model.UncategorizedName: model.GroupOther,
}

// resolveGroup maps a resolved category name to its coarse reporting group.
// The loaded category map wins; builtin defaults cover the rest; anything
// still unknown is treated as an expense, since nearly all AI-discovered
// categories are spending.
func resolveGroup(category string, loaded map[string]model.Group) model.Group {
	if group, ok := loaded[category]; ok {
		return group
	}
	if group, ok := builtinGroups[category]; ok {
		return group
	}
	return model.GroupExpense
}

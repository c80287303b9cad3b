package model

// Group is the coarse reporting group a category belongs to.
type Group string

// Category group constants.
const (
	GroupIncome   Group = "Income"
	GroupExpense  Group = "Expense"
	GroupTransfer Group = "Transfer"
	GroupOther    Group = "Other"
)

// Category represents a known spending/income category.
type Category struct {
	Name  string
	Group Group
	ID    int
}

package model

// Rule is a human-authored pattern -> category mapping. Two disjoint
// collections exist: user rules (scoped to one user, highest trust) and
// system rules (shared, lower trust). Rules are matched case-insensitively
// against transaction descriptions.
type Rule struct {
	Pattern    string
	Category   string
	UserID     string // Empty for system rules
	ID         int
	Confidence float64
	IsActive   bool
}

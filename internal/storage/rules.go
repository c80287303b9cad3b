package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coinsift/sift/internal/common"
	"github.com/coinsift/sift/internal/model"
)

// GetUserRules returns one user's rules ordered by confidence descending.
func (s *SQLiteStorage) GetUserRules(ctx context.Context, userID string) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, pattern, category, confidence
		FROM user_rules
		WHERE user_id = ?
		ORDER BY confidence DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Rule
	for rows.Next() {
		rule := model.Rule{IsActive: true}
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.Pattern, &rule.Category, &rule.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan user rule: %w", err)
		}
		result = append(result, rule)
	}

	return result, rows.Err()
}

// GetSystemRules returns the shared rules ordered by confidence descending,
// including inactive ones; the caller decides what to keep.
func (s *SQLiteStorage) GetSystemRules(ctx context.Context) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pattern, category, confidence, is_active
		FROM system_rules
		ORDER BY confidence DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query system rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Rule
	for rows.Next() {
		var rule model.Rule
		if err := rows.Scan(&rule.ID, &rule.Pattern, &rule.Category, &rule.Confidence, &rule.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan system rule: %w", err)
		}
		result = append(result, rule)
	}

	return result, rows.Err()
}

// GetCategories returns every known category with its reporting group.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, group_name
		FROM categories
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Category
	for rows.Next() {
		var cat model.Category
		var group string
		if err := rows.Scan(&cat.ID, &cat.Name, &group); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Group = model.Group(group)
		result = append(result, cat)
	}

	return result, rows.Err()
}

// GetCategoryByName looks a category up by exact name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var cat model.Category
	var group string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, group_name
		FROM categories
		WHERE name = ?`, name).Scan(&cat.ID, &cat.Name, &group)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	cat.Group = model.Group(group)
	return &cat, nil
}

// CreateCategory inserts a category, returning the existing row when the
// name is already taken.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, group model.Group) (*model.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("category name must not be empty")
	}
	if group == "" {
		group = model.GroupExpense
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, group_name)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING`, name, string(group))
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return s.GetCategoryByName(ctx, name)
}

// CreateUserRule inserts a new rule for one user.
func (s *SQLiteStorage) CreateUserRule(ctx context.Context, rule model.Rule) error {
	if rule.UserID == "" || rule.Pattern == "" || rule.Category == "" {
		return fmt.Errorf("user, pattern, and category are required")
	}
	if rule.Confidence <= 0 || rule.Confidence > 1 {
		rule.Confidence = 0.9
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_rules (user_id, pattern, category, confidence)
		VALUES (?, ?, ?, ?)`, rule.UserID, rule.Pattern, rule.Category, rule.Confidence)
	if err != nil {
		return fmt.Errorf("failed to create user rule: %w", err)
	}
	return nil
}

// SeedSystemRules inserts shared rules if the table is empty, so a fresh
// database categorizes common merchants out of the box.
func (s *SQLiteStorage) SeedSystemRules(ctx context.Context, seed []model.Rule) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM system_rules`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count system rules: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, rule := range seed {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO system_rules (pattern, category, confidence, is_active)
			VALUES (?, ?, ?, ?)`, rule.Pattern, rule.Category, rule.Confidence, rule.IsActive)
		if err != nil {
			return fmt.Errorf("failed to seed system rule %q: %w", rule.Pattern, err)
		}
	}

	return nil
}

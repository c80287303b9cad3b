package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coinsift/sift/internal/model"
	"github.com/coinsift/sift/internal/storage"
)

// defaultSystemRules ships with every fresh database so common merchants
// categorize without any AI calls.
var defaultSystemRules = []model.Rule{
	{Pattern: "uber eats", Category: "Takeaway", Confidence: 0.85, IsActive: true},
	{Pattern: "woolworths", Category: "Groceries", Confidence: 0.9, IsActive: true},
	{Pattern: "coles", Category: "Groceries", Confidence: 0.9, IsActive: true},
	{Pattern: "aldi", Category: "Groceries", Confidence: 0.9, IsActive: true},
	{Pattern: "netflix", Category: "Entertainment", Confidence: 0.9, IsActive: true},
	{Pattern: "spotify", Category: "Entertainment", Confidence: 0.9, IsActive: true},
	{Pattern: "opal", Category: "Transport", Confidence: 0.85, IsActive: true},
	{Pattern: "bpay", Category: "Bills", Confidence: 0.8, IsActive: true},
}

func databasePath() string {
	if path := viper.GetString("database.path"); path != "" {
		return path
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "sift", "sift.db")
}

// openStorage opens the database, runs migrations, and seeds the shared
// rule set on first use.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := store.SeedSystemRules(ctx, defaultSystemRules); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed system rules: %w", err)
	}

	return store, nil
}

// resolveUserID reads the active command's own --user flag first, then the
// config file. Several commands define a --user flag, so the flag value must
// come from the command instance rather than a shared viper binding.
func resolveUserID(cmd *cobra.Command) (string, error) {
	if userID, err := cmd.Flags().GetString("user"); err == nil && userID != "" {
		return userID, nil
	}
	if userID := viper.GetString("user"); userID != "" {
		return userID, nil
	}
	return "", fmt.Errorf("user is required: pass --user or set user in the config file")
}

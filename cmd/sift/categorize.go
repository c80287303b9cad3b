package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coinsift/sift/internal/cli"
	"github.com/coinsift/sift/internal/common"
	"github.com/coinsift/sift/internal/engine"
	"github.com/coinsift/sift/internal/history"
	"github.com/coinsift/sift/internal/llm"
	"github.com/coinsift/sift/internal/model"
	"github.com/coinsift/sift/internal/rules"
	"github.com/coinsift/sift/internal/service"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize pending transactions",
		Long: `Run every uncategorized transaction through the tier chain: your own
history, your rules, shared rules, the remote AI classifier, and finally
the keyword fallback. Resolved categories are written back to the database.`,
		RunE: runCategorize,
	}

	cmd.Flags().StringP("user", "u", "", "User whose transactions to categorize")
	cmd.Flags().Bool("dry-run", false, "Show results without writing them back")
	cmd.Flags().Bool("no-ai", false, "Skip the remote classifier tier")
	cmd.Flags().Bool("label-transfers", false, "Annotate transfers with In/Out by amount sign")

	_ = viper.BindPFlag("categorize.dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("categorize.no_ai", cmd.Flags().Lookup("no-ai"))
	_ = viper.BindPFlag("categorize.label_transfers", cmd.Flags().Lookup("label-transfers"))

	return cmd
}

func runCategorize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := resolveUserID(cmd)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	pending, err := store.GetUncategorized(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load pending transactions: %w", err)
	}
	if len(pending) == 0 {
		slog.Info(cli.FormatSuccess("Nothing to categorize"))
		return nil
	}

	classifier, err := buildClassifier()
	if err != nil {
		return err
	}
	if classifier == nil {
		slog.Info(cli.FormatWarning("Remote classifier disabled; using rules and keywords only"))
	}

	slog.Info(cli.FormatTitle("Categorizing transactions"))
	bar := cli.NewProgressBar(os.Stderr, len(pending), "Categorizing transactions...")

	config := engine.DefaultConfig()
	config.LabelTransferDirection = viper.GetBool("categorize.label_transfers")
	if chunk := viper.GetInt("classifier.chunk_size"); chunk > 0 {
		config.ChunkSize = chunk
	}
	config.OnProgress = func(completed, _ int) {
		if err := bar.Set(completed); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	eng := engine.NewWithConfig(rules.NewLoader(store), history.NewMatcher(store), classifier, config)

	started := time.Now()
	results := eng.Categorize(ctx, userID, pending)
	if err := bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}

	if viper.GetBool("categorize.dry_run") {
		slog.Info(cli.FormatWarning("Dry run mode - not saving to database"))
		displayResults(results, time.Since(started))
		return nil
	}

	if err := writeBack(ctx, store, results); err != nil {
		return err
	}

	displayResults(results, time.Since(started))
	slog.Info(cli.FormatSuccess("Categorization complete"))
	return nil
}

// buildClassifier returns nil when no classifier endpoint is configured,
// which disables the AI tier entirely.
func buildClassifier() (engine.Classifier, error) {
	if viper.GetBool("categorize.no_ai") {
		return nil, nil
	}

	cfg := llm.Config{
		BaseURL:   viper.GetString("classifier.base_url"),
		APIKey:    viper.GetString("classifier.api_key"),
		Timeout:   viper.GetDuration("classifier.timeout"),
		CacheTTL:  viper.GetDuration("classifier.cache_ttl"),
		RateLimit: viper.GetInt("classifier.rate_limit"),
	}
	if cfg.BaseURL == "" {
		return nil, nil
	}

	client, err := llm.NewHTTPClient(cfg)
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create classifier client: %w", err)
	}
	return client, nil
}

func writeBack(ctx context.Context, store service.TransactionStore, results []model.Classification) error {
	for _, result := range results {
		if result.IsNewCategory {
			if _, err := store.CreateCategory(ctx, result.Category, result.Group); err != nil {
				return fmt.Errorf("failed to create category %q: %w", result.Category, err)
			}
		}
		if err := store.UpdateTransactionCategory(ctx, result.Transaction.ID, result.Category); err != nil {
			return err
		}
	}
	return nil
}

func displayResults(results []model.Classification, elapsed time.Duration) {
	stats := model.NewStats()
	newCategories := 0
	for _, result := range results {
		stats.Record(result.Source)
		if result.IsNewCategory {
			newCategories++
		}
	}

	content := fmt.Sprintf("Transactions: %d\nTime taken: %s\n\nBy source:\n", stats.Total, elapsed.Round(time.Millisecond))
	for _, source := range []model.Source{
		model.SourceUserHistory,
		model.SourceUserRule,
		model.SourceSystemRule,
		model.SourceSystemKeywords,
		model.SourceAI,
		model.SourceFallback,
		model.SourceUncategorized,
	} {
		if count := stats.Count(source); count > 0 {
			content += fmt.Sprintf("  • %s: %d\n", source, count)
		}
	}
	if newCategories > 0 {
		content += fmt.Sprintf("\nNew categories created: %d\n", newCategories)
	}

	slog.Info(cli.RenderBox("Categorization Summary", content))
}

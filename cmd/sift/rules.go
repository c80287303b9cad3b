package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coinsift/sift/internal/cli"
	"github.com/coinsift/sift/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your rules and the shared rule set",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			userRules, err := store.GetUserRules(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to load user rules: %w", err)
			}
			systemRules, err := store.GetSystemRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to load system rules: %w", err)
			}

			slog.Info(cli.RenderBox("Your Rules", renderRuleTable(userRules)))
			slog.Info(cli.RenderBox("Shared Rules", renderRuleTable(systemRules)))
			return nil
		},
	}

	cmd.Flags().StringP("user", "u", "", "User whose rules to list")

	return cmd
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <pattern> <category>",
		Short: "Add a personal categorization rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := resolveUserID(cmd)
			if err != nil {
				return err
			}
			pattern := strings.TrimSpace(args[0])
			if pattern == "" {
				return fmt.Errorf("pattern must not be empty")
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule := model.Rule{
				UserID:     userID,
				Pattern:    pattern,
				Category:   args[1],
				Confidence: viper.GetFloat64("rules.confidence"),
			}
			if err := store.CreateUserRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			slog.Info(cli.FormatSuccess(fmt.Sprintf("Added rule %q → %s", pattern, args[1])))
			return nil
		},
	}

	cmd.Flags().StringP("user", "u", "", "User the rule belongs to")
	cmd.Flags().Float64("confidence", 0.9, "Confidence assigned to matches")
	_ = viper.BindPFlag("rules.confidence", cmd.Flags().Lookup("confidence"))

	return cmd
}

func renderRuleTable(rulesList []model.Rule) string {
	if len(rulesList) == 0 {
		return cli.SubtleStyle.Render("(none)")
	}

	var b strings.Builder
	b.WriteString(cli.TableHeaderStyle.Render(fmt.Sprintf("%-30s %-20s %10s", "Pattern", "Category", "Confidence")))
	b.WriteString("\n")
	for _, rule := range rulesList {
		line := fmt.Sprintf("%-30s %-20s %10.2f", rule.Pattern, rule.Category, rule.Confidence)
		if !rule.IsActive {
			line = cli.SubtleStyle.Render(line + "  (inactive)")
		}
		b.WriteString(cli.TableCellStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coinsift/sift/internal/cli"
	"github.com/coinsift/sift/internal/importer"
	"github.com/coinsift/sift/internal/model"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv> [file.csv...]",
		Short: "Import transactions from CSV exports",
		Long: `Import bank CSV exports into the local database for later categorization.
Rows that were already imported are deduplicated by content hash.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("user", "u", "", "User the transactions belong to")
	cmd.Flags().StringP("account", "a", "", "Account ID to record on imported rows")
	cmd.Flags().String("date-format", "2006-01-02", "Go layout of the date column")
	cmd.Flags().String("currency", "AUD", "Currency code for imported amounts")
	cmd.Flags().Int("date-col", 0, "Zero-based index of the date column")
	cmd.Flags().Int("amount-col", 1, "Zero-based index of the amount column")
	cmd.Flags().Int("desc-col", 2, "Zero-based index of the description column")
	cmd.Flags().Bool("no-header", false, "Treat the first row as data, not a header")

	_ = viper.BindPFlag("import.account", cmd.Flags().Lookup("account"))
	_ = viper.BindPFlag("import.date_format", cmd.Flags().Lookup("date-format"))
	_ = viper.BindPFlag("import.currency", cmd.Flags().Lookup("currency"))
	_ = viper.BindPFlag("import.date_col", cmd.Flags().Lookup("date-col"))
	_ = viper.BindPFlag("import.amount_col", cmd.Flags().Lookup("amount-col"))
	_ = viper.BindPFlag("import.desc_col", cmd.Flags().Lookup("desc-col"))
	_ = viper.BindPFlag("import.no_header", cmd.Flags().Lookup("no-header"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := resolveUserID(cmd)
	if err != nil {
		return err
	}

	format := importer.Format{
		DateLayout: viper.GetString("import.date_format"),
		Currency:   viper.GetString("import.currency"),
		DateCol:    viper.GetInt("import.date_col"),
		AmountCol:  viper.GetInt("import.amount_col"),
		DescCol:    viper.GetInt("import.desc_col"),
		HasHeader:  !viper.GetBool("import.no_header"),
	}
	imp, err := importer.NewCSVImporter(userID, viper.GetString("import.account"), format)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Importing transactions"))

	var parsed []model.Transaction
	for _, path := range args {
		transactions, err := imp.ImportFile(path)
		if err != nil {
			return err
		}
		parsed = append(parsed, transactions...)
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	inserted, err := store.SaveTransactions(ctx, parsed)
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	content := fmt.Sprintf("Files: %d\nRows parsed: %d\nNew transactions: %d\nDuplicates skipped: %d",
		len(args), len(parsed), inserted, len(parsed)-inserted)
	slog.Info(cli.RenderBox("Import Summary", content))
	slog.Info(cli.FormatSuccess("Import complete"))

	return nil
}

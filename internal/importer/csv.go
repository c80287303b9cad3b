// Package importer parses bank CSV exports into transactions.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coinsift/sift/internal/common"
	"github.com/coinsift/sift/internal/model"
)

// Format describes the column layout of one bank's CSV export.
type Format struct {
	DateLayout string
	Currency   string
	DateCol    int
	AmountCol  int
	DescCol    int
	HasHeader  bool
}

// DefaultFormat covers the common "date,amount,description" export with a
// header row.
func DefaultFormat() Format {
	return Format{
		DateLayout: "2006-01-02",
		Currency:   "AUD",
		DateCol:    0,
		AmountCol:  1,
		DescCol:    2,
		HasHeader:  true,
	}
}

// CSVImporter turns CSV rows into transactions for one user and account.
type CSVImporter struct {
	format    Format
	userID    string
	accountID string
}

// NewCSVImporter creates an importer for the given user and account.
func NewCSVImporter(userID, accountID string, format Format) (*CSVImporter, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID must not be empty", common.ErrInvalidConfig)
	}
	if format.DateLayout == "" {
		format.DateLayout = "2006-01-02"
	}
	if format.DateCol == format.AmountCol || format.DateCol == format.DescCol || format.AmountCol == format.DescCol {
		return nil, fmt.Errorf("%w: date, amount, and description columns must be distinct", common.ErrInvalidConfig)
	}

	return &CSVImporter{format: format, userID: userID, accountID: accountID}, nil
}

// ImportFile parses a CSV file from disk.
func (i *CSVImporter) ImportFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	transactions, err := i.Import(f)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}

	slog.Info("imported CSV file",
		"path", path,
		"transactions", len(transactions))

	return transactions, nil
}

// Import parses CSV rows from a reader. Blank rows are skipped; malformed
// rows fail the whole import so a bad export never half-loads.
func (i *CSVImporter) Import(r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	minCols := i.format.DateCol
	if i.format.AmountCol > minCols {
		minCols = i.format.AmountCol
	}
	if i.format.DescCol > minCols {
		minCols = i.format.DescCol
	}
	minCols++

	var result []model.Transaction
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum+1, err)
		}
		rowNum++

		if rowNum == 1 && i.format.HasHeader {
			continue
		}
		if isBlankRecord(record) {
			continue
		}
		if len(record) < minCols {
			return nil, fmt.Errorf("row %d: expected at least %d columns, got %d", rowNum, minCols, len(record))
		}

		txn, err := i.parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		result = append(result, txn)
	}

	return result, nil
}

func (i *CSVImporter) parseRecord(record []string) (model.Transaction, error) {
	dateRaw := strings.TrimSpace(record[i.format.DateCol])
	amountRaw := strings.TrimSpace(record[i.format.AmountCol])
	description := strings.TrimSpace(record[i.format.DescCol])

	if dateRaw == "" || amountRaw == "" || description == "" {
		return model.Transaction{}, fmt.Errorf("date, amount, and description are required")
	}

	date, err := time.Parse(i.format.DateLayout, dateRaw)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid date %q: %w", dateRaw, err)
	}

	amount, err := parseAmount(amountRaw)
	if err != nil {
		return model.Transaction{}, err
	}

	return model.Transaction{
		ID:          uuid.NewString(),
		UserID:      i.userID,
		AccountID:   i.accountID,
		Date:        date,
		Description: description,
		Amount:      amount,
		Currency:    i.format.Currency,
	}, nil
}

func parseAmount(raw string) (float64, error) {
	s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return value, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

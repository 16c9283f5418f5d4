package ofx

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
)

// ImportOptions selects the categories imported entries are booked under.
type ImportOptions struct {
	IncomeCategory  string
	ExpenseCategory string
}

// ImportResult summarizes an import. Alerts are those raised by the last imported entry.
type ImportResult struct {
	Operations []model.Operation
	Alerts     []service.Alert
	Imported   int
	Skipped    int
}

// Importer records statement entries as wallet operations.
type Importer struct {
	ledger *ledger.Service
}

// NewImporter creates an importer backed by the wallet service.
func NewImporter(l *ledger.Service) *Importer {
	return &Importer{ledger: l}
}

// Import books credits as income and debits as expense, dated by their posting
// date. Entries already imported (same FitID) and zero amounts are skipped.
// progress, if set, is called once per entry.
func (i *Importer) Import(ctx context.Context, w *model.Wallet, entries []Entry, opts ImportOptions, progress func()) (ImportResult, error) {
	var result ImportResult

	if strings.TrimSpace(opts.IncomeCategory) == "" || strings.TrimSpace(opts.ExpenseCategory) == "" {
		return result, common.NewValidationError("category", "income and expense categories are required")
	}
	for _, c := range []string{opts.IncomeCategory, opts.ExpenseCategory} {
		if err := i.ledger.AddCategory(w, c); err != nil {
			return result, err
		}
	}
	incomeCategory := strings.TrimSpace(opts.IncomeCategory)
	expenseCategory := strings.TrimSpace(opts.ExpenseCategory)

	seen := importedIDs(w)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if progress != nil {
			progress()
		}

		if e.Amount == 0 || (e.FitID != "" && seen[e.FitID]) {
			result.Skipped++
			continue
		}

		typ, category := model.OperationIncome, incomeCategory
		if e.Amount < 0 {
			typ, category = model.OperationExpense, expenseCategory
		}

		op, alerts, err := i.ledger.Record(w, typ, category, math.Abs(e.Amount), entryNote(e), e.Posted)
		if err != nil {
			return result, fmt.Errorf("failed to import entry %s: %w", e.FitID, err)
		}
		if e.FitID != "" {
			seen[e.FitID] = true
		}
		result.Operations = append(result.Operations, op)
		result.Imported++
		result.Alerts = alerts
	}

	return result, nil
}

const fitIDMarker = "[ofx:"

func entryNote(e Entry) string {
	if e.FitID == "" {
		return e.Name
	}
	return strings.TrimSpace(e.Name + " " + fitIDMarker + e.FitID + "]")
}

// importedIDs collects the FitIDs recorded in operation notes.
func importedIDs(w *model.Wallet) map[string]bool {
	ids := make(map[string]bool)
	for _, op := range w.Operations {
		start := strings.LastIndex(op.Note, fitIDMarker)
		if start < 0 || !strings.HasSuffix(op.Note, "]") {
			continue
		}
		ids[op.Note[start+len(fitIDMarker):len(op.Note)-1]] = true
	}
	return ids
}

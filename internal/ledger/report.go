package ledger

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for report periods.
const DateLayout = "2006-01-02"

// BuildStatsReport summarizes the whole operation history.
func (s *Service) BuildStatsReport(w *model.Wallet) service.Report {
	return buildReport(w, nil)
}

// BuildPeriodReport summarizes operations from the start of from up to the end of to.
// Budget remaining amounts only count expense spent inside the period.
func (s *Service) BuildPeriodReport(w *model.Wallet, from, to time.Time) (service.Report, error) {
	if from.IsZero() || to.IsZero() {
		return service.Report{}, common.NewValidationError("period", "both dates are required")
	}
	window := PeriodWindow(from, to)
	if !window.Start.Before(window.End) {
		return service.Report{}, common.NewValidationError("period", "from date is after to date")
	}

	report := buildReport(w, &window)
	report.Period = &service.ReportPeriod{From: from, To: to, Window: window}
	return report, nil
}

// PeriodWindow returns [startOfDay(from), startOfDay(to)+1 day).
func PeriodWindow(from, to time.Time) service.DateRange {
	return service.DateRange{
		Start: startOfDay(from),
		End:   startOfDay(to).AddDate(0, 0, 1),
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func buildReport(w *model.Wallet, window *service.DateRange) service.Report {
	income := group(w.Operations, model.OperationIncome, window)
	expense := group(w.Operations, model.OperationExpense, window)

	report := service.Report{
		TotalIncome:       income.total().InexactFloat64(),
		TotalExpense:      expense.total().InexactFloat64(),
		IncomeByCategory:  sortedAmounts(income),
		ExpenseByCategory: sortedAmounts(expense),
	}

	left := remaining(w.Budgets, expense)
	for _, category := range slices.Sorted(maps.Keys(w.Budgets)) {
		report.Budgets = append(report.Budgets, model.BudgetLine{
			Category:  category,
			Limit:     w.Budgets[category],
			Remaining: left[category],
		})
	}

	return report
}

func sortedAmounts(g grouping) []model.CategoryAmount {
	out := make([]model.CategoryAmount, 0, len(g))
	for _, category := range slices.Sorted(maps.Keys(g)) {
		out = append(out, model.CategoryAmount{Category: category, Amount: g[category].InexactFloat64()})
	}
	return out
}

// FormatAmount renders an amount with two decimals.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RenderReport renders a report as plain text, one fact per line.
func RenderReport(r service.Report) string {
	var b strings.Builder

	if r.Period != nil {
		fmt.Fprintf(&b, "Period: %s .. %s\n", r.Period.From.Format(DateLayout), r.Period.To.Format(DateLayout))
	}

	fmt.Fprintf(&b, "Total income: %s\n", FormatAmount(r.TotalIncome))
	b.WriteString("Income by category:\n")
	writeAmounts(&b, r.IncomeByCategory)

	fmt.Fprintf(&b, "Total expense: %s\n", FormatAmount(r.TotalExpense))
	b.WriteString("Expense by category:\n")
	writeAmounts(&b, r.ExpenseByCategory)

	b.WriteString("Budget by category:\n")
	if len(r.Budgets) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, line := range r.Budgets {
		fmt.Fprintf(&b, "  %s: limit %s, remaining %s\n", line.Category, FormatAmount(line.Limit), FormatAmount(line.Remaining))
	}

	return b.String()
}

func writeAmounts(b *strings.Builder, amounts []model.CategoryAmount) {
	if len(amounts) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, a := range amounts {
		fmt.Fprintf(b, "  %s: %s\n", a.Category, FormatAmount(a.Amount))
	}
}

package ledger

import (
	"strings"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/shopspring/decimal"
)

// grouping sums amounts per category with exact decimal arithmetic.
type grouping map[string]decimal.Decimal

func (g grouping) total() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range g {
		sum = sum.Add(v)
	}
	return sum
}

func (g grouping) floats() map[string]float64 {
	out := make(map[string]float64, len(g))
	for k, v := range g {
		out[k] = v.InexactFloat64()
	}
	return out
}

func (g grouping) spent(category string) decimal.Decimal {
	if v, ok := g[category]; ok {
		return v
	}
	return decimal.Zero
}

// group sums operations of typ, optionally restricted to window.
func group(ops []model.Operation, typ model.OperationType, window *service.DateRange) grouping {
	g := make(grouping)
	for _, op := range ops {
		if op.Type != typ {
			continue
		}
		if window != nil && !window.Contains(op.CreatedAt) {
			continue
		}
		g[op.Category] = g.spent(op.Category).Add(decimal.NewFromFloat(op.Amount))
	}
	return g
}

// TotalIncome sums every income operation.
func (s *Service) TotalIncome(w *model.Wallet) float64 {
	return group(w.Operations, model.OperationIncome, nil).total().InexactFloat64()
}

// TotalExpense sums every expense operation.
func (s *Service) TotalExpense(w *model.Wallet) float64 {
	return group(w.Operations, model.OperationExpense, nil).total().InexactFloat64()
}

// IncomeByCategory groups income by category. Categories without income are absent.
func (s *Service) IncomeByCategory(w *model.Wallet) map[string]float64 {
	return group(w.Operations, model.OperationIncome, nil).floats()
}

// ExpenseByCategory groups expense by category. Categories without expense are absent.
func (s *Service) ExpenseByCategory(w *model.Wallet) map[string]float64 {
	return group(w.Operations, model.OperationExpense, nil).floats()
}

// RemainingBudgetByCategory returns limit minus all-time spend for every budgeted category.
func (s *Service) RemainingBudgetByCategory(w *model.Wallet) map[string]float64 {
	return remaining(w.Budgets, group(w.Operations, model.OperationExpense, nil))
}

func remaining(budgets map[string]float64, spent grouping) map[string]float64 {
	out := make(map[string]float64, len(budgets))
	for category, limit := range budgets {
		out[category] = decimal.NewFromFloat(limit).Sub(spent.spent(category)).InexactFloat64()
	}
	return out
}

// SumByCategories sums operations of typ whose category is in categories.
// Every listed category must exist in the wallet.
func (s *Service) SumByCategories(w *model.Wallet, typ model.OperationType, categories []string) (float64, error) {
	if len(categories) == 0 {
		return 0, common.NewValidationError("categories", "category list is empty")
	}

	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if err := requireCategory(w, c); err != nil {
			return 0, err
		}
		wanted[c] = struct{}{}
	}

	sum := decimal.Zero
	for _, op := range w.Operations {
		if op.Type != typ {
			continue
		}
		if _, ok := wanted[op.Category]; ok {
			sum = sum.Add(decimal.NewFromFloat(op.Amount))
		}
	}
	return sum.InexactFloat64(), nil
}

// ParseCategoriesCSV splits a comma-separated list, dropping blank parts.
// Order and duplicates are preserved.
func ParseCategoriesCSV(csv string) ([]string, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, common.NewValidationError("categories", "category list is empty")
	}

	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil, common.NewValidationError("categories", "category list is empty")
	}
	return out, nil
}

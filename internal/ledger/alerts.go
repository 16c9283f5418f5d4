package ledger

import (
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/shopspring/decimal"
)

// Alerts computes the warnings for category after a mutation: a budget overage
// when the category is over its limit, and an income alert when total expense
// is above total income.
func (s *Service) Alerts(w *model.Wallet, category string) []service.Alert {
	var alerts []service.Alert

	expense := group(w.Operations, model.OperationExpense, nil)
	if limit, ok := w.Budgets[category]; ok {
		over := expense.spent(category).Sub(decimal.NewFromFloat(limit))
		if over.IsPositive() {
			alerts = append(alerts, service.Alert{
				Kind:     service.AlertBudgetExceeded,
				Category: category,
				Amount:   over.InexactFloat64(),
			})
		}
	}

	deficit := expense.total().Sub(group(w.Operations, model.OperationIncome, nil).total())
	if deficit.IsPositive() {
		alerts = append(alerts, service.Alert{
			Kind:   service.AlertExpenseExceedsIncome,
			Amount: deficit.InexactFloat64(),
		})
	}

	return alerts
}

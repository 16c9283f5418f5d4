package model

// TransferCategory is the category both sides of a transfer are recorded under.
const TransferCategory = "Transfer"

// CategoryAmount pairs a category with a summed amount.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// BudgetLine describes one budgeted category in a report.
type BudgetLine struct {
	Category  string  `json:"category"`
	Limit     float64 `json:"limit"`
	Remaining float64 `json:"remaining"`
}

package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OperationType indicates whether an operation adds or removes money.
type OperationType string

const (
	// OperationIncome records money coming into the wallet.
	OperationIncome OperationType = "INCOME"
	// OperationExpense records money leaving the wallet.
	OperationExpense OperationType = "EXPENSE"
)

// ParseOperationType accepts the canonical names case-insensitively.
func ParseOperationType(s string) (OperationType, error) {
	switch OperationType(strings.ToUpper(strings.TrimSpace(s))) {
	case OperationIncome:
		return OperationIncome, nil
	case OperationExpense:
		return OperationExpense, nil
	default:
		return "", fmt.Errorf("unknown operation type %q", s)
	}
}

// Operation is one immutable income or expense record.
type Operation struct {
	CreatedAt time.Time     `json:"createdAt"`
	ID        string        `json:"id"`
	Type      OperationType `json:"type"`
	Category  string        `json:"category"`
	Note      string        `json:"note"`
	Amount    float64       `json:"amount"`
}

// ValidAmount reports whether v can be used as an operation amount or budget limit.
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// Day returns the calendar date of the operation in its own location.
func (o Operation) Day() time.Time {
	y, m, d := o.CreatedAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, o.CreatedAt.Location())
}

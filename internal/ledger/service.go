// Package ledger implements the wallet operations: categories, budgets,
// income and expense recording, alerts and reports.
package ledger

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/google/uuid"
)

// Recorder observes operations once they have been persisted. Implementations
// must be safe for concurrent use.
type Recorder interface {
	OperationRecorded(op model.Operation)
	AlertsEmitted(alerts []service.Alert)
}

// Service mutates and inspects wallets passed to it. It keeps no wallet state.
type Service struct {
	now      func() time.Time
	newID    func() string
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the timestamp source for new operations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides the identifier source for new operations.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithRecorder attaches an observer notified through Committed.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService creates a wallet service using the wall clock and random UUIDs unless overridden.
func NewService(opts ...Option) *Service {
	s := &Service{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCategory inserts the trimmed name. Adding an existing category is a no-op.
func (s *Service) AddCategory(w *model.Wallet, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.NewValidationError("category", "category is empty")
	}
	if !w.HasCategory(name) {
		w.Categories = append(w.Categories, name)
		slog.Debug("Added category", "category", name)
	}
	return nil
}

// SetBudget upserts the spending limit of an existing category.
func (s *Service) SetBudget(w *model.Wallet, category string, limit float64) error {
	if err := requireCategory(w, category); err != nil {
		return err
	}
	if !model.ValidAmount(limit) {
		return common.NewValidationError("limit", "budget limit must be a finite number greater than zero")
	}
	if w.Budgets == nil {
		w.Budgets = make(map[string]float64)
	}
	w.Budgets[category] = limit
	return nil
}

// AddIncome records an income and returns the new operation with any alerts it triggered.
func (s *Service) AddIncome(w *model.Wallet, category string, amount float64, note string) (model.Operation, []service.Alert, error) {
	return s.record(w, model.OperationIncome, category, amount, note, time.Time{})
}

// AddExpense records an expense and returns the new operation with any alerts it triggered.
func (s *Service) AddExpense(w *model.Wallet, category string, amount float64, note string) (model.Operation, []service.Alert, error) {
	return s.record(w, model.OperationExpense, category, amount, note, time.Time{})
}

// Record appends an operation with an explicit timestamp, used when importing
// statements whose posting dates are known. A zero timestamp means now.
func (s *Service) Record(w *model.Wallet, typ model.OperationType, category string, amount float64, note string, at time.Time) (model.Operation, []service.Alert, error) {
	return s.record(w, typ, category, amount, note, at)
}

func (s *Service) record(w *model.Wallet, typ model.OperationType, category string, amount float64, note string, at time.Time) (model.Operation, []service.Alert, error) {
	if !model.ValidAmount(amount) {
		return model.Operation{}, nil, common.NewValidationError("amount", "amount must be a finite number greater than zero")
	}
	if err := requireCategory(w, category); err != nil {
		return model.Operation{}, nil, err
	}
	if typ != model.OperationIncome && typ != model.OperationExpense {
		return model.Operation{}, nil, common.NewValidationError("type", "unknown operation type "+string(typ))
	}
	if at.IsZero() {
		at = s.now()
	}

	op := model.Operation{
		ID:        s.newID(),
		Type:      typ,
		Category:  category,
		Amount:    amount,
		CreatedAt: at,
		Note:      strings.TrimSpace(note),
	}
	w.Operations = append(w.Operations, op)

	alerts := s.Alerts(w, category)

	slog.Debug("Recorded operation",
		"id", op.ID,
		"type", op.Type,
		"category", op.Category,
		"alerts", len(alerts))

	return op, alerts, nil
}

// Committed reports an operation whose wallet has been saved, with the alerts it
// raised. Callers invoke it only after a successful save.
func (s *Service) Committed(op model.Operation, alerts []service.Alert) {
	if s.recorder == nil {
		return
	}
	s.recorder.OperationRecorded(op)
	if len(alerts) > 0 {
		s.recorder.AlertsEmitted(alerts)
	}
}

func requireCategory(w *model.Wallet, category string) error {
	if strings.TrimSpace(category) == "" {
		return common.NewValidationError("category", "category is empty")
	}
	if !w.HasCategory(category) {
		return common.NewValidationError("category", "category not found: "+category)
	}
	return nil
}

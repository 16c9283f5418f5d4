package ledger

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns the current value of at, which tests may move.
type fixedClock struct {
	at time.Time
}

func (c *fixedClock) now() time.Time { return c.at }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("op-%d", n)
	}
}

func newTestService(t *testing.T) (*Service, *fixedClock) {
	t.Helper()
	clock := &fixedClock{at: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	return NewService(WithClock(clock.now), WithIDGenerator(sequentialIDs())), clock
}

func walletWith(t *testing.T, svc *Service, categories ...string) *model.Wallet {
	t.Helper()
	w := model.NewWallet()
	for _, c := range categories {
		require.NoError(t, svc.AddCategory(w, c))
	}
	return w
}

func TestService_AddCategory(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("trims and inserts", func(t *testing.T) {
		w := model.NewWallet()
		require.NoError(t, svc.AddCategory(w, "  Food  "))
		assert.Equal(t, []string{"Food"}, w.Categories)
	})

	t.Run("idempotent", func(t *testing.T) {
		w := walletWith(t, svc, "Food")
		require.NoError(t, svc.AddCategory(w, "Food"))
		assert.Len(t, w.Categories, 1)
	})

	t.Run("case sensitive", func(t *testing.T) {
		w := walletWith(t, svc, "Food", "food")
		assert.Equal(t, []string{"Food", "food"}, w.Categories)
	})

	t.Run("blank name", func(t *testing.T) {
		w := model.NewWallet()
		err := svc.AddCategory(w, "   ")
		assert.True(t, common.IsValidation(err))
		assert.Empty(t, w.Categories)
	})
}

func TestService_SetBudget(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		category string
		limit    float64
		wantErr  bool
	}{
		{name: "valid", category: "Food", limit: 100},
		{name: "unknown category", category: "Rent", limit: 100, wantErr: true},
		{name: "zero limit", category: "Food", limit: 0, wantErr: true},
		{name: "negative limit", category: "Food", limit: -1, wantErr: true},
		{name: "nan limit", category: "Food", limit: math.NaN(), wantErr: true},
		{name: "infinite limit", category: "Food", limit: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := walletWith(t, svc, "Food")
			err := svc.SetBudget(w, tt.category, tt.limit)
			if tt.wantErr {
				assert.True(t, common.IsValidation(err))
				assert.Empty(t, w.Budgets)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.limit, w.Budgets[tt.category], 0)
		})
	}

	t.Run("upsert overwrites", func(t *testing.T) {
		w := walletWith(t, svc, "Food")
		require.NoError(t, svc.SetBudget(w, "Food", 100))
		require.NoError(t, svc.SetBudget(w, "Food", 250))
		assert.InDelta(t, 250.0, w.Budgets["Food"], 0)
	})
}

func TestService_AddOperation(t *testing.T) {
	svc, clock := newTestService(t)

	t.Run("income appends operation", func(t *testing.T) {
		w := walletWith(t, svc, "Salary")
		op, alerts, err := svc.AddIncome(w, "Salary", 1000, "  january  ")
		require.NoError(t, err)
		assert.Empty(t, alerts)

		require.Len(t, w.Operations, 1)
		assert.Equal(t, op, w.Operations[0])
		assert.Equal(t, model.OperationIncome, op.Type)
		assert.Equal(t, "january", op.Note)
		assert.Equal(t, clock.at, op.CreatedAt)
		assert.NotEmpty(t, op.ID)
	})

	t.Run("ids are unique", func(t *testing.T) {
		w := walletWith(t, svc, "Salary")
		a, _, err := svc.AddIncome(w, "Salary", 1, "")
		require.NoError(t, err)
		b, _, err := svc.AddIncome(w, "Salary", 1, "")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("amount is validated before category", func(t *testing.T) {
		w := model.NewWallet()
		_, _, err := svc.AddExpense(w, "Missing", -1, "")
		var ve *common.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "amount", ve.Field)
	})

	t.Run("rejections leave wallet untouched", func(t *testing.T) {
		cases := []struct {
			category string
			amount   float64
		}{
			{"Food", 0},
			{"Food", -10},
			{"Food", math.NaN()},
			{"Food", math.Inf(1)},
			{"Rent", 10},
			{"", 10},
			{"food", 10},
		}
		for _, c := range cases {
			w := walletWith(t, svc, "Food")
			_, _, err := svc.AddExpense(w, c.category, c.amount, "")
			assert.True(t, common.IsValidation(err), "category=%q amount=%v", c.category, c.amount)
			assert.Empty(t, w.Operations)
		}
	})

	t.Run("empty and unknown categories have distinct reasons", func(t *testing.T) {
		w := model.NewWallet()
		_, _, err := svc.AddIncome(w, "", 1, "")
		assert.EqualError(t, err, "category: category is empty")
		_, _, err = svc.AddIncome(w, "Bonus", 1, "")
		assert.EqualError(t, err, "category: category not found: Bonus")
	})

	t.Run("record uses explicit timestamp", func(t *testing.T) {
		w := walletWith(t, svc, "Food")
		at := time.Date(2025, 12, 24, 9, 0, 0, 0, time.UTC)
		op, _, err := svc.Record(w, model.OperationExpense, "Food", 5, "", at)
		require.NoError(t, err)
		assert.Equal(t, at, op.CreatedAt)
	})

	t.Run("record rejects unknown type", func(t *testing.T) {
		w := walletWith(t, svc, "Food")
		_, _, err := svc.Record(w, model.OperationType("REFUND"), "Food", 5, "", time.Time{})
		assert.True(t, common.IsValidation(err))
		assert.Empty(t, w.Operations)
	})
}

func TestService_BudgetAlert(t *testing.T) {
	svc, _ := newTestService(t)
	w := walletWith(t, svc, "Food")
	require.NoError(t, svc.SetBudget(w, "Food", 100))

	_, alerts, err := svc.AddExpense(w, "Food", 150, "")
	require.NoError(t, err)

	require.Len(t, alerts, 2)
	assert.Equal(t, service.Alert{Kind: service.AlertBudgetExceeded, Category: "Food", Amount: 50}, alerts[0])
	assert.Contains(t, alerts[0].Message(), "Food")
	assert.Contains(t, alerts[0].Message(), "by 50")
	assert.Equal(t, service.AlertExpenseExceedsIncome, alerts[1].Kind)
	assert.InDelta(t, 150.0, alerts[1].Amount, 0)
}

func TestService_Alerts(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("no alert at exact limit", func(t *testing.T) {
		w := walletWith(t, svc, "Food", "Salary")
		require.NoError(t, svc.SetBudget(w, "Food", 100))
		_, _, err := svc.AddIncome(w, "Salary", 500, "")
		require.NoError(t, err)
		_, alerts, err := svc.AddExpense(w, "Food", 100, "")
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("overage equals negative remaining", func(t *testing.T) {
		w := walletWith(t, svc, "Food", "Salary")
		require.NoError(t, svc.SetBudget(w, "Food", 10.1))
		_, _, err := svc.AddIncome(w, "Salary", 1000, "")
		require.NoError(t, err)
		_, _, err = svc.AddExpense(w, "Food", 10.2, "")
		require.NoError(t, err)
		_, alerts, err := svc.AddExpense(w, "Food", 0.25, "")
		require.NoError(t, err)

		require.Len(t, alerts, 1)
		assert.InDelta(t, -svc.RemainingBudgetByCategory(w)["Food"], alerts[0].Amount, 0)
		assert.InDelta(t, 0.35, alerts[0].Amount, 0)
	})

	t.Run("income alert re-evaluated after income", func(t *testing.T) {
		w := walletWith(t, svc, "Food", "Salary")
		_, alerts, err := svc.AddExpense(w, "Food", 40, "")
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, service.AlertExpenseExceedsIncome, alerts[0].Kind)

		_, alerts, err = svc.AddIncome(w, "Salary", 30, "")
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.InDelta(t, 10.0, alerts[0].Amount, 0)

		_, alerts, err = svc.AddIncome(w, "Salary", 10, "")
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("unbudgeted category only checks income", func(t *testing.T) {
		w := walletWith(t, svc, "Food")
		assert.Empty(t, svc.Alerts(w, "Food"))
	})
}

type countingRecorder struct {
	ops    []model.Operation
	alerts int
	mu     sync.Mutex
}

func (r *countingRecorder) OperationRecorded(op model.Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *countingRecorder) AlertsEmitted(alerts []service.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts += len(alerts)
}

func TestService_Recorder(t *testing.T) {
	rec := &countingRecorder{}
	svc := NewService(WithRecorder(rec), WithIDGenerator(sequentialIDs()))
	w := walletWith(t, svc, "Food")

	op, alerts, err := svc.AddExpense(w, "Food", 10, "")
	require.NoError(t, err)
	_, _, err = svc.AddExpense(w, "Food", -1, "")
	require.Error(t, err)

	// Nothing is reported until the wallet has been saved.
	assert.Empty(t, rec.ops)
	assert.Zero(t, rec.alerts)

	svc.Committed(op, alerts)
	require.Len(t, rec.ops, 1)
	assert.Equal(t, op.ID, rec.ops[0].ID)
	assert.Equal(t, 1, rec.alerts)
}

func TestService_CommittedWithoutRecorder(t *testing.T) {
	svc := NewService()
	assert.NotPanics(t, func() { svc.Committed(model.Operation{}, nil) })
}

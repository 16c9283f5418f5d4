package ofx

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImporter() (*Importer, *ledger.Service) {
	n := 0
	l := ledger.NewService(ledger.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("op-%d", n)
	}))
	return NewImporter(l), l
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	entries, err := NewParser().ParseFile(ctx, strings.NewReader(sampleBankOFX))
	require.NoError(t, err)

	imp, l := newTestImporter()
	w := model.NewWallet()
	opts := ImportOptions{IncomeCategory: "Salary", ExpenseCategory: "Groceries"}

	calls := 0
	result, err := imp.Import(ctx, w, entries, opts, func() { calls++ })
	require.NoError(t, err)

	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Len(t, result.Operations, 3)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"Salary", "Groceries"}, w.Categories)

	require.Len(t, w.Operations, 3)
	first := w.Operations[0]
	assert.Equal(t, model.OperationIncome, first.Type)
	assert.Equal(t, "Salary", first.Category)
	assert.InDelta(t, 2500.0, first.Amount, 0)
	assert.True(t, first.CreatedAt.Equal(time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "ACME PAYROLL [ofx:2026010501]", first.Note)

	assert.Equal(t, model.OperationExpense, w.Operations[1].Type)
	assert.InDelta(t, 25.5, w.Operations[1].Amount, 0)
	assert.InDelta(t, 150.5, l.TotalExpense(w), 1e-9)

	t.Run("reimport skips known entries", func(t *testing.T) {
		again, err := imp.Import(ctx, w, entries, opts, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Imported)
		assert.Equal(t, 3, again.Skipped)
		assert.Len(t, w.Operations, 3)
	})

	t.Run("period report uses posting dates", func(t *testing.T) {
		r, err := l.BuildPeriodReport(w,
			time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Zero(t, r.TotalIncome)
		assert.InDelta(t, 150.5, r.TotalExpense, 1e-9)
	})
}

func TestImporter_ImportEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("categories required", func(t *testing.T) {
		imp, _ := newTestImporter()
		_, err := imp.Import(ctx, model.NewWallet(), nil, ImportOptions{IncomeCategory: "Salary"}, nil)
		assert.True(t, common.IsValidation(err))
	})

	t.Run("zero amounts are skipped", func(t *testing.T) {
		imp, _ := newTestImporter()
		w := model.NewWallet()
		result, err := imp.Import(ctx, w, []Entry{{FitID: "z", Amount: 0}, {Name: "cash", Amount: -3}},
			ImportOptions{IncomeCategory: "In", ExpenseCategory: "Out"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, "cash", w.Operations[0].Note)
		require.Len(t, result.Alerts, 1)
	})

	t.Run("canceled context", func(t *testing.T) {
		imp, _ := newTestImporter()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := imp.Import(cctx, model.NewWallet(), []Entry{{Amount: 1}},
			ImportOptions{IncomeCategory: "In", ExpenseCategory: "Out"}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

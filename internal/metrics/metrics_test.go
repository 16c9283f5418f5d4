package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.OperationRecorded(model.Operation{Type: model.OperationIncome})
	m.OperationRecorded(model.Operation{Type: model.OperationExpense})
	m.OperationRecorded(model.Operation{Type: model.OperationExpense})
	m.AlertsEmitted([]service.Alert{
		{Kind: service.AlertBudgetExceeded},
		{Kind: service.AlertExpenseExceedsIncome},
	})
	m.TransferFinished("completed")

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("INCOME")), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("EXPENSE")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.alerts.WithLabelValues("budget_exceeded")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.transfers.WithLabelValues("completed")), 0)

	// A second registry starts from zero.
	assert.InDelta(t, 0.0, testutil.ToFloat64(New().operations.WithLabelValues("INCOME")), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest("/v1/wallet", "GET", 200, 15*time.Millisecond)
	m.TransferFinished("rejected")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `purse_transfers_total{result="rejected"} 1`)
	assert.Contains(t, string(body), "purse_http_request_duration_seconds_count")
}

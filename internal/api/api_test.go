package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/purse/internal/auth"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/metrics"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/storage"
	"github.com/Veraticus/purse/internal/testutil"
	"github.com/Veraticus/purse/internal/transfer"
	"github.com/Veraticus/purse/internal/walletlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
	store *storage.SQLiteStorage
}

func createTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.SetupTestDB(t).Storage

	m := metrics.New()
	locks := walletlock.NewManager()
	ledgerSvc := ledger.NewService(ledger.WithRecorder(m))
	transfers := transfer.NewService(store, store, ledgerSvc, locks)
	transfers.SetObserver(m)

	srv := NewServer(Deps{
		Auth:      auth.NewService(store, store).WithCost(bcrypt.MinCost),
		Tokens:    auth.NewTokenIssuer("0123456789abcdef0123", time.Hour),
		Ledger:    ledgerSvc,
		Transfers: transfers,
		Wallets:   store,
		Locks:     locks,
		Metrics:   m,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (ts *testServer) signUp(t *testing.T, login string) string {
	t.Helper()
	creds := map[string]string{"login": login, "password": "secret"}

	status, _ := ts.do(t, http.MethodPost, "/v1/users", "", creds)
	require.Equal(t, http.StatusCreated, status)

	status, body := ts.do(t, http.MethodPost, "/v1/sessions", "", creds)
	require.Equal(t, http.StatusOK, status)
	token, ok := body["token"].(string)
	require.True(t, ok)
	return token
}

func TestAPI_Sessions(t *testing.T) {
	ts := createTestServer(t)
	ts.signUp(t, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"duplicate login", http.MethodPost, "/v1/users", map[string]string{"login": "alice", "password": "other"}, http.StatusBadRequest},
		{"short password", http.MethodPost, "/v1/users", map[string]string{"login": "bob", "password": "x"}, http.StatusBadRequest},
		{"wrong password", http.MethodPost, "/v1/sessions", map[string]string{"login": "alice", "password": "nope"}, http.StatusUnauthorized},
		{"unknown login", http.MethodPost, "/v1/sessions", map[string]string{"login": "ghost", "password": "secret"}, http.StatusUnauthorized},
		{"unknown field", http.MethodPost, "/v1/sessions", map[string]string{"user": "alice"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	ts := createTestServer(t)

	status, _ := ts.do(t, http.MethodGet, "/v1/wallet", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(t, http.MethodGet, "/v1/wallet", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	other := auth.NewTokenIssuer("another-secret-of-length", time.Hour)
	forged, err := other.Issue("alice")
	require.NoError(t, err)
	status, _ = ts.do(t, http.MethodGet, "/v1/wallet", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_WalletFlow(t *testing.T) {
	ts := createTestServer(t)
	token := ts.signUp(t, "alice")

	status, body := ts.do(t, http.MethodPost, "/v1/wallet/categories", token, map[string]string{"name": " Food "})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, []any{"Food"}, body["categories"])

	status, _ = ts.do(t, http.MethodPut, "/v1/wallet/budgets/Food", token, map[string]float64{"limit": 100})
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodPost, "/v1/wallet/income", token, map[string]any{"category": "Food", "amount": 200})
	require.Equal(t, http.StatusCreated, status)

	status, body = ts.do(t, http.MethodPost, "/v1/wallet/expense", token, map[string]any{"category": "Food", "amount": 150, "note": "groceries"})
	require.Equal(t, http.StatusCreated, status)
	alerts, ok := body["alerts"].([]any)
	require.True(t, ok)
	require.Len(t, alerts, 1)
	alert := alerts[0].(map[string]any)
	assert.Equal(t, "budget_exceeded", alert["kind"])
	assert.Equal(t, "Food", alert["category"])
	assert.InDelta(t, 50.0, alert["amount"], 1e-9)
	assert.Equal(t, `budget exceeded for category "Food" by 50`, alert["message"])

	status, body = ts.do(t, http.MethodGet, "/v1/wallet/sum?type=expense&categories=Food", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 150.0, body["total"], 1e-9)

	status, body = ts.do(t, http.MethodGet, "/v1/wallet/report", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 200.0, body["totalIncome"], 1e-9)
	assert.InDelta(t, 150.0, body["totalExpense"], 1e-9)
	assert.NotContains(t, body, "from")

	stored, err := ts.store.LoadWallet(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, stored.Operations, 2)
	assert.InDelta(t, 100.0, stored.Budgets["Food"], 0)
}

func TestAPI_ErrorMapping(t *testing.T) {
	ts := createTestServer(t)
	token := ts.signUp(t, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"expense in unknown category", http.MethodPost, "/v1/wallet/expense", map[string]any{"category": "Nope", "amount": 1}, http.StatusBadRequest},
		{"non-positive amount", http.MethodPost, "/v1/wallet/income", map[string]any{"category": "Nope", "amount": 0}, http.StatusBadRequest},
		{"budget for unknown category", http.MethodPut, "/v1/wallet/budgets/Nope", map[string]float64{"limit": 10}, http.StatusBadRequest},
		{"bad sum type", http.MethodGet, "/v1/wallet/sum?type=other&categories=Food", nil, http.StatusBadRequest},
		{"empty sum categories", http.MethodGet, "/v1/wallet/sum?type=income&categories=", nil, http.StatusBadRequest},
		{"bad report date", http.MethodGet, "/v1/wallet/report?from=2026-13-01&to=2026-01-31", nil, http.StatusBadRequest},
		{"reversed period", http.MethodGet, "/v1/wallet/report?from=2026-02-01&to=2026-01-31", nil, http.StatusBadRequest},
		{"half period", http.MethodGet, "/v1/wallet/report?from=2026-02-01", nil, http.StatusBadRequest},
		{"transfer to unknown user", http.MethodPost, "/v1/transfers", map[string]any{"to": "ghost", "amount": 5}, http.StatusNotFound},
		{"transfer to self", http.MethodPost, "/v1/transfers", map[string]any{"to": "alice", "amount": 5}, http.StatusBadRequest},
		{"password too long", http.MethodPost, "/v1/users", map[string]string{"login": "bob", "password": strings.Repeat("x", 73)}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}

	stored, err := ts.store.LoadWallet(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, stored.Operations)
}

func TestAPI_PeriodReport(t *testing.T) {
	ts := createTestServer(t)
	token := ts.signUp(t, "alice")

	w := testutil.NewWalletBuilder().
		WithOperation(model.OperationIncome, "Salary", 1000, time.Date(2026, 1, 15, 12, 0, 0, 0, time.Local)).
		WithOperation(model.OperationIncome, "Salary", 500, time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)).
		Build()
	require.NoError(t, ts.store.SaveWallet(context.Background(), "alice", w))

	status, body := ts.do(t, http.MethodGet, "/v1/wallet/report?from=2026-01-01&to=2026-01-31", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-01-01", body["from"])
	assert.Equal(t, "2026-01-31", body["to"])
	assert.InDelta(t, 1000.0, body["totalIncome"], 1e-9)
}

func TestAPI_Transfer(t *testing.T) {
	ts := createTestServer(t)
	alice := ts.signUp(t, "alice")
	bob := ts.signUp(t, "bob")

	status, body := ts.do(t, http.MethodPost, "/v1/transfers", alice, map[string]any{"to": "bob", "amount": 25.5, "note": "lunch"})
	require.Equal(t, http.StatusCreated, status)
	expense := body["expense"].(map[string]any)
	assert.Equal(t, model.TransferCategory, expense["category"])
	assert.Equal(t, "EXPENSE", expense["type"])

	alerts := body["alerts"].([]any)
	require.Len(t, alerts, 1)
	assert.Equal(t, "expense_exceeds_income", alerts[0].(map[string]any)["kind"])

	status, body = ts.do(t, http.MethodGet, "/v1/wallet/sum?type=income&categories=Transfer", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 25.5, body["total"], 1e-9)
}

func TestAPI_ConcurrentMutations(t *testing.T) {
	ts := createTestServer(t)
	token := ts.signUp(t, "alice")

	status, _ := ts.do(t, http.MethodPost, "/v1/wallet/categories", token, map[string]string{"name": "Salary"})
	require.Equal(t, http.StatusCreated, status)

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts.do(t, http.MethodPost, "/v1/wallet/income", token, map[string]any{"category": "Salary", "amount": 1})
		}()
	}
	wg.Wait()

	stored, err := ts.store.LoadWallet(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, stored.Operations, n)
}

func TestAPI_Operational(t *testing.T) {
	ts := createTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	token := ts.signUp(t, "alice")

	status, _ = ts.do(t, http.MethodPost, "/v1/wallet/income", token, map[string]any{"category": "Salary", "amount": 10})
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = ts.do(t, http.MethodPost, "/v1/wallet/categories", token, map[string]string{"name": "Salary"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = ts.do(t, http.MethodPost, "/v1/wallet/income", token, map[string]any{"category": "Salary", "amount": 10})
	require.Equal(t, http.StatusCreated, status)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `purse_http_request_duration_seconds_count{method="POST",route="/v1/users",status="201"} 1`)
	assert.Contains(t, string(data), `purse_operations_recorded_total{type="INCOME"} 1`)
}

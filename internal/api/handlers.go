package api

import (
	"net/http"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/go-chi/chi/v5"
)

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type userResponse struct {
	CreatedAt time.Time `json:"createdAt"`
	Login     string    `json:"login"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type budgetRequest struct {
	Limit float64 `json:"limit"`
}

type budgetResponse struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
}

type operationRequest struct {
	Category string  `json:"category"`
	Note     string  `json:"note"`
	Amount   float64 `json:"amount"`
}

type alertResponse struct {
	service.Alert
	Message string `json:"message"`
}

type operationResponse struct {
	Operation model.Operation `json:"operation"`
	Alerts    []alertResponse `json:"alerts"`
}

type sumResponse struct {
	Type       model.OperationType `json:"type"`
	Categories []string            `json:"categories"`
	Total      float64             `json:"total"`
}

type transferRequest struct {
	To     string  `json:"to"`
	Note   string  `json:"note"`
	Amount float64 `json:"amount"`
}

type transferResponse struct {
	Expense model.Operation `json:"expense"`
	Income  model.Operation `json:"income"`
	Alerts  []alertResponse `json:"alerts"`
}

type reportResponse struct {
	From              string                 `json:"from,omitempty"`
	To                string                 `json:"to,omitempty"`
	IncomeByCategory  []model.CategoryAmount `json:"incomeByCategory"`
	ExpenseByCategory []model.CategoryAmount `json:"expenseByCategory"`
	Budgets           []model.BudgetLine     `json:"budgets"`
	TotalIncome       float64                `json:"totalIncome"`
	TotalExpense      float64                `json:"totalExpense"`
}

func newAlertResponses(alerts []service.Alert) []alertResponse {
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{Alert: a, Message: a.Message()})
	}
	return out
}

func newReportResponse(r service.Report) reportResponse {
	resp := reportResponse{
		IncomeByCategory:  r.IncomeByCategory,
		ExpenseByCategory: r.ExpenseByCategory,
		Budgets:           r.Budgets,
		TotalIncome:       r.TotalIncome,
		TotalExpense:      r.TotalExpense,
	}
	if r.Period != nil {
		resp.From = r.Period.From.Format(ledger.DateLayout)
		resp.To = r.Period.To.Format(ledger.DateLayout)
	}
	return resp
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	user, err := s.auth.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{Login: user.Login, CreatedAt: user.CreatedAt})
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(user.Login)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) walletHandler(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.wallets.LoadWallet(r.Context(), LoginFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (s *Server) addCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	wallet, err := s.mutateWallet(r.Context(), LoginFromContext(r.Context()), func(wallet *model.Wallet) error {
		return s.ledger.AddCategory(wallet, req.Name)
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string][]string{"categories": wallet.Categories})
}

func (s *Server) setBudgetHandler(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	_, err := s.mutateWallet(r.Context(), LoginFromContext(r.Context()), func(wallet *model.Wallet) error {
		return s.ledger.SetBudget(wallet, category, req.Limit)
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{Category: category, Limit: req.Limit})
}

func (s *Server) recordHandler(typ model.OperationType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req operationRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err)
			return
		}

		var (
			op     model.Operation
			alerts []service.Alert
		)
		_, err := s.mutateWallet(r.Context(), LoginFromContext(r.Context()), func(wallet *model.Wallet) error {
			var err error
			op, alerts, err = s.ledger.Record(wallet, typ, req.Category, req.Amount, req.Note, time.Time{})
			return err
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		s.ledger.Committed(op, alerts)
		writeJSON(w, http.StatusCreated, operationResponse{Operation: op, Alerts: newAlertResponses(alerts)})
	}
}

func (s *Server) sumHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	typ, err := model.ParseOperationType(q.Get("type"))
	if err != nil {
		handleServiceError(w, r, common.NewValidationError("type", err.Error()))
		return
	}
	categories, err := ledger.ParseCategoriesCSV(q.Get("categories"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	wallet, err := s.wallets.LoadWallet(r.Context(), LoginFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	total, err := s.ledger.SumByCategories(wallet, typ, categories)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sumResponse{Type: typ, Categories: categories, Total: total})
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	from, err := parseQueryDate(r, "from")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	to, err := parseQueryDate(r, "to")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	wallet, err := s.wallets.LoadWallet(r.Context(), LoginFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if from.IsZero() && to.IsZero() {
		writeJSON(w, http.StatusOK, newReportResponse(s.ledger.BuildStatsReport(wallet)))
		return
	}
	report, err := s.ledger.BuildPeriodReport(wallet, from, to)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

func (s *Server) transferHandler(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	receipt, err := s.transfers.TransferBetween(r.Context(), LoginFromContext(r.Context()), req.To, req.Amount, req.Note)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transferResponse{
		Expense: receipt.Expense,
		Income:  receipt.Income,
		Alerts:  newAlertResponses(receipt.Alerts),
	})
}

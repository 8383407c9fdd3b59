package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/accounting/ledger"
	"github.com/scalpi-pos/api/internal/database"
)

// --- Store interface ---

// ReportStore defines the database methods needed by report handlers.
// Reports are recomputed from full tables on every read.
type ReportStore interface {
	ListOperations(ctx context.Context) ([]database.Operation, error)
	ListEmployees(ctx context.Context) ([]database.Employee, error)
	ListSaleRecords(ctx context.Context) ([]database.SaleRecord, error)
	ListAssortmentItems(ctx context.Context) ([]database.AssortmentItem, error)
}

// --- ReportHandler ---

// ReportHandler handles the derived bookkeeping views.
type ReportHandler struct {
	store  ReportStore
	logger *zap.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{store: store, logger: logger}
}

// RegisterRoutes registers report endpoints. Expected mount: /api/reports
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/incomes", h.GetIncomes)
	r.Get("/salaries", h.GetSalaries)
	r.Get("/debts", h.GetDebts)
	r.Get("/integrity", h.GetIntegrity)
}

// --- Response types ---

type incomeRowResponse struct {
	Month          string `json:"month"`
	Income         string `json:"income"`
	Profit         string `json:"profit"`
	CashIn         string `json:"cashin"`
	IncomeCash     string `json:"income_cash"`
	ProfitCash     string `json:"profit_cash"`
	CashInCash     string `json:"cashin_cash"`
	IncomeCashless string `json:"income_cashless"`
	ProfitCashless string `json:"profit_cashless"`
	CashInCashless string `json:"cashin_cashless"`
}

type salaryRowResponse struct {
	Month      string `json:"month"`
	EmployeeID string `json:"employee_id"`
	Employee   string `json:"employee"`
	Total      string `json:"total"`
	Paid       string `json:"paid"`
	ToPay      string `json:"to_pay"`
}

type debtRowResponse struct {
	Month      string `json:"month"`
	EmployeeID string `json:"employee_id"`
	Employee   string `json:"employee"`
	Debt       string `json:"debt"`
}

type issueResponse struct {
	Kind     string `json:"kind"`
	Source   string `json:"source"`
	Ref      string `json:"ref"`
	Employee string `json:"employee"`
	Month    string `json:"month"`
}

// --- Data loading ---

func (h *ReportHandler) loadLedger(ctx context.Context) ([]ledger.Operation, *ledger.Directory, error) {
	ops, err := h.store.ListOperations(ctx)
	if err != nil {
		return nil, nil, err
	}
	employees, err := h.store.ListEmployees(ctx)
	if err != nil {
		return nil, nil, err
	}
	return toLedgerOperations(ops), ledger.NewDirectory(toLedgerEmployees(employees)), nil
}

func (h *ReportHandler) loadSales(ctx context.Context) ([]ledger.Sale, map[string]decimal.Decimal, error) {
	sales, err := h.store.ListSaleRecords(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := h.store.ListAssortmentItems(ctx)
	if err != nil {
		return nil, nil, err
	}
	return toLedgerSales(sales), itemCosts(items), nil
}

func (h *ReportHandler) logIssues(view string, issues []ledger.Issue) {
	for _, is := range issues {
		h.logger.Warn("report row excluded",
			zap.String("view", view),
			zap.String("kind", is.Kind),
			zap.String("source", is.Source),
			zap.String("ref", is.Ref),
			zap.String("employee", is.Employee),
			zap.String("month", is.Month),
		)
	}
}

// monthFilter reads the optional ?month=YYYY-MM query parameter.
func monthFilter(r *http.Request) (string, bool) {
	m := r.URL.Query().Get("month")
	if m == "" {
		return "", true
	}
	if _, err := time.Parse("2006-01", m); err != nil {
		return "", false
	}
	return m, true
}

// --- Handlers ---

// GetIncomes returns monthly income, profit and owner cash-in.
func (h *ReportHandler) GetIncomes(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFilter(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month, use YYYY-MM"})
		return
	}

	ops, dir, err := h.loadLedger(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "load ledger", err)
		return
	}

	rows, issues := ledger.Incomes(ops, dir)
	h.logIssues("incomes", issues)

	resp := []incomeRowResponse{}
	for _, row := range rows {
		if month != "" && row.Month != month {
			continue
		}
		resp = append(resp, incomeRowResponse{
			Month:          row.Month,
			Income:         decimalString(row.Income),
			Profit:         decimalString(row.Profit),
			CashIn:         decimalString(row.CashIn),
			IncomeCash:     decimalString(row.IncomeCash),
			ProfitCash:     decimalString(row.ProfitCash),
			CashInCash:     decimalString(row.CashInCash),
			IncomeCashless: decimalString(row.IncomeCashless),
			ProfitCashless: decimalString(row.ProfitCashless),
			CashInCashless: decimalString(row.CashInCashless),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSalaries returns accrued and paid commission per employee-month.
func (h *ReportHandler) GetSalaries(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFilter(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month, use YYYY-MM"})
		return
	}

	ops, dir, err := h.loadLedger(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "load ledger", err)
		return
	}

	rows, issues := ledger.Salaries(ops, dir)
	h.logIssues("salaries", issues)

	resp := []salaryRowResponse{}
	for _, row := range rows {
		if month != "" && row.Month != month {
			continue
		}
		resp = append(resp, salaryRowResponse{
			Month:      row.Month,
			EmployeeID: row.EmployeeID,
			Employee:   row.Employee,
			Total:      decimalString(row.Total),
			Paid:       decimalString(row.Paid),
			ToPay:      decimalString(row.ToPay),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDebts returns what owners owe for goods they took, per month.
func (h *ReportHandler) GetDebts(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFilter(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month, use YYYY-MM"})
		return
	}

	_, dir, err := h.loadLedger(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "load ledger", err)
		return
	}
	sales, costs, err := h.loadSales(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "load sales", err)
		return
	}

	rows, issues := ledger.Debts(sales, costs, dir)
	h.logIssues("debts", issues)

	resp := []debtRowResponse{}
	for _, row := range rows {
		if month != "" && row.Month != month {
			continue
		}
		resp = append(resp, debtRowResponse{
			Month:      row.Month,
			EmployeeID: row.EmployeeID,
			Employee:   row.Employee,
			Debt:       decimalString(row.Debt),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetIntegrity lists ledger and sales rows that reference an employee or
// item the registries no longer know, so they silently drop out of the
// other views.
func (h *ReportHandler) GetIntegrity(w http.ResponseWriter, r *http.Request) {
	ops, dir, err := h.loadLedger(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "load ledger", err)
		return
	}
	sales, costs, err := h.loadSales(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "load sales", err)
		return
	}

	_, incomeIssues := ledger.Incomes(ops, dir)
	_, salaryIssues := ledger.Salaries(ops, dir)
	_, debtIssues := ledger.Debts(sales, costs, dir)

	type issueKey struct{ kind, source, ref string }
	seen := map[issueKey]bool{}
	resp := []issueResponse{}
	for _, group := range [][]ledger.Issue{incomeIssues, salaryIssues, debtIssues} {
		for _, is := range group {
			k := issueKey{is.Kind, is.Source, is.Ref}
			if seen[k] {
				continue
			}
			seen[k] = true
			resp = append(resp, issueResponse{
				Kind:     is.Kind,
				Source:   is.Source,
				Ref:      is.Ref,
				Employee: is.Employee,
				Month:    is.Month,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

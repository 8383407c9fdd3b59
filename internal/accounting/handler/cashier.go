package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/accounting/ledger"
	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
	"github.com/scalpi-pos/api/internal/middleware"
	"github.com/scalpi-pos/api/internal/service"
)

// --- Store interface ---

// CashierStore defines the database methods needed by the cashier view.
type CashierStore interface {
	ListOperations(ctx context.Context) ([]database.Operation, error)
	GetSetting(ctx context.Context, key string) (database.AppSetting, error)
	UpsertSetting(ctx context.Context, arg database.UpsertSettingParams) (database.AppSetting, error)
}

// --- Handler ---

// CashierHandler serves the running cash/cashless balance and the cashless
// tax setting.
type CashierHandler struct {
	store  CashierStore
	events Broadcaster
	logger *zap.Logger
}

// NewCashierHandler creates a new CashierHandler.
func NewCashierHandler(store CashierStore, events Broadcaster, logger *zap.Logger) *CashierHandler {
	return &CashierHandler{store: store, events: orNop(events), logger: logger}
}

// RegisterRoutes registers cashier endpoints. Expected mount: /api/cashier,
// behind middleware.Authenticate.
func (h *CashierHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.GetCashier)
	r.With(middleware.RequireRole(enum.UserRoleOwner)).Put("/tax-cashless", h.SetTaxCashless)
}

// --- Request / Response types ---

type cashierResponse struct {
	Cash        string `json:"cash"`
	Cashless    string `json:"cashless"`
	TaxCashless string `json:"tax_cashless"`
}

type taxRequest struct {
	Percent json.Number `json:"percent"`
}

// --- Handlers ---

// GetCashier recomputes both balances from the whole ledger.
func (h *CashierHandler) GetCashier(w http.ResponseWriter, r *http.Request) {
	resp, err := h.cashier(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "get cashier", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetTaxCashless stores the cashless tax percent. Negative input is stored
// as zero; anything above 100 is rejected.
func (h *CashierHandler) SetTaxCashless(w http.ResponseWriter, r *http.Request) {
	var req taxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	percent, err := decimal.NewFromString(req.Percent.String())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid percent"})
		return
	}

	if _, err := service.SetTaxCashless(r.Context(), h.store, percent); err != nil {
		if errors.Is(err, service.ErrInvalidTax) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeStoreError(w, h.logger, "set tax cashless", err)
		return
	}

	resp, err := h.cashier(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "get cashier", err)
		return
	}
	h.events.Publish(enum.ChannelLedger, "cashier.changed", resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *CashierHandler) cashier(ctx context.Context) (cashierResponse, error) {
	rows, err := h.store.ListOperations(ctx)
	if err != nil {
		return cashierResponse{}, err
	}
	tax, err := service.TaxCashless(ctx, h.store)
	if err != nil {
		return cashierResponse{}, err
	}
	balance := ledger.CashBalance(toLedgerOperations(rows))
	return cashierResponse{
		Cash:        decimalString(balance.Cash),
		Cashless:    decimalString(balance.Cashless),
		TaxCashless: tax.String(),
	}, nil
}

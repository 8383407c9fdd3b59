package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/accounting/ledger"
	"github.com/scalpi-pos/api/internal/database"
)

// Broadcaster pushes change events to live dashboard tabs. Satisfied by
// *ws.Hub.
type Broadcaster interface {
	Publish(channel, eventType string, payload any)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(string, string, any) {}

func orNop(b Broadcaster) Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}

func writeStoreError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	if database.IsUndefinedTable(err) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store not initialized"})
		return
	}
	logger.Error(msg, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func parsePagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		fmt.Sscanf(v, "%d", &offset)
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func numericToString(n pgtype.Numeric) string {
	return database.NumericToDecimal(n).StringFixed(2)
}

func decimalString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// --- Row conversion for the derivation engine ---

func toLedgerOperations(rows []database.Operation) []ledger.Operation {
	ops := make([]ledger.Operation, len(rows))
	for i, r := range rows {
		ops[i] = ledger.Operation{
			ID:           r.ID.String(),
			Type:         r.OpType,
			Date:         r.OpDate.Time,
			Amount:       database.NumericToDecimal(r.Amount),
			Method:       r.PaymentMethod,
			EmployeeID:   r.EmployeeID.String,
			EmployeeName: r.EmployeeName,
		}
	}
	return ops
}

func toLedgerEmployees(rows []database.Employee) []ledger.Employee {
	emps := make([]ledger.Employee, len(rows))
	for i, r := range rows {
		emps[i] = ledger.Employee{
			ID:      r.ID,
			Name:    r.Name,
			Owner:   r.IsOwner,
			Percent: database.NumericToDecimal(r.Percent),
		}
	}
	return emps
}

func toLedgerSales(rows []database.SaleRecord) []ledger.Sale {
	sales := make([]ledger.Sale, len(rows))
	for i, r := range rows {
		sales[i] = ledger.Sale{
			ID:           r.ID.String(),
			Barcode:      r.Barcode,
			Quantity:     r.Quantity,
			EmployeeID:   r.EmployeeID,
			EmployeeName: r.EmployeeName,
			Date:         r.SaleDate.Time,
		}
	}
	return sales
}

// itemCosts looks up cost by barcode at read time.
func itemCosts(rows []database.AssortmentItem) map[string]decimal.Decimal {
	costs := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		costs[r.Barcode] = database.NumericToDecimal(r.Cost)
	}
	return costs
}

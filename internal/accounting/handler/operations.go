package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
	"github.com/scalpi-pos/api/internal/service"
)

// --- Store interface ---

type OperationStore interface {
	ListOperationsPage(ctx context.Context, arg database.ListOperationsPageParams) ([]database.Operation, error)
}

// OperationPoster writes ledger rows. Satisfied by *service.OperationService.
type OperationPoster interface {
	Post(ctx context.Context, req service.PostOperationRequest) (database.Operation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// --- OperationHandler ---

type OperationHandler struct {
	store  OperationStore
	poster OperationPoster
	events Broadcaster
	logger *zap.Logger
}

func NewOperationHandler(store OperationStore, poster OperationPoster, events Broadcaster, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{store: store, poster: poster, events: orNop(events), logger: logger}
}

func (h *OperationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListOperations)
	r.Post("/", h.CreateOperation)
	r.Delete("/{id}", h.DeleteOperation)
}

// --- Request / Response types ---

type operationResponse struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Date          string    `json:"date"`
	Amount        string    `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	EmployeeID    *string   `json:"employee_id"`
	Employee      string    `json:"employee"`
	Note          string    `json:"note"`
	TaxNote       string    `json:"tax_note"`
	CreatedAt     time.Time `json:"created_at"`
}

func toOperationResponse(op database.Operation) operationResponse {
	resp := operationResponse{
		ID:            op.ID,
		Type:          op.OpType,
		Amount:        numericToString(op.Amount),
		PaymentMethod: op.PaymentMethod,
		Employee:      op.EmployeeName,
		Note:          op.Note,
		TaxNote:       op.TaxNote,
		CreatedAt:     op.CreatedAt,
	}
	if op.OpDate.Valid {
		resp.Date = op.OpDate.Time.Format("2006-01-02")
	}
	if op.EmployeeID.Valid {
		id := op.EmployeeID.String
		resp.EmployeeID = &id
	}
	return resp
}

type createOperationRequest struct {
	Type          string `json:"type"`
	PaymentMethod string `json:"payment_method"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	EmployeeID    string `json:"employee_id"`
	Employee      string `json:"employee"`
	Note          string `json:"note"`
}

// --- Handlers ---

// ListOperations returns ledger rows, newest first, with optional date and
// type filters.
func (h *OperationHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	params := database.ListOperationsPageParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if v := r.URL.Query().Get("start_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date"})
			return
		}
		params.StartDate = pgtype.Date{Time: d, Valid: true}
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date"})
			return
		}
		params.EndDate = pgtype.Date{Time: d, Valid: true}
	}
	if v := r.URL.Query().Get("type"); v != "" {
		if !enum.IsOperationType(v) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid type"})
			return
		}
		params.OpType = pgtype.Text{String: v, Valid: true}
	}

	ops, err := h.store.ListOperationsPage(r.Context(), params)
	if err != nil {
		writeStoreError(w, h.logger, "list operations", err)
		return
	}

	resp := make([]operationResponse, len(ops))
	for i, op := range ops {
		resp[i] = toOperationResponse(op)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateOperation posts one ledger row. Cashless income is stored net of
// the configured tax.
func (h *OperationHandler) CreateOperation(w http.ResponseWriter, r *http.Request) {
	var req createOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}
	if err := database.CheckMoney(amount); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount: " + err.Error()})
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
			return
		}
	}

	op, err := h.poster.Post(r.Context(), service.PostOperationRequest{
		Type:         req.Type,
		Method:       req.PaymentMethod,
		Amount:       amount,
		Date:         date,
		EmployeeID:   strings.TrimSpace(req.EmployeeID),
		EmployeeName: strings.TrimSpace(req.Employee),
		Note:         req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOperationType),
			errors.Is(err, service.ErrInvalidPaymentMethod),
			errors.Is(err, service.ErrNegativeAmount):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrEmployeeNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			writeStoreError(w, h.logger, "create operation", err)
		}
		return
	}

	resp := toOperationResponse(op)
	h.events.Publish(enum.ChannelLedger, "operation.created", resp)
	writeJSON(w, http.StatusCreated, resp)
}

// DeleteOperation removes one ledger row by id.
func (h *OperationHandler) DeleteOperation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid operation ID"})
		return
	}

	if err := h.poster.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrOperationNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "operation not found"})
			return
		}
		writeStoreError(w, h.logger, "delete operation", err)
		return
	}

	h.events.Publish(enum.ChannelLedger, "operation.deleted", map[string]string{"id": id.String()})
	w.WriteHeader(http.StatusNoContent)
}

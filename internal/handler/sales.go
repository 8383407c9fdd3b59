package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
	"github.com/scalpi-pos/api/internal/service"
)

// SaleStore defines the read side of the sales history.
type SaleStore interface {
	ListSaleRecords(ctx context.Context) ([]database.SaleRecord, error)
}

// SaleRecorder runs the sale workflow. Satisfied by *service.SaleService.
type SaleRecorder interface {
	AddSale(ctx context.Context, req service.AddSaleRequest) (*service.AddSaleResult, error)
}

// SaleHandler handles the sales history and the sale workflow endpoint.
type SaleHandler struct {
	store  SaleStore
	sales  SaleRecorder
	events Broadcaster
	logger *zap.Logger
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(store SaleStore, sales SaleRecorder, events Broadcaster, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{store: store, sales: sales, events: orNop(events), logger: logger}
}

// RegisterRoutes registers sales endpoints. Expected mount: /api/sales
func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type createSaleRequest struct {
	Barcode       string `json:"barcode"`
	Quantity      int32  `json:"quantity"`
	EmployeeID    string `json:"employee_id"`
	PaymentMethod string `json:"payment_method"`
}

type saleResponse struct {
	ID            uuid.UUID  `json:"id"`
	Barcode       string     `json:"barcode"`
	Name          string     `json:"name"`
	Quantity      int32      `json:"quantity"`
	Price         string     `json:"price"`
	Total         string     `json:"total"`
	PaymentMethod string     `json:"payment_method"`
	EmployeeID    string     `json:"employee_id"`
	Employee      string     `json:"employee"`
	Date          string     `json:"date"`
	OperationID   *uuid.UUID `json:"operation_id"`
}

func toSaleResponse(s database.SaleRecord) saleResponse {
	resp := saleResponse{
		ID:            s.ID,
		Barcode:       s.Barcode,
		Name:          s.ItemName,
		Quantity:      s.Quantity,
		Price:         money(s.Price),
		Total:         money(s.Total),
		PaymentMethod: s.PaymentMethod,
		EmployeeID:    s.EmployeeID,
		Employee:      s.EmployeeName,
		Date:          dateString(s.SaleDate),
	}
	if s.OperationID.Valid {
		id := uuid.UUID(s.OperationID.Bytes)
		resp.OperationID = &id
	}
	return resp
}

func toSaleResponses(sales []database.SaleRecord) []saleResponse {
	resp := make([]saleResponse, len(sales))
	for i, s := range sales {
		resp[i] = toSaleResponse(s)
	}
	return resp
}

// --- Handlers ---

// List returns the sales history, newest first.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := h.store.ListSaleRecords(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "list sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponses(sales))
}

// Create sells one item and returns the updated sales history.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Barcode == "" || req.EmployeeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "barcode and employee_id are required"})
		return
	}

	result, err := h.sales.AddSale(r.Context(), service.AddSaleRequest{
		Barcode:       req.Barcode,
		Quantity:      req.Quantity,
		EmployeeID:    req.EmployeeID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidPaymentMethod),
			errors.Is(err, service.ErrInvalidOperationType),
			errors.Is(err, service.ErrNegativeAmount):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrItemNotFound),
			errors.Is(err, service.ErrEmployeeNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInsufficientStock):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeStoreError(w, h.logger, "create sale", err)
		}
		return
	}

	h.events.Publish(enum.ChannelInventory, "sale.created", toSaleResponse(result.Sale))
	h.events.Publish(enum.ChannelInventory, "item.changed", toItemResponse(result.Item))
	if result.Operation != nil {
		h.events.Publish(enum.ChannelLedger, "operation.created", map[string]any{
			"id":     result.Operation.ID,
			"type":   result.Operation.OpType,
			"amount": money(result.Operation.Amount),
		})
	}

	writeJSON(w, http.StatusCreated, toSaleResponses(result.Sales))
}

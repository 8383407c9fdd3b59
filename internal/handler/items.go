package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
)

// ItemStore defines the database methods needed by inventory handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ItemStore interface {
	ListAssortmentItems(ctx context.Context) ([]database.AssortmentItem, error)
	GetAssortmentItem(ctx context.Context, barcode string) (database.AssortmentItem, error)
	CreateAssortmentItem(ctx context.Context, arg database.CreateAssortmentItemParams) (database.AssortmentItem, error)
	UpdateAssortmentItem(ctx context.Context, arg database.UpdateAssortmentItemParams) (database.AssortmentItem, error)
	DeleteAssortmentItem(ctx context.Context, barcode string) (string, error)
}

// ItemHandler handles inventory CRUD endpoints. Every write answers with
// the full item list so the dashboard can replace its table in one step.
type ItemHandler struct {
	store  ItemStore
	events Broadcaster
	logger *zap.Logger
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(store ItemStore, events Broadcaster, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{store: store, events: orNop(events), logger: logger}
}

// RegisterRoutes registers inventory endpoints. Expected mount: /api/items
func (h *ItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{barcode}", h.Get)
	r.Post("/", h.Create)
	r.Patch("/{barcode}", h.Update)
	r.Delete("/{barcode}", h.Delete)
}

// --- Request / Response types ---

type createItemRequest struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	Price   string `json:"price"`
	Cost    string `json:"cost"`
	Stock   int32  `json:"stock"`
	Photo   string `json:"photo"`
}

// updateItemRequest carries only the fields to change.
type updateItemRequest struct {
	Name  *string `json:"name"`
	Unit  *string `json:"unit"`
	Price *string `json:"price"`
	Cost  *string `json:"cost"`
	Stock *int32  `json:"stock"`
	Photo *string `json:"photo"`
}

type itemResponse struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	Price   string `json:"price"`
	Cost    string `json:"cost"`
	Stock   int32  `json:"stock"`
	Photo   string `json:"photo"`
}

func toItemResponse(i database.AssortmentItem) itemResponse {
	return itemResponse{
		Barcode: i.Barcode,
		Name:    i.Name,
		Unit:    i.Unit,
		Price:   money(i.Price),
		Cost:    money(i.Cost),
		Stock:   i.Stock,
		Photo:   i.PhotoUrl,
	}
}

// --- Helpers ---

var errNegativeMoney = errors.New("negative amount")

// parseMoney parses a non-negative amount with at most two decimals.
// Empty input reads as zero.
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegativeMoney
	}
	if err := database.CheckMoney(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func optionalText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: strings.TrimSpace(*s), Valid: true}
}

// writeItems answers with the full list after a write.
func (h *ItemHandler) writeItems(w http.ResponseWriter, r *http.Request, status int) {
	items, err := h.store.ListAssortmentItems(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "list items", err)
		return
	}
	resp := make([]itemResponse, len(items))
	for i, it := range items {
		resp[i] = toItemResponse(it)
	}
	writeJSON(w, status, resp)
}

// --- Handlers ---

// List returns every inventory item.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeItems(w, r, http.StatusOK)
}

// Get returns a single item by barcode.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(chi.URLParam(r, "barcode"))

	item, err := h.store.GetAssortmentItem(r.Context(), barcode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		writeStoreError(w, h.logger, "get item", err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Create adds an inventory item and returns the updated list.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Name = strings.TrimSpace(req.Name)
	if req.Barcode == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "barcode and name are required"})
		return
	}
	if req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock must be >= 0"})
		return
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}
	cost, err := parseMoney(req.Cost)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cost"})
		return
	}

	item, err := h.store.CreateAssortmentItem(r.Context(), database.CreateAssortmentItemParams{
		Barcode:  req.Barcode,
		Name:     req.Name,
		Unit:     strings.TrimSpace(req.Unit),
		Price:    database.DecimalToNumeric(price),
		Cost:     database.DecimalToNumeric(cost),
		Stock:    req.Stock,
		PhotoUrl: strings.TrimSpace(req.Photo),
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "barcode already exists"})
			return
		}
		writeStoreError(w, h.logger, "create item", err)
		return
	}

	h.events.Publish(enum.ChannelInventory, "item.changed", toItemResponse(item))
	h.writeItems(w, r, http.StatusCreated)
}

// Update applies a partial change to one item and returns the updated list.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(chi.URLParam(r, "barcode"))

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params := database.UpdateAssortmentItemParams{
		Barcode:  barcode,
		Name:     optionalText(req.Name),
		Unit:     optionalText(req.Unit),
		PhotoUrl: optionalText(req.Photo),
	}
	if params.Name.Valid && params.Name.String == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name cannot be empty"})
		return
	}
	if req.Price != nil {
		price, err := parseMoney(*req.Price)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
			return
		}
		params.Price = database.DecimalToNumeric(price)
	}
	if req.Cost != nil {
		cost, err := parseMoney(*req.Cost)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cost"})
			return
		}
		params.Cost = database.DecimalToNumeric(cost)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock must be >= 0"})
			return
		}
		params.Stock = pgtype.Int4{Int32: *req.Stock, Valid: true}
	}

	item, err := h.store.UpdateAssortmentItem(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		writeStoreError(w, h.logger, "update item", err)
		return
	}

	h.events.Publish(enum.ChannelInventory, "item.changed", toItemResponse(item))
	h.writeItems(w, r, http.StatusOK)
}

// Delete removes an item and returns the updated list. Sales history keeps
// its snapshot of the item.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(chi.URLParam(r, "barcode"))

	if _, err := h.store.DeleteAssortmentItem(r.Context(), barcode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		writeStoreError(w, h.logger, "delete item", err)
		return
	}

	h.events.Publish(enum.ChannelInventory, "item.deleted", map[string]string{"barcode": barcode})
	h.writeItems(w, r, http.StatusOK)
}

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

	"github.com/scalpi-pos/api/internal/altegio"
	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
)

// EmployeeStore defines the database methods needed by employee handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type EmployeeStore interface {
	ListEmployees(ctx context.Context) ([]database.Employee, error)
	GetEmployee(ctx context.Context, id string) (database.Employee, error)
	CreateEmployee(ctx context.Context, arg database.CreateEmployeeParams) (database.Employee, error)
	UpdateEmployee(ctx context.Context, arg database.UpdateEmployeeParams) (database.Employee, error)
	DeleteEmployee(ctx context.Context, id string) (string, error)
}

// StaffSyncer pulls the external staff directory into the registry.
// Satisfied by *altegio.Syncer.
type StaffSyncer interface {
	Sync(ctx context.Context) (altegio.SyncResult, error)
}

// EmployeeHandler handles the employee registry endpoints.
type EmployeeHandler struct {
	store  EmployeeStore
	syncer StaffSyncer
	events Broadcaster
	logger *zap.Logger
}

// NewEmployeeHandler creates a new EmployeeHandler. syncer may be nil when
// the staff directory is not configured.
func NewEmployeeHandler(store EmployeeStore, syncer StaffSyncer, events Broadcaster, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{store: store, syncer: syncer, events: orNop(events), logger: logger}
}

// RegisterRoutes registers employee endpoints. Expected mount: /api/employees
func (h *EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/sync", h.Sync)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createEmployeeRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Owner          bool   `json:"owner"`
	Percent        string `json:"percent"`
}

type updateEmployeeRequest struct {
	Name           *string `json:"name"`
	Specialization *string `json:"specialization"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	Owner          *bool   `json:"owner"`
	Percent        *string `json:"percent"`
}

type employeeResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Owner          bool   `json:"owner"`
	Percent        string `json:"percent"`
}

func toEmployeeResponse(e database.Employee) employeeResponse {
	return employeeResponse{
		ID:             e.ID,
		Name:           e.Name,
		Specialization: e.Specialization,
		Phone:          e.Phone,
		Email:          e.Email,
		Owner:          e.IsOwner,
		Percent:        money(e.Percent),
	}
}

var errPercentRange = errors.New("percent must be between 0 and 100")

func parsePercent(s string) (decimal.Decimal, error) {
	p, err := parseMoney(s)
	if err != nil {
		return decimal.Zero, errPercentRange
	}
	if p.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, errPercentRange
	}
	return p, nil
}

func (h *EmployeeHandler) writeEmployees(w http.ResponseWriter, r *http.Request, status int) {
	employees, err := h.store.ListEmployees(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "list employees", err)
		return
	}
	resp := make([]employeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = toEmployeeResponse(e)
	}
	writeJSON(w, status, resp)
}

// --- Handlers ---

// List returns the whole registry.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeEmployees(w, r, http.StatusOK)
}

// Get returns one employee by external id.
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	emp, err := h.store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return
		}
		writeStoreError(w, h.logger, "get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

// Create registers an employee by hand, for staff the directory does not
// know about.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and name are required"})
		return
	}
	percent, err := parsePercent(req.Percent)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	emp, err := h.store.CreateEmployee(r.Context(), database.CreateEmployeeParams{
		ID:             req.ID,
		Name:           req.Name,
		Specialization: strings.TrimSpace(req.Specialization),
		Phone:          strings.TrimSpace(req.Phone),
		Email:          strings.TrimSpace(req.Email),
		IsOwner:        req.Owner,
		Percent:        database.DecimalToNumeric(percent),
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "employee id already exists"})
			return
		}
		writeStoreError(w, h.logger, "create employee", err)
		return
	}

	h.events.Publish(enum.ChannelStaff, "employee.changed", toEmployeeResponse(emp))
	h.writeEmployees(w, r, http.StatusCreated)
}

// Update applies a partial change and returns the whole registry. The id
// itself is immutable.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params := database.UpdateEmployeeParams{
		ID:             id,
		Name:           optionalText(req.Name),
		Specialization: optionalText(req.Specialization),
		Phone:          optionalText(req.Phone),
		Email:          optionalText(req.Email),
	}
	if params.Name.Valid && params.Name.String == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name cannot be empty"})
		return
	}
	if req.Owner != nil {
		params.IsOwner = pgtype.Bool{Bool: *req.Owner, Valid: true}
	}
	if req.Percent != nil {
		percent, err := parsePercent(*req.Percent)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		params.Percent = database.DecimalToNumeric(percent)
	}

	emp, err := h.store.UpdateEmployee(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return
		}
		writeStoreError(w, h.logger, "update employee", err)
		return
	}

	h.events.Publish(enum.ChannelStaff, "employee.changed", toEmployeeResponse(emp))
	h.writeEmployees(w, r, http.StatusOK)
}

// Delete removes an employee. Ledger rows keep the name they were posted
// with.
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.store.DeleteEmployee(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return
		}
		writeStoreError(w, h.logger, "delete employee", err)
		return
	}

	h.events.Publish(enum.ChannelStaff, "employee.deleted", map[string]string{"id": id})
	h.writeEmployees(w, r, http.StatusOK)
}

// Sync runs the staff directory import on demand.
func (h *EmployeeHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "staff directory not configured"})
		return
	}

	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, altegio.ErrNotConfigured):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "staff directory not configured"})
		case errors.Is(err, altegio.ErrUpstream):
			h.logger.Warn("staff directory sync", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "staff directory unavailable"})
		default:
			writeStoreError(w, h.logger, "staff directory sync", err)
		}
		return
	}

	h.events.Publish(enum.ChannelStaff, "employees.synced", result)
	writeJSON(w, http.StatusOK, result)
}

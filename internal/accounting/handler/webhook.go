package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
	"github.com/scalpi-pos/api/internal/service"
)

// WebhookEventsTotal counts inbound POS events by outcome.
var WebhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scalpi_webhook_events_total",
		Help: "POS webhook events by resource, status and result",
	},
	[]string{"resource", "status", "result"},
)

const (
	resourceFinancesOperation = "finances_operation"
	statusCreate              = "create"
	statusDelete              = "delete"
)

// --- Store interface ---

// WebhookStore resolves the staff member named by an event.
type WebhookStore interface {
	GetEmployee(ctx context.Context, id string) (database.Employee, error)
}

// WebhookPoster writes and removes ledger rows keyed by the event id kept
// in the note. Satisfied by *service.OperationService.
type WebhookPoster interface {
	Post(ctx context.Context, req service.PostOperationRequest) (database.Operation, error)
	DeleteByNote(ctx context.Context, note string) (bool, error)
	HasNote(ctx context.Context, note string) (bool, error)
}

// --- Handler ---

// WebhookHandler relays POS finance events into the ledger. It always
// answers 200 and reports failures in the body.
type WebhookHandler struct {
	store  WebhookStore
	poster WebhookPoster
	token  string
	loc    *time.Location
	events Broadcaster
	logger *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler. An empty token disables
// the shared-secret check.
func NewWebhookHandler(store WebhookStore, poster WebhookPoster, token string, loc *time.Location, events Broadcaster, logger *zap.Logger) *WebhookHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &WebhookHandler{
		store:  store,
		poster: poster,
		token:  token,
		loc:    loc,
		events: orNop(events),
		logger: logger,
	}
}

// --- Request / Response types ---

type webhookRequest struct {
	Resource string      `json:"resource"`
	Status   string      `json:"status"`
	Data     webhookData `json:"data"`
}

type webhookData struct {
	ID      json.Number     `json:"id"`
	Amount  json.Number     `json:"amount"`
	Date    string          `json:"date"`
	StaffID json.Number     `json:"staff_id"`
	Record  *webhookRecord  `json:"record"`
	Account *webhookAccount `json:"account"`
}

type webhookRecord struct {
	StaffID json.Number `json:"staff_id"`
	Date    string      `json:"date"`
}

type webhookAccount struct {
	IsCash bool `json:"is_cash"`
}

type webhookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Deleted *bool  `json:"deleted,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

var errUnauthorizedWebhook = errors.New("invalid webhook token")

// --- Handler method ---

// FromAltegio processes one POS webhook delivery.
func (h *WebhookHandler) FromAltegio(w http.ResponseWriter, r *http.Request) {
	if h.token != "" && subtle.ConstantTimeCompare([]byte(r.URL.Query().Get("token")), []byte(h.token)) != 1 {
		WebhookEventsTotal.WithLabelValues("", "", "unauthorized").Inc()
		h.fail(w, errUnauthorizedWebhook)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WebhookEventsTotal.WithLabelValues("", "", "error").Inc()
		h.fail(w, fmt.Errorf("decode body: %w", err))
		return
	}

	h.logger.Info("webhook received",
		zap.String("resource", req.Resource),
		zap.String("status", req.Status),
		zap.String("id", req.Data.ID.String()),
	)

	if req.Resource != resourceFinancesOperation {
		WebhookEventsTotal.WithLabelValues(req.Resource, req.Status, "ignored").Inc()
		writeJSON(w, http.StatusOK, webhookResponse{Success: true})
		return
	}

	var (
		resp webhookResponse
		err  error
	)
	switch req.Status {
	case statusCreate:
		resp, err = h.create(r.Context(), req.Data)
	case statusDelete:
		resp, err = h.delete(r.Context(), req.Data)
	default:
		resp = webhookResponse{Success: true}
	}
	if err != nil {
		WebhookEventsTotal.WithLabelValues(req.Resource, req.Status, "error").Inc()
		h.fail(w, err)
		return
	}

	WebhookEventsTotal.WithLabelValues(req.Resource, req.Status, "ok").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (h *WebhookHandler) create(ctx context.Context, data webhookData) (webhookResponse, error) {
	note := data.ID.String()
	if note != "" {
		exists, err := h.poster.HasNote(ctx, note)
		if err != nil {
			return webhookResponse{}, err
		}
		if exists {
			return webhookResponse{Success: true, Skipped: true}, nil
		}
	}

	staffID := data.StaffID.String()
	dateStr := data.Date
	if data.Record != nil {
		if s := data.Record.StaffID.String(); s != "" {
			staffID = s
		}
		if data.Record.Date != "" {
			dateStr = data.Record.Date
		}
	}

	var employeeID, employeeName string
	if staffID != "" {
		emp, err := h.store.GetEmployee(ctx, staffID)
		switch {
		case err == nil:
			if emp.IsOwner {
				return webhookResponse{Success: true, Skipped: true}, nil
			}
			employeeID, employeeName = emp.ID, emp.Name
		case errors.Is(err, pgx.ErrNoRows):
			h.logger.Warn("webhook staff not in registry", zap.String("staff_id", staffID), zap.String("id", note))
		default:
			return webhookResponse{}, fmt.Errorf("get employee: %w", err)
		}
	}

	amount, err := decimal.NewFromString(data.Amount.String())
	if err != nil {
		return webhookResponse{}, fmt.Errorf("invalid amount %q", data.Amount.String())
	}
	date, err := parseEventDate(dateStr, h.loc)
	if err != nil {
		return webhookResponse{}, err
	}

	method := enum.PaymentMethodCashless
	if data.Account != nil && data.Account.IsCash {
		method = enum.PaymentMethodCash
	}

	op, err := h.poster.Post(ctx, service.PostOperationRequest{
		Type:         enum.OperationTypeIncome,
		Method:       method,
		Amount:       amount,
		Date:         date,
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
		Note:         note,
	})
	if err != nil {
		return webhookResponse{}, err
	}

	h.events.Publish(enum.ChannelLedger, "operation.created", toOperationResponse(op))
	return webhookResponse{Success: true}, nil
}

func (h *WebhookHandler) delete(ctx context.Context, data webhookData) (webhookResponse, error) {
	note := data.ID.String()
	deleted, err := h.poster.DeleteByNote(ctx, note)
	if err != nil {
		return webhookResponse{}, err
	}
	if deleted {
		h.events.Publish(enum.ChannelLedger, "operation.deleted", map[string]string{"note": note})
	}
	return webhookResponse{Success: true, Deleted: &deleted}, nil
}

// RateLimited answers a throttled delivery in the usual webhook shape so the
// POS sees HTTP 200 on every response.
func (h *WebhookHandler) RateLimited(w http.ResponseWriter, r *http.Request) {
	WebhookEventsTotal.WithLabelValues("", "", "rate_limited").Inc()
	h.logger.Warn("webhook rate limited", zap.String("remote_addr", r.RemoteAddr))
	writeJSON(w, http.StatusOK, webhookResponse{Success: false, Error: "rate limit exceeded"})
}

func (h *WebhookHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("webhook failed", zap.Error(err))
	writeJSON(w, http.StatusOK, webhookResponse{Success: false, Error: err.Error()})
}

var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseEventDate reads the POS timestamp and converts it to the business
// time zone. An empty string yields the zero time, which posts as today.
func parseEventDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/scalpi-pos/api/internal/accounting/ledger"
	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by operation posting.
var (
	ErrInvalidOperationType = errors.New("invalid operation type")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNegativeAmount       = errors.New("amount must be >= 0")
	ErrInvalidTax           = errors.New("tax percent must be <= 100")
	ErrCorruptTaxSetting    = errors.New("stored tax_cashless is not a valid percent")
	ErrOperationNotFound    = errors.New("operation not found")
)

var hundredPercent = decimal.NewFromInt(100)

// SettingStore reads and writes app_settings rows.
type SettingStore interface {
	GetSetting(ctx context.Context, key string) (database.AppSetting, error)
	UpsertSetting(ctx context.Context, arg database.UpsertSettingParams) (database.AppSetting, error)
}

// OperationStore is the minimum needed to post a ledger row. Satisfied by
// *database.Queries and its WithTx variant.
type OperationStore interface {
	GetSetting(ctx context.Context, key string) (database.AppSetting, error)
	CreateOperation(ctx context.Context, arg database.CreateOperationParams) (database.Operation, error)
}

// OperationServiceStore adds lookups and deletes on top of OperationStore.
type OperationServiceStore interface {
	OperationStore
	GetEmployee(ctx context.Context, id string) (database.Employee, error)
	GetEmployeeByName(ctx context.Context, name string) (database.Employee, error)
	DeleteOperation(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	DeleteFirstOperationByNote(ctx context.Context, note string) (uuid.UUID, error)
	CountOperationsByNote(ctx context.Context, note string) (int64, error)
}

// PostOperationRequest is the input for a new ledger row. A zero Date
// means today in the business time zone.
type PostOperationRequest struct {
	Type         string
	Method       string
	Amount       decimal.Decimal
	Date         time.Time
	EmployeeID   string
	EmployeeName string
	Note         string
}

// OperationService posts and removes ledger rows.
type OperationService struct {
	store OperationServiceStore
	loc   *time.Location
	now   func() time.Time
}

// NewOperationService creates a new OperationService.
func NewOperationService(store OperationServiceStore, loc *time.Location) *OperationService {
	if loc == nil {
		loc = time.UTC
	}
	return &OperationService{store: store, loc: loc, now: time.Now}
}

func (s *OperationService) today() time.Time {
	return s.now().In(s.loc)
}

// Post validates req, fills in the employee reference and stores the row
// through the cashless withholding rule.
func (s *OperationService) Post(ctx context.Context, req PostOperationRequest) (database.Operation, error) {
	switch {
	case req.EmployeeID != "":
		emp, err := s.store.GetEmployee(ctx, req.EmployeeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.Operation{}, ErrEmployeeNotFound
			}
			return database.Operation{}, fmt.Errorf("get employee: %w", err)
		}
		req.EmployeeName = emp.Name
	case req.EmployeeName != "":
		// Name-only postings keep working for staff missing from the
		// registry; they surface in the integrity report instead.
		emp, err := s.store.GetEmployeeByName(ctx, req.EmployeeName)
		if err == nil {
			req.EmployeeID = emp.ID
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return database.Operation{}, fmt.Errorf("get employee by name: %w", err)
		}
	}

	return postOperation(ctx, s.store, req, s.today())
}

// Delete removes a single row by id.
func (s *OperationService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.DeleteOperation(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOperationNotFound
		}
		return fmt.Errorf("delete operation: %w", err)
	}
	return nil
}

// DeleteByNote removes the first row whose note equals note. It reports
// false, without error, when nothing matched.
func (s *OperationService) DeleteByNote(ctx context.Context, note string) (bool, error) {
	if note == "" {
		return false, nil
	}
	if _, err := s.store.DeleteFirstOperationByNote(ctx, note); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("delete operation by note: %w", err)
	}
	return true, nil
}

// HasNote reports whether any row already carries note.
func (s *OperationService) HasNote(ctx context.Context, note string) (bool, error) {
	n, err := s.store.CountOperationsByNote(ctx, note)
	if err != nil {
		return false, fmt.Errorf("count operations by note: %w", err)
	}
	return n > 0, nil
}

// postOperation is shared with the sale workflow so both paths apply the
// same withholding inside whatever transaction store belongs to.
func postOperation(ctx context.Context, store OperationStore, req PostOperationRequest, today time.Time) (database.Operation, error) {
	if !enum.IsOperationType(req.Type) {
		return database.Operation{}, ErrInvalidOperationType
	}
	if !enum.IsPaymentMethod(req.Method) {
		return database.Operation{}, ErrInvalidPaymentMethod
	}
	if req.Amount.IsNegative() {
		return database.Operation{}, ErrNegativeAmount
	}

	tax := decimal.Zero
	if req.Method == enum.PaymentMethodCashless {
		var err error
		if tax, err = TaxCashless(ctx, store); err != nil {
			return database.Operation{}, err
		}
	}

	net, withheld := ledger.Withhold(req.Type, req.Method, req.Amount, tax)
	taxNote := ""
	if withheld.IsPositive() {
		taxNote = ledger.TaxNote(tax, withheld)
	}

	date := req.Date
	if date.IsZero() {
		date = today
	}

	employeeID := pgtype.Text{}
	if req.EmployeeID != "" {
		employeeID = pgtype.Text{String: req.EmployeeID, Valid: true}
	}

	op, err := store.CreateOperation(ctx, database.CreateOperationParams{
		OpType:        req.Type,
		OpDate:        database.DateOf(date),
		Amount:        database.DecimalToNumeric(net),
		PaymentMethod: req.Method,
		EmployeeID:    employeeID,
		EmployeeName:  req.EmployeeName,
		Note:          req.Note,
		TaxNote:       taxNote,
	})
	if err != nil {
		return database.Operation{}, fmt.Errorf("create operation: %w", err)
	}
	return op, nil
}

// TaxCashless returns the configured cashless tax percent. A missing
// setting reads as zero; an unparsable or out-of-range value is an error
// so postings never silently skip the withholding.
func TaxCashless(ctx context.Context, store interface {
	GetSetting(ctx context.Context, key string) (database.AppSetting, error)
}) (decimal.Decimal, error) {
	setting, err := store.GetSetting(ctx, enum.SettingTaxCashless)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get tax setting: %w", err)
	}
	tax, err := decimal.NewFromString(strings.TrimSpace(setting.Value))
	if err != nil || tax.IsNegative() || tax.GreaterThan(hundredPercent) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrCorruptTaxSetting, setting.Value)
	}
	return tax, nil
}

// SetTaxCashless stores percent, clamping negatives to zero.
func SetTaxCashless(ctx context.Context, store SettingStore, percent decimal.Decimal) (decimal.Decimal, error) {
	if percent.IsNegative() {
		percent = decimal.Zero
	}
	if percent.GreaterThan(hundredPercent) {
		return decimal.Zero, ErrInvalidTax
	}
	if _, err := store.UpsertSetting(ctx, database.UpsertSettingParams{
		Key:   enum.SettingTaxCashless,
		Value: percent.String(),
	}); err != nil {
		return decimal.Zero, fmt.Errorf("save tax setting: %w", err)
	}
	return percent, nil
}

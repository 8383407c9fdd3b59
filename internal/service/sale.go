package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the sale workflow.
var (
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrItemNotFound      = errors.New("item not found")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SaleStore defines the DB methods needed to record a sale.
// Satisfied by *database.Queries (and its WithTx variant).
type SaleStore interface {
	OperationStore
	GetAssortmentItemForUpdate(ctx context.Context, barcode string) (database.AssortmentItem, error)
	GetEmployee(ctx context.Context, id string) (database.Employee, error)
	CreateSaleRecord(ctx context.Context, arg database.CreateSaleRecordParams) (database.SaleRecord, error)
	DecrementItemStock(ctx context.Context, arg database.DecrementItemStockParams) (database.AssortmentItem, error)
	ListSaleRecords(ctx context.Context) ([]database.SaleRecord, error)
}

// NewSaleStore creates a SaleStore from a DBTX (pool or tx).
type NewSaleStore func(db database.DBTX) SaleStore

// AddSaleRequest is the input for a single-item sale.
type AddSaleRequest struct {
	Barcode       string
	Quantity      int32
	EmployeeID    string
	PaymentMethod string
}

// AddSaleResult carries everything the sale touched.
type AddSaleResult struct {
	Sale      database.SaleRecord
	Item      database.AssortmentItem
	Operation *database.Operation // nil for owner sales
	Sales     []database.SaleRecord
}

// SaleService records sales against inventory and the ledger.
type SaleService struct {
	pool     TxBeginner
	newStore NewSaleStore
	loc      *time.Location
	now      func() time.Time
}

// NewSaleService creates a new SaleService.
func NewSaleService(pool TxBeginner, newStore NewSaleStore, loc *time.Location) *SaleService {
	if loc == nil {
		loc = time.UTC
	}
	return &SaleService{pool: pool, newStore: newStore, loc: loc, now: time.Now}
}

// AddSale sells quantity units of one item. The ledger posting, the sale
// record and the stock decrement commit together or not at all; the item
// row stays locked for the duration so concurrent sales cannot oversell.
func (s *SaleService) AddSale(ctx context.Context, req AddSaleRequest) (*AddSaleResult, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !enum.IsPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	barcode := strings.TrimSpace(req.Barcode)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetAssortmentItemForUpdate(ctx, barcode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	employee, err := store.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}

	if req.Quantity > item.Stock {
		return nil, ErrInsufficientStock
	}

	price := database.NumericToDecimal(item.Price)
	total := price.Mul(decimal.NewFromInt32(req.Quantity)).Round(2)
	today := s.now().In(s.loc)

	// Owners take goods off the books; their sales only feed the debt view.
	var posted *database.Operation
	operationID := pgtype.UUID{}
	if !employee.IsOwner {
		op, err := postOperation(ctx, store, PostOperationRequest{
			Type:         enum.OperationTypeSale,
			Method:       req.PaymentMethod,
			Amount:       total,
			Date:         today,
			EmployeeID:   employee.ID,
			EmployeeName: employee.Name,
			Note:         item.Name,
		}, today)
		if err != nil {
			return nil, err
		}
		posted = &op
		operationID = pgtype.UUID{Bytes: op.ID, Valid: true}
	}

	sale, err := store.CreateSaleRecord(ctx, database.CreateSaleRecordParams{
		Barcode:       item.Barcode,
		ItemName:      item.Name,
		Quantity:      req.Quantity,
		Price:         database.DecimalToNumeric(price),
		Total:         database.DecimalToNumeric(total),
		PaymentMethod: req.PaymentMethod,
		EmployeeID:    employee.ID,
		EmployeeName:  employee.Name,
		SaleDate:      database.DateOf(today),
		OperationID:   operationID,
	})
	if err != nil {
		return nil, fmt.Errorf("create sale record: %w", err)
	}

	updated, err := store.DecrementItemStock(ctx, database.DecrementItemStockParams{
		Barcode:  item.Barcode,
		Quantity: req.Quantity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("decrement stock: %w", err)
	}

	sales, err := store.ListSaleRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &AddSaleResult{
		Sale:      sale,
		Item:      updated,
		Operation: posted,
		Sales:     sales,
	}, nil
}

package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const saleRecordColumns = `id, barcode, item_name, quantity, price, total, payment_method, employee_id, employee_name, sale_date, operation_id, created_at`

func scanSaleRecord(row interface{ Scan(...any) error }) (SaleRecord, error) {
	var i SaleRecord
	err := row.Scan(
		&i.ID,
		&i.Barcode,
		&i.ItemName,
		&i.Quantity,
		&i.Price,
		&i.Total,
		&i.PaymentMethod,
		&i.EmployeeID,
		&i.EmployeeName,
		&i.SaleDate,
		&i.OperationID,
		&i.CreatedAt,
	)
	return i, err
}

const listSaleRecords = `-- name: ListSaleRecords :many
SELECT ` + saleRecordColumns + ` FROM sale_records
ORDER BY sale_date DESC, created_at DESC
`

func (q *Queries) ListSaleRecords(ctx context.Context) ([]SaleRecord, error) {
	rows, err := q.db.Query(ctx, listSaleRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SaleRecord{}
	for rows.Next() {
		i, err := scanSaleRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSaleRecord = `-- name: CreateSaleRecord :one
INSERT INTO sale_records (barcode, item_name, quantity, price, total, payment_method, employee_id, employee_name, sale_date, operation_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + saleRecordColumns + `
`

type CreateSaleRecordParams struct {
	Barcode       string         `json:"barcode"`
	ItemName      string         `json:"item_name"`
	Quantity      int32          `json:"quantity"`
	Price         pgtype.Numeric `json:"price"`
	Total         pgtype.Numeric `json:"total"`
	PaymentMethod string         `json:"payment_method"`
	EmployeeID    string         `json:"employee_id"`
	EmployeeName  string         `json:"employee_name"`
	SaleDate      pgtype.Date    `json:"sale_date"`
	OperationID   pgtype.UUID    `json:"operation_id"`
}

func (q *Queries) CreateSaleRecord(ctx context.Context, arg CreateSaleRecordParams) (SaleRecord, error) {
	return scanSaleRecord(q.db.QueryRow(ctx, createSaleRecord,
		arg.Barcode,
		arg.ItemName,
		arg.Quantity,
		arg.Price,
		arg.Total,
		arg.PaymentMethod,
		arg.EmployeeID,
		arg.EmployeeName,
		arg.SaleDate,
		arg.OperationID,
	))
}

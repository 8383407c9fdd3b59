package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const operationColumns = `id, op_type, op_date, amount, payment_method, employee_id, employee_name, note, tax_note, created_at`

func scanOperation(row interface{ Scan(...any) error }) (Operation, error) {
	var i Operation
	err := row.Scan(
		&i.ID,
		&i.OpType,
		&i.OpDate,
		&i.Amount,
		&i.PaymentMethod,
		&i.EmployeeID,
		&i.EmployeeName,
		&i.Note,
		&i.TaxNote,
		&i.CreatedAt,
	)
	return i, err
}

func collectOperations(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Operation, error) {
	items := []Operation{}
	for rows.Next() {
		i, err := scanOperation(rows)
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

const listOperations = `-- name: ListOperations :many
SELECT ` + operationColumns + ` FROM operations
ORDER BY op_date, created_at
`

// ListOperations returns the whole ledger in posting order.
func (q *Queries) ListOperations(ctx context.Context) ([]Operation, error) {
	rows, err := q.db.Query(ctx, listOperations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOperations(rows)
}

const listOperationsPage = `-- name: ListOperationsPage :many
SELECT ` + operationColumns + ` FROM operations
WHERE ($1::date IS NULL OR op_date >= $1::date)
  AND ($2::date IS NULL OR op_date <= $2::date)
  AND ($3::text IS NULL OR op_type = $3::text)
ORDER BY op_date DESC, created_at DESC
LIMIT $4 OFFSET $5
`

type ListOperationsPageParams struct {
	StartDate pgtype.Date `json:"start_date"`
	EndDate   pgtype.Date `json:"end_date"`
	OpType    pgtype.Text `json:"op_type"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
}

func (q *Queries) ListOperationsPage(ctx context.Context, arg ListOperationsPageParams) ([]Operation, error) {
	rows, err := q.db.Query(ctx, listOperationsPage,
		arg.StartDate,
		arg.EndDate,
		arg.OpType,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOperations(rows)
}

const createOperation = `-- name: CreateOperation :one
INSERT INTO operations (op_type, op_date, amount, payment_method, employee_id, employee_name, note, tax_note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + operationColumns + `
`

type CreateOperationParams struct {
	OpType        string         `json:"op_type"`
	OpDate        pgtype.Date    `json:"op_date"`
	Amount        pgtype.Numeric `json:"amount"`
	PaymentMethod string         `json:"payment_method"`
	EmployeeID    pgtype.Text    `json:"employee_id"`
	EmployeeName  string         `json:"employee_name"`
	Note          string         `json:"note"`
	TaxNote       string         `json:"tax_note"`
}

func (q *Queries) CreateOperation(ctx context.Context, arg CreateOperationParams) (Operation, error) {
	return scanOperation(q.db.QueryRow(ctx, createOperation,
		arg.OpType,
		arg.OpDate,
		arg.Amount,
		arg.PaymentMethod,
		arg.EmployeeID,
		arg.EmployeeName,
		arg.Note,
		arg.TaxNote,
	))
}

const deleteOperation = `-- name: DeleteOperation :one
DELETE FROM operations
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteOperation(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteOperation, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}

const deleteFirstOperationByNote = `-- name: DeleteFirstOperationByNote :one
DELETE FROM operations
WHERE id = (
    SELECT id FROM operations
    WHERE note = $1
    ORDER BY created_at
    LIMIT 1
)
RETURNING id
`

// DeleteFirstOperationByNote removes the oldest row carrying note and
// returns pgx.ErrNoRows when there is none.
func (q *Queries) DeleteFirstOperationByNote(ctx context.Context, note string) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteFirstOperationByNote, note)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}

const countOperationsByNote = `-- name: CountOperationsByNote :one
SELECT COUNT(*) FROM operations
WHERE note = $1
`

func (q *Queries) CountOperationsByNote(ctx context.Context, note string) (int64, error) {
	row := q.db.QueryRow(ctx, countOperationsByNote, note)
	var count int64
	err := row.Scan(&count)
	return count, err
}

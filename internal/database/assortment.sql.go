package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const itemColumns = `barcode, name, unit, price, cost, stock, photo_url, created_at, updated_at`

func scanAssortmentItem(row interface{ Scan(...any) error }) (AssortmentItem, error) {
	var i AssortmentItem
	err := row.Scan(
		&i.Barcode,
		&i.Name,
		&i.Unit,
		&i.Price,
		&i.Cost,
		&i.Stock,
		&i.PhotoUrl,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAssortmentItems = `-- name: ListAssortmentItems :many
SELECT ` + itemColumns + ` FROM assortment_items
ORDER BY name, barcode
`

func (q *Queries) ListAssortmentItems(ctx context.Context) ([]AssortmentItem, error) {
	rows, err := q.db.Query(ctx, listAssortmentItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AssortmentItem{}
	for rows.Next() {
		i, err := scanAssortmentItem(rows)
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

const getAssortmentItem = `-- name: GetAssortmentItem :one
SELECT ` + itemColumns + ` FROM assortment_items
WHERE barcode = $1
`

func (q *Queries) GetAssortmentItem(ctx context.Context, barcode string) (AssortmentItem, error) {
	return scanAssortmentItem(q.db.QueryRow(ctx, getAssortmentItem, barcode))
}

const getAssortmentItemForUpdate = `-- name: GetAssortmentItemForUpdate :one
SELECT ` + itemColumns + ` FROM assortment_items
WHERE barcode = $1
FOR UPDATE
`

// GetAssortmentItemForUpdate locks the row until the surrounding
// transaction ends.
func (q *Queries) GetAssortmentItemForUpdate(ctx context.Context, barcode string) (AssortmentItem, error) {
	return scanAssortmentItem(q.db.QueryRow(ctx, getAssortmentItemForUpdate, barcode))
}

const createAssortmentItem = `-- name: CreateAssortmentItem :one
INSERT INTO assortment_items (barcode, name, unit, price, cost, stock, photo_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + itemColumns + `
`

type CreateAssortmentItemParams struct {
	Barcode  string         `json:"barcode"`
	Name     string         `json:"name"`
	Unit     string         `json:"unit"`
	Price    pgtype.Numeric `json:"price"`
	Cost     pgtype.Numeric `json:"cost"`
	Stock    int32          `json:"stock"`
	PhotoUrl string         `json:"photo_url"`
}

func (q *Queries) CreateAssortmentItem(ctx context.Context, arg CreateAssortmentItemParams) (AssortmentItem, error) {
	return scanAssortmentItem(q.db.QueryRow(ctx, createAssortmentItem,
		arg.Barcode,
		arg.Name,
		arg.Unit,
		arg.Price,
		arg.Cost,
		arg.Stock,
		arg.PhotoUrl,
	))
}

const updateAssortmentItem = `-- name: UpdateAssortmentItem :one
UPDATE assortment_items SET
    name = COALESCE($2, name),
    unit = COALESCE($3, unit),
    price = COALESCE($4, price),
    cost = COALESCE($5, cost),
    stock = COALESCE($6, stock),
    photo_url = COALESCE($7, photo_url),
    updated_at = now()
WHERE barcode = $1
RETURNING ` + itemColumns + `
`

type UpdateAssortmentItemParams struct {
	Barcode  string         `json:"barcode"`
	Name     pgtype.Text    `json:"name"`
	Unit     pgtype.Text    `json:"unit"`
	Price    pgtype.Numeric `json:"price"`
	Cost     pgtype.Numeric `json:"cost"`
	Stock    pgtype.Int4    `json:"stock"`
	PhotoUrl pgtype.Text    `json:"photo_url"`
}

func (q *Queries) UpdateAssortmentItem(ctx context.Context, arg UpdateAssortmentItemParams) (AssortmentItem, error) {
	return scanAssortmentItem(q.db.QueryRow(ctx, updateAssortmentItem,
		arg.Barcode,
		arg.Name,
		arg.Unit,
		arg.Price,
		arg.Cost,
		arg.Stock,
		arg.PhotoUrl,
	))
}

const decrementItemStock = `-- name: DecrementItemStock :one
UPDATE assortment_items SET
    stock = stock - $2,
    updated_at = now()
WHERE barcode = $1 AND stock >= $2
RETURNING ` + itemColumns + `
`

type DecrementItemStockParams struct {
	Barcode  string `json:"barcode"`
	Quantity int32  `json:"quantity"`
}

// DecrementItemStock returns pgx.ErrNoRows when the stock would go negative.
func (q *Queries) DecrementItemStock(ctx context.Context, arg DecrementItemStockParams) (AssortmentItem, error) {
	return scanAssortmentItem(q.db.QueryRow(ctx, decrementItemStock, arg.Barcode, arg.Quantity))
}

const deleteAssortmentItem = `-- name: DeleteAssortmentItem :one
DELETE FROM assortment_items
WHERE barcode = $1
RETURNING barcode
`

func (q *Queries) DeleteAssortmentItem(ctx context.Context, barcode string) (string, error) {
	row := q.db.QueryRow(ctx, deleteAssortmentItem, barcode)
	var deleted string
	err := row.Scan(&deleted)
	return deleted, err
}

package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AssortmentItem struct {
	Barcode   string         `json:"barcode"`
	Name      string         `json:"name"`
	Unit      string         `json:"unit"`
	Price     pgtype.Numeric `json:"price"`
	Cost      pgtype.Numeric `json:"cost"`
	Stock     int32          `json:"stock"`
	PhotoUrl  string         `json:"photo_url"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Employee struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Specialization string         `json:"specialization"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email"`
	IsOwner        bool           `json:"is_owner"`
	Percent        pgtype.Numeric `json:"percent"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type Operation struct {
	ID            uuid.UUID      `json:"id"`
	OpType        string         `json:"op_type"`
	OpDate        pgtype.Date    `json:"op_date"`
	Amount        pgtype.Numeric `json:"amount"`
	PaymentMethod string         `json:"payment_method"`
	EmployeeID    pgtype.Text    `json:"employee_id"`
	EmployeeName  string         `json:"employee_name"`
	Note          string         `json:"note"`
	TaxNote       string         `json:"tax_note"`
	CreatedAt     time.Time      `json:"created_at"`
}

type SaleRecord struct {
	ID            uuid.UUID      `json:"id"`
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
	CreatedAt     time.Time      `json:"created_at"`
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

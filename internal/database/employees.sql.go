package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const employeeColumns = `id, name, specialization, phone, email, is_owner, percent, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var i Employee
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Specialization,
		&i.Phone,
		&i.Email,
		&i.IsOwner,
		&i.Percent,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listEmployees = `-- name: ListEmployees :many
SELECT ` + employeeColumns + ` FROM employees
ORDER BY name, id
`

func (q *Queries) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := q.db.Query(ctx, listEmployees)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Employee{}
	for rows.Next() {
		i, err := scanEmployee(rows)
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

const getEmployee = `-- name: GetEmployee :one
SELECT ` + employeeColumns + ` FROM employees
WHERE id = $1
`

func (q *Queries) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployee, id))
}

const getEmployeeByName = `-- name: GetEmployeeByName :one
SELECT ` + employeeColumns + ` FROM employees
WHERE name = $1
ORDER BY id
LIMIT 1
`

func (q *Queries) GetEmployeeByName(ctx context.Context, name string) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, getEmployeeByName, name))
}

const createEmployee = `-- name: CreateEmployee :one
INSERT INTO employees (id, name, specialization, phone, email, is_owner, percent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + employeeColumns + `
`

type CreateEmployeeParams struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Specialization string         `json:"specialization"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email"`
	IsOwner        bool           `json:"is_owner"`
	Percent        pgtype.Numeric `json:"percent"`
}

func (q *Queries) CreateEmployee(ctx context.Context, arg CreateEmployeeParams) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, createEmployee,
		arg.ID,
		arg.Name,
		arg.Specialization,
		arg.Phone,
		arg.Email,
		arg.IsOwner,
		arg.Percent,
	))
}

const updateEmployee = `-- name: UpdateEmployee :one
UPDATE employees SET
    name = COALESCE($2, name),
    specialization = COALESCE($3, specialization),
    phone = COALESCE($4, phone),
    email = COALESCE($5, email),
    is_owner = COALESCE($6, is_owner),
    percent = COALESCE($7, percent),
    updated_at = now()
WHERE id = $1
RETURNING ` + employeeColumns + `
`

// UpdateEmployeeParams carries a partial update; invalid fields keep the
// stored value.
type UpdateEmployeeParams struct {
	ID             string         `json:"id"`
	Name           pgtype.Text    `json:"name"`
	Specialization pgtype.Text    `json:"specialization"`
	Phone          pgtype.Text    `json:"phone"`
	Email          pgtype.Text    `json:"email"`
	IsOwner        pgtype.Bool    `json:"is_owner"`
	Percent        pgtype.Numeric `json:"percent"`
}

func (q *Queries) UpdateEmployee(ctx context.Context, arg UpdateEmployeeParams) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, updateEmployee,
		arg.ID,
		arg.Name,
		arg.Specialization,
		arg.Phone,
		arg.Email,
		arg.IsOwner,
		arg.Percent,
	))
}

const upsertEmployeeFromDirectory = `-- name: UpsertEmployeeFromDirectory :one
INSERT INTO employees (id, name, specialization, phone, email)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    specialization = EXCLUDED.specialization,
    phone = EXCLUDED.phone,
    email = EXCLUDED.email,
    updated_at = now()
RETURNING ` + employeeColumns + `
`

// UpsertEmployeeFromDirectoryParams holds the directory-owned fields.
// is_owner and percent are never written by the upsert.
type UpsertEmployeeFromDirectoryParams struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
}

func (q *Queries) UpsertEmployeeFromDirectory(ctx context.Context, arg UpsertEmployeeFromDirectoryParams) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, upsertEmployeeFromDirectory,
		arg.ID,
		arg.Name,
		arg.Specialization,
		arg.Phone,
		arg.Email,
	))
}

const deleteEmployee = `-- name: DeleteEmployee :one
DELETE FROM employees
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteEmployee(ctx context.Context, id string) (string, error) {
	row := q.db.QueryRow(ctx, deleteEmployee, id)
	var deleted string
	err := row.Scan(&deleted)
	return deleted, err
}

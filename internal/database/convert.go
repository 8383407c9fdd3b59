package database

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// NumericToDecimal converts a NUMERIC column value. NULL becomes zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToNumeric converts a money amount to a NUMERIC with two decimals.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// MaxMoney is the largest value a NUMERIC(12,2) column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")

var (
	ErrMoneyPrecision = errors.New("at most 2 decimal places")
	ErrMoneyRange     = errors.New("amount out of range")
)

// CheckMoney rejects values that DecimalToNumeric would round or that do
// not fit NUMERIC(12,2).
func CheckMoney(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(2)) {
		return ErrMoneyPrecision
	}
	if d.Abs().GreaterThan(MaxMoney) {
		return ErrMoneyRange
	}
	return nil
}

// DateOf truncates t to a DATE value in t's location.
func DateOf(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// IsUniqueViolation reports a 23505 error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports a 23503 error.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// IsUndefinedTable reports a 42P01 error, which means migrations have not run.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

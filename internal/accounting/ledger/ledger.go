// Package ledger derives the bookkeeping views from the raw operations
// ledger, the employee registry and the sales history. Everything here is
// pure: callers load rows, convert them and recompute on every read.
package ledger

import (
	"fmt"
	"time"

	"github.com/scalpi-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Operation is one ledger row. Amount is never negative.
type Operation struct {
	ID           string
	Type         string
	Date         time.Time
	Amount       decimal.Decimal
	Method       string
	EmployeeID   string
	EmployeeName string
}

// Employee is the registry view needed for derivation.
type Employee struct {
	ID      string
	Name    string
	Owner   bool
	Percent decimal.Decimal
}

// Sale is one sales-history row.
type Sale struct {
	ID           string
	Barcode      string
	Quantity     int32
	EmployeeID   string
	EmployeeName string
	Date         time.Time
}

// MonthKey groups dates by calendar month.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Directory resolves ledger references to registry employees.
type Directory struct {
	byID   map[string]Employee
	byName map[string]Employee
}

// NewDirectory indexes employees by id and by name. When two employees
// share a name the first one wins the name index.
func NewDirectory(employees []Employee) *Directory {
	d := &Directory{
		byID:   make(map[string]Employee, len(employees)),
		byName: make(map[string]Employee, len(employees)),
	}
	for _, e := range employees {
		d.byID[e.ID] = e
		if _, ok := d.byName[e.Name]; !ok && e.Name != "" {
			d.byName[e.Name] = e
		}
	}
	return d
}

// Resolve joins by id first and falls back to the exact name.
func (d *Directory) Resolve(id, name string) (Employee, bool) {
	if id != "" {
		if e, ok := d.byID[id]; ok {
			return e, true
		}
	}
	if name != "" {
		if e, ok := d.byName[name]; ok {
			return e, true
		}
	}
	return Employee{}, false
}

// Withhold applies the cashless tax to INCOME, SALE and TOP_UP amounts.
// Other operations, cash payments and a zero tax pass through unchanged.
func Withhold(opType, method string, amount, taxPercent decimal.Decimal) (net, withheld decimal.Decimal) {
	if method != enum.PaymentMethodCashless || !taxPercent.IsPositive() {
		return amount, decimal.Zero
	}
	switch opType {
	case enum.OperationTypeIncome, enum.OperationTypeSale, enum.OperationTypeTopUp:
	default:
		return amount, decimal.Zero
	}
	net = amount.Mul(decimal.NewFromInt(1).Sub(taxPercent.Div(hundred))).Round(2)
	return net, amount.Sub(net)
}

// TaxNote formats the withholding annotation stored next to a net amount.
func TaxNote(taxPercent, withheld decimal.Decimal) string {
	return fmt.Sprintf("%s%% - %s", taxPercent.String(), withheld.StringFixed(2))
}

// Balance is the all-time cash position split by payment method.
type Balance struct {
	Cash     decimal.Decimal
	Cashless decimal.Decimal
}

// BalanceContribution returns the signed amount op adds to each bucket.
func BalanceContribution(op Operation) (cash, cashless decimal.Decimal) {
	var signed decimal.Decimal
	switch op.Type {
	case enum.OperationTypeIncome, enum.OperationTypeSale, enum.OperationTypeTopUp:
		signed = op.Amount
	case enum.OperationTypeExpense, enum.OperationTypeSalary, enum.OperationTypeCashIn:
		signed = op.Amount.Neg()
	default:
		return decimal.Zero, decimal.Zero
	}
	if op.Method == enum.PaymentMethodCashless {
		return decimal.Zero, signed
	}
	return signed, decimal.Zero
}

// CashBalance sums every operation into the two buckets.
func CashBalance(ops []Operation) Balance {
	b := Balance{Cash: decimal.Zero, Cashless: decimal.Zero}
	for _, op := range ops {
		cash, cashless := BalanceContribution(op)
		b.Cash = b.Cash.Add(cash)
		b.Cashless = b.Cashless.Add(cashless)
	}
	return b
}

// ProfitContribution is the business share of op. INCOME and SALE keep
// amount minus the employee commission; an unresolved employee counts as
// zero commission. EXPENSE subtracts the full amount.
func ProfitContribution(op Operation, emp Employee, found bool) decimal.Decimal {
	switch op.Type {
	case enum.OperationTypeIncome, enum.OperationTypeSale:
		if !found {
			return op.Amount
		}
		return op.Amount.Mul(decimal.NewFromInt(1).Sub(emp.Percent.Div(hundred)))
	case enum.OperationTypeExpense:
		return op.Amount.Neg()
	}
	return decimal.Zero
}

// OwnerCashInContribution counts CASH_IN rows taken by an owner.
func OwnerCashInContribution(op Operation, emp Employee, found bool) decimal.Decimal {
	if op.Type == enum.OperationTypeCashIn && found && emp.Owner {
		return op.Amount
	}
	return decimal.Zero
}

// Commission is the salary accrued by a non-owner on an INCOME or SALE row.
func Commission(op Operation, emp Employee) decimal.Decimal {
	switch op.Type {
	case enum.OperationTypeIncome, enum.OperationTypeSale:
		return op.Amount.Mul(emp.Percent).Div(hundred)
	}
	return decimal.Zero
}

package ledger

import (
	"sort"

	"github.com/scalpi-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Integrity issue kinds.
const (
	IssueUnknownEmployee = "UNKNOWN_EMPLOYEE"
	IssueUnknownItem     = "UNKNOWN_ITEM"
)

// Issue flags a row that dropped out of a percent- or cost-dependent view.
type Issue struct {
	Kind     string
	Source   string // "operation" or "sale"
	Ref      string
	Employee string
	Month    string
}

// IncomeRow is one month of the income view.
type IncomeRow struct {
	Month          string
	Income         decimal.Decimal
	Profit         decimal.Decimal
	CashIn         decimal.Decimal
	IncomeCash     decimal.Decimal
	ProfitCash     decimal.Decimal
	CashInCash     decimal.Decimal
	IncomeCashless decimal.Decimal
	ProfitCashless decimal.Decimal
	CashInCashless decimal.Decimal
}

// SalaryRow is one employee-month of accrued and paid commission.
type SalaryRow struct {
	Month      string
	EmployeeID string
	Employee   string
	Total      decimal.Decimal
	Paid       decimal.Decimal
	ToPay      decimal.Decimal
}

// DebtRow is one owner-month of goods taken at half cost.
type DebtRow struct {
	Month      string
	EmployeeID string
	Employee   string
	Debt       decimal.Decimal
}

func hasEmployeeRef(op Operation) bool {
	return op.EmployeeID != "" || op.EmployeeName != ""
}

func employeeLabel(id, name string) string {
	if name != "" {
		return name
	}
	return id
}

func newIncomeRow(month string) *IncomeRow {
	return &IncomeRow{
		Month:          month,
		Income:         decimal.Zero,
		Profit:         decimal.Zero,
		CashIn:         decimal.Zero,
		IncomeCash:     decimal.Zero,
		ProfitCash:     decimal.Zero,
		CashInCash:     decimal.Zero,
		IncomeCashless: decimal.Zero,
		ProfitCashless: decimal.Zero,
		CashInCashless: decimal.Zero,
	}
}

// Incomes groups income, profit and owner cash-in by month, ascending.
// Months holding only SALARY or TOP_UP rows appear with zero totals.
func Incomes(ops []Operation, dir *Directory) ([]IncomeRow, []Issue) {
	months := map[string]*IncomeRow{}
	var issues []Issue

	for _, op := range ops {
		// Every month with activity gets a row, even if nothing in it
		// moves income, profit or cash-in.
		month := MonthKey(op.Date)
		row, ok := months[month]
		if !ok {
			row = newIncomeRow(month)
			months[month] = row
		}

		switch op.Type {
		case enum.OperationTypeIncome, enum.OperationTypeSale,
			enum.OperationTypeExpense, enum.OperationTypeCashIn:
		default:
			continue
		}

		emp, found := dir.Resolve(op.EmployeeID, op.EmployeeName)
		if !found && hasEmployeeRef(op) && op.Type != enum.OperationTypeExpense {
			issues = append(issues, Issue{
				Kind:     IssueUnknownEmployee,
				Source:   "operation",
				Ref:      op.ID,
				Employee: employeeLabel(op.EmployeeID, op.EmployeeName),
				Month:    month,
			})
		}

		var income decimal.Decimal
		if op.Type == enum.OperationTypeIncome || op.Type == enum.OperationTypeSale {
			income = op.Amount
		}
		profit := ProfitContribution(op, emp, found)
		cashIn := OwnerCashInContribution(op, emp, found)

		row.Income = row.Income.Add(income)
		row.Profit = row.Profit.Add(profit)
		row.CashIn = row.CashIn.Add(cashIn)
		if op.Method == enum.PaymentMethodCashless {
			row.IncomeCashless = row.IncomeCashless.Add(income)
			row.ProfitCashless = row.ProfitCashless.Add(profit)
			row.CashInCashless = row.CashInCashless.Add(cashIn)
		} else {
			row.IncomeCash = row.IncomeCash.Add(income)
			row.ProfitCash = row.ProfitCash.Add(profit)
			row.CashInCash = row.CashInCash.Add(cashIn)
		}
	}

	rows := make([]IncomeRow, 0, len(months))
	for _, r := range months {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows, issues
}

type employeeMonth struct {
	month string
	id    string
}

// Salaries accrues commission for non-owner employees per month. Owners
// and unresolved employees never get a row.
func Salaries(ops []Operation, dir *Directory) ([]SalaryRow, []Issue) {
	groups := map[employeeMonth]*SalaryRow{}
	var issues []Issue

	for _, op := range ops {
		switch op.Type {
		case enum.OperationTypeIncome, enum.OperationTypeSale, enum.OperationTypeSalary:
		default:
			continue
		}
		if !hasEmployeeRef(op) {
			continue
		}

		month := MonthKey(op.Date)
		emp, found := dir.Resolve(op.EmployeeID, op.EmployeeName)
		if !found {
			issues = append(issues, Issue{
				Kind:     IssueUnknownEmployee,
				Source:   "operation",
				Ref:      op.ID,
				Employee: employeeLabel(op.EmployeeID, op.EmployeeName),
				Month:    month,
			})
			continue
		}
		if emp.Owner {
			continue
		}

		key := employeeMonth{month: month, id: emp.ID}
		row, ok := groups[key]
		if !ok {
			row = &SalaryRow{
				Month:      month,
				EmployeeID: emp.ID,
				Employee:   emp.Name,
				Total:      decimal.Zero,
				Paid:       decimal.Zero,
			}
			groups[key] = row
		}

		if op.Type == enum.OperationTypeSalary {
			row.Paid = row.Paid.Add(op.Amount)
		} else {
			row.Total = row.Total.Add(Commission(op, emp))
		}
	}

	rows := make([]SalaryRow, 0, len(groups))
	for _, r := range groups {
		r.Total = r.Total.Round(2)
		r.Paid = r.Paid.Round(2)
		r.ToPay = r.Total.Sub(r.Paid)
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month < rows[j].Month
		}
		if rows[i].Employee != rows[j].Employee {
			return rows[i].Employee < rows[j].Employee
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
	return rows, issues
}

// Debts charges owners half the current cost of the goods they sold to
// themselves, per month. costs maps barcode to item cost.
func Debts(sales []Sale, costs map[string]decimal.Decimal, dir *Directory) ([]DebtRow, []Issue) {
	groups := map[employeeMonth]*DebtRow{}
	var issues []Issue
	two := decimal.NewFromInt(2)

	for _, s := range sales {
		month := MonthKey(s.Date)
		emp, found := dir.Resolve(s.EmployeeID, s.EmployeeName)
		if !found {
			issues = append(issues, Issue{
				Kind:     IssueUnknownEmployee,
				Source:   "sale",
				Ref:      s.ID,
				Employee: employeeLabel(s.EmployeeID, s.EmployeeName),
				Month:    month,
			})
			continue
		}
		if !emp.Owner {
			continue
		}
		cost, ok := costs[s.Barcode]
		if !ok {
			issues = append(issues, Issue{
				Kind:     IssueUnknownItem,
				Source:   "sale",
				Ref:      s.ID,
				Employee: emp.Name,
				Month:    month,
			})
			continue
		}

		key := employeeMonth{month: month, id: emp.ID}
		row, ok := groups[key]
		if !ok {
			row = &DebtRow{Month: month, EmployeeID: emp.ID, Employee: emp.Name, Debt: decimal.Zero}
			groups[key] = row
		}
		row.Debt = row.Debt.Add(cost.Mul(decimal.NewFromInt32(s.Quantity)).Div(two))
	}

	rows := make([]DebtRow, 0, len(groups))
	for _, r := range groups {
		r.Debt = r.Debt.Round(2)
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month < rows[j].Month
		}
		if rows[i].Employee != rows[j].Employee {
			return rows[i].Employee < rows[j].Employee
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
	return rows, issues
}

package enum

// ── Group A: Ledger (CHECK constrained in DB) ──

const (
	OperationTypeIncome  = "INCOME"
	OperationTypeSale    = "SALE"
	OperationTypeSalary  = "SALARY"
	OperationTypeCashIn  = "CASH_IN"
	OperationTypeTopUp   = "TOP_UP"
	OperationTypeExpense = "EXPENSE"
)

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCashless = "CASHLESS"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	SettingTaxCashless = "tax_cashless"
)

const (
	ChannelLedger    = "ledger"
	ChannelInventory = "inventory"
	ChannelStaff     = "staff"
)

// IsOperationType reports whether s is a known ledger operation type.
func IsOperationType(s string) bool {
	switch s {
	case OperationTypeIncome, OperationTypeSale, OperationTypeSalary,
		OperationTypeCashIn, OperationTypeTopUp, OperationTypeExpense:
		return true
	}
	return false
}

// IsPaymentMethod reports whether s is CASH or CASHLESS.
func IsPaymentMethod(s string) bool {
	return s == PaymentMethodCash || s == PaymentMethodCashless
}

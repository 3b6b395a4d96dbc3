package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// Record is one employee's pay for one period. Component and deduction
// amounts are authoritative; gross_pay, total_deductions and net_pay are
// always derived from them via Recalculate, never set directly.
type Record struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	// Shop scope at generation time, denormalized onto the record so
	// duplicate detection and scoped reads never depend on later roster
	// changes. Nil means the all-shops scope.
	ShopID *uuid.UUID

	PeriodStart time.Time
	PeriodEnd   time.Time

	// Hourly inputs; zero for salaried employees.
	HoursWorked   decimal.Decimal
	OvertimeHours decimal.Decimal

	// Pay components
	RegularPay    decimal.Decimal
	OvertimePay   decimal.Decimal
	CommissionPay decimal.Decimal
	BonusPay      decimal.Decimal

	// Deductions
	TaxDeduction       decimal.Decimal
	InsuranceDeduction decimal.Decimal
	OtherDeductions    decimal.Decimal

	// Derived amounts
	GrossPay        decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal

	Status string

	// Set only when the record transitions to paid.
	PaymentDate      *time.Time
	PaymentMethod    *string
	PaymentReference *string

	Notes *string

	// Joined in from the roster for list responses; not a column of
	// payroll_records.
	EmployeeName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recalculate rebuilds the derived amounts from components. Net pay may go
// negative when deductions exceed gross; that is a legal, representable
// outcome.
func (r *Record) Recalculate() {
	r.GrossPay = r.RegularPay.Add(r.OvertimePay).Add(r.CommissionPay).Add(r.BonusPay)
	r.TotalDeductions = r.TaxDeduction.Add(r.InsuranceDeduction).Add(r.OtherDeductions)
	r.NetPay = r.GrossPay.Sub(r.TotalDeductions)
}

// IsSettleable reports whether the record may join a payment batch.
func (r *Record) IsSettleable() bool {
	return r.Status == StatusPending || r.Status == StatusProcessed
}

// IsCancellable reports whether the record may still be cancelled.
// Paid and cancelled are terminal.
func (r *Record) IsCancellable() bool {
	return r.Status == StatusPending || r.Status == StatusProcessed
}

// Summary is a cached fold over the non-cancelled records of one
// (period, scope). It is recomputed from records, never patched.
type Summary struct {
	ID          uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	// Nil means "all shops".
	ShopID *uuid.UUID

	TotalEmployees  int
	TotalGrossPay   decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalNetPay     decimal.Decimal

	IsProcessed bool
	ProcessedAt *time.Time
	ProcessedBy *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

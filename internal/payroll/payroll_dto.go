package payroll

import "github.com/shopspring/decimal"

// EmployeeInput carries the caller-known figures for one employee in a
// processing run: hours from whatever time system the operator uses, and
// commission/bonus from sales or manual entry. Employees without an entry
// fall back to their standard hours with no extras.
type EmployeeInput struct {
	EmployeeID    string          `json:"employee_id" binding:"required,uuid"`
	HoursWorked   decimal.Decimal `json:"hours_worked"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	CommissionPay decimal.Decimal `json:"commission_pay"`
	BonusPay      decimal.Decimal `json:"bonus_pay"`
}

type ProcessPayrollRequest struct {
	PeriodStart     string          `json:"period_start" binding:"required"`
	PeriodEnd       string          `json:"period_end" binding:"required"`
	ShopID          *string         `json:"shop_id"`
	IncludeInactive bool            `json:"include_inactive"`
	Inputs          []EmployeeInput `json:"inputs"`
}

type GetRecordsFilterRequest struct {
	EmployeeID  string `form:"employee_id"`
	ShopID      string `form:"shop_id"`
	Status      string `form:"status"`
	PeriodStart string `form:"period_start"`
	PeriodEnd   string `form:"period_end"`
}

type GetSummariesFilterRequest struct {
	ShopID    string `form:"shop_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type RecordResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	ShopID       *string `json:"shop_id,omitempty"`
	PeriodStart  string  `json:"period_start"`
	PeriodEnd    string  `json:"period_end"`

	HoursWorked   decimal.Decimal `json:"hours_worked"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`

	RegularPay    decimal.Decimal `json:"regular_pay"`
	OvertimePay   decimal.Decimal `json:"overtime_pay"`
	CommissionPay decimal.Decimal `json:"commission_pay"`
	BonusPay      decimal.Decimal `json:"bonus_pay"`

	TaxDeduction       decimal.Decimal `json:"tax_deduction"`
	InsuranceDeduction decimal.Decimal `json:"insurance_deduction"`
	OtherDeductions    decimal.Decimal `json:"other_deductions"`

	GrossPay        decimal.Decimal `json:"gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`

	Status           string  `json:"status"`
	PaymentDate      *string `json:"payment_date,omitempty"`
	PaymentMethod    *string `json:"payment_method,omitempty"`
	PaymentReference *string `json:"payment_reference,omitempty"`
	Notes            *string `json:"notes,omitempty"`

	CreatedAt string `json:"created_at"`
}

type SummaryResponse struct {
	ID          string  `json:"id"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	ShopID      *string `json:"shop_id,omitempty"`
	ShopName    *string `json:"shop_name,omitempty"`

	TotalEmployees  int             `json:"total_employees"`
	TotalGrossPay   decimal.Decimal `json:"total_gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNetPay     decimal.Decimal `json:"total_net_pay"`

	IsProcessed bool    `json:"is_processed"`
	ProcessedAt *string `json:"processed_at,omitempty"`
	ProcessedBy *string `json:"processed_by,omitempty"`
}

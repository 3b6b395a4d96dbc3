package payroll

import (
	"time"

	"shop-payroll/internal/employee"
	payrollerrors "shop-payroll/internal/payroll/errors"

	"github.com/shopspring/decimal"
)

// Period is an inclusive date range aligned with the employee's pay cycle.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Validate() error {
	if p.Start.After(p.End) {
		return payrollerrors.ErrInvalidDateRange
	}
	return nil
}

// CalcInput carries the caller-supplied figures for one employee. Commission
// and bonus originate outside this engine (sales systems, manual entry) and
// pass through unchanged.
type CalcInput struct {
	HoursWorked   decimal.Decimal
	OvertimeHours decimal.Decimal
	CommissionPay decimal.Decimal
	BonusPay      decimal.Decimal
}

// Deductions is what a policy withholds from one gross amount.
type Deductions struct {
	Tax       decimal.Decimal
	Insurance decimal.Decimal
	Other     decimal.Decimal
}

// DeductionPolicy computes withholdings for a gross amount. Rates are policy,
// not engine code: callers plug in whatever their jurisdiction needs.
//
//go:generate mockgen -source=calculator.go -destination=mock/calculator_mock.go -package=mock
type DeductionPolicy interface {
	Deductions(gross decimal.Decimal, emp employee.Employee) Deductions
}

// FlatRatePolicy withholds flat percentages of gross. It is the reference
// policy, not tax advice for any jurisdiction.
type FlatRatePolicy struct {
	TaxRate       decimal.Decimal
	InsuranceRate decimal.Decimal
}

func (p FlatRatePolicy) Deductions(gross decimal.Decimal, _ employee.Employee) Deductions {
	return Deductions{
		Tax:       gross.Mul(p.TaxRate),
		Insurance: gross.Mul(p.InsuranceRate),
		Other:     decimal.Zero,
	}
}

// DefaultDeductionPolicy is 15% tax + 5% insurance.
func DefaultDeductionPolicy() FlatRatePolicy {
	return FlatRatePolicy{
		TaxRate:       decimal.NewFromFloat(0.15),
		InsuranceRate: decimal.NewFromFloat(0.05),
	}
}

// Compute builds the pay breakdown for one employee and period. The result
// is a detached Record (no id, no status) with components, deductions and
// derived amounts filled in.
//
// Salaried employees receive base_salary as regular pay for the whole period
// (periods align with the pay cycle, so there is no day-count proration) and
// any hours inputs are ignored. Hourly employees must report hours beyond
// standard as overtime_hours up front; silent reclassification would hide
// data-entry mistakes.
func Compute(emp employee.Employee, period Period, in CalcInput, policy DeductionPolicy) (Record, error) {
	if err := period.Validate(); err != nil {
		return Record{}, err
	}
	if in.HoursWorked.IsNegative() || in.OvertimeHours.IsNegative() {
		return Record{}, payrollerrors.ErrNegativeHours
	}
	if in.CommissionPay.IsNegative() || in.BonusPay.IsNegative() {
		return Record{}, payrollerrors.ErrNegativeAmount
	}

	rec := Record{
		EmployeeID:    emp.ID,
		ShopID:        emp.ShopID,
		PeriodStart:   period.Start,
		PeriodEnd:     period.End,
		CommissionPay: in.CommissionPay,
		BonusPay:      in.BonusPay,
	}

	if emp.IsHourly() {
		if in.HoursWorked.GreaterThan(emp.StandardHoursPerPeriod) {
			return Record{}, payrollerrors.ErrUnclassifiedOvertime
		}
		rec.HoursWorked = in.HoursWorked
		rec.OvertimeHours = in.OvertimeHours
		rec.RegularPay = emp.HourlyRate.Mul(decimal.Min(in.HoursWorked, emp.StandardHoursPerPeriod))
		rec.OvertimePay = emp.HourlyRate.Mul(emp.OvertimeMultiplier).Mul(in.OvertimeHours)
	} else {
		rec.HoursWorked = decimal.Zero
		rec.OvertimeHours = decimal.Zero
		rec.RegularPay = emp.BaseSalary
		rec.OvertimePay = decimal.Zero
	}

	rec.GrossPay = rec.RegularPay.Add(rec.OvertimePay).Add(rec.CommissionPay).Add(rec.BonusPay)

	ded := policy.Deductions(rec.GrossPay, emp)
	if ded.Tax.IsNegative() || ded.Insurance.IsNegative() || ded.Other.IsNegative() {
		return Record{}, payrollerrors.ErrNegativeDeduction
	}
	rec.TaxDeduction = ded.Tax
	rec.InsuranceDeduction = ded.Insurance
	rec.OtherDeductions = ded.Other

	rec.Recalculate()
	return rec, nil
}

package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusOnLeave    = "on_leave"
	StatusTerminated = "terminated"
)

const (
	ModeSalaried = "salaried"
	ModeHourly   = "hourly"
)

// Employee mirrors the roster owned by the employee-management service.
// This engine reads compensation terms and never mutates the table.
type Employee struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ShopID   *uuid.UUID `gorm:"type:uuid;index"`
	FullName string     `gorm:"column:full_name"`

	CompensationMode string          `gorm:"type:varchar(16);not null"`
	BaseSalary       decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	HourlyRate       decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0"`
	// Multiplier applied to the hourly rate for overtime hours, e.g. 1.5.
	OvertimeMultiplier     decimal.Decimal `gorm:"type:numeric(6,4);not null;default:1.5"`
	CommissionRate         decimal.Decimal `gorm:"type:numeric(6,4);not null;default:0"`
	StandardHoursPerPeriod decimal.Decimal `gorm:"type:numeric(8,2);not null;default:160"`

	EmploymentStatus string `gorm:"type:varchar(16);not null;index"`

	// Display-only back-link maintained by the directory; never traversed
	// by the payroll engine.
	ManagerID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Employee) TableName() string {
	return "employees"
}

// IsHourly reports whether pay is computed from hours rather than a fixed
// period salary.
func (e Employee) IsHourly() bool {
	return e.CompensationMode == ModeHourly
}

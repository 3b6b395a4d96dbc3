package statistics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PeriodTotals is a fold over non-cancelled ledger records in a date window.
type PeriodTotals struct {
	TotalRecords    int64           `gorm:"column:total_records"`
	TotalEmployees  int64           `gorm:"column:total_employees"`
	TotalGrossPay   decimal.Decimal `gorm:"column:total_gross_pay"`
	TotalDeductions decimal.Decimal `gorm:"column:total_deductions"`
	TotalNetPay     decimal.Decimal `gorm:"column:total_net_pay"`
}

// PendingTotals counts records still awaiting payment. Both pending and
// processed records are unsettled backlog.
type PendingTotals struct {
	Count       int64           `gorm:"column:count"`
	TotalNetPay decimal.Decimal `gorm:"column:total_net_pay"`
}

// SummarySnapshot is the processed summary for one exact (period, scope),
// used as a fast path when the ledger has not changed since processing.
type SummarySnapshot struct {
	TotalEmployees int64           `gorm:"column:total_employees"`
	TotalNetPay    decimal.Decimal `gorm:"column:total_net_pay"`
	IsProcessed    bool            `gorm:"column:is_processed"`
	ProcessedAt    *time.Time      `gorm:"column:processed_at"`
}

//go:generate mockgen -source=statistics_repo.go -destination=mock/statistics_repo_mock.go -package=mock
type Repository interface {
	PeriodTotals(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (PeriodTotals, error)
	PendingTotals(ctx context.Context, shopID *uuid.UUID) (PendingTotals, error)
	SummaryFor(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (*SummarySnapshot, error)
	// RecordsChangedSince reports whether any record of the exact
	// (period, scope) changed after the given instant.
	RecordsChangedSince(ctx context.Context, start, end time.Time, shopID *uuid.UUID, since time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) PeriodTotals(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (PeriodTotals, error) {
	var totals PeriodTotals
	query := `
SELECT
	COUNT(*) AS total_records,
	COUNT(DISTINCT employee_id) AS total_employees,
	COALESCE(SUM(gross_pay), 0) AS total_gross_pay,
	COALESCE(SUM(total_deductions), 0) AS total_deductions,
	COALESCE(SUM(net_pay), 0) AS total_net_pay
FROM payroll_records
WHERE period_start >= ?
	AND period_start <= ?
	AND status <> 'cancelled'
`
	args := []any{start, end}
	if shopID != nil {
		query += "	AND shop_id = ?\n"
		args = append(args, *shopID)
	}

	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&totals).Error
	return totals, err
}

func (r *repository) SummaryFor(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (*SummarySnapshot, error) {
	var rows []SummarySnapshot
	query := `
SELECT
	total_employees,
	total_net_pay,
	is_processed,
	processed_at
FROM payroll_summaries
WHERE period_start = ?
	AND period_end = ?
	AND shop_id IS NOT DISTINCT FROM ?
`
	err := r.db.WithContext(ctx).Raw(query, start, end, shopID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repository) RecordsChangedSince(ctx context.Context, start, end time.Time, shopID *uuid.UUID, since time.Time) (bool, error) {
	var count int64
	query := `
SELECT COUNT(*)
FROM payroll_records
WHERE period_start = ?
	AND period_end = ?
	AND shop_id IS NOT DISTINCT FROM ?
	AND updated_at > ?
`
	err := r.db.WithContext(ctx).Raw(query, start, end, shopID, since).Scan(&count).Error
	return count > 0, err
}

func (r *repository) PendingTotals(ctx context.Context, shopID *uuid.UUID) (PendingTotals, error) {
	var totals PendingTotals
	query := `
SELECT
	COUNT(*) AS count,
	COALESCE(SUM(net_pay), 0) AS total_net_pay
FROM payroll_records
WHERE status IN ('pending', 'processed')
`
	args := []any{}
	if shopID != nil {
		query += "	AND shop_id = ?\n"
		args = append(args, *shopID)
	}

	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&totals).Error
	return totals, err
}

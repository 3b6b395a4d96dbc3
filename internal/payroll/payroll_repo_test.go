package payroll_test

import (
	"context"
	"testing"
	"time"

	"shop-payroll/internal/payroll"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupPayrollRepositoryTest(t *testing.T) (payroll.Repository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	return payroll.NewRepository(db), sqlMock, func() { db.Close() }
}

func recordRowColumns() []string {
	return []string{
		"id", "employee_id", "shop_id",
		"period_start", "period_end",
		"hours_worked", "overtime_hours",
		"regular_pay", "overtime_pay", "commission_pay", "bonus_pay",
		"tax_deduction", "insurance_deduction", "other_deductions",
		"gross_pay", "total_deductions", "net_pay",
		"status", "payment_date", "payment_method", "payment_reference", "notes",
		"created_at", "updated_at",
	}
}

func addRecordRow(rows *sqlmock.Rows, id, employeeID uuid.UUID, status string, start, end time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(
		id.String(), employeeID.String(), nil,
		start, end,
		"0", "0",
		"4500", "0", "0", "0",
		"675", "225", "0",
		"4500", "900", "3600",
		status, nil, nil, nil, nil,
		now, now,
	)
}

func TestPayrollRepository_CountActiveForPeriod(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	t.Run("excludes cancelled records from the duplicate check", func(t *testing.T) {
		repo, sqlMock, cleanup := setupPayrollRepositoryTest(t)
		defer cleanup()

		// A period whose only records are cancelled counts as empty, so it
		// can be regenerated.
		sqlMock.ExpectQuery(`(?s)SELECT COUNT\(\*\).*FROM payroll_records.*shop_id IS NOT DISTINCT FROM \$3.*status <> \$4`).
			WithArgs(start, end, nil, payroll.StatusCancelled).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		count, err := repo.CountActiveForPeriod(ctx, start, end, nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), count)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("scopes the check to a shop", func(t *testing.T) {
		repo, sqlMock, cleanup := setupPayrollRepositoryTest(t)
		defer cleanup()

		shopID := uuid.New()
		sqlMock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WithArgs(start, end, &shopID, payroll.StatusCancelled).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		count, err := repo.CountActiveForPeriod(ctx, start, end, &shopID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestPayrollRepository_FindByIDsForUpdate(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	t.Run("locks the selected rows", func(t *testing.T) {
		repo, sqlMock, cleanup := setupPayrollRepositoryTest(t)
		defer cleanup()

		first := uuid.New()
		second := uuid.New()
		employeeID := uuid.New()

		rows := sqlmock.NewRows(recordRowColumns())
		addRecordRow(rows, first, employeeID, payroll.StatusPending, start, end)
		addRecordRow(rows, second, employeeID, payroll.StatusPaid, start, end)

		sqlMock.ExpectQuery(`(?s)SELECT.*FROM payroll_records WHERE id IN \(\$1, \$2\) FOR UPDATE`).
			WithArgs(first, second).
			WillReturnRows(rows)

		records, err := repo.FindByIDsForUpdate(ctx, []uuid.UUID{first, second})
		assert.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, first, records[0].ID)
		assert.Equal(t, payroll.StatusPending, records[0].Status)
		assert.Equal(t, payroll.StatusPaid, records[1].Status)
		assert.Equal(t, "3600", records[0].NetPay.String())
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("skips the query for an empty id list", func(t *testing.T) {
		repo, sqlMock, cleanup := setupPayrollRepositoryTest(t)
		defer cleanup()

		records, err := repo.FindByIDsForUpdate(ctx, nil)
		assert.NoError(t, err)
		assert.Nil(t, records)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestPayrollRepository_MarkPaid(t *testing.T) {
	ctx := context.Background()
	payment := payroll.Payment{
		Date:      time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Method:    "bank_transfer",
		Reference: "PAY-2026-001",
	}

	t.Run("stamps all records with the shared payment", func(t *testing.T) {
		repo, sqlMock, cleanup := setupPayrollRepositoryTest(t)
		defer cleanup()

		first := uuid.New()
		second := uuid.New()

		sqlMock.ExpectExec(`(?s)UPDATE payroll_records.*WHERE id IN \(\$6, \$7\)`).
			WithArgs(payment.Date, payment.Method, payment.Reference, nil, payroll.StatusPaid, first, second).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.MarkPaid(ctx, []uuid.UUID{first, second}, payment)
		assert.NoError(t, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("fails when fewer rows change than requested", func(t *testing.T) {
		repo, sqlMock, cleanup := setupPayrollRepositoryTest(t)
		defer cleanup()

		first := uuid.New()
		second := uuid.New()

		sqlMock.ExpectExec(`UPDATE payroll_records`).
			WithArgs(payment.Date, payment.Method, payment.Reference, nil, payroll.StatusPaid, first, second).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkPaid(ctx, []uuid.UUID{first, second}, payment)
		assert.ErrorContains(t, err, "1 of 2")
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestPayrollRepository_RecomputeSummary(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	t.Run("refolds the non-cancelled records into the stored summary", func(t *testing.T) {
		repo, sqlMock, cleanup := setupPayrollRepositoryTest(t)
		defer cleanup()

		summaryID := uuid.New()
		processedAt := time.Date(2026, 2, 28, 18, 0, 0, 0, time.UTC)
		processedBy := uuid.New()

		sqlMock.ExpectQuery(`(?s)SELECT.*COALESCE\(SUM\(gross_pay\), 0\).*FROM payroll_records.*status <> \$4`).
			WithArgs(start, end, nil, payroll.StatusCancelled).
			WillReturnRows(sqlmock.NewRows([]string{"count", "gross", "deductions", "net"}).
				AddRow(2, "9000", "1800", "7200"))

		sqlMock.ExpectQuery(`(?s)UPDATE payroll_summaries.*shop_id IS NOT DISTINCT FROM \$3.*RETURNING`).
			WithArgs(start, end, nil, 2, "9000", "1800", "7200").
			WillReturnRows(sqlmock.NewRows([]string{"id", "is_processed", "processed_at", "processed_by"}).
				AddRow(summaryID.String(), true, processedAt, processedBy.String()))

		summary, err := repo.RecomputeSummary(ctx, start, end, nil)
		assert.NoError(t, err)
		assert.Equal(t, summaryID, summary.ID)
		assert.Equal(t, 2, summary.TotalEmployees)
		assert.Equal(t, "9000", summary.TotalGrossPay.String())
		assert.Equal(t, "7200", summary.TotalNetPay.String())
		assert.True(t, summary.IsProcessed)
		if assert.NotNil(t, summary.ProcessedAt) {
			assert.Equal(t, processedAt, *summary.ProcessedAt)
		}
		if assert.NotNil(t, summary.ProcessedBy) {
			assert.Equal(t, processedBy, *summary.ProcessedBy)
		}
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("returns the fold when no summary is stored yet", func(t *testing.T) {
		repo, sqlMock, cleanup := setupPayrollRepositoryTest(t)
		defer cleanup()

		sqlMock.ExpectQuery(`FROM payroll_records`).
			WithArgs(start, end, nil, payroll.StatusCancelled).
			WillReturnRows(sqlmock.NewRows([]string{"count", "gross", "deductions", "net"}).
				AddRow(0, "0", "0", "0"))

		sqlMock.ExpectQuery(`UPDATE payroll_summaries`).
			WithArgs(start, end, nil, 0, "0", "0", "0").
			WillReturnRows(sqlmock.NewRows([]string{"id", "is_processed", "processed_at", "processed_by"}))

		summary, err := repo.RecomputeSummary(ctx, start, end, nil)
		assert.NoError(t, err)
		assert.Equal(t, uuid.Nil, summary.ID)
		assert.Equal(t, 0, summary.TotalEmployees)
		assert.Equal(t, "0", summary.TotalNetPay.String())
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

package payroll

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordFilter narrows record reads. Nil fields match everything.
type RecordFilter struct {
	EmployeeID  *uuid.UUID
	ShopID      *uuid.UUID
	Status      *string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// SummaryFilter narrows summary reads.
type SummaryFilter struct {
	ShopID    *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

// Payment is the single payment event applied identically to every record in
// a settlement batch.
type Payment struct {
	Date      time.Time
	Method    string
	Reference string
	Notes     *string
}

// Repository is the period ledger: the only mutable shared state of the
// engine. All writes run through WithTx so services control transaction
// boundaries and row locks.
//
//go:generate mockgen -source=payroll_repo.go -destination=mock/payroll_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Insert(ctx context.Context, rec *Record) error
	ListRecords(ctx context.Context, f RecordFilter) ([]Record, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// FindByIDsForUpdate locks the selected rows for the enclosing
	// transaction, so a record cannot be settled twice or cancelled
	// mid-batch.
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Record, error)
	// CountActiveForPeriod counts non-cancelled records for an exact
	// (period, scope); any hit means the period was already processed.
	CountActiveForPeriod(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (int64, error)
	MarkPaid(ctx context.Context, ids []uuid.UUID, p Payment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	UpsertSummary(ctx context.Context, s *Summary) error
	ListSummaries(ctx context.Context, f SummaryFilter) ([]Summary, error)
	// RecomputeSummary refolds the summary for (period, scope) from its
	// non-cancelled records. The summary is a cache; this is the only way
	// its totals change after processing.
	RecomputeSummary(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (*Summary, error)
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

type querier interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func (r *repository) q() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const recordColumns = `
	id::text, employee_id::text, shop_id::text,
	period_start, period_end,
	hours_worked, overtime_hours,
	regular_pay, overtime_pay, commission_pay, bonus_pay,
	tax_deduction, insurance_deduction, other_deductions,
	gross_pay, total_deductions, net_pay,
	status, payment_date, payment_method, payment_reference, notes,
	created_at, updated_at`

func (r *repository) Insert(ctx context.Context, rec *Record) error {
	query := `
INSERT INTO payroll_records (
	id, employee_id, shop_id, period_start, period_end,
	hours_worked, overtime_hours,
	regular_pay, overtime_pay, commission_pay, bonus_pay,
	tax_deduction, insurance_deduction, other_deductions,
	gross_pay, total_deductions, net_pay,
	status, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
`
	_, err := r.q().ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.ShopID, rec.PeriodStart, rec.PeriodEnd,
		rec.HoursWorked, rec.OvertimeHours,
		rec.RegularPay, rec.OvertimePay, rec.CommissionPay, rec.BonusPay,
		rec.TaxDeduction, rec.InsuranceDeduction, rec.OtherDeductions,
		rec.GrossPay, rec.TotalDeductions, rec.NetPay,
		rec.Status, rec.Notes,
	)
	return err
}

func (r *repository) ListRecords(ctx context.Context, f RecordFilter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.EmployeeID != nil {
		where = append(where, "pr.employee_id = "+arg(*f.EmployeeID))
	}
	if f.ShopID != nil {
		where = append(where, "pr.shop_id = "+arg(*f.ShopID))
	}
	if f.Status != nil {
		where = append(where, "pr.status = "+arg(*f.Status))
	}
	if f.PeriodStart != nil {
		where = append(where, "pr.period_start >= "+arg(*f.PeriodStart))
	}
	if f.PeriodEnd != nil {
		where = append(where, "pr.period_end <= "+arg(*f.PeriodEnd))
	}

	query := `
SELECT
	pr.id::text, pr.employee_id::text, pr.shop_id::text,
	pr.period_start, pr.period_end,
	pr.hours_worked, pr.overtime_hours,
	pr.regular_pay, pr.overtime_pay, pr.commission_pay, pr.bonus_pay,
	pr.tax_deduction, pr.insurance_deduction, pr.other_deductions,
	pr.gross_pay, pr.total_deductions, pr.net_pay,
	pr.status, pr.payment_date, pr.payment_method, pr.payment_reference, pr.notes,
	pr.created_at, pr.updated_at,
	e.full_name AS employee_name
FROM payroll_records pr
JOIN employees e ON e.id = pr.employee_id
`
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += "ORDER BY pr.period_start DESC, e.full_name ASC"

	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows, true)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := "SELECT" + recordColumns + "\nFROM payroll_records WHERE id = $1"

	rows, err := r.q().QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	rec, err := scanRecord(rows, false)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := "SELECT" + recordColumns + "\nFROM payroll_records WHERE id IN (" +
		strings.Join(placeholders, ", ") + ") FOR UPDATE"

	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *repository) CountActiveForPeriod(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (int64, error) {
	query := `
SELECT COUNT(*)
FROM payroll_records
WHERE period_start = $1
	AND period_end = $2
	AND shop_id IS NOT DISTINCT FROM $3
	AND status <> $4
`
	var count int64
	err := r.q().QueryRowContext(ctx, query, start, end, shopID, StatusCancelled).Scan(&count)
	return count, err
}

func (r *repository) MarkPaid(ctx context.Context, ids []uuid.UUID, p Payment) error {
	if len(ids) == 0 {
		return nil
	}

	args := []any{p.Date, p.Method, p.Reference, p.Notes, StatusPaid}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	query := `
UPDATE payroll_records
SET
	status = $5,
	payment_date = $1,
	payment_method = $2,
	payment_reference = $3,
	notes = COALESCE($4, notes),
	updated_at = NOW()
WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	res, err := r.q().ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != int64(len(ids)) {
		return fmt.Errorf("mark paid touched %d of %d records", affected, len(ids))
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE payroll_records SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.q().ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const summaryColumns = `
	id::text, period_start, period_end, shop_id::text,
	total_employees, total_gross_pay, total_deductions, total_net_pay,
	is_processed, processed_at, processed_by::text,
	created_at, updated_at`

func (r *repository) UpsertSummary(ctx context.Context, s *Summary) error {
	update := `
UPDATE payroll_summaries
SET
	total_employees = $4,
	total_gross_pay = $5,
	total_deductions = $6,
	total_net_pay = $7,
	is_processed = $8,
	processed_at = $9,
	processed_by = $10,
	updated_at = NOW()
WHERE period_start = $1
	AND period_end = $2
	AND shop_id IS NOT DISTINCT FROM $3
RETURNING id::text
`
	var existingID string
	err := r.q().QueryRowContext(ctx, update,
		s.PeriodStart, s.PeriodEnd, s.ShopID,
		s.TotalEmployees, s.TotalGrossPay, s.TotalDeductions, s.TotalNetPay,
		s.IsProcessed, s.ProcessedAt, s.ProcessedBy,
	).Scan(&existingID)
	if err == nil {
		s.ID = uuid.MustParse(existingID)
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	insert := `
INSERT INTO payroll_summaries (
	id, period_start, period_end, shop_id,
	total_employees, total_gross_pay, total_deductions, total_net_pay,
	is_processed, processed_at, processed_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err = r.q().ExecContext(ctx, insert,
		s.ID, s.PeriodStart, s.PeriodEnd, s.ShopID,
		s.TotalEmployees, s.TotalGrossPay, s.TotalDeductions, s.TotalNetPay,
		s.IsProcessed, s.ProcessedAt, s.ProcessedBy,
	)
	return err
}

func (r *repository) ListSummaries(ctx context.Context, f SummaryFilter) ([]Summary, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ShopID != nil {
		where = append(where, "shop_id = "+arg(*f.ShopID))
	}
	if f.StartDate != nil {
		where = append(where, "period_start >= "+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		where = append(where, "period_end <= "+arg(*f.EndDate))
	}

	query := "SELECT" + summaryColumns + "\nFROM payroll_summaries\n"
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += "ORDER BY period_start DESC"

	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *repository) RecomputeSummary(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (*Summary, error) {
	fold := `
SELECT
	COUNT(*),
	COALESCE(SUM(gross_pay), 0),
	COALESCE(SUM(total_deductions), 0),
	COALESCE(SUM(net_pay), 0)
FROM payroll_records
WHERE period_start = $1
	AND period_end = $2
	AND shop_id IS NOT DISTINCT FROM $3
	AND status <> $4
`
	var s Summary
	s.PeriodStart = start
	s.PeriodEnd = end
	s.ShopID = shopID

	err := r.q().QueryRowContext(ctx, fold, start, end, shopID, StatusCancelled).Scan(
		&s.TotalEmployees, &s.TotalGrossPay, &s.TotalDeductions, &s.TotalNetPay,
	)
	if err != nil {
		return nil, err
	}

	update := `
UPDATE payroll_summaries
SET
	total_employees = $4,
	total_gross_pay = $5,
	total_deductions = $6,
	total_net_pay = $7,
	updated_at = NOW()
WHERE period_start = $1
	AND period_end = $2
	AND shop_id IS NOT DISTINCT FROM $3
RETURNING id::text, is_processed, processed_at, processed_by::text
`
	var (
		id          string
		processedAt sql.NullTime
		processedBy sql.NullString
	)
	err = r.q().QueryRowContext(ctx, update,
		start, end, shopID,
		s.TotalEmployees, s.TotalGrossPay, s.TotalDeductions, s.TotalNetPay,
	).Scan(&id, &s.IsProcessed, &processedAt, &processedBy)
	if err == sql.ErrNoRows {
		// No summary yet for this scope; nothing to refresh.
		return &s, nil
	}
	if err != nil {
		return nil, err
	}

	s.ID = uuid.MustParse(id)
	if processedAt.Valid {
		s.ProcessedAt = &processedAt.Time
	}
	if processedBy.Valid {
		pb, err := uuid.Parse(processedBy.String)
		if err == nil {
			s.ProcessedBy = &pb
		}
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, withEmployeeName bool) (Record, error) {
	var (
		rec         Record
		id          string
		employeeID  string
		shopID      sql.NullString
		paymentDate sql.NullTime
		method      sql.NullString
		reference   sql.NullString
		notes       sql.NullString
	)

	dest := []any{
		&id, &employeeID, &shopID,
		&rec.PeriodStart, &rec.PeriodEnd,
		&rec.HoursWorked, &rec.OvertimeHours,
		&rec.RegularPay, &rec.OvertimePay, &rec.CommissionPay, &rec.BonusPay,
		&rec.TaxDeduction, &rec.InsuranceDeduction, &rec.OtherDeductions,
		&rec.GrossPay, &rec.TotalDeductions, &rec.NetPay,
		&rec.Status, &paymentDate, &method, &reference, &notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	}
	if withEmployeeName {
		dest = append(dest, &rec.EmployeeName)
	}

	if err := row.Scan(dest...); err != nil {
		return Record{}, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return Record{}, err
	}
	rec.ID = parsedID

	parsedEmployeeID, err := uuid.Parse(employeeID)
	if err != nil {
		return Record{}, err
	}
	rec.EmployeeID = parsedEmployeeID

	if shopID.Valid {
		sid, err := uuid.Parse(shopID.String)
		if err != nil {
			return Record{}, err
		}
		rec.ShopID = &sid
	}
	if paymentDate.Valid {
		rec.PaymentDate = &paymentDate.Time
	}
	if method.Valid {
		rec.PaymentMethod = &method.String
	}
	if reference.Valid {
		rec.PaymentReference = &reference.String
	}
	if notes.Valid {
		rec.Notes = &notes.String
	}

	return rec, nil
}

func scanSummary(row rowScanner) (Summary, error) {
	var (
		s           Summary
		id          string
		shopID      sql.NullString
		processedAt sql.NullTime
		processedBy sql.NullString
	)

	err := row.Scan(
		&id, &s.PeriodStart, &s.PeriodEnd, &shopID,
		&s.TotalEmployees, &s.TotalGrossPay, &s.TotalDeductions, &s.TotalNetPay,
		&s.IsProcessed, &processedAt, &processedBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return Summary{}, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return Summary{}, err
	}
	s.ID = parsedID

	if shopID.Valid {
		sid, err := uuid.Parse(shopID.String)
		if err != nil {
			return Summary{}, err
		}
		s.ShopID = &sid
	}
	if processedAt.Valid {
		s.ProcessedAt = &processedAt.Time
	}
	if processedBy.Valid {
		pb, err := uuid.Parse(processedBy.String)
		if err != nil {
			return Summary{}, err
		}
		s.ProcessedBy = &pb
	}

	return s, nil
}

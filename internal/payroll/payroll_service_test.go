package payroll_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"shop-payroll/internal/employee"
	"shop-payroll/internal/payroll"
	payrollerrors "shop-payroll/internal/payroll/errors"
	"shop-payroll/internal/shop"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakePayrollRepository struct {
	withTxFn               func(tx *sql.Tx) payroll.Repository
	insertFn               func(ctx context.Context, rec *payroll.Record) error
	listRecordsFn          func(ctx context.Context, f payroll.RecordFilter) ([]payroll.Record, error)
	findByIDFn             func(ctx context.Context, id uuid.UUID) (*payroll.Record, error)
	findByIDsForUpdateFn   func(ctx context.Context, ids []uuid.UUID) ([]payroll.Record, error)
	countActiveForPeriodFn func(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (int64, error)
	markPaidFn             func(ctx context.Context, ids []uuid.UUID, p payroll.Payment) error
	updateStatusFn         func(ctx context.Context, id uuid.UUID, status string) error
	upsertSummaryFn        func(ctx context.Context, s *payroll.Summary) error
	listSummariesFn        func(ctx context.Context, f payroll.SummaryFilter) ([]payroll.Summary, error)
	recomputeSummaryFn     func(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (*payroll.Summary, error)
}

func (f *fakePayrollRepository) WithTx(tx *sql.Tx) payroll.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakePayrollRepository) Insert(ctx context.Context, rec *payroll.Record) error {
	if f.insertFn != nil {
		return f.insertFn(ctx, rec)
	}
	return nil
}

func (f *fakePayrollRepository) ListRecords(ctx context.Context, filter payroll.RecordFilter) ([]payroll.Record, error) {
	if f.listRecordsFn != nil {
		return f.listRecordsFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakePayrollRepository) FindByID(ctx context.Context, id uuid.UUID) (*payroll.Record, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *fakePayrollRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]payroll.Record, error) {
	if f.findByIDsForUpdateFn != nil {
		return f.findByIDsForUpdateFn(ctx, ids)
	}
	return nil, nil
}

func (f *fakePayrollRepository) CountActiveForPeriod(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (int64, error) {
	if f.countActiveForPeriodFn != nil {
		return f.countActiveForPeriodFn(ctx, start, end, shopID)
	}
	return 0, nil
}

func (f *fakePayrollRepository) MarkPaid(ctx context.Context, ids []uuid.UUID, p payroll.Payment) error {
	if f.markPaidFn != nil {
		return f.markPaidFn(ctx, ids, p)
	}
	return nil
}

func (f *fakePayrollRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (f *fakePayrollRepository) UpsertSummary(ctx context.Context, s *payroll.Summary) error {
	if f.upsertSummaryFn != nil {
		return f.upsertSummaryFn(ctx, s)
	}
	return nil
}

func (f *fakePayrollRepository) ListSummaries(ctx context.Context, filter payroll.SummaryFilter) ([]payroll.Summary, error) {
	if f.listSummariesFn != nil {
		return f.listSummariesFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakePayrollRepository) RecomputeSummary(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (*payroll.Summary, error) {
	if f.recomputeSummaryFn != nil {
		return f.recomputeSummaryFn(ctx, start, end, shopID)
	}
	return &payroll.Summary{}, nil
}

type fakeEmployeeRepository struct {
	findEligibleFn func(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]employee.Employee, error)
	namesByIDFn    func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

func (f *fakeEmployeeRepository) FindEligible(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]employee.Employee, error) {
	if f.findEligibleFn != nil {
		return f.findEligibleFn(ctx, shopID, includeInactive)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if f.namesByIDFn != nil {
		return f.namesByIDFn(ctx, ids)
	}
	return map[uuid.UUID]string{}, nil
}

type fakeShopRepository struct {
	findByIDFn  func(ctx context.Context, id uuid.UUID) (*shop.Shop, error)
	namesByIDFn func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

func (f *fakeShopRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.Shop, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *fakeShopRepository) NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if f.namesByIDFn != nil {
		return f.namesByIDFn(ctx, ids)
	}
	return map[uuid.UUID]string{}, nil
}

type fakeLocker struct {
	acquireFn func(ctx context.Context, key string) (func(), bool, error)
	lastKey   string
}

func (f *fakeLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	f.lastKey = key
	if f.acquireFn != nil {
		return f.acquireFn(ctx, key)
	}
	return func() {}, true, nil
}

type payrollServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   payroll.Service
	repo      *fakePayrollRepository
	employees *fakeEmployeeRepository
	shops     *fakeShopRepository
	locker    *fakeLocker
}

func setupPayrollServiceTest(t *testing.T) *payrollServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakePayrollRepository{}
	employees := &fakeEmployeeRepository{}
	shops := &fakeShopRepository{}
	locker := &fakeLocker{}
	svc := payroll.NewService(db, repo, employees, shops, locker)

	return &payrollServiceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		employees: employees,
		shops:     shops,
		locker:    locker,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestPayrollService_Process(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)

	hourly := hourlyEmployee("28.125")
	salaried := salariedEmployee("4500")
	deps.employees.findEligibleFn = func(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]employee.Employee, error) {
		return []employee.Employee{salaried, hourly}, nil
	}

	var inserted []payroll.Record
	deps.repo.insertFn = func(ctx context.Context, rec *payroll.Record) error {
		inserted = append(inserted, *rec)
		return nil
	}
	var savedSummary payroll.Summary
	deps.repo.upsertSummaryFn = func(ctx context.Context, s *payroll.Summary) error {
		s.ID = uuid.New()
		savedSummary = *s
		return nil
	}

	resp, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
		PeriodStart: "2026-02-01",
		PeriodEnd:   "2026-02-28",
		Inputs: []payroll.EmployeeInput{
			{
				EmployeeID:    hourly.ID.String(),
				HoursWorked:   decimal.RequireFromString("160"),
				OvertimeHours: decimal.RequireFromString("8"),
			},
		},
	})

	assert.NoError(t, err)
	assert.Len(t, inserted, 2)
	for _, rec := range inserted {
		assert.Equal(t, payroll.StatusPending, rec.Status)
		assert.NotEqual(t, uuid.Nil, rec.ID)
	}

	// 3600 net for the salaried employee, 3870 for the hourly one after
	// the default 15% + 5% withholding.
	assert.Equal(t, 2, savedSummary.TotalEmployees)
	assertDecimalEqual(t, "9337.5", savedSummary.TotalGrossPay)
	assertDecimalEqual(t, "1867.5", savedSummary.TotalDeductions)
	assertDecimalEqual(t, "7470", savedSummary.TotalNetPay)
	assert.True(t, savedSummary.IsProcessed)
	assert.NotNil(t, savedSummary.ProcessedAt)

	assert.Equal(t, 2, resp.TotalEmployees)
	assert.True(t, resp.IsProcessed)
	assert.Equal(t, "payroll:process:2026-02-01:2026-02-28:all", deps.locker.lastKey)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Process_DefaultsHourlyToStandardHours(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)

	hourly := hourlyEmployee("20")
	deps.employees.findEligibleFn = func(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]employee.Employee, error) {
		return []employee.Employee{hourly}, nil
	}

	var inserted payroll.Record
	deps.repo.insertFn = func(ctx context.Context, rec *payroll.Record) error {
		inserted = *rec
		return nil
	}

	_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
		PeriodStart: "2026-02-01",
		PeriodEnd:   "2026-02-28",
	})

	assert.NoError(t, err)
	assertDecimalEqual(t, "160", inserted.HoursWorked)
	assertDecimalEqual(t, "3200", inserted.RegularPay)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Process_PeriodAlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, false)

	deps.employees.findEligibleFn = func(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]employee.Employee, error) {
		return []employee.Employee{salariedEmployee("4500")}, nil
	}
	deps.repo.countActiveForPeriodFn = func(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (int64, error) {
		return 3, nil
	}
	deps.repo.insertFn = func(ctx context.Context, rec *payroll.Record) error {
		t.Fatal("no record should be written for an already processed period")
		return nil
	}

	_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
		PeriodStart: "2026-02-01",
		PeriodEnd:   "2026-02-28",
	})

	assert.ErrorIs(t, err, payrollerrors.ErrPeriodAlreadyProcessed)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Process_DuplicateInsertMapsToConflict(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, false)

	deps.employees.findEligibleFn = func(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]employee.Employee, error) {
		return []employee.Employee{salariedEmployee("4500")}, nil
	}
	// The pre-check saw nothing, but a racing run beat this one to the
	// insert and the unique index fired.
	deps.repo.insertFn = func(ctx context.Context, rec *payroll.Record) error {
		return &pgconn.PgError{Code: "23505", ConstraintName: "uq_payroll_record_period"}
	}

	_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
		PeriodStart: "2026-02-01",
		PeriodEnd:   "2026-02-28",
	})

	assert.ErrorIs(t, err, payrollerrors.ErrPeriodAlreadyProcessed)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Process_ConcurrentRunRejected(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	deps.locker.acquireFn = func(ctx context.Context, key string) (func(), bool, error) {
		return nil, false, nil
	}

	_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
		PeriodStart: "2026-02-01",
		PeriodEnd:   "2026-02-28",
	})

	assert.ErrorIs(t, err, payrollerrors.ErrProcessingInProgress)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Process_InputValidation(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	t.Run("bad actor id", func(t *testing.T) {
		_, err := deps.service.Process(ctx, "not-a-uuid", payroll.ProcessPayrollRequest{
			PeriodStart: "2026-02-01",
			PeriodEnd:   "2026-02-28",
		})
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidActorID)
	})

	t.Run("bad date format", func(t *testing.T) {
		_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
			PeriodStart: "01/02/2026",
			PeriodEnd:   "2026-02-28",
		})
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidDateFormat)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
			PeriodStart: "2026-02-28",
			PeriodEnd:   "2026-02-01",
		})
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidDateRange)
	})

	t.Run("bad shop id", func(t *testing.T) {
		badShop := "nope"
		_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
			PeriodStart: "2026-02-01",
			PeriodEnd:   "2026-02-28",
			ShopID:      &badShop,
		})
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidShopID)
	})
}

func TestPayrollService_Process_NoEligibleEmployees(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	deps.employees.findEligibleFn = func(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]employee.Employee, error) {
		return nil, nil
	}

	_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
		PeriodStart: "2026-02-01",
		PeriodEnd:   "2026-02-28",
	})

	assert.ErrorIs(t, err, payrollerrors.ErrNoEligibleEmployees)
}

func TestPayrollService_Process_IncludeInactivePassthrough(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)

	var gotIncludeInactive bool
	deps.employees.findEligibleFn = func(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]employee.Employee, error) {
		gotIncludeInactive = includeInactive
		return []employee.Employee{salariedEmployee("4500")}, nil
	}

	_, err := deps.service.Process(ctx, actorID, payroll.ProcessPayrollRequest{
		PeriodStart:     "2026-02-01",
		PeriodEnd:       "2026-02-28",
		IncludeInactive: true,
	})

	assert.NoError(t, err)
	assert.True(t, gotIncludeInactive)
}

func TestPayrollService_GetRecords(t *testing.T) {
	ctx := context.Background()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	t.Run("invalid status filter", func(t *testing.T) {
		_, err := deps.service.GetRecords(ctx, payroll.GetRecordsFilterRequest{Status: "draft"})
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatusFilter)
	})

	t.Run("filter passthrough", func(t *testing.T) {
		employeeID := uuid.New()
		var gotFilter payroll.RecordFilter
		deps.repo.listRecordsFn = func(ctx context.Context, f payroll.RecordFilter) ([]payroll.Record, error) {
			gotFilter = f
			return []payroll.Record{{
				ID:           uuid.New(),
				EmployeeID:   employeeID,
				EmployeeName: "Sam Carver",
				PeriodStart:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
				PeriodEnd:    time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
				Status:       payroll.StatusPending,
			}}, nil
		}

		resp, err := deps.service.GetRecords(ctx, payroll.GetRecordsFilterRequest{
			EmployeeID: employeeID.String(),
			Status:     payroll.StatusPending,
		})

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, "Sam Carver", resp[0].EmployeeName)
		assert.Equal(t, employeeID, *gotFilter.EmployeeID)
		assert.Equal(t, payroll.StatusPending, *gotFilter.Status)
	})
}

func TestPayrollService_GetRecordByID_NotFound(t *testing.T) {
	ctx := context.Background()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*payroll.Record, error) {
		return nil, sql.ErrNoRows
	}

	_, err := deps.service.GetRecordByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, payrollerrors.ErrRecordNotFound)
}

func TestPayrollService_GetSummaries_JoinsShopNames(t *testing.T) {
	ctx := context.Background()

	deps := setupPayrollServiceTest(t)
	defer deps.db.Close()

	shopID := uuid.New()
	deps.repo.listSummariesFn = func(ctx context.Context, f payroll.SummaryFilter) ([]payroll.Summary, error) {
		return []payroll.Summary{
			{ID: uuid.New(), ShopID: &shopID, TotalEmployees: 4},
			{ID: uuid.New(), TotalEmployees: 9},
		}, nil
	}
	deps.shops.namesByIDFn = func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
		return map[uuid.UUID]string{shopID: "Harbor Street"}, nil
	}

	resp, err := deps.service.GetSummaries(ctx, payroll.GetSummariesFilterRequest{})

	assert.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, "Harbor Street", *resp[0].ShopName)
	assert.Nil(t, resp[1].ShopName)
}

package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shop-payroll/internal/employee"
	"shop-payroll/internal/events"
	"shop-payroll/internal/messaging/kafka"
	payrollerrors "shop-payroll/internal/payroll/errors"
	"shop-payroll/internal/shared/contextutil"
	"shop-payroll/internal/shared/lock"
	"shop-payroll/internal/shop"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=payroll_service.go -destination=mock/payroll_service_mock.go -package=mock
type Service interface {
	// Process generates one pending record per eligible employee for the
	// period and persists the period summary. It is all-or-nothing: any
	// overlap with existing non-cancelled records fails the whole run.
	Process(ctx context.Context, actorID string, req ProcessPayrollRequest) (SummaryResponse, error)
	GetRecords(ctx context.Context, req GetRecordsFilterRequest) ([]RecordResponse, error)
	GetRecordByID(ctx context.Context, id string) (RecordResponse, error)
	GetSummaries(ctx context.Context, req GetSummariesFilterRequest) ([]SummaryResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	shops     shop.Repository
	locker    lock.Locker
	outbox    kafka.OutboxRepository
	policy    DeductionPolicy
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	shops shop.Repository,
	locker lock.Locker,
) Service {
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		shops:     shops,
		locker:    locker,
		policy:    DefaultDeductionPolicy(),
	}
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	shops shop.Repository,
	locker lock.Locker,
	outbox kafka.OutboxRepository,
) Service {
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		shops:     shops,
		locker:    locker,
		outbox:    outbox,
		policy:    DefaultDeductionPolicy(),
	}
}

func (s *service) Process(
	ctx context.Context,
	actorID string,
	req ProcessPayrollRequest,
) (SummaryResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return SummaryResponse{}, payrollerrors.ErrInvalidActorID
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return SummaryResponse{}, err
	}

	var shopID *uuid.UUID
	if req.ShopID != nil && *req.ShopID != "" {
		parsed, err := uuid.Parse(*req.ShopID)
		if err != nil {
			return SummaryResponse{}, payrollerrors.ErrInvalidShopID
		}
		shopID = &parsed
	}

	inputs := make(map[uuid.UUID]CalcInput, len(req.Inputs))
	for _, in := range req.Inputs {
		employeeID, err := uuid.Parse(in.EmployeeID)
		if err != nil {
			return SummaryResponse{}, payrollerrors.ErrInvalidEmployeeID
		}
		inputs[employeeID] = CalcInput{
			HoursWorked:   in.HoursWorked,
			OvertimeHours: in.OvertimeHours,
			CommissionPay: in.CommissionPay,
			BonusPay:      in.BonusPay,
		}
	}

	// Serialize concurrent runs for the same (period, scope). The ledger's
	// unique index backstops this for runs racing from other instances
	// when redis is unavailable.
	release, ok, err := s.locker.Acquire(ctx, processLockKey(period, shopID))
	if err != nil {
		return SummaryResponse{}, err
	}
	if !ok {
		return SummaryResponse{}, payrollerrors.ErrProcessingInProgress
	}
	defer release()

	roster, err := s.employees.FindEligible(ctx, shopID, req.IncludeInactive)
	if err != nil {
		return SummaryResponse{}, err
	}
	if len(roster) == 0 {
		return SummaryResponse{}, payrollerrors.ErrNoEligibleEmployees
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SummaryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	existing, err := qtx.CountActiveForPeriod(ctx, period.Start, period.End, shopID)
	if err != nil {
		return SummaryResponse{}, err
	}
	if existing > 0 {
		return SummaryResponse{}, payrollerrors.ErrPeriodAlreadyProcessed
	}

	var (
		totalGross      = decimal.Zero
		totalDeductions = decimal.Zero
		totalNet        = decimal.Zero
	)

	for _, emp := range roster {
		input, given := inputs[emp.ID]
		if !given && emp.IsHourly() {
			// Hours are known inputs; without an explicit figure the
			// standard period hours apply.
			input.HoursWorked = emp.StandardHoursPerPeriod
		}

		rec, err := Compute(emp, period, input, s.policy)
		if err != nil {
			return SummaryResponse{}, err
		}
		rec.ID = uuid.New()
		rec.ShopID = shopID
		rec.Status = StatusPending

		if err := qtx.Insert(ctx, &rec); err != nil {
			mapped := mapRepositoryError(err)
			if errors.Is(mapped, payrollerrors.ErrDuplicateRecord) {
				// One overlapping record fails the whole run; a partially
				// generated period would produce a confusing summary.
				return SummaryResponse{}, payrollerrors.ErrPeriodAlreadyProcessed
			}
			return SummaryResponse{}, mapped
		}

		totalGross = totalGross.Add(rec.GrossPay)
		totalDeductions = totalDeductions.Add(rec.TotalDeductions)
		totalNet = totalNet.Add(rec.NetPay)
	}

	now := time.Now().UTC()
	summary := Summary{
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		ShopID:          shopID,
		TotalEmployees:  len(roster),
		TotalGrossPay:   totalGross,
		TotalDeductions: totalDeductions,
		TotalNetPay:     totalNet,
		IsProcessed:     true,
		ProcessedAt:     &now,
		ProcessedBy:     &actorUUID,
	}

	if err := qtx.UpsertSummary(ctx, &summary); err != nil {
		return SummaryResponse{}, err
	}

	if s.outbox != nil {
		if err := s.enqueueProcessedEvent(ctx, tx, summary, actorID); err != nil {
			return SummaryResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return SummaryResponse{}, err
	}

	return s.summaryResponse(ctx, summary), nil
}

func (s *service) GetRecords(
	ctx context.Context,
	req GetRecordsFilterRequest,
) ([]RecordResponse, error) {
	filter, err := buildRecordFilter(req)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListRecords(ctx, filter)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	resp := make([]RecordResponse, len(records))
	for i, rec := range records {
		resp[i] = MapRecordResponse(rec)
	}
	return resp, nil
}

func (s *service) GetRecordByID(
	ctx context.Context,
	id string,
) (RecordResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return RecordResponse{}, payrollerrors.ErrRecordNotFound
	}

	rec, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		return RecordResponse{}, mapRepositoryError(err)
	}

	return MapRecordResponse(*rec), nil
}

func (s *service) GetSummaries(
	ctx context.Context,
	req GetSummariesFilterRequest,
) ([]SummaryResponse, error) {
	filter, err := buildSummaryFilter(req)
	if err != nil {
		return nil, err
	}

	summaries, err := s.repo.ListSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	shopIDs := make([]uuid.UUID, 0, len(summaries))
	for _, sum := range summaries {
		if sum.ShopID != nil {
			shopIDs = append(shopIDs, *sum.ShopID)
		}
	}
	names, err := s.shops.NamesByID(ctx, shopIDs)
	if err != nil {
		return nil, err
	}

	resp := make([]SummaryResponse, len(summaries))
	for i, sum := range summaries {
		sr := MapSummaryResponse(sum)
		if sum.ShopID != nil {
			if name, ok := names[*sum.ShopID]; ok {
				sr.ShopName = &name
			}
		}
		resp[i] = sr
	}
	return resp, nil
}

func (s *service) enqueueProcessedEvent(
	ctx context.Context,
	tx *sql.Tx,
	summary Summary,
	actorID string,
) error {
	var shopID *string
	if summary.ShopID != nil {
		v := summary.ShopID.String()
		shopID = &v
	}

	payload, err := json.Marshal(events.PayrollPeriodProcessedEvent{
		EventType:      "payroll.period.processed",
		SummaryID:      summary.ID.String(),
		PeriodStart:    summary.PeriodStart.Format(dateLayout),
		PeriodEnd:      summary.PeriodEnd.Format(dateLayout),
		ShopID:         shopID,
		TotalEmployees: summary.TotalEmployees,
		TotalNetPay:    summary.TotalNetPay.String(),
		ProcessedBy:    actorID,
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "payroll_summary",
		AggregateID:   summary.ID.String(),
		EventType:     "payroll.period.processed",
		Topic:         events.PayrollPeriodProcessedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) summaryResponse(ctx context.Context, summary Summary) SummaryResponse {
	resp := MapSummaryResponse(summary)
	if summary.ShopID != nil {
		if sh, err := s.shops.FindByID(ctx, *summary.ShopID); err == nil {
			resp.ShopName = &sh.Name
		}
	}
	return resp
}

const dateLayout = "2006-01-02"

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, payrollerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func parsePeriod(start, end string) (Period, error) {
	periodStart, err := parseDate(start)
	if err != nil {
		return Period{}, err
	}
	periodEnd, err := parseDate(end)
	if err != nil {
		return Period{}, err
	}

	period := Period{Start: periodStart, End: periodEnd}
	if err := period.Validate(); err != nil {
		return Period{}, err
	}
	return period, nil
}

func processLockKey(period Period, shopID *uuid.UUID) string {
	scope := "all"
	if shopID != nil {
		scope = shopID.String()
	}
	return fmt.Sprintf("payroll:process:%s:%s:%s",
		period.Start.Format(dateLayout), period.End.Format(dateLayout), scope)
}

func validStatusFilter(status string) bool {
	switch status {
	case StatusPending, StatusProcessed, StatusPaid, StatusCancelled:
		return true
	default:
		return false
	}
}

func buildRecordFilter(req GetRecordsFilterRequest) (RecordFilter, error) {
	var filter RecordFilter

	if req.EmployeeID != "" {
		id, err := uuid.Parse(req.EmployeeID)
		if err != nil {
			return RecordFilter{}, payrollerrors.ErrInvalidEmployeeID
		}
		filter.EmployeeID = &id
	}
	if req.ShopID != "" {
		id, err := uuid.Parse(req.ShopID)
		if err != nil {
			return RecordFilter{}, payrollerrors.ErrInvalidShopID
		}
		filter.ShopID = &id
	}
	if req.Status != "" {
		if !validStatusFilter(req.Status) {
			return RecordFilter{}, payrollerrors.ErrInvalidStatusFilter
		}
		status := req.Status
		filter.Status = &status
	}
	if req.PeriodStart != "" {
		t, err := parseDate(req.PeriodStart)
		if err != nil {
			return RecordFilter{}, err
		}
		filter.PeriodStart = &t
	}
	if req.PeriodEnd != "" {
		t, err := parseDate(req.PeriodEnd)
		if err != nil {
			return RecordFilter{}, err
		}
		filter.PeriodEnd = &t
	}

	return filter, nil
}

func buildSummaryFilter(req GetSummariesFilterRequest) (SummaryFilter, error) {
	var filter SummaryFilter

	if req.ShopID != "" {
		id, err := uuid.Parse(req.ShopID)
		if err != nil {
			return SummaryFilter{}, payrollerrors.ErrInvalidShopID
		}
		filter.ShopID = &id
	}
	if req.StartDate != "" {
		t, err := parseDate(req.StartDate)
		if err != nil {
			return SummaryFilter{}, err
		}
		filter.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := parseDate(req.EndDate)
		if err != nil {
			return SummaryFilter{}, err
		}
		filter.EndDate = &t
	}

	return filter, nil
}

// MapRecordResponse converts a ledger record into its API shape. Exported so
// the settlement package can return updated records in the same form.
func MapRecordResponse(rec Record) RecordResponse {
	resp := RecordResponse{
		ID:           rec.ID.String(),
		EmployeeID:   rec.EmployeeID.String(),
		EmployeeName: rec.EmployeeName,
		PeriodStart:  rec.PeriodStart.Format(dateLayout),
		PeriodEnd:    rec.PeriodEnd.Format(dateLayout),

		HoursWorked:   rec.HoursWorked,
		OvertimeHours: rec.OvertimeHours,

		RegularPay:    rec.RegularPay,
		OvertimePay:   rec.OvertimePay,
		CommissionPay: rec.CommissionPay,
		BonusPay:      rec.BonusPay,

		TaxDeduction:       rec.TaxDeduction,
		InsuranceDeduction: rec.InsuranceDeduction,
		OtherDeductions:    rec.OtherDeductions,

		GrossPay:        rec.GrossPay,
		TotalDeductions: rec.TotalDeductions,
		NetPay:          rec.NetPay,

		Status:           rec.Status,
		PaymentMethod:    rec.PaymentMethod,
		PaymentReference: rec.PaymentReference,
		Notes:            rec.Notes,

		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}

	if rec.ShopID != nil {
		v := rec.ShopID.String()
		resp.ShopID = &v
	}
	if rec.PaymentDate != nil {
		v := rec.PaymentDate.Format(time.RFC3339)
		resp.PaymentDate = &v
	}

	return resp
}

// MapSummaryResponse converts a summary into its API shape.
func MapSummaryResponse(s Summary) SummaryResponse {
	resp := SummaryResponse{
		ID:          s.ID.String(),
		PeriodStart: s.PeriodStart.Format(dateLayout),
		PeriodEnd:   s.PeriodEnd.Format(dateLayout),

		TotalEmployees:  s.TotalEmployees,
		TotalGrossPay:   s.TotalGrossPay,
		TotalDeductions: s.TotalDeductions,
		TotalNetPay:     s.TotalNetPay,

		IsProcessed: s.IsProcessed,
	}

	if s.ShopID != nil {
		v := s.ShopID.String()
		resp.ShopID = &v
	}
	if s.ProcessedAt != nil {
		v := s.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &v
	}
	if s.ProcessedBy != nil {
		v := s.ProcessedBy.String()
		resp.ProcessedBy = &v
	}

	return resp
}

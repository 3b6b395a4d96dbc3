package statistics

import (
	"context"
	"time"

	statisticserrors "shop-payroll/internal/statistics/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=statistics_service.go -destination=mock/statistics_service_mock.go -package=mock
type Service interface {
	// Overview reports the current calendar month's totals alongside the
	// backlog of records still awaiting payment.
	Overview(ctx context.Context, req OverviewFilterRequest) (OverviewResponse, error)
	// AveragePay reports the mean net pay per employee for one exact
	// period. A processed summary serves as a fast path when no record
	// of the period changed since it was folded.
	AveragePay(ctx context.Context, req AveragePayFilterRequest) (AveragePayResponse, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Overview(ctx context.Context, req OverviewFilterRequest) (OverviewResponse, error) {
	var shopID *uuid.UUID
	if req.ShopID != "" {
		parsed, err := uuid.Parse(req.ShopID)
		if err != nil {
			return OverviewResponse{}, statisticserrors.ErrInvalidShopID
		}
		shopID = &parsed
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	var (
		period  PeriodTotals
		pending PendingTotals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		period, err = s.repo.PeriodTotals(gctx, monthStart, monthEnd, shopID)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.repo.PendingTotals(gctx, shopID)
		return err
	})
	if err := g.Wait(); err != nil {
		return OverviewResponse{}, err
	}

	block := CurrentPeriodBlock{
		PeriodStart:     monthStart.Format("2006-01-02"),
		PeriodEnd:       monthEnd.Format("2006-01-02"),
		TotalRecords:    period.TotalRecords,
		TotalEmployees:  period.TotalEmployees,
		TotalGrossPay:   period.TotalGrossPay,
		TotalDeductions: period.TotalDeductions,
		TotalNetPay:     period.TotalNetPay,
		AverageNetPay:   decimal.Zero,
	}
	if period.TotalEmployees > 0 {
		block.AverageNetPay = period.TotalNetPay.DivRound(decimal.NewFromInt(period.TotalEmployees), 4)
	}

	return OverviewResponse{
		CurrentPeriod: block,
		PendingPayments: PendingPaymentsBlock{
			Count:       pending.Count,
			TotalNetPay: pending.TotalNetPay,
		},
	}, nil
}

func (s *service) AveragePay(ctx context.Context, req AveragePayFilterRequest) (AveragePayResponse, error) {
	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return AveragePayResponse{}, statisticserrors.ErrInvalidDateFormat
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return AveragePayResponse{}, statisticserrors.ErrInvalidDateFormat
	}
	if start.After(end) {
		return AveragePayResponse{}, statisticserrors.ErrInvalidDateRange
	}

	var shopID *uuid.UUID
	if req.ShopID != "" {
		parsed, err := uuid.Parse(req.ShopID)
		if err != nil {
			return AveragePayResponse{}, statisticserrors.ErrInvalidShopID
		}
		shopID = &parsed
	}

	resp := AveragePayResponse{
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		AverageNetPay: decimal.Zero,
	}
	if shopID != nil {
		v := shopID.String()
		resp.ShopID = &v
	}

	employees, netTotal, err := s.periodNetTotals(ctx, start, end, shopID)
	if err != nil {
		return AveragePayResponse{}, err
	}

	resp.TotalEmployees = employees
	if employees > 0 {
		resp.AverageNetPay = netTotal.DivRound(decimal.NewFromInt(employees), 4)
	}
	return resp, nil
}

func (s *service) periodNetTotals(ctx context.Context, start, end time.Time, shopID *uuid.UUID) (int64, decimal.Decimal, error) {
	summary, err := s.repo.SummaryFor(ctx, start, end, shopID)
	if err != nil {
		return 0, decimal.Zero, err
	}
	if summary != nil && summary.IsProcessed && summary.ProcessedAt != nil {
		changed, err := s.repo.RecordsChangedSince(ctx, start, end, shopID, *summary.ProcessedAt)
		if err != nil {
			return 0, decimal.Zero, err
		}
		if !changed {
			return summary.TotalEmployees, summary.TotalNetPay, nil
		}
	}

	totals, err := s.repo.PeriodTotals(ctx, start, end, shopID)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return totals.TotalEmployees, totals.TotalNetPay, nil
}

package settlement

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"shop-payroll/internal/events"
	"shop-payroll/internal/messaging/kafka"
	"shop-payroll/internal/payroll"
	settlementerrors "shop-payroll/internal/settlement/errors"
	"shop-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=settlement_service.go -destination=mock/settlement_service_mock.go -package=mock
type Service interface {
	// Settle marks a whole batch as paid. Validation happens before any
	// mutation: if a single record is missing or not payable the batch
	// fails and nothing changes.
	Settle(ctx context.Context, actorID string, req SettleRequest) (SettleResponse, error)
	// Cancel voids a single pending or processed record and refreshes the
	// summary it contributed to.
	Cancel(ctx context.Context, actorID string, recordID string) (payroll.RecordResponse, error)
}

type service struct {
	db      *sql.DB
	records payroll.Repository
	outbox  kafka.OutboxRepository
}

func NewService(db *sql.DB, records payroll.Repository) Service {
	return &service{db: db, records: records}
}

func NewServiceWithOutbox(db *sql.DB, records payroll.Repository, outbox kafka.OutboxRepository) Service {
	return &service{db: db, records: records, outbox: outbox}
}

func (s *service) Settle(ctx context.Context, actorID string, req SettleRequest) (SettleResponse, error) {
	if _, err := uuid.Parse(actorID); err != nil {
		return SettleResponse{}, settlementerrors.ErrInvalidActorID
	}
	if len(req.RecordIDs) == 0 {
		return SettleResponse{}, settlementerrors.ErrEmptyBatch
	}

	seen := make(map[uuid.UUID]struct{}, len(req.RecordIDs))
	ids := make([]uuid.UUID, 0, len(req.RecordIDs))
	for _, raw := range req.RecordIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return SettleResponse{}, settlementerrors.ErrInvalidRecordID
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	paymentDate := time.Now().UTC()
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		parsed, err := time.Parse(time.RFC3339, *req.PaymentDate)
		if err != nil {
			return SettleResponse{}, settlementerrors.ErrInvalidPaymentDate
		}
		paymentDate = parsed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SettleResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.records.WithTx(tx)

	loaded, err := qtx.FindByIDsForUpdate(ctx, ids)
	if err != nil {
		return SettleResponse{}, err
	}

	byID := make(map[uuid.UUID]payroll.Record, len(loaded))
	for _, rec := range loaded {
		byID[rec.ID] = rec
	}

	var offending []string
	for _, id := range ids {
		rec, found := byID[id]
		if !found || !rec.IsSettleable() {
			offending = append(offending, id.String())
		}
	}
	if len(offending) > 0 {
		sort.Strings(offending)
		return SettleResponse{}, settlementerrors.ErrInvalidBatch.WithDetails(offending)
	}

	payment := payroll.Payment{
		Date:      paymentDate,
		Method:    req.PaymentMethod,
		Reference: req.PaymentReference,
		Notes:     req.Notes,
	}
	if err := qtx.MarkPaid(ctx, ids, payment); err != nil {
		return SettleResponse{}, err
	}

	totalNet := decimal.Zero
	for _, rec := range loaded {
		totalNet = totalNet.Add(rec.NetPay)
	}

	if err := recomputeTouchedSummaries(ctx, qtx, loaded); err != nil {
		return SettleResponse{}, err
	}

	if s.outbox != nil {
		if err := s.enqueueSettledEvent(ctx, tx, ids, payment, totalNet, actorID); err != nil {
			return SettleResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return SettleResponse{}, err
	}

	resp := SettleResponse{
		Records:      make([]payroll.RecordResponse, 0, len(ids)),
		TotalRecords: len(ids),
		TotalNetPay:  totalNet,
	}
	for _, id := range ids {
		rec := byID[id]
		applyPayment(&rec, payment)
		resp.Records = append(resp.Records, payroll.MapRecordResponse(rec))
	}
	return resp, nil
}

func (s *service) Cancel(ctx context.Context, actorID string, recordID string) (payroll.RecordResponse, error) {
	if _, err := uuid.Parse(actorID); err != nil {
		return payroll.RecordResponse{}, settlementerrors.ErrInvalidActorID
	}
	id, err := uuid.Parse(recordID)
	if err != nil {
		return payroll.RecordResponse{}, settlementerrors.ErrRecordNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.records.WithTx(tx)

	loaded, err := qtx.FindByIDsForUpdate(ctx, []uuid.UUID{id})
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	if len(loaded) == 0 {
		return payroll.RecordResponse{}, settlementerrors.ErrRecordNotFound
	}

	rec := loaded[0]
	if !rec.IsCancellable() {
		return payroll.RecordResponse{}, settlementerrors.ErrInvalidStateTransition
	}

	if err := qtx.UpdateStatus(ctx, id, payroll.StatusCancelled); err != nil {
		return payroll.RecordResponse{}, err
	}

	// Cancelled records no longer count toward the period totals.
	if _, err := qtx.RecomputeSummary(ctx, rec.PeriodStart, rec.PeriodEnd, rec.ShopID); err != nil {
		return payroll.RecordResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return payroll.RecordResponse{}, err
	}

	rec.Status = payroll.StatusCancelled
	return payroll.MapRecordResponse(rec), nil
}

type periodScope struct {
	start time.Time
	end   time.Time
	shop  string
}

// recomputeTouchedSummaries refreshes every (period, scope) summary the
// settled records belong to. A batch may span periods and shops.
func recomputeTouchedSummaries(ctx context.Context, repo payroll.Repository, recs []payroll.Record) error {
	done := make(map[periodScope]struct{})
	for _, rec := range recs {
		key := periodScope{start: rec.PeriodStart, end: rec.PeriodEnd}
		if rec.ShopID != nil {
			key.shop = rec.ShopID.String()
		}
		if _, ok := done[key]; ok {
			continue
		}
		done[key] = struct{}{}
		if _, err := repo.RecomputeSummary(ctx, rec.PeriodStart, rec.PeriodEnd, rec.ShopID); err != nil {
			return err
		}
	}
	return nil
}

func applyPayment(rec *payroll.Record, p payroll.Payment) {
	date := p.Date
	method := p.Method
	reference := p.Reference

	rec.Status = payroll.StatusPaid
	rec.PaymentDate = &date
	rec.PaymentMethod = &method
	rec.PaymentReference = &reference
	if p.Notes != nil {
		rec.Notes = p.Notes
	}
}

func (s *service) enqueueSettledEvent(
	ctx context.Context,
	tx *sql.Tx,
	ids []uuid.UUID,
	payment payroll.Payment,
	totalNet decimal.Decimal,
	actorID string,
) error {
	recordIDs := make([]string, len(ids))
	for i, id := range ids {
		recordIDs[i] = id.String()
	}

	payload, err := json.Marshal(events.PayrollPaymentSettledEvent{
		EventType:        "payroll.payment.settled",
		RecordIDs:        recordIDs,
		PaymentMethod:    payment.Method,
		PaymentReference: payment.Reference,
		PaymentDate:      payment.Date,
		TotalNetPay:      totalNet.String(),
		SettledBy:        actorID,
		OccurredAt:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "payroll_record_batch",
		AggregateID:   recordIDs[0],
		EventType:     "payroll.payment.settled",
		Topic:         events.PayrollPaymentSettledTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

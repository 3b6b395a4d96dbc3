package kafka_test

import (
	"context"
	"testing"

	"shop-payroll/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validOutboxEvent() kafka.OutboxEvent {
	return kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     "req-1",
		AggregateType: "payroll_summary",
		AggregateID:   uuid.New().String(),
		EventType:     "payroll.period.processed",
		Topic:         "payroll.period.processed.v1",
		Payload:       []byte(`{"total_net_pay":"7470"}`),
		Status:        kafka.OutboxStatusPending,
	}
}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := kafka.NewOutboxRepository(db)
	event := validOutboxEvent()

	sqlMock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(
			event.ID, event.RequestID, event.AggregateType,
			event.AggregateID, event.EventType, event.Topic,
			event.Payload, event.Status,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Create(ctx, event))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOutboxRepository_Create_RejectsInvalidEvent(t *testing.T) {
	ctx := context.Background()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := kafka.NewOutboxRepository(db)

	tests := []struct {
		name   string
		mutate func(e *kafka.OutboxEvent)
	}{
		{"missing id", func(e *kafka.OutboxEvent) { e.ID = "" }},
		{"missing topic", func(e *kafka.OutboxEvent) { e.Topic = "" }},
		{"empty payload", func(e *kafka.OutboxEvent) { e.Payload = nil }},
		{"unknown status", func(e *kafka.OutboxEvent) { e.Status = "queued" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event := validOutboxEvent()
			tc.mutate(&event)

			err := repo.Create(ctx, event)
			assert.Error(t, err)
		})
	}

	// No insert may reach the database for a malformed event.
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

package events

import "time"

const PayrollPeriodProcessedTopic = "payroll.period.processed.v1"

type PayrollPeriodProcessedEvent struct {
	EventType      string    `json:"event_type"`
	SummaryID      string    `json:"summary_id"`
	PeriodStart    string    `json:"period_start"`
	PeriodEnd      string    `json:"period_end"`
	ShopID         *string   `json:"shop_id,omitempty"`
	TotalEmployees int       `json:"total_employees"`
	TotalNetPay    string    `json:"total_net_pay"`
	ProcessedBy    string    `json:"processed_by"`
	OccurredAt     time.Time `json:"occurred_at"`
}

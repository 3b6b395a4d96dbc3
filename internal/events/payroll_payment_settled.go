package events

import "time"

const PayrollPaymentSettledTopic = "payroll.payment.settled.v1"

type PayrollPaymentSettledEvent struct {
	EventType        string    `json:"event_type"`
	RecordIDs        []string  `json:"record_ids"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentReference string    `json:"payment_reference"`
	PaymentDate      time.Time `json:"payment_date"`
	TotalNetPay      string    `json:"total_net_pay"`
	SettledBy        string    `json:"settled_by"`
	OccurredAt       time.Time `json:"occurred_at"`
}

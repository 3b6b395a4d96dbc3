package settlement

import (
	"shop-payroll/internal/payroll"

	"github.com/shopspring/decimal"
)

type SettleRequest struct {
	RecordIDs        []string `json:"record_ids" binding:"required,min=1"`
	PaymentMethod    string   `json:"payment_method" binding:"required"`
	PaymentReference string   `json:"payment_reference" binding:"required"`
	// Defaults to the current time when omitted.
	PaymentDate *string `json:"payment_date"`
	Notes       *string `json:"notes"`
}

type SettleResponse struct {
	Records      []payroll.RecordResponse `json:"records"`
	TotalRecords int                      `json:"total_records"`
	TotalNetPay  decimal.Decimal          `json:"total_net_pay"`
}

package statistics

import "github.com/shopspring/decimal"

type OverviewFilterRequest struct {
	ShopID string `form:"shop_id"`
}

type CurrentPeriodBlock struct {
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	TotalRecords    int64           `json:"total_records"`
	TotalEmployees  int64           `json:"total_employees"`
	TotalGrossPay   decimal.Decimal `json:"total_gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNetPay     decimal.Decimal `json:"total_net_pay"`
	AverageNetPay   decimal.Decimal `json:"average_net_pay"`
}

type PendingPaymentsBlock struct {
	Count       int64           `json:"count"`
	TotalNetPay decimal.Decimal `json:"total_net_pay"`
}

type OverviewResponse struct {
	CurrentPeriod   CurrentPeriodBlock   `json:"current_period"`
	PendingPayments PendingPaymentsBlock `json:"pending_payments"`
}

type AveragePayFilterRequest struct {
	PeriodStart string `form:"period_start" binding:"required"`
	PeriodEnd   string `form:"period_end" binding:"required"`
	ShopID      string `form:"shop_id"`
}

type AveragePayResponse struct {
	PeriodStart    string          `json:"period_start"`
	PeriodEnd      string          `json:"period_end"`
	ShopID         *string         `json:"shop_id,omitempty"`
	TotalEmployees int64           `json:"total_employees"`
	AverageNetPay  decimal.Decimal `json:"average_net_pay"`
}

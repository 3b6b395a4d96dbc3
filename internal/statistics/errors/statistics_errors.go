package statisticserrors

import (
	"net/http"

	"shop-payroll/internal/shared/apperror"
)

var (
	ErrInvalidShopID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid shop id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"period_start must be before or equal period_end",
		http.StatusBadRequest,
	)
)

package payrollerrors

import (
	"net/http"

	"shop-payroll/internal/shared/apperror"
)

var (
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
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
	ErrNegativeHours = apperror.New(
		apperror.CodeInvalidInput,
		"hours_worked and overtime_hours cannot be negative",
		http.StatusBadRequest,
	)
	ErrNegativeAmount = apperror.New(
		apperror.CodeInvalidInput,
		"pay component amounts cannot be negative",
		http.StatusBadRequest,
	)
	ErrUnclassifiedOvertime = apperror.New(
		apperror.CodeInvalidInput,
		"hours_worked exceeds standard hours; report the excess as overtime_hours",
		http.StatusBadRequest,
	)
	ErrNegativeDeduction = apperror.New(
		apperror.CodeInvalidInput,
		"deduction policy returned a negative amount",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll status filter",
		http.StatusBadRequest,
	)
	ErrNoEligibleEmployees = apperror.New(
		apperror.CodeInvalidInput,
		"no eligible employees found for the specified criteria",
		http.StatusBadRequest,
	)
	ErrDuplicateRecord = apperror.New(
		apperror.CodeConflict,
		"a non-cancelled payroll record already exists for this employee and period",
		http.StatusConflict,
	)
	ErrPeriodAlreadyProcessed = apperror.New(
		apperror.CodeConflict,
		"payroll has already been processed for this period and scope; cancel existing records first",
		http.StatusConflict,
	)
	ErrProcessingInProgress = apperror.New(
		apperror.CodeConflict,
		"a payroll run for this period and scope is already in progress",
		http.StatusConflict,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll record not found",
		http.StatusNotFound,
	)
)

package settlementerrors

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
	ErrInvalidRecordID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll record id",
		http.StatusBadRequest,
	)
	ErrEmptyBatch = apperror.New(
		apperror.CodeInvalidInput,
		"record_ids cannot be empty",
		http.StatusBadRequest,
	)
	ErrInvalidPaymentDate = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payment_date, expected RFC3339",
		http.StatusBadRequest,
	)
	// ErrInvalidBatch is returned with details listing every record id that
	// is missing or not in a payable status. No record in the batch is
	// modified when this fires.
	ErrInvalidBatch = apperror.New(
		apperror.CodeInvalidState,
		"one or more records cannot be settled",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidStateTransition = apperror.New(
		apperror.CodeInvalidState,
		"record status does not allow this transition",
		http.StatusBadRequest,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll record not found",
		http.StatusNotFound,
	)
)

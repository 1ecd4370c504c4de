package quotaerrors

import (
	"net/http"

	"go-leavedesk/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"year must be a four-digit calendar year",
		http.StatusBadRequest,
	)
	ErrInvalidTotalDays = apperror.New(
		apperror.CodeInvalidInput,
		"total_days must not be negative",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrQuotaNotFound = apperror.New(
		apperror.CodeNotFound,
		"no annual leave quota exists for this employee and year",
		http.StatusNotFound,
	)
	ErrQuotaAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"an annual leave quota already exists for this employee and year",
		http.StatusConflict,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeConflict,
		"remaining leave balance does not cover the requested days",
		http.StatusConflict,
	)
)

package leaveerrors

import (
	"fmt"
	"net/http"

	"go-leavedesk/internal/shared/apperror"
)

var (
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrStartDateInPast = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must not be in the past",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"an active leave already covers part of this period",
		http.StatusConflict,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requester or an elevated role may act on this leave",
		http.StatusForbidden,
	)
	ErrElevatedRoleRequired = apperror.New(
		apperror.CodeForbidden,
		"this operation requires an elevated role",
		http.StatusForbidden,
	)
	ErrLeaveStatusChanged = apperror.New(
		apperror.CodeConflict,
		"leave status was changed by a concurrent operation",
		http.StatusConflict,
	)
)

// StatusConflict reports a transition attempted from the wrong state,
// naming the state the record is actually in.
func StatusConflict(op, current string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("cannot %s a leave in status %s", op, current),
		http.StatusBadRequest,
	)
}

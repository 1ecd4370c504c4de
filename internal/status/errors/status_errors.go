package statuserrors

import (
	"net/http"

	"go-leavedesk/internal/shared/apperror"
)

var (
	ErrVocabularyIncomplete = apperror.New(
		apperror.CodeMisconfigured,
		"leave status vocabulary is missing required entries",
		http.StatusInternalServerError,
	)
	ErrUnknownStatus = apperror.New(
		apperror.CodeMisconfigured,
		"leave status is not part of the seeded vocabulary",
		http.StatusInternalServerError,
	)
)

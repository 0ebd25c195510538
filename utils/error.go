package utils

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorCodeValidation    ErrorCode = "VALIDATION"
	ErrorCodeAuthorization ErrorCode = "AUTHORIZATION"
	ErrorCodeState         ErrorCode = "STATE"
	ErrorCodeConflict      ErrorCode = "CONFLICT"
	ErrorCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrorCodeInternal      ErrorCode = "INTERNAL"
)

// AppError is the single error currency of the service layer. Every
// business-rule violation is raised as one of these at the point of
// detection and propagates unmodified to the boundary.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

var (
	ErrorRecordNotFound = &AppError{Code: ErrorCodeNotFound, Message: "record not found"}
	ErrorForbidden      = &AppError{Code: ErrorCodeAuthorization, Message: "actor is not allowed to access this report"}

	ErrorReportSubmitted   = &AppError{Code: ErrorCodeState, Message: "report has been submitted"}
	ErrorReportLocked      = &AppError{Code: ErrorCodeState, Message: "report has been locked"}
	ErrorInvalidTransition = &AppError{Code: ErrorCodeState, Message: "invalid report status transition"}
	ErrorEmptyReport       = &AppError{Code: ErrorCodeState, Message: "report has no active entries"}
	ErrorReportNotEmpty    = &AppError{Code: ErrorCodeState, Message: "report still has active entries"}
	ErrorAlreadyDeleted    = &AppError{Code: ErrorCodeState, Message: "entry has already been deleted"}
	ErrorDraftExport       = &AppError{Code: ErrorCodeState, Message: "draft reports cannot be exported"}

	ErrorDuplicateEntry  = &AppError{Code: ErrorCodeConflict, Message: "an active entry already exists for this mission and date"}
	ErrorDuplicateReport = &AppError{Code: ErrorCodeConflict, Message: "an active report already exists for this owner, month and year"}
)

// field-scoped input failure
func NewValidationError(field string, message string) *AppError {
	return &AppError{Code: ErrorCodeValidation, Field: field, Message: message}
}

// unexpected persistence fault, message kept for the boundary payload
func NewInternalError(err error) *AppError {
	return &AppError{Code: ErrorCodeInternal, Message: err.Error()}
}

// ErrorCodeOf classifies any error for boundary status mapping.
func ErrorCodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeInternal
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeOf(t *testing.T) {
	if got := ErrorCodeOf(ErrorDuplicateEntry); got != ErrorCodeConflict {
		t.Errorf("ErrorCodeOf(ErrorDuplicateEntry) = %s, want CONFLICT", got)
	}
	if got := ErrorCodeOf(NewValidationError("month", "bad")); got != ErrorCodeValidation {
		t.Errorf("validation error code = %s", got)
	}

	// wrapping keeps the classification
	wrapped := fmt.Errorf("create entry: %w", ErrorReportLocked)
	if got := ErrorCodeOf(wrapped); got != ErrorCodeState {
		t.Errorf("wrapped error code = %s, want STATE", got)
	}

	if got := ErrorCodeOf(errors.New("boom")); got != ErrorCodeInternal {
		t.Errorf("plain error code = %s, want INTERNAL", got)
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := NewValidationError("currency", "must be an ISO-4217 code")
	if err.Error() != "currency: must be an ISO-4217 code" {
		t.Errorf("Error() = %q", err.Error())
	}
	if ErrorReportLocked.Error() != "report has been locked" {
		t.Errorf("Error() = %q", ErrorReportLocked.Error())
	}
}

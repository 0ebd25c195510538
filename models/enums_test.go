package models

import (
	"encoding/json"
	"testing"
)

func TestReportStatusIsValid(t *testing.T) {
	for _, status := range []ReportStatus{ReportStatusDraft, ReportStatusSubmitted, ReportStatusLocked} {
		if !status.IsValid() {
			t.Errorf("%s should be valid", status)
		}
	}
	if ReportStatus("Archived").IsValid() {
		t.Error("Archived should not be valid")
	}
}

func TestReportStatusUnmarshalRejectsUnknown(t *testing.T) {
	var status ReportStatus
	if err := json.Unmarshal([]byte(`"Pending"`), &status); err == nil {
		t.Error("expected error for unknown status")
	}
	if err := json.Unmarshal([]byte(`"Submitted"`), &status); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if status != ReportStatusSubmitted {
		t.Errorf("status = %s, want Submitted", status)
	}
}

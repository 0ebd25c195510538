package models

import (
	"errors"
)

// ReportStatus is the lifecycle state of an activity report.
// Draft -> Submitted -> Locked, no backward transitions.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "Draft"
	ReportStatusSubmitted ReportStatus = "Submitted"
	ReportStatusLocked    ReportStatus = "Locked"
)

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusSubmitted, ReportStatusLocked:
		return true
	}
	return false
}

// convert input to enum type
func (s *ReportStatus) UnmarshalJSON(b []byte) error {
	str := string(b)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	switch str {
	case "Draft":
		*s = ReportStatusDraft
	case "Submitted":
		*s = ReportStatusSubmitted
	case "Locked":
		*s = ReportStatusLocked
	default:
		return errors.New("invalid report status")
	}
	return nil
}

package models

import "testing"

func TestCentsToUnits(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{50, "0.50"},
		{50051, "500.51"},
		{-101, "-1.01"},
	}
	for _, tc := range cases {
		if got := centsToUnits(tc.cents); got != tc.want {
			t.Errorf("centsToUnits(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestExportFilename(t *testing.T) {
	report := &ActivityReport{Month: 3, Year: 2025}
	if got := exportFilename(report, "csv"); got != "activity-report-2025-03.csv" {
		t.Errorf("filename = %q", got)
	}
	if got := exportFilename(report, "xlsx"); got != "activity-report-2025-03.xlsx" {
		t.Errorf("filename = %q", got)
	}
}

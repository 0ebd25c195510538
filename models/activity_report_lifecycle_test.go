package models_test

import (
	"bytes"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/activity_backend/models"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"github.com/shopspring/decimal"
)

func TestActivityReportLifecycle(t *testing.T) {
	baseCtx := setupIntegration(t)
	ctx, owner := loginAs(t, baseCtx, "owner@local", false)
	otherCtx, _ := loginAs(t, baseCtx, "other@local", false)
	adminCtx, _ := loginAs(t, baseCtx, "admin@local", true)

	report, err := models.CreateActivityReport(ctx, &models.NewActivityReport{
		Month: 7, Year: 2025, Currency: "EUR", Description: "July work",
	})
	if err != nil {
		t.Fatalf("CreateActivityReport: %v", err)
	}
	if report.Status != models.ReportStatusDraft {
		t.Fatalf("status = %s, want Draft", report.Status)
	}
	if report.OwnerId != owner.ID {
		t.Fatalf("owner = %d, want %d", report.OwnerId, owner.ID)
	}

	// one active report per owner, month and year
	_, err = models.CreateActivityReport(ctx, &models.NewActivityReport{
		Month: 7, Year: 2025, Currency: "EUR",
	})
	if !errors.Is(err, utils.ErrorDuplicateReport) {
		t.Fatalf("expected duplicate report error, got %v", err)
	}

	// other users may not even read it; admins read but never mutate
	if _, err := models.GetActivityReport(otherCtx, report.ID); !errors.Is(err, utils.ErrorForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
	if _, err := models.GetActivityReport(adminCtx, report.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if _, err := models.SubmitActivityReport(adminCtx, report.ID); !errors.Is(err, utils.ErrorForbidden) {
		t.Fatalf("expected forbidden for admin submit, got %v", err)
	}

	// an empty report cannot be submitted or exported
	if _, err := models.SubmitActivityReport(ctx, report.ID); !errors.Is(err, utils.ErrorEmptyReport) {
		t.Fatalf("expected empty report error, got %v", err)
	}
	if _, err := models.ExportActivityReportCSV(ctx, report.ID); !errors.Is(err, utils.ErrorDraftExport) {
		t.Fatalf("expected draft export error, got %v", err)
	}

	mission, err := models.CreateMission(ctx, &models.NewMission{Name: "Lifecycle Mission"})
	if err != nil {
		t.Fatalf("CreateMission: %v", err)
	}
	entry, err := models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		MissionId:      &mission.ID,
		EntryDate:      "2025-07-14",
		Quantity:       decimal.NewFromInt(1),
		UnitPriceCents: 55000,
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	// a draft with active entries cannot be deleted
	if _, err := models.DeleteActivityReport(ctx, report.ID); !errors.Is(err, utils.ErrorReportNotEmpty) {
		t.Fatalf("expected report-not-empty error, got %v", err)
	}

	submitted, err := models.SubmitActivityReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("SubmitActivityReport: %v", err)
	}
	if submitted.Status != models.ReportStatusSubmitted {
		t.Fatalf("status = %s, want Submitted", submitted.Status)
	}
	if submitted.TotalAmountCents != 55000 {
		t.Errorf("TotalAmountCents = %d, want 55000", submitted.TotalAmountCents)
	}

	// submitted reports are frozen
	if _, err := models.SubmitActivityReport(ctx, report.ID); !errors.Is(err, utils.ErrorInvalidTransition) {
		t.Fatalf("expected invalid transition on resubmit, got %v", err)
	}
	if _, err := models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		EntryDate:      "2025-07-15",
		Quantity:       decimal.NewFromInt(1),
		UnitPriceCents: 55000,
	}); !errors.Is(err, utils.ErrorReportSubmitted) {
		t.Fatalf("expected submitted error on entry create, got %v", err)
	}
	newDescription := "edited"
	if _, err := models.UpdateActivityReport(ctx, report.ID, &models.ActivityReportChanges{
		Description: &newDescription,
	}); !errors.Is(err, utils.ErrorReportSubmitted) {
		t.Fatalf("expected submitted error on report update, got %v", err)
	}
	if _, err := models.DestroyEntry(ctx, entry.ID); !errors.Is(err, utils.ErrorReportSubmitted) {
		t.Fatalf("expected submitted error on entry delete, got %v", err)
	}

	// export is now allowed
	file, err := models.ExportActivityReportCSV(ctx, report.ID)
	if err != nil {
		t.Fatalf("ExportActivityReportCSV: %v", err)
	}
	if !bytes.HasPrefix(file.Content, []byte("\xEF\xBB\xBF")) {
		t.Error("CSV export is not BOM-prefixed")
	}
	if !bytes.Contains(file.Content, []byte("Lifecycle Mission")) {
		t.Error("CSV export is missing the mission name")
	}
	if file.Filename != "activity-report-2025-07.csv" {
		t.Errorf("filename = %q", file.Filename)
	}
	if _, err := models.ExportActivityReportExcel(ctx, report.ID); err != nil {
		t.Fatalf("ExportActivityReportExcel: %v", err)
	}

	locked, err := models.LockActivityReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("LockActivityReport: %v", err)
	}
	if locked.Status != models.ReportStatusLocked || locked.LockedAt == nil {
		t.Fatalf("lock result: status=%s lockedAt=%v", locked.Status, locked.LockedAt)
	}
	if _, err := models.LockActivityReport(ctx, report.ID); !errors.Is(err, utils.ErrorInvalidTransition) {
		t.Fatalf("expected invalid transition on relock, got %v", err)
	}
	if _, err := models.DestroyEntry(ctx, entry.ID); !errors.Is(err, utils.ErrorReportLocked) {
		t.Fatalf("expected locked error on entry delete, got %v", err)
	}

	// a fresh empty draft can be deleted, and deletion frees the month
	draft, err := models.CreateActivityReport(ctx, &models.NewActivityReport{
		Month: 8, Year: 2025, Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("CreateActivityReport draft: %v", err)
	}
	deleted, err := models.DeleteActivityReport(ctx, draft.ID)
	if err != nil {
		t.Fatalf("DeleteActivityReport: %v", err)
	}
	if deleted.DeletedAt == nil {
		t.Fatal("DeletedAt not set")
	}
	if _, err := models.GetActivityReport(ctx, draft.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := models.CreateActivityReport(ctx, &models.NewActivityReport{
		Month: 8, Year: 2025, Currency: "EUR",
	}); err != nil {
		t.Fatalf("recreate report after delete: %v", err)
	}
}

func TestPaginateActivityReportsFilters(t *testing.T) {
	baseCtx := setupIntegration(t)
	ctx, _ := loginAs(t, baseCtx, "lister@local", false)
	adminCtx, _ := loginAs(t, baseCtx, "listadmin@local", true)

	for month := 1; month <= 3; month++ {
		if _, err := models.CreateActivityReport(ctx, &models.NewActivityReport{
			Month: month, Year: 2025, Currency: "EUR",
		}); err != nil {
			t.Fatalf("CreateActivityReport month %d: %v", month, err)
		}
	}

	connection, err := models.PaginateActivityReports(ctx, &models.ActivityReportFilter{})
	if err != nil {
		t.Fatalf("PaginateActivityReports: %v", err)
	}
	if connection.PageInfo.Total != 3 {
		t.Errorf("total = %d, want 3", connection.PageInfo.Total)
	}
	// newest month first
	if len(connection.Items) != 3 || connection.Items[0].Month != 3 {
		t.Errorf("ordering wrong: %+v", connection.Items)
	}

	month := 2
	year := 2025
	connection, err = models.PaginateActivityReports(ctx, &models.ActivityReportFilter{Month: &month, Year: &year})
	if err != nil {
		t.Fatalf("PaginateActivityReports filtered: %v", err)
	}
	if connection.PageInfo.Total != 1 || connection.Items[0].Month != 2 {
		t.Errorf("filter failed: total=%d", connection.PageInfo.Total)
	}

	// month without year is rejected
	if _, err := models.PaginateActivityReports(ctx, &models.ActivityReportFilter{Month: &month}); err == nil {
		t.Error("expected validation error for month without year")
	}

	// admins see everyone's reports
	connection, err = models.PaginateActivityReports(adminCtx, &models.ActivityReportFilter{})
	if err != nil {
		t.Fatalf("PaginateActivityReports admin: %v", err)
	}
	if connection.PageInfo.Total < 3 {
		t.Errorf("admin total = %d, want >= 3", connection.PageInfo.Total)
	}
}

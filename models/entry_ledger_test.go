package models_test

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/models"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"bitbucket.org/mmdatafocus/activity_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestEntryLedgerDuplicatesTotalsAndLinks(t *testing.T) {
	baseCtx := setupIntegration(t)
	ctx, _ := loginAs(t, baseCtx, "freelancer@local", false)

	missionA, err := models.CreateMission(ctx, &models.NewMission{Name: "Mission A"})
	if err != nil {
		t.Fatalf("CreateMission: %v", err)
	}
	missionB, err := models.CreateMission(ctx, &models.NewMission{Name: "Mission B"})
	if err != nil {
		t.Fatalf("CreateMission: %v", err)
	}

	report, err := models.CreateActivityReport(ctx, &models.NewActivityReport{
		Month: 5, Year: 2025, Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("CreateActivityReport: %v", err)
	}

	e1, err := models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		MissionId:      &missionA.ID,
		EntryDate:      "2025-05-02",
		Quantity:       decimal.NewFromInt(1),
		UnitPriceCents: 50000,
		Description:    "feature work",
	})
	if err != nil {
		t.Fatalf("CreateEntry e1: %v", err)
	}

	// duplicate tuple (report, mission, date) among active entries
	_, err = models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		MissionId:      &missionA.ID,
		EntryDate:      "2025-05-02",
		Quantity:       decimal.NewFromFloat(0.5),
		UnitPriceCents: 50000,
	})
	if !errors.Is(err, utils.ErrorDuplicateEntry) {
		t.Fatalf("expected duplicate entry error, got %v", err)
	}

	// same date on a different mission is a distinct tuple
	e2, err := models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		MissionId:      &missionB.ID,
		EntryDate:      "2025-05-02",
		Quantity:       decimal.NewFromFloat(0.5),
		UnitPriceCents: 40000,
	})
	if err != nil {
		t.Fatalf("CreateEntry e2: %v", err)
	}

	// entries without a mission get their own tuple space
	e3, err := models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		EntryDate:      "2025-05-02",
		Quantity:       decimal.NewFromFloat(0.25),
		UnitPriceCents: 40000,
	})
	if err != nil {
		t.Fatalf("CreateEntry e3: %v", err)
	}
	_, err = models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		EntryDate:      "2025-05-02",
		Quantity:       decimal.NewFromFloat(0.25),
		UnitPriceCents: 40000,
	})
	if !errors.Is(err, utils.ErrorDuplicateEntry) {
		t.Fatalf("expected duplicate for second mission-less entry, got %v", err)
	}

	// totals were recalculated with every mutation
	report, err = models.GetActivityReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetActivityReport: %v", err)
	}
	if !report.TotalDays.Equal(decimal.NewFromFloat(1.75)) {
		t.Errorf("TotalDays = %s, want 1.75", report.TotalDays)
	}
	if want := int64(50000 + 20000 + 10000); report.TotalAmountCents != want {
		t.Errorf("TotalAmountCents = %d, want %d", report.TotalAmountCents, want)
	}

	// both missions are linked
	missionIds, err := models.GetReportMissionIds(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetReportMissionIds: %v", err)
	}
	if len(missionIds) != 2 {
		t.Fatalf("mission links = %v, want two links", missionIds)
	}

	// reassigning the last mission B entry drops that link
	_, err = models.UpdateEntry(ctx, e2.ID, &models.EntryChanges{}, &missionA.ID)
	if !errors.Is(err, utils.ErrorDuplicateEntry) {
		// e1 already occupies (mission A, 2025-05-02)
		t.Fatalf("expected duplicate on reassignment, got %v", err)
	}
	newDate := "2025-05-03"
	if _, err := models.UpdateEntry(ctx, e2.ID, &models.EntryChanges{EntryDate: &newDate}, &missionA.ID); err != nil {
		t.Fatalf("UpdateEntry reassign: %v", err)
	}
	missionIds, err = models.GetReportMissionIds(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetReportMissionIds: %v", err)
	}
	if len(missionIds) != 1 || missionIds[0] != missionA.ID {
		t.Errorf("mission links = %v, want only mission A", missionIds)
	}

	// soft delete frees the tuple for reuse
	if _, err := models.DestroyEntry(ctx, e1.ID); err != nil {
		t.Fatalf("DestroyEntry: %v", err)
	}
	if _, err := models.DestroyEntry(ctx, e1.ID); !errors.Is(err, utils.ErrorAlreadyDeleted) {
		t.Fatalf("expected already-deleted error, got %v", err)
	}
	if _, err := models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		MissionId:      &missionA.ID,
		EntryDate:      "2025-05-02",
		Quantity:       decimal.NewFromInt(1),
		UnitPriceCents: 50000,
	}); err != nil {
		t.Fatalf("recreate after soft delete: %v", err)
	}

	// deleting the mission-less entry keeps links untouched
	if _, err := models.DestroyEntry(ctx, e3.ID); err != nil {
		t.Fatalf("DestroyEntry e3: %v", err)
	}
	report, err = models.GetActivityReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetActivityReport: %v", err)
	}
	if !report.TotalDays.Equal(decimal.NewFromFloat(1.5)) {
		t.Errorf("TotalDays after deletes = %s, want 1.5", report.TotalDays)
	}
}

func TestMissionLinkRebuildRepairsDrift(t *testing.T) {
	baseCtx := setupIntegration(t)
	ctx, _ := loginAs(t, baseCtx, "rebuild@local", false)

	mission, err := models.CreateMission(ctx, &models.NewMission{Name: "Drift Mission"})
	if err != nil {
		t.Fatalf("CreateMission: %v", err)
	}
	bogus, err := models.CreateMission(ctx, &models.NewMission{Name: "Bogus Mission"})
	if err != nil {
		t.Fatalf("CreateMission: %v", err)
	}
	report, err := models.CreateActivityReport(ctx, &models.NewActivityReport{
		Month: 6, Year: 2025, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("CreateActivityReport: %v", err)
	}
	if _, err := models.CreateEntry(ctx, &models.NewEntry{
		ReportId:       report.ID,
		MissionId:      &mission.ID,
		EntryDate:      "2025-06-10",
		Quantity:       decimal.NewFromInt(1),
		UnitPriceCents: 60000,
	}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	// corrupt the derived cache directly
	db := config.GetDB()
	if err := db.Create(&models.ReportMission{ReportId: report.ID, MissionId: bogus.ID}).Error; err != nil {
		t.Fatalf("inject bogus link: %v", err)
	}

	drifted, err := workflow.RebuildMissionLinks(ctx, db, config.GetLogger())
	if err != nil {
		t.Fatalf("RebuildMissionLinks: %v", err)
	}
	if drifted != 1 {
		t.Errorf("drifted = %d, want 1", drifted)
	}

	missionIds, err := models.GetReportMissionIds(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetReportMissionIds: %v", err)
	}
	if len(missionIds) != 1 || missionIds[0] != mission.ID {
		t.Errorf("mission links after rebuild = %v, want only %d", missionIds, mission.ID)
	}

	// a second rebuild is a no-op
	drifted, err = workflow.RebuildMissionLinks(ctx, db, config.GetLogger())
	if err != nil {
		t.Fatalf("RebuildMissionLinks second run: %v", err)
	}
	if drifted != 0 {
		t.Errorf("second rebuild drifted = %d, want 0", drifted)
	}
}

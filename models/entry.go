package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const entryDateLayout = "2006-01-02"

type Entry struct {
	ID             int             `gorm:"primary_key" json:"id"`
	EntryDate      time.Time       `gorm:"type:date;not null;index" json:"entry_date"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPriceCents int64           `gorm:"not null" json:"unit_price_cents"`
	Description    string          `gorm:"size:2000" json:"description"`
	DeletedAt      *time.Time      `gorm:"index" json:"deleted_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *Entry) IsActive() bool {
	return e.DeletedAt == nil
}

type NewEntry struct {
	ReportId       int             `json:"report_id" binding:"required"`
	MissionId      *int            `json:"mission_id"`
	EntryDate      string          `json:"entry_date" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	Description    string          `json:"description"`
}

// EntryChanges carries the changed fields of an update; nil means
// unchanged. The mission assignment travels separately because absent and
// "remove the mission" are both expressed as null.
type EntryChanges struct {
	EntryDate      *string          `json:"entry_date"`
	Quantity       *decimal.Decimal `json:"quantity"`
	UnitPriceCents *int64           `json:"unit_price_cents"`
	Description    *string          `json:"description"`
}

func parseEntryDate(value string) (time.Time, error) {
	date, err := time.Parse(entryDateLayout, value)
	if err != nil {
		return time.Time{}, utils.NewValidationError("entry_date", "must be a valid YYYY-MM-DD date")
	}
	return date, nil
}

func validateQuantity(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return utils.NewValidationError("quantity", "must be strictly positive")
	}
	return nil
}

func validateUnitPrice(unitPriceCents int64) error {
	if unitPriceCents <= 0 {
		return utils.NewValidationError("unit_price_cents", "must be strictly positive")
	}
	return nil
}

func validateEntryDescription(description string) error {
	if len(description) > 2000 {
		return utils.NewValidationError("description", "must be at most 2000 characters")
	}
	return nil
}

// duplicate detection over active entries: same report, same
// mission-or-null, same date
func activeDuplicateExists(tx *gorm.DB, ctx context.Context, reportId int, missionId *int, date time.Time, excludeEntryId int) (bool, error) {
	dbCtx := tx.WithContext(ctx).Table("entries").
		Joins("JOIN entry_reports ON entry_reports.entry_id = entries.id").
		Joins("LEFT JOIN entry_missions ON entry_missions.entry_id = entries.id").
		Where("entry_reports.report_id = ?", reportId).
		Where("entries.entry_date = ?", date).
		Scopes(ActiveEntries)
	if missionId == nil {
		dbCtx = dbCtx.Where("entry_missions.mission_id IS NULL")
	} else {
		dbCtx = dbCtx.Where("entry_missions.mission_id = ?", *missionId)
	}
	if excludeEntryId > 0 {
		dbCtx = dbCtx.Where("entries.id <> ?", excludeEntryId)
	}

	var count int64
	if err := dbCtx.Count(&count).Error; err != nil {
		return false, utils.NewInternalError(err)
	}
	return count > 0, nil
}

// CreateEntry appends one billable line to a draft report. The entry, its
// relation rows, the mission link and the recalculated totals all commit
// in one transaction.
func CreateEntry(ctx context.Context, input *NewEntry) (*Entry, error) {
	report, err := fetchAccessibleReport(ctx, input.ReportId)
	if err != nil {
		return nil, err
	}
	if !isOwner(ctx, report) {
		return nil, utils.ErrorForbidden
	}
	if err := checkReportMutable(report); err != nil {
		return nil, err
	}

	date, err := parseEntryDate(input.EntryDate)
	if err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	if err := validateUnitPrice(input.UnitPriceCents); err != nil {
		return nil, err
	}
	if err := validateEntryDescription(input.Description); err != nil {
		return nil, err
	}
	if input.MissionId != nil {
		if err := utils.ValidateResourceId[Mission](ctx, *input.MissionId); err != nil {
			return nil, utils.NewValidationError("mission_id", "mission not found")
		}
	}

	release, err := utils.AcquireReportLock(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	duplicate, err := activeDuplicateExists(tx, ctx, report.ID, input.MissionId, date, 0)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if duplicate {
		tx.Rollback()
		return nil, utils.ErrorDuplicateEntry
	}

	entry := Entry{
		EntryDate:      date,
		Quantity:       input.Quantity,
		UnitPriceCents: input.UnitPriceCents,
		Description:    input.Description,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewInternalError(err)
	}

	reportRelation := EntryReport{EntryId: entry.ID, ReportId: report.ID}
	if err := tx.WithContext(ctx).Create(&reportRelation).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewInternalError(err)
	}

	if input.MissionId != nil {
		missionRelation := EntryMission{EntryId: entry.ID, MissionId: *input.MissionId}
		if err := tx.WithContext(ctx).Create(&missionRelation).Error; err != nil {
			tx.Rollback()
			return nil, utils.NewInternalError(err)
		}
		if err := ensureLinked(tx, ctx, report.ID, *input.MissionId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := RecalculateReportTotals(tx, ctx, report.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewInternalError(err)
	}

	return &entry, nil
}

// UpdateEntry applies field changes and a mission reassignment to an
// active entry of a draft report. When the mission changes, link counts
// are re-evaluated for both the old and the new mission.
func UpdateEntry(ctx context.Context, id int, changes *EntryChanges, missionId *int) (*Entry, error) {
	entry, report, err := fetchEntryForChange(ctx, id)
	if err != nil {
		return nil, err
	}

	date := entry.EntryDate
	if changes.EntryDate != nil {
		date, err = parseEntryDate(*changes.EntryDate)
		if err != nil {
			return nil, err
		}
	}
	if changes.Quantity != nil {
		if err := validateQuantity(*changes.Quantity); err != nil {
			return nil, err
		}
	}
	if changes.UnitPriceCents != nil {
		if err := validateUnitPrice(*changes.UnitPriceCents); err != nil {
			return nil, err
		}
	}
	if changes.Description != nil {
		if err := validateEntryDescription(*changes.Description); err != nil {
			return nil, err
		}
	}
	if missionId != nil {
		if err := utils.ValidateResourceId[Mission](ctx, *missionId); err != nil {
			return nil, utils.NewValidationError("mission_id", "mission not found")
		}
	}

	release, err := utils.AcquireReportLock(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	oldMissionId, err := missionIdOfEntry(tx, ctx, entry.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	duplicate, err := activeDuplicateExists(tx, ctx, report.ID, missionId, date, entry.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if duplicate {
		tx.Rollback()
		return nil, utils.ErrorDuplicateEntry
	}

	updates := map[string]interface{}{}
	if changes.EntryDate != nil {
		updates["EntryDate"] = date
		entry.EntryDate = date
	}
	if changes.Quantity != nil {
		updates["Quantity"] = *changes.Quantity
		entry.Quantity = *changes.Quantity
	}
	if changes.UnitPriceCents != nil {
		updates["UnitPriceCents"] = *changes.UnitPriceCents
		entry.UnitPriceCents = *changes.UnitPriceCents
	}
	if changes.Description != nil {
		updates["Description"] = *changes.Description
		entry.Description = *changes.Description
	}
	if len(updates) > 0 {
		if err := tx.WithContext(ctx).Model(&Entry{ID: entry.ID}).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, utils.NewInternalError(err)
		}
	}

	missionChanged := !equalMissionIds(oldMissionId, missionId)
	if missionChanged {
		if oldMissionId != nil {
			if err := tx.WithContext(ctx).Where("entry_id = ?", entry.ID).Delete(&EntryMission{}).Error; err != nil {
				tx.Rollback()
				return nil, utils.NewInternalError(err)
			}
		}
		if missionId != nil {
			missionRelation := EntryMission{EntryId: entry.ID, MissionId: *missionId}
			if err := tx.WithContext(ctx).Create(&missionRelation).Error; err != nil {
				tx.Rollback()
				return nil, utils.NewInternalError(err)
			}
			if err := ensureLinked(tx, ctx, report.ID, *missionId); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
		if oldMissionId != nil {
			if err := ensureUnlinkedIfEmpty(tx, ctx, report.ID, *oldMissionId); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := RecalculateReportTotals(tx, ctx, report.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewInternalError(err)
	}

	return entry, nil
}

// DestroyEntry soft-deletes an active entry of a draft report, unlinks its
// mission when it was the last active reference, and recalculates totals.
func DestroyEntry(ctx context.Context, id int) (*Entry, error) {
	entry, report, err := fetchEntryForChange(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := utils.AcquireReportLock(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	missionId, err := missionIdOfEntry(tx, ctx, entry.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Model(&Entry{ID: entry.ID}).Update("DeletedAt", now).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewInternalError(err)
	}
	entry.DeletedAt = &now

	if missionId != nil {
		if err := ensureUnlinkedIfEmpty(tx, ctx, report.ID, *missionId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := RecalculateReportTotals(tx, ctx, report.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewInternalError(err)
	}

	return entry, nil
}

func GetEntry(ctx context.Context, id int) (*Entry, error) {
	entry, err := utils.FetchModel[Entry](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	reportId, err := reportIdOfEntry(db, ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	if _, err := fetchAccessibleReport(ctx, reportId); err != nil {
		return nil, err
	}
	return entry, nil
}

// EntryWithMission is the read model for listing a report's entries.
type EntryWithMission struct {
	Entry
	MissionId *int `json:"mission_id"`
}

// ListReportEntries returns the active entries of a report, oldest date first.
func ListReportEntries(ctx context.Context, reportId int) ([]*EntryWithMission, error) {
	if _, err := fetchAccessibleReport(ctx, reportId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var rows []*EntryWithMission
	err := db.WithContext(ctx).Table("entries").
		Select("entries.*, entry_missions.mission_id").
		Joins("JOIN entry_reports ON entry_reports.entry_id = entries.id").
		Joins("LEFT JOIN entry_missions ON entry_missions.entry_id = entries.id").
		Where("entry_reports.report_id = ?", reportId).
		Scopes(ActiveEntries).
		Order("entries.entry_date, entries.id").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return rows, nil
}

// fetch entry + owning report and run every mutation precondition shared
// by update and destroy: actor owns the report, report still draft, entry
// still active.
func fetchEntryForChange(ctx context.Context, id int) (*Entry, *ActivityReport, error) {
	entry, err := utils.FetchModel[Entry](ctx, id)
	if err != nil {
		return nil, nil, err
	}

	db := config.GetDB()
	reportId, err := reportIdOfEntry(db, ctx, entry.ID)
	if err != nil {
		return nil, nil, err
	}
	report, err := fetchAccessibleReport(ctx, reportId)
	if err != nil {
		return nil, nil, err
	}
	if !isOwner(ctx, report) {
		return nil, nil, utils.ErrorForbidden
	}
	if err := checkReportMutable(report); err != nil {
		return nil, nil, err
	}
	if !entry.IsActive() {
		return nil, nil, utils.ErrorAlreadyDeleted
	}
	return entry, report, nil
}

func equalMissionIds(a *int, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

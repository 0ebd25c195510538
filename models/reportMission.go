package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// ReportMission marks that a mission is currently referenced by at least
// one active entry of a report. It is a derived cache maintained as a side
// effect of entry mutations, never written directly by a caller, and must
// always be reproducible by scanning active entries (RebuildReportMissionLinks).
type ReportMission struct {
	ID        int `gorm:"primary_key" json:"id"`
	ReportId  int `gorm:"not null;uniqueIndex:idx_report_mission" json:"report_id"`
	MissionId int `gorm:"not null;uniqueIndex:idx_report_mission" json:"mission_id"`
}

// idempotent insert of the (report, mission) pair if absent
func ensureLinked(tx *gorm.DB, ctx context.Context, reportId int, missionId int) error {
	var count int64
	err := tx.WithContext(ctx).Model(&ReportMission{}).
		Where("report_id = ? AND mission_id = ?", reportId, missionId).
		Count(&count).Error
	if err != nil {
		return utils.NewInternalError(err)
	}
	if count > 0 {
		return nil
	}
	link := ReportMission{ReportId: reportId, MissionId: missionId}
	if err := tx.WithContext(ctx).Create(&link).Error; err != nil {
		// a concurrent transaction inserting the same pair is still success
		if isDuplicateKeyErr(err) {
			return nil
		}
		return utils.NewInternalError(err)
	}
	return nil
}

// removes the link when no active entry of the report references the
// mission anymore; no-op if the link is already absent
func ensureUnlinkedIfEmpty(tx *gorm.DB, ctx context.Context, reportId int, missionId int) error {
	var count int64
	err := tx.WithContext(ctx).Table("entries").
		Joins("JOIN entry_reports ON entry_reports.entry_id = entries.id").
		Joins("JOIN entry_missions ON entry_missions.entry_id = entries.id").
		Where("entry_reports.report_id = ? AND entry_missions.mission_id = ?", reportId, missionId).
		Scopes(ActiveEntries).
		Count(&count).Error
	if err != nil {
		return utils.NewInternalError(err)
	}
	if count > 0 {
		return nil
	}
	err = tx.WithContext(ctx).
		Where("report_id = ? AND mission_id = ?", reportId, missionId).
		Delete(&ReportMission{}).Error
	if err != nil {
		return utils.NewInternalError(err)
	}
	return nil
}

// GetReportMissionIds lists the linked mission ids from the cache table.
func GetReportMissionIds(ctx context.Context, reportId int) ([]int, error) {
	db := config.GetDB()
	var ids []int
	err := db.WithContext(ctx).Model(&ReportMission{}).
		Where("report_id = ?", reportId).
		Order("mission_id").
		Pluck("mission_id", &ids).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return ids, nil
}

// ActiveMissionIdsOfReport derives the link set from the ledger itself,
// the source of truth the cache must agree with.
func ActiveMissionIdsOfReport(tx *gorm.DB, ctx context.Context, reportId int) ([]int, error) {
	var ids []int
	err := tx.WithContext(ctx).Table("entries").
		Joins("JOIN entry_reports ON entry_reports.entry_id = entries.id").
		Joins("JOIN entry_missions ON entry_missions.entry_id = entries.id").
		Where("entry_reports.report_id = ?", reportId).
		Scopes(ActiveEntries).
		Distinct().
		Order("entry_missions.mission_id").
		Pluck("entry_missions.mission_id", &ids).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return ids, nil
}

// RebuildReportMissionLinks replaces the cached links of one report with
// the set derived from its active entries.
func RebuildReportMissionLinks(tx *gorm.DB, ctx context.Context, reportId int) error {
	ids, err := ActiveMissionIdsOfReport(tx, ctx, reportId)
	if err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Where("report_id = ?", reportId).Delete(&ReportMission{}).Error; err != nil {
		return utils.NewInternalError(err)
	}
	for _, missionId := range ids {
		link := ReportMission{ReportId: reportId, MissionId: missionId}
		if err := tx.WithContext(ctx).Create(&link).Error; err != nil {
			return utils.NewInternalError(err)
		}
	}
	return nil
}

package models

import (
	"context"

	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"gorm.io/gorm"
)

// Entries hang off their report and mission through relation rows, not
// foreign key columns on the entries table.

type EntryReport struct {
	ID       int `gorm:"primary_key" json:"id"`
	EntryId  int `gorm:"not null;uniqueIndex" json:"entry_id"`
	ReportId int `gorm:"not null;index" json:"report_id"`
}

type EntryMission struct {
	ID        int `gorm:"primary_key" json:"id"`
	EntryId   int `gorm:"not null;uniqueIndex" json:"entry_id"`
	MissionId int `gorm:"not null;index" json:"mission_id"`
}

// reportIdOfEntry resolves the owning report of an entry.
// (may return RecordNotFound)
func reportIdOfEntry(tx *gorm.DB, ctx context.Context, entryId int) (int, error) {
	var relation EntryReport
	err := tx.WithContext(ctx).Where("entry_id = ?", entryId).First(&relation).Error
	if err != nil {
		return 0, utils.ErrorRecordNotFound
	}
	return relation.ReportId, nil
}

// missionIdOfEntry returns nil when the entry has no mission.
func missionIdOfEntry(tx *gorm.DB, ctx context.Context, entryId int) (*int, error) {
	var relation EntryMission
	err := tx.WithContext(ctx).Where("entry_id = ?", entryId).First(&relation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, utils.NewInternalError(err)
	}
	return &relation.MissionId, nil
}

package models

import (
	"gorm.io/gorm"
)

// "Active" means not soft-deleted. These scopes are the single predicate
// shared by recalculation, duplicate detection and link counting - do not
// reimplement the condition inline.

func ActiveEntries(db *gorm.DB) *gorm.DB {
	return db.Where("entries.deleted_at IS NULL")
}

func ActiveReports(db *gorm.DB) *gorm.DB {
	return db.Where("activity_reports.deleted_at IS NULL")
}

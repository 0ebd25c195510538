package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/activity_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RebuildMissionLinks re-derives the report_missions cache of every active
// report from its entry ledger. Intended for an admin trigger or a nightly
// run after a suspected maintenance bug.
func RebuildMissionLinks(ctx context.Context, db *gorm.DB, logger *logrus.Logger) (int, error) {
	var reportIds []int
	err := db.WithContext(ctx).Model(&models.ActivityReport{}).
		Scopes(models.ActiveReports).
		Order("id").
		Pluck("id", &reportIds).Error
	if err != nil {
		return 0, err
	}

	drifted := 0
	for _, reportId := range reportIds {
		changed, err := rebuildOneReport(ctx, db, logger, reportId)
		if err != nil {
			return drifted, fmt.Errorf("report %d: %w", reportId, err)
		}
		if changed {
			drifted++
		}
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":   "LinkRebuild",
			"reports": len(reportIds),
			"drifted": drifted,
		}).Info("mission link rebuild completed")
	}
	return drifted, nil
}

func rebuildOneReport(ctx context.Context, db *gorm.DB, logger *logrus.Logger, reportId int) (bool, error) {
	stored, err := models.GetReportMissionIds(ctx, reportId)
	if err != nil {
		return false, err
	}

	tx := db.Begin()
	defer tx.Rollback()

	derived, err := models.ActiveMissionIdsOfReport(tx, ctx, reportId)
	if err != nil {
		return false, err
	}

	if equalIntSets(stored, derived) {
		return false, nil
	}

	if err := models.RebuildReportMissionLinks(tx, ctx, reportId); err != nil {
		return false, err
	}
	if err := tx.Commit().Error; err != nil {
		return false, err
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":     "LinkRebuild",
			"report_id": reportId,
			"stored":    stored,
			"derived":   derived,
		}).Warn("mission link drift repaired")
	}
	return true, nil
}

// both slices arrive sorted by mission id
func equalIntSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/activity_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TotalsDrift is one report whose stored totals disagree with the totals
// recomputed from its active entries.
type TotalsDrift struct {
	ReportId               int
	StoredTotalDays        string
	DerivedTotalDays       string
	StoredTotalAmountCents int64
	DerivedAmountCents     int64
}

// RunTotalsReconciliation recomputes every active report's totals from the
// ledger and reports rows that drifted. When repair is true the stored
// totals are overwritten with the derived values.
func RunTotalsReconciliation(ctx context.Context, db *gorm.DB, logger *logrus.Logger, repair bool) ([]TotalsDrift, error) {
	var reports []models.ActivityReport
	err := db.WithContext(ctx).Model(&models.ActivityReport{}).
		Scopes(models.ActiveReports).
		Order("id").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}

	var drifts []TotalsDrift
	for i := range reports {
		report := &reports[i]

		lines, err := models.ActiveEntryLines(db, ctx, report.ID)
		if err != nil {
			return drifts, err
		}
		totalDays, totalAmountCents := models.ComputeTotals(lines)

		if report.TotalDays.Equal(totalDays) && report.TotalAmountCents == totalAmountCents {
			continue
		}

		drift := TotalsDrift{
			ReportId:               report.ID,
			StoredTotalDays:        report.TotalDays.String(),
			DerivedTotalDays:       totalDays.String(),
			StoredTotalAmountCents: report.TotalAmountCents,
			DerivedAmountCents:     totalAmountCents,
		}
		drifts = append(drifts, drift)

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"field":                "TotalsReconciliation",
				"report_id":            report.ID,
				"stored_total_days":    drift.StoredTotalDays,
				"derived_total_days":   drift.DerivedTotalDays,
				"stored_amount_cents":  drift.StoredTotalAmountCents,
				"derived_amount_cents": drift.DerivedAmountCents,
			}).Warn("report totals drift detected")
		}

		if repair {
			tx := db.Begin()
			if err := models.RecalculateReportTotals(tx, ctx, report.ID); err != nil {
				tx.Rollback()
				return drifts, err
			}
			if err := tx.Commit().Error; err != nil {
				return drifts, err
			}
		}
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":    "TotalsReconciliation",
			"reports":  len(reports),
			"drifted":  len(drifts),
			"repaired": repair && len(drifts) > 0,
		}).Info("totals reconciliation completed")
	}
	return drifts, nil
}

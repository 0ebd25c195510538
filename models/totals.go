package models

import (
	"context"

	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EntryLine is one active billable line of a report, the unit the totals
// engine aggregates over.
type EntryLine struct {
	Quantity       decimal.Decimal
	UnitPriceCents int64
}

// LineAmountCents rounds quantity x unitPriceCents half away from zero to
// the nearest cent. The rounding rule is pinned by tests; do not change it
// without reprocessing stored totals.
func LineAmountCents(quantity decimal.Decimal, unitPriceCents int64) int64 {
	return quantity.Mul(decimal.NewFromInt(unitPriceCents)).Round(0).IntPart()
}

// ComputeTotals aggregates the active lines of one report:
// totalDays = sum of quantities, totalAmountCents = sum of rounded lines.
func ComputeTotals(lines []EntryLine) (decimal.Decimal, int64) {
	totalDays := decimal.Zero
	var totalAmountCents int64
	for _, line := range lines {
		totalDays = totalDays.Add(line.Quantity)
		totalAmountCents += LineAmountCents(line.Quantity, line.UnitPriceCents)
	}
	return totalDays, totalAmountCents
}

// ActiveEntryLines loads the aggregation input inside the caller's
// transaction so the recalculation sees uncommitted ledger changes.
func ActiveEntryLines(tx *gorm.DB, ctx context.Context, reportId int) ([]EntryLine, error) {
	var lines []EntryLine
	err := tx.WithContext(ctx).Table("entries").
		Select("entries.quantity, entries.unit_price_cents").
		Joins("JOIN entry_reports ON entry_reports.entry_id = entries.id").
		Where("entry_reports.report_id = ?", reportId).
		Scopes(ActiveEntries).
		Scan(&lines).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return lines, nil
}

// RecalculateReportTotals recomputes both totals from the active entry set
// and persists them on the report row. It must run inside the same
// transaction as the mutation that invalidated the totals - never deferred.
func RecalculateReportTotals(tx *gorm.DB, ctx context.Context, reportId int) error {
	lines, err := ActiveEntryLines(tx, ctx, reportId)
	if err != nil {
		return err
	}
	totalDays, totalAmountCents := ComputeTotals(lines)

	err = tx.WithContext(ctx).Model(&ActivityReport{ID: reportId}).Updates(map[string]interface{}{
		"TotalDays":        totalDays,
		"TotalAmountCents": totalAmountCents,
	}).Error
	if err != nil {
		return utils.NewInternalError(err)
	}
	return nil
}

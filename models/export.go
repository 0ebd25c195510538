package models

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// utf8BOM prefixes the CSV export so spreadsheet tools detect the encoding.
const utf8BOM = "\xEF\xBB\xBF"

type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// exportRow is one active entry rendered for export.
type exportRow struct {
	EntryDate      time.Time
	MissionName    *string
	Quantity       decimal.Decimal
	UnitPriceCents int64
	Description    string
}

// centsToUnits renders an integer cent amount as decimal currency units
// with two decimal places.
func centsToUnits(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// fetch the report (export is allowed for any actor who can read it) and
// gate on status: draft reports are never exported.
func fetchExportableReport(ctx context.Context, reportId int) (*ActivityReport, error) {
	report, err := fetchAccessibleReport(ctx, reportId)
	if err != nil {
		return nil, err
	}
	if report.Status == ReportStatusDraft {
		return nil, utils.ErrorDraftExport
	}
	return report, nil
}

func exportRows(ctx context.Context, reportId int) ([]*exportRow, error) {
	db := config.GetDB()
	var rows []*exportRow
	err := db.WithContext(ctx).Table("entries").
		Select("entries.entry_date, missions.name AS mission_name, entries.quantity, entries.unit_price_cents, entries.description").
		Joins("JOIN entry_reports ON entry_reports.entry_id = entries.id").
		Joins("LEFT JOIN entry_missions ON entry_missions.entry_id = entries.id").
		Joins("LEFT JOIN missions ON missions.id = entry_missions.mission_id").
		Where("entry_reports.report_id = ?", reportId).
		Scopes(ActiveEntries).
		Order("entries.entry_date, entries.id").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return rows, nil
}

func exportFilename(report *ActivityReport, extension string) string {
	return fmt.Sprintf("activity-report-%04d-%02d.%s", report.Year, report.Month, extension)
}

var exportHeader = []string{"Date", "Mission", "Quantity", "Unit Price", "Line Total", "Description"}

// ExportActivityReportCSV serializes a submitted or locked report to a
// BOM-prefixed CSV: one row per active entry plus a trailing total row.
func ExportActivityReportCSV(ctx context.Context, reportId int) (*ExportFile, error) {
	report, err := fetchExportableReport(ctx, reportId)
	if err != nil {
		return nil, err
	}
	rows, err := exportRows(ctx, reportId)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, utils.NewInternalError(err)
	}
	totalDays := decimal.Zero
	var totalAmountCents int64
	for _, row := range rows {
		lineCents := LineAmountCents(row.Quantity, row.UnitPriceCents)
		totalDays = totalDays.Add(row.Quantity)
		totalAmountCents += lineCents
		record := []string{
			row.EntryDate.Format(entryDateLayout),
			utils.DereferencePtr(row.MissionName),
			row.Quantity.String(),
			centsToUnits(row.UnitPriceCents),
			centsToUnits(lineCents),
			row.Description,
		}
		if err := w.Write(record); err != nil {
			return nil, utils.NewInternalError(err)
		}
	}
	totalRecord := []string{"Total", "", totalDays.String(), "", centsToUnits(totalAmountCents), ""}
	if err := w.Write(totalRecord); err != nil {
		return nil, utils.NewInternalError(err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, utils.NewInternalError(err)
	}

	return &ExportFile{
		Filename:    exportFilename(report, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Content:     buf.Bytes(),
	}, nil
}

// ExportActivityReportExcel renders the same table as an XLSX workbook.
func ExportActivityReportExcel(ctx context.Context, reportId int) (*ExportFile, error) {
	report, err := fetchExportableReport(ctx, reportId)
	if err != nil {
		return nil, err
	}
	rows, err := exportRows(ctx, reportId)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, utils.NewInternalError(err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F"}
	for i, header := range exportHeader {
		f.SetCellValue(sheet, columns[i]+"1", header)
	}

	totalDays := decimal.Zero
	var totalAmountCents int64
	for i, row := range rows {
		lineCents := LineAmountCents(row.Quantity, row.UnitPriceCents)
		totalDays = totalDays.Add(row.Quantity)
		totalAmountCents += lineCents

		rowNo := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+rowNo, row.EntryDate.Format(entryDateLayout))
		f.SetCellValue(sheet, "B"+rowNo, utils.DereferencePtr(row.MissionName))
		f.SetCellValue(sheet, "C"+rowNo, row.Quantity.String())
		f.SetCellValue(sheet, "D"+rowNo, centsToUnits(row.UnitPriceCents))
		f.SetCellValue(sheet, "E"+rowNo, centsToUnits(lineCents))
		f.SetCellValue(sheet, "F"+rowNo, row.Description)
	}
	totalRowNo := fmt.Sprint(len(rows) + 2)
	f.SetCellValue(sheet, "A"+totalRowNo, "Total")
	f.SetCellValue(sheet, "C"+totalRowNo, totalDays.String())
	f.SetCellValue(sheet, "E"+totalRowNo, centsToUnits(totalAmountCents))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	return &ExportFile{
		Filename:    exportFilename(report, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     buf.Bytes(),
	}, nil
}

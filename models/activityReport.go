package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"github.com/shopspring/decimal"
)

type ActivityReport struct {
	ID               int             `gorm:"primary_key" json:"id"`
	OwnerId          int             `gorm:"not null;index" json:"owner_id"`
	Month            int             `gorm:"not null" json:"month"`
	Year             int             `gorm:"not null" json:"year"`
	Status           ReportStatus    `gorm:"size:20;not null;default:'Draft'" json:"status"`
	Description      string          `gorm:"size:2000" json:"description"`
	Currency         string          `gorm:"size:3;not null" json:"currency"`
	TotalDays        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_days"`
	TotalAmountCents int64           `gorm:"not null;default:0" json:"total_amount_cents"`
	LockedAt         *time.Time      `json:"locked_at"`
	DeletedAt        *time.Time      `gorm:"index" json:"deleted_at"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewActivityReport struct {
	Month       int    `json:"month" binding:"required"`
	Year        int    `json:"year" binding:"required"`
	Description string `json:"description"`
	Currency    string `json:"currency" binding:"required,iso4217"`
}

type ActivityReportChanges struct {
	Description *string `json:"description"`
	Currency    *string `json:"currency"`
}

func (r *ActivityReport) IsActive() bool {
	return r.DeletedAt == nil
}

// canAccessReport is the capability check: ownership, or the admin
// company-role flag carried in context.
func canAccessReport(ctx context.Context, report *ActivityReport) bool {
	if isAdmin, ok := utils.GetIsAdminFromContext(ctx); ok && isAdmin {
		return true
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	return ok && userId == report.OwnerId
}

// isOwner gates mutations; admins may read but never mutate.
func isOwner(ctx context.Context, report *ActivityReport) bool {
	userId, ok := utils.GetUserIdFromContext(ctx)
	return ok && userId == report.OwnerId
}

// checkReportMutable maps a non-draft status to its state error.
func checkReportMutable(report *ActivityReport) error {
	switch report.Status {
	case ReportStatusSubmitted:
		return utils.ErrorReportSubmitted
	case ReportStatusLocked:
		return utils.ErrorReportLocked
	}
	return nil
}

// fetch an active report and check read access
// (may return RecordNotFound or Forbidden)
func fetchAccessibleReport(ctx context.Context, id int) (*ActivityReport, error) {
	report, err := utils.FetchModel[ActivityReport](ctx, id)
	if err != nil {
		return nil, err
	}
	if !report.IsActive() {
		return nil, utils.ErrorRecordNotFound
	}
	if !canAccessReport(ctx, report) {
		return nil, utils.ErrorForbidden
	}
	return report, nil
}

// validate input for both create & update (id = 0 for create)
func (input *NewActivityReport) validate(ctx context.Context, ownerId int, id int) error {
	if input.Month < 1 || input.Month > 12 {
		return utils.NewValidationError("month", "must be between 1 and 12")
	}
	if input.Year < 2000 {
		return utils.NewValidationError("year", "must be 2000 or later")
	}
	if len(input.Description) > 2000 {
		return utils.NewValidationError("description", "must be at most 2000 characters")
	}
	if !isValidCurrencyCode(input.Currency) {
		return utils.NewValidationError("currency", "must be an ISO-4217 code")
	}

	// one active report per owner, month and year
	count, err := utils.ResourceCountWhere[ActivityReport](ctx,
		"owner_id = ? AND month = ? AND year = ? AND deleted_at IS NULL AND id <> ?",
		ownerId, input.Month, input.Year, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorDuplicateReport
	}
	return nil
}

func isValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// CreateActivityReport opens a new draft report owned by the acting user.
func CreateActivityReport(ctx context.Context, input *NewActivityReport) (*ActivityReport, error) {
	ownerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || ownerId == 0 {
		return nil, utils.ErrorForbidden
	}
	if err := input.validate(ctx, ownerId, 0); err != nil {
		return nil, err
	}

	report := ActivityReport{
		OwnerId:          ownerId,
		Month:            input.Month,
		Year:             input.Year,
		Status:           ReportStatusDraft,
		Description:      input.Description,
		Currency:         input.Currency,
		TotalDays:        decimal.Zero,
		TotalAmountCents: 0,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &report, nil
}

// UpdateActivityReport edits description/currency of a draft report.
func UpdateActivityReport(ctx context.Context, id int, changes *ActivityReportChanges) (*ActivityReport, error) {
	report, err := fetchAccessibleReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(ctx, report) {
		return nil, utils.ErrorForbidden
	}
	if err := checkReportMutable(report); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if changes.Description != nil {
		if len(*changes.Description) > 2000 {
			return nil, utils.NewValidationError("description", "must be at most 2000 characters")
		}
		updates["Description"] = *changes.Description
		report.Description = *changes.Description
	}
	if changes.Currency != nil {
		if !isValidCurrencyCode(*changes.Currency) {
			return nil, utils.NewValidationError("currency", "must be an ISO-4217 code")
		}
		updates["Currency"] = *changes.Currency
		report.Currency = *changes.Currency
	}
	if len(updates) == 0 {
		return report, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&ActivityReport{ID: id}).Updates(updates).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return report, nil
}

// SubmitActivityReport moves a draft report with at least one active entry
// to Submitted. Totals are recalculated in the same transaction.
func SubmitActivityReport(ctx context.Context, id int) (*ActivityReport, error) {
	report, err := fetchAccessibleReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(ctx, report) {
		return nil, utils.ErrorForbidden
	}
	if report.Status != ReportStatusDraft {
		return nil, utils.ErrorInvalidTransition
	}

	release, err := utils.AcquireReportLock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	lines, err := ActiveEntryLines(tx, ctx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(lines) == 0 {
		tx.Rollback()
		return nil, utils.ErrorEmptyReport
	}

	totalDays, totalAmountCents := ComputeTotals(lines)
	err = tx.WithContext(ctx).Model(&ActivityReport{ID: id}).Updates(map[string]interface{}{
		"TotalDays":        totalDays,
		"TotalAmountCents": totalAmountCents,
		"Status":           ReportStatusSubmitted,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewInternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewInternalError(err)
	}

	report.TotalDays = totalDays
	report.TotalAmountCents = totalAmountCents
	report.Status = ReportStatusSubmitted
	return report, nil
}

// LockActivityReport moves a submitted report to Locked, the terminal
// state. Locking an already-locked report is an invalid transition -
// idempotence is deliberately not assumed.
func LockActivityReport(ctx context.Context, id int) (*ActivityReport, error) {
	report, err := fetchAccessibleReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(ctx, report) {
		return nil, utils.ErrorForbidden
	}
	if report.Status != ReportStatusSubmitted {
		return nil, utils.ErrorInvalidTransition
	}

	release, err := utils.AcquireReportLock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	if err := RecalculateReportTotals(tx, ctx, id); err != nil {
		tx.Rollback()
		return nil, err
	}
	now := time.Now().UTC()
	err = tx.WithContext(ctx).Model(&ActivityReport{ID: id}).Updates(map[string]interface{}{
		"Status":   ReportStatusLocked,
		"LockedAt": now,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewInternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewInternalError(err)
	}

	report.Status = ReportStatusLocked
	report.LockedAt = &now
	return report, nil
}

// DeleteActivityReport soft-deletes a draft report with no active entries.
func DeleteActivityReport(ctx context.Context, id int) (*ActivityReport, error) {
	report, err := fetchAccessibleReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(ctx, report) {
		return nil, utils.ErrorForbidden
	}
	if err := checkReportMutable(report); err != nil {
		return nil, err
	}

	release, err := utils.AcquireReportLock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	lines, err := ActiveEntryLines(tx, ctx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(lines) > 0 {
		tx.Rollback()
		return nil, utils.ErrorReportNotEmpty
	}

	now := time.Now().UTC()
	err = tx.WithContext(ctx).Model(&ActivityReport{ID: id}).Update("DeletedAt", now).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewInternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewInternalError(err)
	}

	report.DeletedAt = &now
	return report, nil
}

func GetActivityReport(ctx context.Context, id int) (*ActivityReport, error) {
	return fetchAccessibleReport(ctx, id)
}

type ActivityReportFilter struct {
	Status      *ReportStatus `json:"status" form:"status"`
	Year        *int          `json:"year" form:"year"`
	Month       *int          `json:"month" form:"month"`
	Currency    *string       `json:"currency" form:"currency"`
	Description *string       `json:"description" form:"description"`
	Page        *int          `json:"page" form:"page"`
	PerPage     *int          `json:"perPage" form:"perPage"`
}

type ActivityReportsConnection struct {
	PageInfo *PageInfo         `json:"pageInfo"`
	Items    []*ActivityReport `json:"items"`
}

// PaginateActivityReports lists active reports visible to the actor,
// newest period first.
func PaginateActivityReports(ctx context.Context, filter *ActivityReportFilter) (*ActivityReportsConnection, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, utils.ErrorForbidden
	}
	if filter == nil {
		filter = &ActivityReportFilter{}
	}

	if filter.Month != nil && filter.Year == nil {
		return nil, utils.NewValidationError("month", "month filter requires year")
	}
	if filter.Month != nil && (*filter.Month < 1 || *filter.Month > 12) {
		return nil, utils.NewValidationError("month", "must be between 1 and 12")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, utils.NewValidationError("status", "invalid report status")
	}
	if filter.Currency != nil && !isValidCurrencyCode(*filter.Currency) {
		return nil, utils.NewValidationError("currency", "must be an ISO-4217 code")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Scopes(ActiveReports)

	// ownership scope; admins see every owner
	if isAdmin, ok := utils.GetIsAdminFromContext(ctx); !ok || !isAdmin {
		dbCtx = dbCtx.Where("owner_id = ?", userId)
	}

	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.Year != nil {
		dbCtx = dbCtx.Where("year = ?", *filter.Year)
	}
	if filter.Month != nil {
		dbCtx = dbCtx.Where("month = ?", *filter.Month)
	}
	if filter.Currency != nil {
		dbCtx = dbCtx.Where("currency = ?", *filter.Currency)
	}
	if filter.Description != nil && *filter.Description != "" {
		dbCtx = dbCtx.Where("description LIKE ?", "%"+*filter.Description+"%")
	}

	page, perPage := NormalizePagination(filter.Page, filter.PerPage)
	items, pageInfo, err := PaginateModel[ActivityReport](dbCtx, page, perPage, "year DESC, month DESC, id DESC")
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	return &ActivityReportsConnection{PageInfo: pageInfo, Items: items}, nil
}

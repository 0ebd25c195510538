package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
)

// Document is a supporting file (timesheet scan, approval mail) attached
// to a report. The bytes live in object storage; only the URLs are kept.
type Document struct {
	ID           int       `gorm:"primary_key" json:"id"`
	ReportId     int       `gorm:"not null;index" json:"report_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	FileUrl      string    `gorm:"size:1000;not null" json:"file_url"`
	ThumbnailUrl string    `gorm:"size:1000" json:"thumbnail_url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewDocument struct {
	ReportId     int    `json:"report_id" binding:"required"`
	Name         string `json:"name" binding:"required,max=255"`
	FileUrl      string `json:"file_url" binding:"required,max=1000"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

// AddReportDocument attaches a document to a draft report.
func AddReportDocument(ctx context.Context, input *NewDocument) (*Document, error) {
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

	document := Document{
		ReportId:     input.ReportId,
		Name:         input.Name,
		FileUrl:      input.FileUrl,
		ThumbnailUrl: input.ThumbnailUrl,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&document).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &document, nil
}

func ListReportDocuments(ctx context.Context, reportId int) ([]*Document, error) {
	if _, err := fetchAccessibleReport(ctx, reportId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var documents []*Document
	if err := db.WithContext(ctx).Where("report_id = ?", reportId).Find(&documents).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return documents, nil
}

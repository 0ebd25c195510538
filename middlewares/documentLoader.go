package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/activity_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type reportDocumentReader struct {
	db *gorm.DB
}

func (r *reportDocumentReader) getDocuments(ctx context.Context, reportIds []int) []*dataloader.Result[[]*models.Document] {
	var results []models.Document
	err := r.db.WithContext(ctx).Where("report_id IN ?", reportIds).Order("id").Find(&results).Error
	if err != nil {
		return handleError[[]*models.Document](len(reportIds), err)
	}

	return generateLoaderArrayResults(results, reportIds)
}

func GetReportDocuments(ctx context.Context, reportId int) ([]*models.Document, error) {
	loaders := For(ctx)
	return loaders.reportDocumentLoader.Load(ctx, reportId)()
}

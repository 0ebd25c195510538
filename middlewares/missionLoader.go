package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/activity_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type missionReader struct {
	db *gorm.DB
}

func (r *missionReader) getMissions(ctx context.Context, ids []int) []*dataloader.Result[*models.Mission] {
	var results []models.Mission
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Mission](len(ids), err)
	}

	return generateLoaderResults(results, ids)
}

func GetMission(ctx context.Context, id int) (*models.Mission, error) {
	loaders := For(ctx)
	return loaders.missionLoader.Load(ctx, id)()
}

func GetMissions(ctx context.Context, ids []int) ([]*models.Mission, []error) {
	loaders := For(ctx)
	return loaders.missionLoader.LoadMany(ctx, ids)()
}

package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
)

// Mission is an external engagement identity. The core only needs its id
// and a display name for exports; everything else lives upstream.
type Mission struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMission struct {
	Name string `json:"name" binding:"required,max=255"`
}

func CreateMission(ctx context.Context, input *NewMission) (*Mission, error) {
	mission := Mission{Name: input.Name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&mission).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &mission, nil
}

// GetMission reads through the redis cache.
func GetMission(ctx context.Context, id int) (*Mission, error) {
	result, err := utils.RetrieveRedis[Mission](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchModel[Mission](ctx, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[Mission](result, id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func ListMissions(ctx context.Context) ([]*Mission, error) {
	return utils.FetchAllModels[Mission](ctx)
}

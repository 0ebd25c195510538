package models

import (
	"gorm.io/gorm"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type PageInfo struct {
	Total     int64 `json:"total"`
	Page      int   `json:"page"`
	PerPage   int   `json:"perPage"`
	PageCount int   `json:"pageCount"`
}

// NormalizePagination applies the defaults and clamps perPage to [1,100].
func NormalizePagination(page *int, perPage *int) (int, int) {
	p := 1
	if page != nil && *page > 1 {
		p = *page
	}
	pp := DefaultPerPage
	if perPage != nil {
		pp = *perPage
	}
	if pp < 1 {
		pp = 1
	}
	if pp > MaxPerPage {
		pp = MaxPerPage
	}
	return p, pp
}

func PageCount(total int64, perPage int) int {
	if total <= 0 {
		return 0
	}
	count := int(total) / perPage
	if int(total)%perPage != 0 {
		count++
	}
	return count
}

// PaginateModel runs the filtered query twice: once for the total count,
// once for the requested page.
func PaginateModel[T any](dbCtx *gorm.DB, page int, perPage int, order string) ([]*T, *PageInfo, error) {
	var total int64
	var model T
	if err := dbCtx.Model(&model).Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var items []*T
	if err := dbCtx.Model(&model).
		Order(order).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error; err != nil {
		return nil, nil, err
	}

	pageInfo := &PageInfo{
		Total:     total,
		Page:      page,
		PerPage:   perPage,
		PageCount: PageCount(total, perPage),
	}
	return items, pageInfo, nil
}

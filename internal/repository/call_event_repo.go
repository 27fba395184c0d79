package repository

import (
	"github.com/pccr10001/ringline/internal/model"
	"gorm.io/gorm"
)

type CallEventRepository struct {
	db *gorm.DB
}

func NewCallEventRepository(db *gorm.DB) *CallEventRepository {
	return &CallEventRepository{db: db}
}

func (r *CallEventRepository) Create(event *model.CallEvent) error {
	return r.db.Create(event).Error
}

// Recent returns the newest events first.
func (r *CallEventRepository) Recent(limit int) ([]model.CallEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []model.CallEvent
	err := r.db.Order("created_at desc, id desc").Limit(limit).Find(&list).Error
	return list, err
}

func (r *CallEventRepository) CountByTrigger(trigger string) (int64, error) {
	var count int64
	err := r.db.Model(&model.CallEvent{}).Where(&model.CallEvent{Trigger: trigger}).Count(&count).Error
	return count, err
}

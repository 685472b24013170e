package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/model"
	pkgerrors "github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/errors"
)

// SavedScheduleRepository 保存课表数据访问接口
type SavedScheduleRepository interface {
	GetByUserAndTerm(ctx context.Context, userID, termKey string) (*model.SavedSchedule, error)
	ListByUser(ctx context.Context, userID string) ([]model.SavedSchedule, error)
	Create(ctx context.Context, schedule *model.SavedSchedule) error
	// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock，成功后 schedule.Version 自增
	Update(ctx context.Context, schedule *model.SavedSchedule) error
	// DeleteByUserAndTerm 无匹配记录时返回 ErrRecordNotFound
	DeleteByUserAndTerm(ctx context.Context, userID, termKey string) error
}

type savedScheduleRepo struct {
	db *gorm.DB
}

// NewSavedScheduleRepo 创建 SavedScheduleRepository 实例
func NewSavedScheduleRepo(db *gorm.DB) SavedScheduleRepository {
	return &savedScheduleRepo{db: db}
}

func (r *savedScheduleRepo) GetByUserAndTerm(ctx context.Context, userID, termKey string) (*model.SavedSchedule, error) {
	var s model.SavedSchedule
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND term_key = ?", userID, termKey).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *savedScheduleRepo) ListByUser(ctx context.Context, userID string) ([]model.SavedSchedule, error) {
	var list []model.SavedSchedule
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("term_key DESC").
		Find(&list).Error
	return list, err
}

func (r *savedScheduleRepo) Create(ctx context.Context, schedule *model.SavedSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *savedScheduleRepo) Update(ctx context.Context, schedule *model.SavedSchedule) error {
	oldVersion := schedule.Version
	result := r.db.WithContext(ctx).
		Model(&model.SavedSchedule{}).
		Where("id = ? AND version = ?", schedule.ID, oldVersion).
		Updates(map[string]interface{}{
			"entries": schedule.Entries,
			"credits": schedule.Credits,
			"version": oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version = oldVersion + 1
	return nil
}

func (r *savedScheduleRepo) DeleteByUserAndTerm(ctx context.Context, userID, termKey string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND term_key = ?", userID, termKey).
		Delete(&model.SavedSchedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

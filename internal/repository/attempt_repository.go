package repository

import (
	"context"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *model.Attempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) FindAll(ctx context.Context) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) FindByUser(ctx context.Context, userID string) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).Where("usuario_id = ?", userID).Order("created_at DESC").Find(&attempts).Error
	return attempts, err
}

// Update writes progress and result, and the finish time when set.
func (r *AttemptRepository) Update(ctx context.Context, id string, upd model.AttemptUpdate) (*model.Attempt, error) {
	cols, err := upd.Columns()
	if err != nil {
		return nil, err
	}
	res := r.DB.WithContext(ctx).Model(&model.Attempt{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrAttemptNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *AttemptRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Attempt{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrAttemptNotFound
	}
	return nil
}

// DeleteAll removes every attempt and returns how many were removed.
func (r *AttemptRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Attempt{})
	return res.RowsAffected, res.Error
}

package repository

import (
	"context"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) FindAll(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.WithContext(ctx).Order("codigo ASC").Find(&questions).Error
	return questions, err
}

// FindByIDOrCode treats UUID-shaped keys as ids and anything else as a code.
func (r *QuestionRepository) FindByIDOrCode(ctx context.Context, key string) (*model.Question, error) {
	column := "codigo"
	if model.IsUUID(key) {
		column = "id"
	}
	var q model.Question
	err := r.DB.WithContext(ctx).Where(column+" = ?", key).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Upsert inserts q or replaces the question with the same code.
func (r *QuestionRepository) Upsert(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Question
		err := tx.Where("codigo = ?", q.Code).First(&existing).Error
		switch {
		case err == nil:
			q.ID = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			if q.ID == "" {
				q.ID = model.GenerateUUID()
			}
		default:
			return err
		}
		return tx.Save(q).Error
	})
}

package repository

import (
	"context"
	"digcomp_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

// FindByQuestionCode returns the resources linked to a question code.
func (r *ResourceRepository) FindByQuestionCode(ctx context.Context, questionCode string) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.DB.WithContext(ctx).
		Table("recursos AS r").
		Select("r.codigo_recurso, r.titulo, r.descripcion, r.url_completa").
		Joins("JOIN preguntas_recursos pr ON pr.codigo_recurso = r.codigo_recurso").
		Where("pr.codigo_pregunta = ?", questionCode).
		Order("r.codigo_recurso").
		Scan(&resources).Error
	return resources, err
}

func (r *ResourceRepository) Upsert(ctx context.Context, res *model.Resource) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(res).Error
}

// Link attaches a resource to a question code; existing links are kept.
func (r *ResourceRepository) Link(ctx context.Context, questionCode, resourceCode string) error {
	link := model.QuestionResource{QuestionCode: questionCode, ResourceCode: resourceCode}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

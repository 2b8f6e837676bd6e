package model

import "digcomp_backend/internal/quiz"

// Resource is a remedial learning resource.
// swagger:model Resource
type Resource struct {
	Code        string `gorm:"column:codigo_recurso;primaryKey;size:64" json:"codigo_recurso" yaml:"codigo_recurso" validate:"required"`
	Title       string `gorm:"column:titulo;size:255;not null" json:"titulo" yaml:"titulo" validate:"required"`
	Description string `gorm:"column:descripcion;type:text" json:"descripcion" yaml:"descripcion"`
	URL         string `gorm:"column:url_completa;size:512" json:"url_completa" yaml:"url_completa" validate:"omitempty,url"`
}

func (Resource) TableName() string {
	return "recursos"
}

func (r Resource) ToQuiz() quiz.Resource {
	return quiz.Resource{Code: r.Code, Title: r.Title, Description: r.Description, URL: r.URL}
}

// QuestionResource links a question code to a resource.
type QuestionResource struct {
	QuestionCode string `gorm:"column:codigo_pregunta;primaryKey;size:64"`
	ResourceCode string `gorm:"column:codigo_recurso;primaryKey;size:64"`
}

func (QuestionResource) TableName() string {
	return "preguntas_recursos"
}

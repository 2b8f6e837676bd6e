package model

import (
	"encoding/json"

	"digcomp_backend/internal/quiz"

	"gorm.io/datatypes"
)

// Question is a bank record as stored. Level and type are kept as free text
// and only interpreted by quiz.Normalize.
// swagger:model Question
type Question struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code         string         `gorm:"column:codigo;size:64;uniqueIndex" json:"codigo"`
	Statement    string         `gorm:"column:enunciado;type:text" json:"enunciado"`
	Type         string         `gorm:"column:tipo_pregunta;size:64" json:"tipo_pregunta"`
	Area         string         `gorm:"column:area_dig_comp;size:128" json:"area_dig_comp"`
	Level        string         `gorm:"column:nivel;size:32" json:"nivel"`
	Data         datatypes.JSON `gorm:"column:datos_pregunta" json:"datos_pregunta" swaggertype:"object"`
	ImagePath    string         `gorm:"column:ruta_imagen;size:255" json:"ruta_imagen,omitempty"`
	ExternalLink string         `gorm:"column:enlace_externo;size:255" json:"enlace_externo,omitempty"`
	ImageAlt     string         `gorm:"column:texto_alt_imagen;size:255" json:"texto_alt_imagen,omitempty"`
}

func (Question) TableName() string {
	return "preguntas"
}

// Raw exposes the stored record to the normalizer.
func (q Question) Raw() quiz.RawQuestion {
	raw := quiz.RawQuestion{
		"id":               q.ID,
		"codigo":           q.Code,
		"enunciado":        q.Statement,
		"tipo_pregunta":    q.Type,
		"area_dig_comp":    q.Area,
		"ruta_imagen":      q.ImagePath,
		"enlace_externo":   q.ExternalLink,
		"texto_alt_imagen": q.ImageAlt,
	}
	if q.Level != "" {
		raw["nivel"] = q.Level
	}
	if len(q.Data) > 0 {
		raw["datos_pregunta"] = json.RawMessage(q.Data)
	}
	return raw
}

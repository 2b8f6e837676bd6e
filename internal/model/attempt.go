package model

import (
	"encoding/json"
	"time"

	"digcomp_backend/internal/quiz"

	"gorm.io/datatypes"
)

// Attempt is one quiz run of a user. Progress holds the outcome history and
// Result the final summary once the attempt is finished.
// swagger:model Attempt
type Attempt struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string         `gorm:"column:usuario_id;type:varchar(36);index" json:"usuarioId"`
	Progress   datatypes.JSON `gorm:"column:progreso_preguntas" json:"progresoPreguntas" swaggertype:"array,object"`
	Result     datatypes.JSON `gorm:"column:resultado" json:"resultado" swaggertype:"object"`
	FinishedAt *time.Time     `gorm:"column:fecha_fin" json:"fechaFin"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (Attempt) TableName() string {
	return "cuestionarios"
}

func (a *Attempt) Finished() bool {
	return a.FinishedAt != nil
}

// Outcomes decodes the stored progress. An empty column yields no outcomes.
func (a *Attempt) Outcomes() ([]quiz.Outcome, error) {
	if len(a.Progress) == 0 || string(a.Progress) == "null" {
		return nil, nil
	}
	var out []quiz.Outcome
	if err := json.Unmarshal(a.Progress, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary decodes the stored final result, nil while unfinished.
func (a *Attempt) Summary() (*quiz.Summary, error) {
	if len(a.Result) == 0 || string(a.Result) == "null" {
		return nil, nil
	}
	var s quiz.Summary
	if err := json.Unmarshal(a.Result, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AttemptUpdate is a progress write. FinishedAt is only stored when set.
type AttemptUpdate struct {
	Progress   []quiz.Outcome
	Result     *quiz.Summary
	FinishedAt *time.Time
}

func (u AttemptUpdate) Columns() (map[string]interface{}, error) {
	progress, err := json.Marshal(u.Progress)
	if err != nil {
		return nil, err
	}
	if u.Progress == nil {
		progress = []byte("[]")
	}
	result, err := json.Marshal(u.Result)
	if err != nil {
		return nil, err
	}
	cols := map[string]interface{}{
		"progreso_preguntas": datatypes.JSON(progress),
		"resultado":          datatypes.JSON(result),
	}
	if u.FinishedAt != nil {
		cols["fecha_fin"] = *u.FinishedAt
	}
	return cols, nil
}

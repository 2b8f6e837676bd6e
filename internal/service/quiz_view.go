package service

import "digcomp_backend/internal/quiz"

// StatementView is a true/false statement without its answer.
type StatementView struct {
	ID   string `json:"id"`
	Text string `json:"texto"`
}

// QuestionView is what the client sees of the current question: the
// correctness flags of the payload are never included.
type QuestionView struct {
	AttemptID    string            `json:"attemptId"`
	Position     int               `json:"posicion"`
	Total        int               `json:"total"`
	ID           string            `json:"id"`
	Code         string            `json:"codigo"`
	Statement    string            `json:"enunciado"`
	Type         quiz.QuestionType `json:"tipoPregunta"`
	Area         string            `json:"areaDigComp"`
	Competency   string            `json:"competenciaDigComp"`
	Level        quiz.Level        `json:"nivel"`
	ImagePath    string            `json:"rutaImagen,omitempty"`
	ExternalLink string            `json:"enlaceExterno,omitempty"`
	ImageAlt     string            `json:"textoAltImagen,omitempty"`
	Options      []string          `json:"opciones,omitempty"`
	Statements   []StatementView   `json:"afirmaciones,omitempty"`
	Items        []string          `json:"items,omitempty"`
	Columns      []quiz.Column     `json:"columnas,omitempty"`
}

func newQuestionView(attemptID string, position, total int, q quiz.Question) *QuestionView {
	v := &QuestionView{
		AttemptID:    attemptID,
		Position:     position,
		Total:        total,
		ID:           q.ID,
		Code:         q.Code,
		Statement:    q.Statement,
		Type:         q.Type,
		Area:         q.Area,
		Competency:   q.Competency,
		Level:        q.Level,
		ImagePath:    q.ImagePath,
		ExternalLink: q.ExternalLink,
		ImageAlt:     q.ImageAlt,
	}
	switch {
	case q.Choice != nil:
		for _, o := range q.Choice.Options {
			v.Options = append(v.Options, o.Text)
		}
	case q.TrueFalse != nil:
		for _, s := range q.TrueFalse.Statements {
			v.Statements = append(v.Statements, StatementView{ID: s.ID, Text: s.Text})
		}
	case q.Classification != nil:
		for _, it := range q.Classification.Items {
			v.Items = append(v.Items, it.Text)
		}
		v.Columns = append(v.Columns, q.Classification.Columns...)
	}
	return v
}

// AnswerResult is returned for each accepted answer. Next is nil once the
// battery is exhausted, and Summary is set instead.
type AnswerResult struct {
	Outcome  quiz.Outcome  `json:"outcome"`
	Finished bool          `json:"finished"`
	Next     *QuestionView `json:"next,omitempty"`
	Summary  *quiz.Summary `json:"summary,omitempty"`
}

package quiz

import (
	"math"
	"strings"
	"time"
)

// OutcomeState is the categorical result of one answered question. The wire
// values are the ones persisted in attempt progress.
type OutcomeState string

const (
	Correct   OutcomeState = "CORRECTO"
	Partial   OutcomeState = "PARCIAL"
	Incorrect OutcomeState = "INCORRECTO"
	DontKnow  OutcomeState = "NO_SABE"
)

// ParseOutcomeState accepts both the persisted names and their English
// equivalents.
func ParseOutcomeState(s string) (OutcomeState, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CORRECTO", "CORRECT":
		return Correct, true
	case "PARCIAL", "PARTIAL":
		return Partial, true
	case "INCORRECTO", "INCORRECT":
		return Incorrect, true
	case "NO_SABE", "DONT_KNOW":
		return DontKnow, true
	}
	return "", false
}

// Response is a user's answer to one question. Only the field matching the
// question type is read.
type Response struct {
	DontKnow bool `json:"dontKnow"`
	// Selected is the text of the chosen option.
	Selected string `json:"selected,omitempty"`
	// Truth maps statement ID to the user's true/false answer.
	Truth map[string]bool `json:"truth,omitempty"`
	// Placement maps classification item text to the chosen column ID.
	Placement map[string]int `json:"placement,omitempty"`
}

// Complete reports whether every input of q has been supplied. An explicit
// "don't know" is always complete.
func (r Response) Complete(q Question) bool {
	if r.DontKnow {
		return true
	}
	switch q.Type {
	case TrueFalse:
		if q.TrueFalse == nil {
			return true
		}
		for _, s := range q.TrueFalse.Statements {
			if _, ok := r.Truth[s.ID]; !ok {
				return false
			}
		}
		return true
	case Classification:
		if q.Classification == nil {
			return true
		}
		for _, it := range q.Classification.Items {
			if _, ok := r.Placement[it.Text]; !ok {
				return false
			}
		}
		return true
	default:
		return r.Selected != ""
	}
}

// Outcome is the scored record of one answered question.
type Outcome struct {
	QuestionID      string       `json:"id_pregunta"`
	Code            string       `json:"codigo"`
	Score           float64      `json:"score"`
	WeightedPoints  float64      `json:"puntosPonderados"`
	Level           Level        `json:"nivel"`
	State           OutcomeState `json:"estado"`
	StartedAt       time.Time    `json:"fechaInicio"`
	FinishedAt      time.Time    `json:"fechaFin"`
	DurationSeconds float64      `json:"duracion"`
}

// Evaluate scores r against q. It is pure apart from the supplied
// timestamps.
func Evaluate(q Question, r Response, startedAt, finishedAt time.Time) Outcome {
	o := Outcome{
		QuestionID:      q.ID,
		Code:            q.Code,
		Level:           q.Level,
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
		DurationSeconds: math.Max(0, Round(finishedAt.Sub(startedAt).Seconds(), 2)),
	}
	if r.DontKnow {
		o.State = DontKnow
		return o
	}

	o.Score = Score(q, r)
	o.WeightedPoints = o.Score * q.MaxPoints()
	switch {
	case o.Score == 1:
		o.State = Correct
	case o.Score > 0:
		o.State = Partial
	default:
		o.State = Incorrect
	}
	return o
}

// Score returns the fractional correctness of r in [0, 1]. Unanswered
// statements and unplaced items count as wrong.
func Score(q Question, r Response) float64 {
	switch q.Type {
	case TrueFalse:
		if q.TrueFalse == nil || len(q.TrueFalse.Statements) == 0 {
			return 0
		}
		hits := 0
		for _, s := range q.TrueFalse.Statements {
			if v, ok := r.Truth[s.ID]; ok && v == s.True {
				hits++
			}
		}
		return float64(hits) / float64(len(q.TrueFalse.Statements))
	case Classification:
		if q.Classification == nil || len(q.Classification.Items) == 0 {
			return 0
		}
		hits := 0
		for _, it := range q.Classification.Items {
			if col, ok := r.Placement[it.Text]; ok && col == it.Column {
				hits++
			}
		}
		return float64(hits) / float64(len(q.Classification.Items))
	default:
		if q.Choice == nil || r.Selected == "" {
			return 0
		}
		for _, opt := range q.Choice.Options {
			if opt.Text == r.Selected {
				if opt.Correct {
					return 1
				}
				return 0
			}
		}
		return 0
	}
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

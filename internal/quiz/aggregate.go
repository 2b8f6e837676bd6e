package quiz

import (
	"fmt"
	"math"
)

// PassGrade is the minimum grade out of ten that passes.
const PassGrade = 5.0

type Verdict string

const (
	Passed Verdict = "APROBADO"
	Failed Verdict = "SUSPENSO"
)

// LevelBand is the level reached for a score.
type LevelBand struct {
	Title string `json:"titulo"`
	Code  Level  `json:"codigo"`
}

func (b LevelBand) String() string {
	return fmt.Sprintf("%s (%s)", b.Title, b.Code)
}

var bands = []struct {
	upTo float64
	band LevelBand
}{
	{20, LevelBand{"Básico", A1}},
	{35, LevelBand{"Básico", A2}},
	{50, LevelBand{"Intermedio", B1}},
	{70, LevelBand{"Intermedio", B2}},
	{80, LevelBand{"Avanzado", C1}},
}

// ClassifyLevel maps a 0..100 score to its level band. Upper bounds are
// inclusive.
func ClassifyLevel(score float64) LevelBand {
	for _, b := range bands {
		if score <= b.upTo {
			return b.band
		}
	}
	return LevelBand{"Altamente Avanzado", C2}
}

// Performance is the traffic-light state used to colour scores.
type Performance struct {
	Label      string `json:"texto"`
	Color      string `json:"colorHex"`
	RGB        [3]int `json:"colorRgb"`
	Background string `json:"fondoHex"`
}

var (
	perfImprove    = Performance{"MEJORAR", "#ef4444", [3]int{239, 68, 68}, "#fee2e2"}
	perfCompetent  = Performance{"COMPETENTE", "#eab308", [3]int{234, 179, 8}, "#fef9c3"}
	perfProficient = Performance{"ÓPTIMO", "#16a34a", [3]int{22, 163, 74}, "#dcfce7"}
)

// PerformanceFor derives the performance state from the level band of score.
func PerformanceFor(score float64) Performance {
	switch ClassifyLevel(score).Code {
	case A1, A2:
		return perfImprove
	case B1, B2:
		return perfCompetent
	default:
		return perfProficient
	}
}

// Feedback is the canned qualitative assessment for a score tier.
type Feedback struct {
	Knowledge string `json:"conocimientos"`
	Skills    string `json:"habilidades"`
	Attitudes string `json:"actitudes"`
}

var feedbackTiers = []struct {
	below float64
	fb    Feedback
}{
	{25, Feedback{
		Knowledge: "Reconoces términos básicos pero requieres apoyo para conectarlos con la práctica.",
		Skills:    "Realizas tareas guiadas. Dependes de instrucciones paso a paso.",
		Attitudes: "Curiosidad inicial, aunque con cierta inseguridad ante nuevas herramientas.",
	}},
	{50, Feedback{
		Knowledge: "Entiendes el funcionamiento general y explicas procesos simples.",
		Skills:    "Realizas tareas comunes con cierta autonomía y resuelves problemas sencillos.",
		Attitudes: "Receptivo a aprender y empiezas a valorar la utilidad tecnológica.",
	}},
	{75, Feedback{
		Knowledge: "Conocimiento sólido. Evalúas qué herramienta usar en cada caso.",
		Skills:    "Fluidez en problemas variados y adaptación de herramientas.",
		Attitudes: "Proactividad. Buscas optimizar tareas y colaboras eficazmente.",
	}},
}

var expertFeedback = Feedback{
	Knowledge: "Nivel experto. Comprendes implicaciones legales, éticas y técnicas.",
	Skills:    "Creas soluciones innovadoras y puedes liderar/enseñar a otros.",
	Attitudes: "Liderazgo digital. Promueves buenas prácticas y te adaptas al cambio.",
}

// FeedbackFor looks up the feedback tier of score.
func FeedbackFor(score float64) Feedback {
	for _, t := range feedbackTiers {
		if score < t.below {
			return t.fb
		}
	}
	return expertFeedback
}

// AreaScore is the weighted result of one competency area.
type AreaScore struct {
	Area        Area        `json:"area"`
	Percent     int         `json:"puntuacion"`
	Answered    int         `json:"preguntas"`
	Band        LevelBand   `json:"nivel"`
	Performance Performance `json:"estado"`
}

// Summary is the final result persisted with a completed attempt.
type Summary struct {
	Grade          float64 `json:"nota"`
	Percent        float64 `json:"porcentaje"`
	Points         float64 `json:"puntosLogrados"`
	Total          int     `json:"total"`
	Verdict        Verdict `json:"estado"`
	Correct        int     `json:"aciertos"`
	Partial        int     `json:"parciales"`
	Incorrect      int     `json:"fallos"`
	DontKnow       int     `json:"noSabe"`
	DurationSecond float64 `json:"duracionTotalSegundos"`
}

// Report is the derived assessment of an outcome history.
type Report struct {
	Percent     float64     `json:"porcentaje"`
	GlobalScore int         `json:"puntuacionGlobal"`
	Grade       float64     `json:"nota"`
	Passed      bool        `json:"aprobado"`
	Band        LevelBand   `json:"nivel"`
	Performance Performance `json:"estado"`
	Feedback    Feedback    `json:"feedback"`
	Areas       []AreaScore `json:"areas"`
	Summary     Summary     `json:"resultado"`
	Duration    string      `json:"duracion"`
}

// Summarize folds outcomes into the persisted final result.
func Summarize(outcomes []Outcome, battery []Question) Summary {
	pct, points := weightedPercent(outcomes, battery)
	var seconds float64
	s := Summary{Total: len(battery)}
	for _, o := range outcomes {
		seconds += o.DurationSeconds
		switch {
		case o.State == DontKnow:
			s.DontKnow++
		case o.Score == 1:
			s.Correct++
		case o.Score > 0:
			s.Partial++
		default:
			s.Incorrect++
		}
	}
	s.Grade = Round(pct/10, 2)
	s.Percent = Round(pct, 2)
	s.Points = Round(points, 2)
	s.DurationSecond = Round(seconds, 2)
	if s.Grade >= PassGrade {
		s.Verdict = Passed
	} else {
		s.Verdict = Failed
	}
	return s
}

// Aggregate computes the report for outcomes over battery. Outcomes whose
// question is not in battery still count towards the global score but not
// towards any area.
func Aggregate(outcomes []Outcome, battery []Question) Report {
	summary := Summarize(outcomes, battery)
	pct, _ := weightedPercent(outcomes, battery)
	global := int(math.Round(pct))
	return Report{
		Percent:     pct,
		GlobalScore: global,
		Grade:       summary.Grade,
		Passed:      summary.Verdict == Passed,
		Band:        ClassifyLevel(float64(global)),
		Performance: PerformanceFor(float64(global)),
		Feedback:    FeedbackFor(float64(global)),
		Areas:       AreaScores(outcomes, battery),
		Summary:     summary,
		Duration:    FormatDuration(summary.DurationSecond),
	}
}

// weightedPercent returns 100 * earned / possible points over the battery,
// and the earned points.
func weightedPercent(outcomes []Outcome, battery []Question) (float64, float64) {
	var earned, possible float64
	for _, q := range battery {
		possible += q.MaxPoints()
	}
	for _, o := range outcomes {
		earned += o.WeightedPoints
	}
	if possible == 0 {
		return 0, earned
	}
	return 100 * earned / possible, earned
}

// AreaScores returns one entry per competency area in fixed order. An area
// with no answered questions scores 0.
func AreaScores(outcomes []Outcome, bank []Question) []AreaScore {
	byID := make(map[string]Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}

	var got, possible [AreaCount]float64
	var answered [AreaCount]int
	for _, o := range outcomes {
		q, ok := byID[o.QuestionID]
		if !ok {
			continue
		}
		a := q.AreaIndex()
		if a == NoArea {
			continue
		}
		level := o.Level
		if !level.Valid() {
			level = q.Level
		}
		possible[a] += level.Weight()
		got[a] += o.WeightedPoints
		answered[a]++
	}

	out := make([]AreaScore, 0, AreaCount)
	for i, area := range areas {
		pct := 0
		if possible[i] > 0 {
			pct = int(math.Round(100 * got[i] / possible[i]))
		}
		out = append(out, AreaScore{
			Area:        area,
			Percent:     pct,
			Answered:    answered[i],
			Band:        ClassifyLevel(float64(pct)),
			Performance: PerformanceFor(float64(pct)),
		})
	}
	return out
}

// FormatDuration renders seconds as "--", "S seg" or "M min S seg".
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "--"
	}
	total := int(math.Round(seconds))
	if total < 60 {
		return fmt.Sprintf("%d seg", total)
	}
	return fmt.Sprintf("%d min %d seg", total/60, total%60)
}

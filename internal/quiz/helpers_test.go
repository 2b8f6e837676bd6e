package quiz

import (
	"fmt"
	"math/rand/v2"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func choiceQuestion(id string, level Level, area int) Question {
	return Question{
		ID:    id,
		Code:  fmt.Sprintf("%s-C11-%s", level, id),
		Type:  SingleChoice,
		Area:  areas[area].Name,
		Level: level,
		Choice: &ChoiceData{Options: []Option{
			{Text: "a", Correct: true},
			{Text: "b"},
			{Text: "c"},
			{Text: "d"},
		}},
	}
}

func trueFalseQuestion(id string, truths ...bool) Question {
	st := make([]Statement, 0, len(truths))
	for i, t := range truths {
		st = append(st, Statement{ID: fmt.Sprintf("s%d", i), Text: fmt.Sprintf("statement %d", i), True: t})
	}
	return Question{ID: id, Code: "A2-C21-" + id, Type: TrueFalse, Area: areas[1].Name, Level: A2,
		TrueFalse: &TrueFalseData{Statements: st}}
}

func classificationQuestion(id string) Question {
	return Question{ID: id, Code: "B1-C31-" + id, Type: Classification, Area: areas[2].Name, Level: B1,
		Classification: &ClassificationData{
			Items: []ClassItem{
				{Text: "jpg", Column: 1},
				{Text: "mp3", Column: 2},
				{Text: "png", Column: 1},
				{Text: "wav", Column: 2},
			},
			Columns: []Column{{ID: 1, Name: "Imagen"}, {ID: 2, Name: "Audio"}},
		}}
}

// evenBank has perCell single-choice questions for every level and area.
func evenBank(perCell int) []Question {
	var bank []Question
	n := 0
	for _, l := range levelOrder {
		for a := 0; a < AreaCount; a++ {
			for k := 0; k < perCell; k++ {
				n++
				bank = append(bank, choiceQuestion(fmt.Sprintf("q%03d", n), l, a))
			}
		}
	}
	return bank
}

// correctResponse answers q fully and correctly.
func correctResponse(q Question) Response {
	switch q.Type {
	case TrueFalse:
		r := Response{Truth: map[string]bool{}}
		for _, s := range q.TrueFalse.Statements {
			r.Truth[s.ID] = s.True
		}
		return r
	case Classification:
		r := Response{Placement: map[string]int{}}
		for _, it := range q.Classification.Items {
			r.Placement[it.Text] = it.Column
		}
		return r
	default:
		for _, o := range q.Choice.Options {
			if o.Correct {
				return Response{Selected: o.Text}
			}
		}
		return Response{}
	}
}

func ids(qs []Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

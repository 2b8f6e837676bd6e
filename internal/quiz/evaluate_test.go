package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(12340 * time.Millisecond)
)

func TestEvaluate_TrueFalsePartialCredit(t *testing.T) {
	q := trueFalseQuestion("tf", true, false, true, false)
	r := Response{Truth: map[string]bool{"s0": true, "s1": false, "s2": true, "s3": true}}

	o := Evaluate(q, r, t0, t1)

	assert.Equal(t, 0.75, o.Score)
	assert.Equal(t, Partial, o.State)
	assert.Equal(t, 0.75*1.5, o.WeightedPoints)
	assert.Equal(t, A2, o.Level)
	assert.Equal(t, 12.34, o.DurationSeconds)
}

func TestEvaluate_SingleChoice(t *testing.T) {
	q := choiceQuestion("sc", C2, 0)

	right := Evaluate(q, Response{Selected: "a"}, t0, t1)
	assert.Equal(t, 1.0, right.Score)
	assert.Equal(t, Correct, right.State)
	assert.Equal(t, 3.5, right.WeightedPoints)

	for _, wrong := range []string{"b", "c", "d", "not an option"} {
		o := Evaluate(q, Response{Selected: wrong}, t0, t1)
		assert.Equal(t, 0.0, o.Score, wrong)
		assert.Equal(t, Incorrect, o.State, wrong)
		assert.Zero(t, o.WeightedPoints)
	}
}

func TestEvaluate_ClassificationUnplacedItemsCountAsWrong(t *testing.T) {
	q := classificationQuestion("cl")
	r := Response{Placement: map[string]int{"jpg": 1, "mp3": 1, "png": 1}}

	o := Evaluate(q, r, t0, t1)

	assert.Equal(t, 0.5, o.Score)
	assert.Equal(t, Partial, o.State)
	assert.Equal(t, 1.0, o.WeightedPoints)
}

func TestEvaluate_ClassificationAllCorrect(t *testing.T) {
	q := classificationQuestion("cl")
	o := Evaluate(q, correctResponse(q), t0, t1)
	assert.Equal(t, Correct, o.State)
	assert.Equal(t, 2.0, o.WeightedPoints)
}

func TestEvaluate_DontKnowOverridesAnswer(t *testing.T) {
	q := choiceQuestion("sc", B1, 2)

	o := Evaluate(q, Response{DontKnow: true, Selected: "a"}, t0, t1)

	assert.Equal(t, DontKnow, o.State)
	assert.Zero(t, o.Score)
	assert.Zero(t, o.WeightedPoints)
	assert.Equal(t, q.Code, o.Code)
	assert.Equal(t, q.ID, o.QuestionID)
}

func TestEvaluate_EmptyPayloadScoresZero(t *testing.T) {
	q := Question{ID: "e", Type: TrueFalse, Level: A1, TrueFalse: &TrueFalseData{}}
	o := Evaluate(q, Response{Truth: map[string]bool{}}, t0, t0)
	assert.Equal(t, Incorrect, o.State)
	assert.Zero(t, o.DurationSeconds)
}

func TestEvaluate_NegativeDurationIsClamped(t *testing.T) {
	o := Evaluate(choiceQuestion("sc", A1, 0), Response{Selected: "a"}, t1, t0)
	assert.Zero(t, o.DurationSeconds)
}

func TestResponse_Complete(t *testing.T) {
	sc := choiceQuestion("sc", A1, 0)
	tf := trueFalseQuestion("tf", true, false)
	cl := classificationQuestion("cl")

	assert.False(t, Response{}.Complete(sc))
	assert.True(t, Response{Selected: "b"}.Complete(sc))

	assert.False(t, Response{Truth: map[string]bool{"s0": true}}.Complete(tf))
	assert.True(t, Response{Truth: map[string]bool{"s0": true, "s1": true}}.Complete(tf))

	assert.False(t, Response{Placement: map[string]int{"jpg": 1}}.Complete(cl))
	assert.True(t, correctResponse(cl).Complete(cl))

	assert.True(t, Response{DontKnow: true}.Complete(cl))
}

func TestParseOutcomeState(t *testing.T) {
	for in, want := range map[string]OutcomeState{
		"CORRECTO": Correct, "partial": Partial, "INCORRECT": Incorrect, "no_sabe": DontKnow, "DONT_KNOW": DontKnow,
	} {
		got, ok := ParseOutcomeState(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseOutcomeState("maybe")
	assert.False(t, ok)
}

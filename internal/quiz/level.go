package quiz

// Level is a DigComp proficiency level, A1 (lowest) to C2 (highest).
type Level string

const (
	A1 Level = "A1"
	A2 Level = "A2"
	B1 Level = "B1"
	B2 Level = "B2"
	C1 Level = "C1"
	C2 Level = "C2"
)

var levelOrder = []Level{A1, A2, B1, B2, C1, C2}

var levelWeights = map[Level]float64{
	A1: 1,
	A2: 1.5,
	B1: 2,
	B2: 2.5,
	C1: 3,
	C2: 3.5,
}

// Levels returns the six levels in ascending order.
func Levels() []Level {
	out := make([]Level, len(levelOrder))
	copy(out, levelOrder)
	return out
}

func (l Level) Valid() bool {
	_, ok := levelWeights[l]
	return ok
}

// Weight is the maximum number of points a question of this level is worth.
// Unknown levels weigh as A1.
func (l Level) Weight() float64 {
	if w, ok := levelWeights[l]; ok {
		return w
	}
	return levelWeights[A1]
}

// LevelFromIndex maps the numeric encoding 1..6 to A1..C2.
func LevelFromIndex(n int) (Level, bool) {
	if n < 1 || n > len(levelOrder) {
		return "", false
	}
	return levelOrder[n-1], true
}

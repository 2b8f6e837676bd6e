package quiz

// QuestionType discriminates the question payload variant.
type QuestionType string

const (
	SingleChoice   QuestionType = "SINGLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	Classification QuestionType = "CLASSIFICATION"
)

type Option struct {
	Text    string `json:"texto"`
	Correct bool   `json:"correcta"`
}

// Statement is one true/false item. ID is stable across shuffles.
type Statement struct {
	ID   string `json:"id"`
	Text string `json:"texto"`
	True bool   `json:"es_verdadera"`
}

type ClassItem struct {
	Text   string `json:"texto"`
	Column int    `json:"columna_correcta_id"`
}

type Column struct {
	ID   int    `json:"id"`
	Name string `json:"nombre"`
}

type ChoiceData struct {
	Options []Option `json:"opciones"`
}

type TrueFalseData struct {
	Statements []Statement `json:"items"`
}

type ClassificationData struct {
	Items   []ClassItem `json:"items"`
	Columns []Column    `json:"columnas"`
}

// Question is the canonical form of a bank question. Exactly one of Choice,
// TrueFalse and Classification is set, matching Type.
type Question struct {
	ID           string       `json:"id"`
	Code         string       `json:"codigo"`
	Statement    string       `json:"enunciado"`
	Type         QuestionType `json:"tipoPregunta"`
	Area         string       `json:"areaDigComp"`
	Competency   string       `json:"competenciaDigComp"`
	Level        Level        `json:"nivel"`
	ImagePath    string       `json:"rutaImagen,omitempty"`
	ExternalLink string       `json:"enlaceExterno,omitempty"`
	ImageAlt     string       `json:"textoAltImagen,omitempty"`

	Choice         *ChoiceData         `json:"-"`
	TrueFalse      *TrueFalseData      `json:"-"`
	Classification *ClassificationData `json:"-"`

	// payloadErr is why the stored payload could not be decoded, if it could not.
	payloadErr error
}

// MaxPoints is derived from the level weight table.
func (q Question) MaxPoints() float64 {
	return q.Level.Weight()
}

// AreaIndex is the position of the question's area, or NoArea.
func (q Question) AreaIndex() int {
	return AreaIndex(q.Area)
}

// clone deep-copies the payload slices so shuffling never touches the bank.
func (q Question) clone() Question {
	if q.Choice != nil {
		c := *q.Choice
		c.Options = append([]Option(nil), q.Choice.Options...)
		q.Choice = &c
	}
	if q.TrueFalse != nil {
		t := *q.TrueFalse
		t.Statements = append([]Statement(nil), q.TrueFalse.Statements...)
		q.TrueFalse = &t
	}
	if q.Classification != nil {
		c := *q.Classification
		c.Items = append([]ClassItem(nil), q.Classification.Items...)
		c.Columns = append([]Column(nil), q.Classification.Columns...)
		q.Classification = &c
	}
	return q
}

// ItemCount is the number of gradable elements in the payload.
func (q Question) ItemCount() int {
	switch q.Type {
	case TrueFalse:
		if q.TrueFalse != nil {
			return len(q.TrueFalse.Statements)
		}
	case Classification:
		if q.Classification != nil {
			return len(q.Classification.Items)
		}
	default:
		if q.Choice != nil {
			return len(q.Choice.Options)
		}
	}
	return 0
}

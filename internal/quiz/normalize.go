package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RawQuestion is a bank record as stored or exported, with either
// snake_case or camelCase field names.
type RawQuestion map[string]any

var ErrInvalidPayload = errors.New("invalid question payload")

var levelPrefix = regexp.MustCompile(`(?i)nivel\s*`)

// value returns the first present, non-empty field among keys.
func (r RawQuestion) value(keys ...string) any {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v
	}
	return nil
}

func (r RawQuestion) text(keys ...string) string {
	return asString(r.value(keys...))
}

// Normalize converts a raw record into a canonical Question. It never fails:
// unknown levels resolve to A1 and unreadable payloads become empty.
func Normalize(raw RawQuestion) Question {
	code := raw.text("codigo", "code")
	q := Question{
		ID:           raw.text("id"),
		Code:         code,
		Statement:    raw.text("enunciado", "statement"),
		Type:         ResolveType(raw.text("tipo_pregunta", "tipoPregunta")),
		Area:         raw.text("area_dig_comp", "areaDigComp"),
		Competency:   CompetencyText(code),
		Level:        ResolveLevel(raw.value("nivel", "level"), code),
		ImagePath:    raw.text("ruta_imagen", "rutaImagen"),
		ExternalLink: raw.text("enlace_externo", "enlaceExterno"),
		ImageAlt:     raw.text("texto_alt_imagen", "textoAltImagen"),
	}
	q.payloadErr = decodePayload(&q, raw.value("datos_pregunta", "datosPregunta"))
	return q
}

// NormalizeBank normalizes every record of a bank, preserving order.
func NormalizeBank(raws []RawQuestion) []Question {
	out := make([]Question, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

// ResolveLevel applies, in order: numeric index 1..6, a level string with an
// optional "Nivel" prefix, the first two characters of code, then A1.
// The code is only consulted when raw is not a non-empty string: an
// unrecognized level string resolves to A1.
func ResolveLevel(raw any, code string) Level {
	if n, ok := asInt(raw); ok {
		if l, ok := LevelFromIndex(n); ok {
			return l
		}
	}
	if s, ok := raw.(string); ok && s != "" {
		l := Level(strings.ToUpper(strings.TrimSpace(levelPrefix.ReplaceAllString(s, ""))))
		if l.Valid() {
			return l
		}
		return A1
	}
	if len(code) >= 2 {
		if l := Level(strings.ToUpper(code[:2])); l.Valid() {
			return l
		}
	}
	return A1
}

// ResolveType maps the bank's free-text question type onto a QuestionType.
func ResolveType(tipo string) QuestionType {
	t := strings.ToUpper(tipo)
	switch {
	case strings.Contains(t, "CLASIFICACI"), strings.Contains(t, "CLASSIFICATION"):
		return Classification
	case strings.Contains(t, "VERDADERO"), strings.Contains(t, "FALSO"), strings.Contains(t, "TRUE_FALSE"):
		return TrueFalse
	default:
		return SingleChoice
	}
}

// Validate reports payload problems that make a question ungradable.
func (q Question) Validate() error {
	if q.payloadErr != nil {
		if errors.Is(q.payloadErr, ErrInvalidPayload) {
			return fmt.Errorf("%s: %w", q.Code, q.payloadErr)
		}
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, q.Code, q.payloadErr)
	}
	switch q.Type {
	case SingleChoice:
		if q.Choice == nil || len(q.Choice.Options) == 0 {
			return fmt.Errorf("%w: %s has no options", ErrInvalidPayload, q.Code)
		}
		for _, o := range q.Choice.Options {
			if o.Correct {
				return nil
			}
		}
		return fmt.Errorf("%w: %s has no correct option", ErrInvalidPayload, q.Code)
	case TrueFalse:
		if q.TrueFalse == nil || len(q.TrueFalse.Statements) == 0 {
			return fmt.Errorf("%w: %s has no statements", ErrInvalidPayload, q.Code)
		}
	case Classification:
		if q.Classification == nil || len(q.Classification.Items) == 0 {
			return fmt.Errorf("%w: %s has no items", ErrInvalidPayload, q.Code)
		}
		cols := make(map[int]bool, len(q.Classification.Columns))
		for _, c := range q.Classification.Columns {
			cols[c.ID] = true
		}
		for _, it := range q.Classification.Items {
			if !cols[it.Column] {
				return fmt.Errorf("%w: %s item %q targets unknown column %d", ErrInvalidPayload, q.Code, it.Text, it.Column)
			}
		}
	}
	return nil
}

type rawStatement struct {
	ID   any    `json:"id"`
	Text string `json:"texto"`
	True bool   `json:"es_verdadera"`
}

type rawClassItem struct {
	Text   string `json:"texto"`
	Column any    `json:"columna_correcta_id"`
}

type rawColumn struct {
	ID   any    `json:"id"`
	Name string `json:"nombre"`
}

func decodePayload(q *Question, raw any) error {
	data, err := payloadBytes(raw)
	if err != nil || len(data) == 0 {
		setEmptyPayload(q)
		return err
	}
	isList := data[0] == '['

	switch q.Type {
	case SingleChoice:
		var opts []Option
		if isList {
			err = json.Unmarshal(data, &opts)
		} else {
			var wrapped ChoiceData
			err = json.Unmarshal(data, &wrapped)
			opts = wrapped.Options
		}
		q.Choice = &ChoiceData{Options: opts}
	case TrueFalse:
		var items []rawStatement
		if isList {
			err = json.Unmarshal(data, &items)
		} else {
			var wrapped struct {
				Items []rawStatement `json:"items"`
			}
			err = json.Unmarshal(data, &wrapped)
			items = wrapped.Items
		}
		st := make([]Statement, 0, len(items))
		for i, it := range items {
			id := asString(it.ID)
			if id == "" {
				id = "item-" + strconv.Itoa(i)
			}
			st = append(st, Statement{ID: id, Text: it.Text, True: it.True})
		}
		q.TrueFalse = &TrueFalseData{Statements: st}
	case Classification:
		var wrapped struct {
			Items   []rawClassItem `json:"items"`
			Columns []rawColumn    `json:"columnas"`
		}
		if !isList {
			err = json.Unmarshal(data, &wrapped)
		}
		cd := &ClassificationData{}
		for _, it := range wrapped.Items {
			col, _ := asInt(it.Column)
			cd.Items = append(cd.Items, ClassItem{Text: it.Text, Column: col})
		}
		for _, c := range wrapped.Columns {
			id, _ := asInt(c.ID)
			cd.Columns = append(cd.Columns, Column{ID: id, Name: c.Name})
		}
		q.Classification = cd
	}
	if err != nil {
		setEmptyPayload(q)
	}
	return err
}

func setEmptyPayload(q *Question) {
	q.Choice, q.TrueFalse, q.Classification = nil, nil, nil
	switch q.Type {
	case SingleChoice:
		q.Choice = &ChoiceData{}
	case TrueFalse:
		q.TrueFalse = &TrueFalseData{}
	case Classification:
		q.Classification = &ClassificationData{}
	}
}

// payloadBytes accepts decoded JSON values, JSON text or raw bytes.
func payloadBytes(raw any) ([]byte, error) {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '[' && data[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON list or object", ErrInvalidPayload)
	}
	return data, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := strconv.Atoi(n.String())
		return i, err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

// Package seed loads a question bank and its remedial resources from YAML.
package seed

import (
	"context"
	"digcomp_backend/internal/model"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Question is one bank entry. Data is kept as decoded YAML and stored as the
// JSON payload the normalizer reads.
type Question struct {
	ID           string `yaml:"id" validate:"omitempty,uuid"`
	Code         string `yaml:"codigo" validate:"required,max=64"`
	Statement    string `yaml:"enunciado" validate:"required"`
	Type         string `yaml:"tipo_pregunta" validate:"required"`
	Area         string `yaml:"area_dig_comp" validate:"required"`
	Level        string `yaml:"nivel"`
	Data         any    `yaml:"datos_pregunta" validate:"required"`
	ImagePath    string `yaml:"ruta_imagen"`
	ExternalLink string `yaml:"enlace_externo" validate:"omitempty,url"`
	ImageAlt     string `yaml:"texto_alt_imagen"`
}

type Link struct {
	Question string `yaml:"pregunta" validate:"required"`
	Resource string `yaml:"recurso" validate:"required"`
}

type File struct {
	Questions []Question       `yaml:"preguntas" validate:"dive"`
	Resources []model.Resource `yaml:"recursos" validate:"dive"`
	Links     []Link           `yaml:"enlaces" validate:"dive"`
}

type QuestionWriter interface {
	Upsert(ctx context.Context, q *model.Question) error
}

type ResourceWriter interface {
	Upsert(ctx context.Context, r *model.Resource) error
	Link(ctx context.Context, questionCode, resourceCode string) error
}

type Stats struct {
	Questions int
	Resources int
	Links     int
}

var validate = validator.New()

// Parse decodes and validates a seed document. Links must reference codes
// defined in the same document.
func Parse(r io.Reader) (*File, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}

	questions := make(map[string]bool, len(f.Questions))
	for _, q := range f.Questions {
		if questions[q.Code] {
			return nil, fmt.Errorf("invalid seed: duplicate question %q", q.Code)
		}
		questions[q.Code] = true
	}
	resources := make(map[string]bool, len(f.Resources))
	for _, r := range f.Resources {
		resources[r.Code] = true
	}
	for _, l := range f.Links {
		if !questions[l.Question] {
			return nil, fmt.Errorf("invalid seed: link to unknown question %q", l.Question)
		}
		if !resources[l.Resource] {
			return nil, fmt.Errorf("invalid seed: link to unknown resource %q", l.Resource)
		}
	}
	return &f, nil
}

func (q Question) model() (*model.Question, error) {
	data, err := json.Marshal(q.Data)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", q.Code, err)
	}
	return &model.Question{
		ID:           q.ID,
		Code:         q.Code,
		Statement:    q.Statement,
		Type:         q.Type,
		Area:         q.Area,
		Level:        q.Level,
		Data:         data,
		ImagePath:    q.ImagePath,
		ExternalLink: q.ExternalLink,
		ImageAlt:     q.ImageAlt,
	}, nil
}

// Import upserts questions and resources by code, then links them. It stops
// at the first failure; rows written before it are kept.
func Import(ctx context.Context, questions QuestionWriter, resources ResourceWriter, f *File) (Stats, error) {
	var st Stats
	for _, q := range f.Questions {
		row, err := q.model()
		if err != nil {
			return st, err
		}
		if err := questions.Upsert(ctx, row); err != nil {
			return st, fmt.Errorf("question %s: %w", q.Code, err)
		}
		st.Questions++
	}
	for i := range f.Resources {
		if err := resources.Upsert(ctx, &f.Resources[i]); err != nil {
			return st, fmt.Errorf("resource %s: %w", f.Resources[i].Code, err)
		}
		st.Resources++
	}
	for _, l := range f.Links {
		if err := resources.Link(ctx, l.Question, l.Resource); err != nil {
			return st, fmt.Errorf("link %s -> %s: %w", l.Question, l.Resource, err)
		}
		st.Links++
	}
	return st, nil
}

// ImportFile parses path and imports it.
func ImportFile(ctx context.Context, path string, questions QuestionWriter, resources ResourceWriter) (Stats, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return Stats{}, err
	}
	return Import(ctx, questions, resources, f)
}

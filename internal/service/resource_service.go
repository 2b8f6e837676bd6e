package service

import (
	"context"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/pkg/monitoring"
	"digcomp_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type ResourceStore interface {
	FindByQuestionCode(ctx context.Context, questionCode string) ([]model.Resource, error)
}

// ResourceService resolves remedial resources for question codes.
type ResourceService struct {
	Repo ResourceStore
}

func NewResourceService(repo ResourceStore) *ResourceService {
	return &ResourceService{Repo: repo}
}

func (s *ResourceService) ForQuestion(ctx context.Context, questionCode string) ([]model.Resource, error) {
	ctx, span := tracing.StartSpan(ctx, "resources.for_question", attribute.String("question.code", questionCode))
	defer span.End()

	resources, err := s.Repo.FindByQuestionCode(ctx, questionCode)
	tracing.RecordError(span, err)
	if resources == nil && err == nil {
		resources = []model.Resource{}
	}
	return resources, err
}

// ResourcesForQuestion implements quiz.ResourceLookup.
func (s *ResourceService) ResourcesForQuestion(ctx context.Context, questionCode string) ([]quiz.Resource, error) {
	rows, err := s.ForQuestion(ctx, questionCode)
	if err != nil {
		monitoring.ResourceLookupFailures.Inc()
		return nil, err
	}
	out := make([]quiz.Resource, len(rows))
	for i, r := range rows {
		out[i] = r.ToQuiz()
	}
	return out, nil
}

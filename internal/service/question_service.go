package service

import (
	"context"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/util"
	"digcomp_backend/pkg/logger"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const questionBankCacheKey = "digcomp:question_bank"

type QuestionStore interface {
	FindAll(ctx context.Context) ([]model.Question, error)
	FindByIDOrCode(ctx context.Context, key string) (*model.Question, error)
}

// QuestionService serves the question bank, raw and normalized. When Redis is
// configured the raw bank is cached for CacheTTL.
type QuestionService struct {
	Repo     QuestionStore
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewQuestionService(repo QuestionStore, rdb *redis.Client, ttl time.Duration) *QuestionService {
	return &QuestionService{Repo: repo, Redis: rdb, CacheTTL: ttl}
}

func (s *QuestionService) RawBank(ctx context.Context) ([]model.Question, error) {
	if s.Redis != nil && s.CacheTTL > 0 {
		val, err := s.Redis.Get(ctx, questionBankCacheKey).Result()
		if err == nil {
			var cached []model.Question
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("Question bank cache read failed", zap.Error(err))
		}
	}

	questions, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil && s.CacheTTL > 0 && len(questions) > 0 {
		payload, _ := json.Marshal(questions)
		if err := s.Redis.Set(ctx, questionBankCacheKey, payload, s.CacheTTL).Err(); err != nil {
			logger.Log.Warn("Question bank cache write failed", zap.Error(err))
		}
	}
	return questions, nil
}

// Bank returns the normalized bank. Questions with a broken payload are kept
// and logged; they score zero whatever the answer.
func (s *QuestionService) Bank(ctx context.Context) ([]quiz.Question, error) {
	rows, err := s.RawBank(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrEmptyBank, err)
	}
	if len(rows) == 0 {
		return nil, util.ErrEmptyBank
	}

	raws := make([]quiz.RawQuestion, len(rows))
	for i, row := range rows {
		raws[i] = row.Raw()
	}
	bank := quiz.NormalizeBank(raws)
	for _, q := range bank {
		if err := q.Validate(); err != nil {
			logger.Log.Warn("Question payload is invalid",
				zap.String("code", q.Code),
				zap.Error(err))
		}
	}
	return bank, nil
}

func (s *QuestionService) Find(ctx context.Context, key string) (*model.Question, error) {
	return s.Repo.FindByIDOrCode(ctx, key)
}

func (s *QuestionService) InvalidateCache(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, questionBankCacheKey).Err()
}

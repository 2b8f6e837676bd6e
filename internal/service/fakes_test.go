package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"digcomp_backend/internal/config"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/util"

	"gorm.io/datatypes"
)

var errStoreDown = errors.New("store down")

type fakeAttempts struct {
	mu        sync.Mutex
	rows      map[string]*model.Attempt
	updates   int
	failNext  int
	failFinal bool
	deleted   []string
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{rows: make(map[string]*model.Attempt)}
}

func (f *fakeAttempts) Create(_ context.Context, a *model.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.rows[a.ID] = &cp
	return nil
}

func (f *fakeAttempts) FindByID(_ context.Context, id string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttempts) FindAll(_ context.Context) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Attempt, 0, len(f.rows))
	for _, a := range f.rows {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAttempts) FindByUser(_ context.Context, userID string) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for _, a := range f.rows {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttempts) Update(_ context.Context, id string, upd model.AttemptUpdate) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return nil, errStoreDown
	}
	if f.failFinal && upd.FinishedAt != nil {
		return nil, errStoreDown
	}
	a, ok := f.rows[id]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}
	cols, err := upd.Columns()
	if err != nil {
		return nil, err
	}
	f.updates++
	a.Progress = cols["progreso_preguntas"].(datatypes.JSON)
	a.Result = cols["resultado"].(datatypes.JSON)
	if t, ok := cols["fecha_fin"].(time.Time); ok {
		a.FinishedAt = &t
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttempts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return util.ErrAttemptNotFound
	}
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAttempts) DeleteAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.rows))
	f.rows = make(map[string]*model.Attempt)
	return n, nil
}

func (f *fakeAttempts) exists(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok
}

func (f *fakeAttempts) progress(id string) []quiz.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.Outcome
	_ = json.Unmarshal(f.rows[id].Progress, &out)
	return out
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*model.User)}
	for i := range users {
		f.users[users[i].ID] = &users[i]
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindAll(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeBank struct {
	questions []quiz.Question
	err       error
}

func (f *fakeBank) Bank(context.Context) ([]quiz.Question, error) {
	return f.questions, f.err
}

var areaLabels = []string{
	"Información y alfabetización",
	"Comunicación y colaboración",
	"Creación de contenidos",
	"Seguridad",
	"Resolución de problemas",
}

func choice(id string, level quiz.Level, area int) quiz.Question {
	return quiz.Question{
		ID:        id,
		Code:      fmt.Sprintf("%s-C%d1-%s", level, area+1, id),
		Statement: "¿" + id + "?",
		Type:      quiz.SingleChoice,
		Area:      areaLabels[area],
		Level:     level,
		Choice: &quiz.ChoiceData{Options: []quiz.Option{
			{Text: "right", Correct: true},
			{Text: "wrong"},
			{Text: "other"},
		}},
	}
}

// fullBank has two questions per level and area.
func fullBank() []quiz.Question {
	var bank []quiz.Question
	for _, l := range quiz.Levels() {
		for a := 0; a < quiz.AreaCount; a++ {
			for k := 0; k < 2; k++ {
				bank = append(bank, choice(fmt.Sprintf("%s-%d-%d", l, a, k), l, a))
			}
		}
	}
	return bank
}

var rightAnswer = quiz.Response{Selected: "right"}

func quizConfig(grace time.Duration) config.QuizConfig {
	return config.QuizConfig{AbandonGrace: grace, SessionIdleTimeout: time.Hour, LookupConcurrency: 4}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testUser = model.User{UUIDBase: model.UUIDBase{ID: "user-1"}, Name: "Ana López", Occupation: "Docente"}

func newTestQuizService(bank []quiz.Question, grace time.Duration) (*QuizService, *fakeAttempts, *fakeClock) {
	attempts := newFakeAttempts()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := NewQuizService(attempts, newFakeUsers(testUser), &fakeBank{questions: bank}, quizConfig(grace))
	svc.Now = clock.Now
	svc.Rand = rand.New(rand.NewPCG(7, 11))
	return svc, attempts, clock
}

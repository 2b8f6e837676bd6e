package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"digcomp_backend/internal/config"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/service"
	"digcomp_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) FindAll(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

type memAttempts struct {
	mu   sync.Mutex
	rows map[string]model.Attempt
}

func (m *memAttempts) Create(_ context.Context, a *model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[a.ID] = *a
	return nil
}

func (m *memAttempts) FindByID(_ context.Context, id string) (*model.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}
	return &a, nil
}

func (m *memAttempts) FindAll(_ context.Context) ([]model.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Attempt
	for _, a := range m.rows {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAttempts) FindByUser(_ context.Context, userID string) ([]model.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Attempt
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAttempts) Update(_ context.Context, id string, upd model.AttemptUpdate) (*model.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}
	cols, err := upd.Columns()
	if err != nil {
		return nil, err
	}
	a.Progress = cols["progreso_preguntas"].(datatypes.JSON)
	a.Result = cols["resultado"].(datatypes.JSON)
	if t, ok := cols["fecha_fin"].(time.Time); ok {
		a.FinishedAt = &t
	}
	m.rows[id] = a
	return &a, nil
}

func (m *memAttempts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return util.ErrAttemptNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memAttempts) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.rows))
	m.rows = map[string]model.Attempt{}
	return n, nil
}

type staticBank []quiz.Question

func (b staticBank) Bank(context.Context) ([]quiz.Question, error) {
	if len(b) == 0 {
		return nil, util.ErrEmptyBank
	}
	return b, nil
}

type noResources struct{}

func (noResources) ResourcesForQuestion(context.Context, string) ([]quiz.Resource, error) {
	return nil, nil
}

type stubMailer struct {
	to  string
	err error
}

func (s *stubMailer) SendReport(_ context.Context, to, _ string, _ []byte) error {
	s.to = to
	return s.err
}

type testServer struct {
	router *gin.Engine
	quiz   *service.QuizService
	mailer *stubMailer
}

func newTestServer(bank staticBank) *testServer {
	gin.SetMode(gin.TestMode)

	users := &memUsers{users: map[string]model.User{
		"user-1": {UUIDBase: model.UUIDBase{ID: "user-1"}, Name: "Ana", Occupation: "Docente"},
	}}
	attempts := &memAttempts{rows: map[string]model.Attempt{}}
	quizSvc := service.NewQuizService(attempts, users, bank, config.QuizConfig{AbandonGrace: time.Second, SessionIdleTimeout: time.Hour})
	mailer := &stubMailer{}
	reports := service.NewReportService(attempts, users, bank, noResources{}, 2, mailer, nil)

	uc := NewUserController(service.NewUserService(users, nil))
	qc := NewQuizController(quizSvc)
	rc := NewReportController(reports)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/users", uc.CreateUser)
	api.GET("/users/last", uc.LastUser)
	api.GET("/users/:id", uc.GetUser)
	api.GET("/users/:id/quizzes", qc.ListUserAttempts)
	api.POST("/quizzes", qc.CreateAttempt)
	api.POST("/quizzes/:id/start", qc.Start)
	api.GET("/quizzes/:id/current", qc.Current)
	api.POST("/quizzes/:id/answers", qc.SubmitAnswer)
	api.GET("/quizzes/:id/report", rc.GetReport)
	api.GET("/quizzes/:id/report/pdf", rc.DownloadPDF)
	api.POST("/quizzes/:id/report/email", rc.EmailReport)
	api.POST("/results/email", rc.EmailUploadedReport)
	return &testServer{router: r, quiz: quizSvc, mailer: mailer}
}

func (s *testServer) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Code int `json:"code"`
		Data T   `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func singleQuestionBank() staticBank {
	return staticBank{{
		ID: "q1", Code: "A1-C11-01", Statement: "¿Qué es un navegador?", Type: quiz.SingleChoice,
		Area: "Información y alfabetización", Level: quiz.A1,
		Choice: &quiz.ChoiceData{Options: []quiz.Option{{Text: "right", Correct: true}, {Text: "wrong"}}},
	}}
}

func TestUserController_LastUserByDevice(t *testing.T) {
	s := newTestServer(nil)

	w := s.do(http.MethodPost, "/api/users", gin.H{"nombre": "Luis", "ocupacion": "Estudiante"}, map[string]string{util.DeviceHeader: "dev-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[model.User](t, w)

	w = s.do(http.MethodGet, "/api/users/last", nil, map[string]string{util.DeviceHeader: "dev-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[model.User](t, w).ID)

	w = s.do(http.MethodGet, "/api/users/last", nil, map[string]string{util.DeviceHeader: "dev-2"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/users/last", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/users", gin.H{"ocupacion": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuizController_RunAndReport(t *testing.T) {
	s := newTestServer(singleQuestionBank())

	w := s.do(http.MethodPost, "/api/quizzes", gin.H{"userId": "user-1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[model.Attempt](t, w).ID

	w = s.do(http.MethodGet, "/api/quizzes/"+id+"/report", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/quizzes/"+id+"/start", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[service.QuestionView](t, w)
	assert.Equal(t, "q1", view.ID)
	assert.ElementsMatch(t, []string{"right", "wrong"}, view.Options)

	w = s.do(http.MethodPost, "/api/quizzes/"+id+"/answers", gin.H{"questionId": "other", "selected": "right"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/quizzes/"+id+"/answers", gin.H{"questionId": "q1", "selected": "right"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[service.AnswerResult](t, w)
	assert.True(t, res.Finished)
	assert.Equal(t, quiz.Correct, res.Outcome.State)
	s.quiz.Wait()

	w = s.do(http.MethodGet, "/api/quizzes/"+id+"/current", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPost, "/api/quizzes/"+id+"/start", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/quizzes/"+id+"/report", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[service.AttemptReport](t, w)
	assert.Equal(t, 100, report.GlobalScore)
	assert.Equal(t, "Ana", report.User.Name)

	w = s.do(http.MethodGet, "/api/quizzes/"+id+"/report/pdf", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, util.MimePDF, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "informe_digcomp_ana.pdf")

	w = s.do(http.MethodPost, "/api/quizzes/"+id+"/report/email", gin.H{"email": "ana@example.org"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@example.org", s.mailer.to)

	s.mailer.err = fmt.Errorf("%w: 550", util.ErrMailDelivery)
	w = s.do(http.MethodPost, "/api/quizzes/"+id+"/report/email", gin.H{"email": "ana@example.org"}, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestQuizController_StartErrors(t *testing.T) {
	s := newTestServer(nil)

	w := s.do(http.MethodPost, "/api/quizzes", gin.H{"userId": "nobody"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/quizzes", gin.H{"userId": "user-1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[model.Attempt](t, w).ID

	w = s.do(http.MethodPost, "/api/quizzes/"+id+"/start", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQuizController_ListUserAttempts(t *testing.T) {
	s := newTestServer(nil)

	w := s.do(http.MethodGet, "/api/users/user-1/quizzes", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Attempt](t, w))

	for i := 0; i < 2; i++ {
		w = s.do(http.MethodPost, "/api/quizzes", gin.H{"userId": "user-1"}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = s.do(http.MethodGet, "/api/users/user-1/quizzes", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	attempts := decode[[]model.Attempt](t, w)
	require.Len(t, attempts, 2)
	assert.Equal(t, "user-1", attempts[0].UserID)

	w = s.do(http.MethodGet, "/api/users/nobody/quizzes", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func uploadRequest(t *testing.T, email string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", email))
	fw, err := mw.CreateFormFile("pdf", "informe.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/results/email", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReportController_EmailUploadedReport(t *testing.T) {
	s := newTestServer(nil)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, uploadRequest(t, "ana@example.org", []byte("%PDF-1.4\n%fake")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@example.org", s.mailer.to)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, uploadRequest(t, "ana@example.org", []byte("plain text")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, uploadRequest(t, "not-an-address", []byte("%PDF-1.4")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
	}{
		{util.ErrAttemptNotFound, http.StatusNotFound},
		{util.ErrSessionNotActive, http.StatusNotFound},
		{util.ErrSessionFinished, http.StatusConflict},
		{util.ErrIncompleteResponse, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", util.ErrEmptyBank, errors.New("db down")), http.StatusServiceUnavailable},
		{util.ErrMailNotConfigured, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(ctx, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/util"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLookup map[string][]quiz.Resource

func (m mapLookup) ResourcesForQuestion(_ context.Context, code string) ([]quiz.Resource, error) {
	return m[code], nil
}

type recordingMailer struct {
	mu   sync.Mutex
	to   string
	name string
	pdf  []byte
	err  error
}

func (m *recordingMailer) SendReport(_ context.Context, to, userName string, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to, m.name, m.pdf = to, userName, pdf
	return m.err
}

type memoryArchive struct {
	files map[string][]byte
}

func (a *memoryArchive) Upload(_ context.Context, filename string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	a.files[filename] = b
	return "/uploads/" + filename, nil
}

// finishedAttempt runs a two question quiz: one right, one wrong.
func finishedAttempt(t *testing.T) (*fakeAttempts, []quiz.Question, string) {
	t.Helper()
	bank := []quiz.Question{choice("q1", quiz.A1, 0), choice("q2", quiz.C2, 3)}
	svc, attempts, _ := newTestQuizService(bank, time.Second)
	ctx := context.Background()
	id, view := startAttempt(t, svc)

	answers := map[string]quiz.Response{"q1": rightAnswer, "q2": {Selected: "wrong"}}
	res, err := svc.Submit(ctx, id, view.ID, answers[view.ID])
	require.NoError(t, err)
	res, err = svc.Submit(ctx, id, res.Next.ID, answers[res.Next.ID])
	require.NoError(t, err)
	require.True(t, res.Finished)
	svc.Wait()
	return attempts, bank, id
}

func newTestReportService(attempts *fakeAttempts, bank []quiz.Question, lookup quiz.ResourceLookup, mailer Mailer, archive Archiver) *ReportService {
	s := NewReportService(attempts, newFakeUsers(testUser), &fakeBank{questions: bank}, lookup, 2, mailer, archive)
	s.Now = func() time.Time { return time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestReportService_Report(t *testing.T) {
	attempts, bank, id := finishedAttempt(t)
	guide := quiz.Resource{Code: "R-SEC", Title: "Guía de seguridad", URL: "https://example.org/sec"}
	svc := newTestReportService(attempts, bank, mapLookup{bank[1].Code: {guide}}, &recordingMailer{}, nil)

	r, err := svc.Report(context.Background(), id)
	require.NoError(t, err)

	// 1 of 4.5 weighted points
	assert.InDelta(t, 22.22, r.Percent, 0.01)
	assert.Equal(t, 22, r.GlobalScore)
	assert.False(t, r.Passed)
	assert.Equal(t, quiz.A2, r.Band.Code)
	assert.Equal(t, 100, r.Areas[0].Percent)
	assert.Equal(t, 0, r.Areas[3].Percent)
	assert.Equal(t, 1, r.Areas[3].Answered)
	require.Len(t, r.Recommendations, 1)
	assert.Equal(t, "R-SEC", r.Recommendations[0].Code)
	assert.Equal(t, quiz.High, r.Recommendations[0].Priority)
	require.NotNil(t, r.User)
	assert.Equal(t, testUser.Name, r.User.Name)
}

func TestReportService_UnfinishedAttempt(t *testing.T) {
	attempts := newFakeAttempts()
	require.NoError(t, attempts.Create(context.Background(), &model.Attempt{ID: "open", UserID: testUser.ID}))
	svc := newTestReportService(attempts, nil, mapLookup{}, &recordingMailer{}, nil)

	_, err := svc.Report(context.Background(), "open")
	assert.ErrorIs(t, err, util.ErrAttemptUnfinished)

	_, err = svc.Report(context.Background(), "missing")
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)
}

func TestReportService_ReportSurvivesDeletedQuestions(t *testing.T) {
	attempts, _, id := finishedAttempt(t)
	svc := newTestReportService(attempts, nil, mapLookup{}, &recordingMailer{}, nil)

	r, err := svc.Report(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, 22.22, r.Percent, 0.01)
	assert.Zero(t, r.Areas[0].Answered)
}

func TestReportService_PDFIsArchived(t *testing.T) {
	attempts, bank, id := finishedAttempt(t)
	archive := &memoryArchive{files: map[string][]byte{}}
	lookup := mapLookup{bank[1].Code: {{Code: "R-1", Title: "Curso de ciberseguridad", Description: "Introducción", URL: "https://example.org/c"}}}
	svc := newTestReportService(attempts, bank, lookup, &recordingMailer{}, archive)

	pdf, name, err := svc.PDF(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Equal(t, "informe_digcomp_ana_lópez.pdf", name)
	assert.Equal(t, pdf, archive.files["reports/"+id+".pdf"])
}

func TestReportService_EmailUsesOwnerName(t *testing.T) {
	attempts, bank, id := finishedAttempt(t)
	mailer := &recordingMailer{}
	svc := newTestReportService(attempts, bank, mapLookup{}, mailer, nil)

	require.NoError(t, svc.Email(context.Background(), id, "ana@example.org", ""))
	assert.Equal(t, "ana@example.org", mailer.to)
	assert.Equal(t, testUser.Name, mailer.name)
	assert.True(t, bytes.HasPrefix(mailer.pdf, []byte("%PDF-")))

	mailer.err = util.ErrMailDelivery
	err := svc.Email(context.Background(), id, "ana@example.org", "Ana")
	assert.ErrorIs(t, err, util.ErrMailDelivery)
	assert.Equal(t, "Ana", mailer.name)
}

func TestReportService_PDFWithTypographicResourceText(t *testing.T) {
	attempts, bank, id := finishedAttempt(t)
	lookup := mapLookup{bank[1].Code: {{
		Code:        "R-2",
		Title:       "• Guía — “contraseñas seguras” 2€",
		Description: strings.Repeat("Gestión de contraseñas — “buenas prácticas” ", 20),
		URL:         "https://example.org/pw",
	}}}
	svc := newTestReportService(attempts, bank, lookup, &recordingMailer{}, nil)

	pdf, _, err := svc.PDF(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestReportPDF_FitCutsToWidth(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 9)
	p := &reportPDF{Fpdf: doc, tr: doc.UnicodeTranslatorFromDescriptor(""), width: 60}

	short := p.fit("“Hola” — 5€", p.width)
	assert.Equal(t, "\x93Hola\x94 \x97 5\x80", short)

	long := p.fit(strings.Repeat("• recurso “largo” — ", 30), p.width)
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.LessOrEqual(t, p.GetStringWidth(long), p.width)
	require.NoError(t, doc.Error())
}

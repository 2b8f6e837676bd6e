package service

import (
	"bytes"
	"context"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/util"
	"digcomp_backend/pkg/logger"
	"io"
	"time"

	"go.uber.org/zap"
)

type Mailer interface {
	SendReport(ctx context.Context, to, userName string, pdf []byte) error
}

// Archiver stores generated report files.
type Archiver interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

// AttemptReport is the derived view of a finished attempt. It is recomputed
// on every request from the stored outcomes.
type AttemptReport struct {
	AttemptID string      `json:"attemptId"`
	User      *model.User `json:"usuario,omitempty"`
	quiz.Report
	Recommendations []quiz.Recommendation `json:"recursos"`
	FinishedAt      *time.Time            `json:"fechaFin"`
}

type ReportService struct {
	Attempts    AttemptStore
	Users       UserStore
	Bank        BankSource
	Recommender *quiz.Recommender
	Mailer      Mailer
	// Archive is optional; when set every rendered PDF is stored.
	Archive Archiver
	Now     func() time.Time
}

func NewReportService(attempts AttemptStore, users UserStore, bank BankSource, lookup quiz.ResourceLookup, concurrency int, mailer Mailer, archive Archiver) *ReportService {
	return &ReportService{
		Attempts: attempts,
		Users:    users,
		Bank:     bank,
		Recommender: &quiz.Recommender{
			Lookup:      lookup,
			Concurrency: concurrency,
			OnLookupError: func(code string, err error) {
				logger.Log.Warn("Resource lookup failed",
					zap.String("code", code),
					zap.Error(err))
			},
		},
		Mailer:  mailer,
		Archive: archive,
		Now:     time.Now,
	}
}

// batteryFor rebuilds the answered battery from the bank. Questions no longer
// in the bank are stood in for by their outcome's code and level.
func batteryFor(outcomes []quiz.Outcome, bank []quiz.Question) []quiz.Question {
	byID := make(map[string]quiz.Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}
	battery := make([]quiz.Question, 0, len(outcomes))
	for _, o := range outcomes {
		if q, ok := byID[o.QuestionID]; ok {
			battery = append(battery, q)
			continue
		}
		battery = append(battery, quiz.Question{ID: o.QuestionID, Code: o.Code, Level: o.Level})
	}
	return battery
}

func (s *ReportService) Report(ctx context.Context, attemptID string) (*AttemptReport, error) {
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Finished() {
		return nil, util.ErrAttemptUnfinished
	}
	outcomes, err := attempt.Outcomes()
	if err != nil {
		return nil, err
	}

	bank, err := s.Bank.Bank(ctx)
	if err != nil {
		logger.Log.Warn("Report built without question bank",
			zap.String("attemptId", attemptID),
			zap.Error(err))
	}
	battery := batteryFor(outcomes, bank)

	report := &AttemptReport{
		AttemptID:       attempt.ID,
		Report:          quiz.Aggregate(outcomes, battery),
		Recommendations: s.Recommender.Recommend(ctx, outcomes, battery),
		FinishedAt:      attempt.FinishedAt,
	}
	if user, err := s.Users.FindByID(ctx, attempt.UserID); err == nil {
		report.User = user
	}
	return report, nil
}

func ownerName(r *AttemptReport) string {
	if r.User != nil && r.User.Name != "" {
		return r.User.Name
	}
	return defaultUserName
}

func (s *ReportService) render(ctx context.Context, attemptID string) ([]byte, *AttemptReport, error) {
	report, err := s.Report(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := renderReportPDF(report, s.Now())
	if err != nil {
		return nil, nil, err
	}
	s.archive(ctx, attemptID, pdf)
	return pdf, report, nil
}

// PDF renders the report of a finished attempt and returns it with its
// file name.
func (s *ReportService) PDF(ctx context.Context, attemptID string) ([]byte, string, error) {
	pdf, report, err := s.render(ctx, attemptID)
	if err != nil {
		return nil, "", err
	}
	return pdf, ReportFileName(ownerName(report)), nil
}

func (s *ReportService) archive(ctx context.Context, attemptID string, pdf []byte) {
	if s.Archive == nil {
		return
	}
	url, err := s.Archive.Upload(ctx, "reports/"+attemptID+".pdf", bytes.NewReader(pdf), int64(len(pdf)), util.MimePDF)
	if err != nil {
		logger.Log.Warn("Report archive failed",
			zap.String("attemptId", attemptID),
			zap.Error(err))
		return
	}
	logger.Log.Debug("Report archived", zap.String("attemptId", attemptID), zap.String("url", url))
}

// Email renders the report and mails it. An empty userName falls back to the
// attempt owner's name.
func (s *ReportService) Email(ctx context.Context, attemptID, to, userName string) error {
	pdf, report, err := s.render(ctx, attemptID)
	if err != nil {
		return err
	}
	if userName == "" {
		userName = ownerName(report)
	}
	return s.Mailer.SendReport(ctx, to, userName, pdf)
}

// EmailUploaded mails a report PDF produced by the client.
func (s *ReportService) EmailUploaded(ctx context.Context, to, userName string, pdf []byte) error {
	return s.Mailer.SendReport(ctx, to, userName, pdf)
}

package service

import (
	"context"
	"digcomp_backend/internal/config"
	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/util"
	"digcomp_backend/pkg/logger"
	"digcomp_backend/pkg/monitoring"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

type AttemptStore interface {
	Create(ctx context.Context, attempt *model.Attempt) error
	FindByID(ctx context.Context, id string) (*model.Attempt, error)
	FindAll(ctx context.Context) ([]model.Attempt, error)
	FindByUser(ctx context.Context, userID string) ([]model.Attempt, error)
	Update(ctx context.Context, id string, upd model.AttemptUpdate) (*model.Attempt, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type BankSource interface {
	Bank(ctx context.Context) ([]quiz.Question, error)
}

// writeTimeout bounds background writes that have no request context.
const writeTimeout = 10 * time.Second

// session is the in-memory state of one running quiz. mu serializes answers;
// writeMu allows one outstanding attempt write; saveMu guards the pending
// autosave slot. Lock order is mu, writeMu, saveMu.
type session struct {
	mu         sync.Mutex
	attemptID  string
	battery    []quiz.Question
	outcomes   []quiz.Outcome
	shownAt    time.Time
	lastActive time.Time
	completed  bool
	abandoned  bool
	abandon    *time.Timer

	writeMu sync.Mutex

	saveMu  sync.Mutex
	pending []quiz.Outcome
	saving  bool
}

func (s *session) current() quiz.Question {
	return s.battery[len(s.outcomes)]
}

func (s *session) view() *QuestionView {
	return newQuestionView(s.attemptID, len(s.outcomes)+1, len(s.battery), s.current())
}

// QuizService runs quiz sessions against persisted attempts.
type QuizService struct {
	Attempts AttemptStore
	Users    UserStore
	Bank     BankSource
	// Now and Rand are replaceable for tests.
	Now func() time.Time

	rngMu sync.Mutex
	Rand  *rand.Rand

	mu           sync.Mutex
	sessions     map[string]*session
	abandonGrace time.Duration
	idleTimeout  time.Duration

	background sync.WaitGroup
}

func NewQuizService(attempts AttemptStore, users UserStore, bank BankSource, cfg config.QuizConfig) *QuizService {
	seed := uint64(time.Now().UnixNano())
	return &QuizService{
		Attempts:     attempts,
		Users:        users,
		Bank:         bank,
		Now:          time.Now,
		Rand:         rand.New(rand.NewPCG(seed, rand.Uint64())),
		sessions:     make(map[string]*session),
		abandonGrace: cfg.AbandonGrace,
		idleTimeout:  cfg.SessionIdleTimeout,
	}
}

// SetTiming applies reloaded quiz timing settings.
func (s *QuizService) SetTiming(cfg config.QuizConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonGrace = cfg.AbandonGrace
	s.idleTimeout = cfg.SessionIdleTimeout
}

func (s *QuizService) timing() (grace, idle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abandonGrace, s.idleTimeout
}

func (s *QuizService) session(attemptID string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[attemptID]
	return sess, ok
}

func (s *QuizService) dropSession(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, attemptID)
}

// Wait blocks until background writes and deletes have finished.
func (s *QuizService) Wait() {
	s.background.Wait()
}

// CreateAttempt registers a new attempt for an existing user. id may be
// empty, in which case one is generated.
func (s *QuizService) CreateAttempt(ctx context.Context, id, userID string) (*model.Attempt, error) {
	if _, err := s.Users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if id == "" {
		id = model.GenerateUUID()
	}
	attempt := &model.Attempt{
		ID:       id,
		UserID:   userID,
		Progress: []byte("[]"),
	}
	if err := s.Attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}
	logger.Log.Info("Attempt created",
		zap.String("attemptId", attempt.ID),
		zap.String("userId", userID))
	return attempt, nil
}

func (s *QuizService) GetAttempt(ctx context.Context, id string) (*model.Attempt, error) {
	return s.Attempts.FindByID(ctx, id)
}

func (s *QuizService) ListAttempts(ctx context.Context) ([]model.Attempt, error) {
	attempts, err := s.Attempts.FindAll(ctx)
	if attempts == nil && err == nil {
		attempts = []model.Attempt{}
	}
	return attempts, err
}

// ListUserAttempts returns the attempts of one user, newest first.
func (s *QuizService) ListUserAttempts(ctx context.Context, userID string) ([]model.Attempt, error) {
	if _, err := s.Users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.FindByUser(ctx, userID)
	if attempts == nil && err == nil {
		attempts = []model.Attempt{}
	}
	return attempts, err
}

// UpdateAttempt writes progress directly, bypassing any running session.
func (s *QuizService) UpdateAttempt(ctx context.Context, id string, upd model.AttemptUpdate) (*model.Attempt, error) {
	return s.Attempts.Update(ctx, id, upd)
}

func (s *QuizService) DeleteAttempt(ctx context.Context, id string) error {
	s.dropSession(id)
	return s.Attempts.Delete(ctx, id)
}

func (s *QuizService) DeleteAllAttempts(ctx context.Context) (int64, error) {
	s.mu.Lock()
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	return s.Attempts.DeleteAll(ctx)
}

// Start builds the battery for an unfinished attempt and returns the first
// question. Starting an attempt with a running session returns its current
// question instead of drawing a new battery.
func (s *QuizService) Start(ctx context.Context, attemptID string) (*QuestionView, error) {
	if sess, ok := s.session(attemptID); ok {
		sess.mu.Lock()
		running := !sess.completed && !sess.abandoned
		var view *QuestionView
		if running {
			view = sess.view()
		}
		sess.mu.Unlock()
		if running {
			return view, nil
		}
	}

	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Finished() {
		return nil, util.ErrSessionFinished
	}

	bank, err := s.Bank.Bank(ctx)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	battery := quiz.BuildBattery(bank, s.Rand)
	s.rngMu.Unlock()
	if len(battery) == 0 {
		return nil, util.ErrEmptyBank
	}

	now := s.Now()
	sess := &session{
		attemptID:  attemptID,
		battery:    battery,
		shownAt:    now,
		lastActive: now,
	}

	s.mu.Lock()
	s.sessions[attemptID] = sess
	s.mu.Unlock()

	logBattery(attemptID, len(bank), battery)
	monitoring.QuizzesStarted.Inc()

	return sess.view(), nil
}

func logBattery(attemptID string, bankSize int, battery []quiz.Question) {
	perLevel := make(map[quiz.Level]int)
	perArea := make([]int, quiz.AreaCount)
	codes := make([]string, len(battery))
	for i, q := range battery {
		perLevel[q.Level]++
		if a := q.AreaIndex(); a != quiz.NoArea {
			perArea[a]++
		}
		codes[i] = q.Code
	}
	fields := []zap.Field{
		zap.String("attemptId", attemptID),
		zap.Int("bankSize", bankSize),
		zap.Int("batterySize", len(battery)),
		zap.Ints("perArea", perArea),
		zap.Strings("codes", codes),
	}
	for _, l := range quiz.Levels() {
		fields = append(fields, zap.Int("level"+string(l), perLevel[l]))
	}
	if len(battery) < quiz.BatterySize {
		logger.Log.Warn("Battery is short, bank too small", fields...)
		return
	}
	logger.Log.Info("Battery generated", fields...)
}

// Current returns the question awaiting an answer.
func (s *QuizService) Current(attemptID string) (*QuestionView, error) {
	sess, ok := s.session(attemptID)
	if !ok {
		return nil, util.ErrSessionNotActive
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.abandoned {
		return nil, util.ErrSessionNotActive
	}
	if sess.completed {
		return nil, util.ErrSessionFinished
	}
	return sess.view(), nil
}

// Submit evaluates resp against the current question. questionID, when set,
// must name the current question. Intermediate progress is saved in the
// background; the last answer is saved synchronously and a failed save
// leaves the session open so the answer can be sent again.
func (s *QuizService) Submit(ctx context.Context, attemptID, questionID string, resp quiz.Response) (*AnswerResult, error) {
	sess, ok := s.session(attemptID)
	if !ok {
		return nil, util.ErrSessionNotActive
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.abandoned {
		return nil, util.ErrSessionNotActive
	}
	if sess.completed {
		return nil, util.ErrSessionFinished
	}

	q := sess.current()
	if questionID != "" && questionID != q.ID {
		return nil, util.ErrQuestionMismatch
	}
	if !resp.Complete(q) {
		return nil, util.ErrIncompleteResponse
	}

	now := s.Now()
	outcome := quiz.Evaluate(q, resp, sess.shownAt, now)
	sess.outcomes = append(sess.outcomes, outcome)
	sess.lastActive = now
	monitoring.AnswersTotal.WithLabelValues(string(outcome.State)).Inc()

	if len(sess.outcomes) < len(sess.battery) {
		sess.shownAt = now
		s.scheduleSave(sess)
		return &AnswerResult{Outcome: outcome, Next: sess.view()}, nil
	}

	summary, err := s.finish(ctx, sess, now)
	if err != nil {
		sess.outcomes = sess.outcomes[:len(sess.outcomes)-1]
		return nil, err
	}
	return &AnswerResult{Outcome: outcome, Finished: true, Summary: summary}, nil
}

// finish persists the final result. Called with sess.mu held.
func (s *QuizService) finish(ctx context.Context, sess *session, now time.Time) (*quiz.Summary, error) {
	sess.completed = true

	sess.saveMu.Lock()
	sess.pending = nil
	sess.saveMu.Unlock()

	summary := quiz.Summarize(sess.outcomes, sess.battery)
	finishedAt := now

	sess.writeMu.Lock()
	_, err := s.Attempts.Update(ctx, sess.attemptID, model.AttemptUpdate{
		Progress:   append([]quiz.Outcome(nil), sess.outcomes...),
		Result:     &summary,
		FinishedAt: &finishedAt,
	})
	sess.writeMu.Unlock()

	if err != nil {
		sess.completed = false
		logger.Log.Error("Failed to save finished attempt",
			zap.String("attemptId", sess.attemptID),
			zap.Error(err))
		return nil, fmt.Errorf("save finished attempt: %w", err)
	}

	if sess.abandon != nil && sess.abandon.Stop() {
		s.background.Done()
	}
	s.dropSession(sess.attemptID)

	monitoring.QuizzesCompleted.WithLabelValues(string(summary.Verdict)).Inc()
	logger.Log.Info("Attempt finished",
		zap.String("attemptId", sess.attemptID),
		zap.Float64("nota", summary.Grade),
		zap.String("estado", string(summary.Verdict)))
	return &summary, nil
}

// scheduleSave queues a progress snapshot. Only the latest snapshot is kept
// and a single goroutine per session drains it.
func (s *QuizService) scheduleSave(sess *session) {
	snapshot := append([]quiz.Outcome(nil), sess.outcomes...)

	sess.saveMu.Lock()
	sess.pending = snapshot
	start := !sess.saving
	sess.saving = true
	sess.saveMu.Unlock()

	if start {
		s.background.Add(1)
		go s.drainSaves(sess)
	}
}

func (s *QuizService) drainSaves(sess *session) {
	defer s.background.Done()
	for {
		sess.writeMu.Lock()
		sess.saveMu.Lock()
		snapshot := sess.pending
		sess.pending = nil
		if snapshot == nil {
			sess.saving = false
			sess.saveMu.Unlock()
			sess.writeMu.Unlock()
			return
		}
		sess.saveMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		_, err := s.Attempts.Update(ctx, sess.attemptID, model.AttemptUpdate{Progress: snapshot})
		cancel()
		sess.writeMu.Unlock()

		if err != nil {
			logger.Log.Warn("Progress autosave failed",
				zap.String("attemptId", sess.attemptID),
				zap.Int("answered", len(snapshot)),
				zap.Error(err))
		}
	}
}

// Abandon schedules a best-effort delete of an unfinished attempt after the
// grace delay. The delete is skipped if the attempt finishes in the meantime.
func (s *QuizService) Abandon(ctx context.Context, attemptID string) error {
	grace, _ := s.timing()

	if sess, ok := s.session(attemptID); ok {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.completed || sess.abandoned || sess.abandon != nil {
			return nil
		}
		s.background.Add(1)
		sess.abandon = time.AfterFunc(grace, func() {
			defer s.background.Done()
			s.expire(sess)
		})
		return nil
	}

	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		return err
	}
	if attempt.Finished() {
		return nil
	}
	s.background.Add(1)
	time.AfterFunc(grace, func() {
		defer s.background.Done()
		s.deleteUnfinished(attemptID)
	})
	return nil
}

// expire closes an abandoned session and deletes its attempt.
func (s *QuizService) expire(sess *session) {
	sess.mu.Lock()
	if sess.completed || sess.abandoned {
		sess.mu.Unlock()
		return
	}
	sess.abandoned = true
	sess.mu.Unlock()

	s.dropSession(sess.attemptID)

	sess.saveMu.Lock()
	sess.pending = nil
	sess.saveMu.Unlock()

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	s.deleteUnfinished(sess.attemptID)
}

func (s *QuizService) deleteUnfinished(attemptID string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil || attempt.Finished() {
		return
	}
	if err := s.Attempts.Delete(ctx, attemptID); err != nil {
		logger.Log.Debug("Abandoned attempt delete failed",
			zap.String("attemptId", attemptID),
			zap.Error(err))
		return
	}
	logger.Log.Info("Abandoned attempt deleted", zap.String("attemptId", attemptID))
}

// SweepIdle abandons sessions idle for longer than the configured timeout.
func (s *QuizService) SweepIdle(now time.Time) int {
	_, idle := s.timing()
	if idle <= 0 {
		return 0
	}

	s.mu.Lock()
	var stale []*session
	for _, sess := range s.sessions {
		stale = append(stale, sess)
	}
	s.mu.Unlock()

	swept := 0
	for _, sess := range stale {
		sess.mu.Lock()
		expired := !sess.completed && !sess.abandoned && now.Sub(sess.lastActive) > idle
		sess.mu.Unlock()
		if expired {
			s.expire(sess)
			swept++
		}
	}
	return swept
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (s *QuizService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepIdle(s.Now()); n > 0 {
				logger.Log.Info("Idle quiz sessions swept", zap.Int("count", n))
			}
		}
	}
}

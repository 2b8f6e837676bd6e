package service

import (
	"context"
	"testing"
	"time"

	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAttempt(t *testing.T, svc *QuizService) (string, *QuestionView) {
	t.Helper()
	attempt, err := svc.CreateAttempt(context.Background(), "", testUser.ID)
	require.NoError(t, err)
	view, err := svc.Start(context.Background(), attempt.ID)
	require.NoError(t, err)
	return attempt.ID, view
}

func TestQuizService_FullRun(t *testing.T) {
	svc, attempts, clock := newTestQuizService(fullBank(), time.Second)
	ctx := context.Background()
	id, view := startAttempt(t, svc)

	assert.Equal(t, 1, view.Position)
	assert.Equal(t, quiz.BatterySize, view.Total)
	assert.ElementsMatch(t, []string{"right", "wrong", "other"}, view.Options)

	var last *AnswerResult
	for i := 0; i < quiz.BatterySize; i++ {
		clock.Advance(3 * time.Second)
		res, err := svc.Submit(ctx, id, view.ID, rightAnswer)
		require.NoError(t, err, "answer %d", i)
		assert.Equal(t, quiz.Correct, res.Outcome.State)
		assert.Equal(t, 3.0, res.Outcome.DurationSeconds)
		if res.Next != nil {
			assert.Equal(t, i+2, res.Next.Position)
			view = res.Next
		}
		last = res
	}
	svc.Wait()

	require.True(t, last.Finished)
	require.NotNil(t, last.Summary)
	assert.Equal(t, 10.0, last.Summary.Grade)
	assert.Equal(t, quiz.Passed, last.Summary.Verdict)
	assert.Equal(t, quiz.BatterySize, last.Summary.Correct)

	stored, err := attempts.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Finished())
	assert.Len(t, attempts.progress(id), quiz.BatterySize)
	summary, err := stored.Summary()
	require.NoError(t, err)
	assert.Equal(t, 126.0, summary.DurationSecond)

	_, err = svc.Current(id)
	assert.ErrorIs(t, err, util.ErrSessionNotActive)
	_, err = svc.Start(ctx, id)
	assert.ErrorIs(t, err, util.ErrSessionFinished)
}

func TestQuizService_AutosaveKeepsProgress(t *testing.T) {
	svc, attempts, _ := newTestQuizService(fullBank(), time.Second)
	ctx := context.Background()
	id, view := startAttempt(t, svc)

	for i := 0; i < 3; i++ {
		res, err := svc.Submit(ctx, id, view.ID, quiz.Response{DontKnow: true})
		require.NoError(t, err)
		assert.Equal(t, quiz.DontKnow, res.Outcome.State)
		view = res.Next
	}
	svc.Wait()

	progress := attempts.progress(id)
	require.Len(t, progress, 3)
	stored, _ := attempts.FindByID(ctx, id)
	assert.False(t, stored.Finished())
}

func TestQuizService_AutosaveFailureDoesNotStopQuiz(t *testing.T) {
	svc, attempts, _ := newTestQuizService(fullBank(), time.Second)
	ctx := context.Background()
	id, view := startAttempt(t, svc)
	attempts.failNext = 1

	res, err := svc.Submit(ctx, id, view.ID, rightAnswer)
	require.NoError(t, err)
	svc.Wait()

	res, err = svc.Submit(ctx, id, res.Next.ID, rightAnswer)
	require.NoError(t, err)
	svc.Wait()

	assert.Len(t, attempts.progress(id), 2)
	assert.Equal(t, 3, res.Next.Position)
}

func TestQuizService_RejectsBadSubmissions(t *testing.T) {
	tf := quiz.Question{ID: "tf", Code: "A1-C11-tf", Type: quiz.TrueFalse, Level: quiz.A1, Area: "Seguridad",
		TrueFalse: &quiz.TrueFalseData{Statements: []quiz.Statement{{ID: "s0", True: true}, {ID: "s1"}}}}
	svc, _, _ := newTestQuizService([]quiz.Question{tf}, time.Second)
	ctx := context.Background()
	id, view := startAttempt(t, svc)
	require.Equal(t, 1, view.Total)
	require.Len(t, view.Statements, 2)

	_, err := svc.Submit(ctx, id, "other", quiz.Response{DontKnow: true})
	assert.ErrorIs(t, err, util.ErrQuestionMismatch)

	_, err = svc.Submit(ctx, id, "tf", quiz.Response{Truth: map[string]bool{"s0": true}})
	assert.ErrorIs(t, err, util.ErrIncompleteResponse)

	_, err = svc.Submit(ctx, "missing", "", rightAnswer)
	assert.ErrorIs(t, err, util.ErrSessionNotActive)

	res, err := svc.Submit(ctx, id, "", quiz.Response{Truth: map[string]bool{"s0": true, "s1": true}})
	require.NoError(t, err)
	assert.Equal(t, quiz.Partial, res.Outcome.State)
	assert.True(t, res.Finished)
}

func TestQuizService_FinalSaveFailureCanBeRetried(t *testing.T) {
	svc, attempts, _ := newTestQuizService([]quiz.Question{choice("only", quiz.B1, 0)}, time.Second)
	ctx := context.Background()
	id, view := startAttempt(t, svc)
	attempts.failFinal = true

	_, err := svc.Submit(ctx, id, view.ID, rightAnswer)
	require.ErrorIs(t, err, errStoreDown)

	again, err := svc.Current(id)
	require.NoError(t, err)
	assert.Equal(t, view.ID, again.ID)

	attempts.failFinal = false
	res, err := svc.Submit(ctx, id, view.ID, rightAnswer)
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Len(t, attempts.progress(id), 1)
}

func TestQuizService_StartIsIdempotentWhileRunning(t *testing.T) {
	svc, _, _ := newTestQuizService(fullBank(), time.Second)
	id, first := startAttempt(t, svc)

	again, err := svc.Start(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestQuizService_StartWithEmptyBank(t *testing.T) {
	svc, _, _ := newTestQuizService(nil, time.Second)
	attempt, err := svc.CreateAttempt(context.Background(), "a-1", testUser.ID)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), attempt.ID)
	assert.ErrorIs(t, err, util.ErrEmptyBank)
	_, err = svc.Current(attempt.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotActive)
}

func TestQuizService_CreateAttemptNeedsUser(t *testing.T) {
	svc, _, _ := newTestQuizService(fullBank(), time.Second)
	_, err := svc.CreateAttempt(context.Background(), "", "nobody")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestQuizService_AbandonDeletesAfterGrace(t *testing.T) {
	svc, attempts, _ := newTestQuizService(fullBank(), 10*time.Millisecond)
	id, _ := startAttempt(t, svc)

	require.NoError(t, svc.Abandon(context.Background(), id))
	svc.Wait()
	assert.False(t, attempts.exists(id))

	_, err := svc.Current(id)
	assert.ErrorIs(t, err, util.ErrSessionNotActive)
}

func TestQuizService_AbandonSkippedWhenCompletedDuringGrace(t *testing.T) {
	svc, attempts, _ := newTestQuizService([]quiz.Question{choice("only", quiz.A1, 0)}, 100*time.Millisecond)
	ctx := context.Background()
	id, view := startAttempt(t, svc)

	require.NoError(t, svc.Abandon(ctx, id))
	res, err := svc.Submit(ctx, id, view.ID, rightAnswer)
	require.NoError(t, err)
	require.True(t, res.Finished)

	svc.Wait()
	time.Sleep(250 * time.Millisecond)
	assert.True(t, attempts.exists(id))
	assert.Empty(t, attempts.deleted)
}

func TestQuizService_AbandonWithoutSession(t *testing.T) {
	svc, attempts, _ := newTestQuizService(fullBank(), 0)
	ctx := context.Background()
	attempt, err := svc.CreateAttempt(ctx, "", testUser.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(ctx, attempt.ID))
	svc.Wait()
	assert.False(t, attempts.exists(attempt.ID))

	assert.ErrorIs(t, svc.Abandon(ctx, "missing"), util.ErrAttemptNotFound)
}

func TestQuizService_SweepIdle(t *testing.T) {
	svc, attempts, clock := newTestQuizService(fullBank(), time.Second)
	id, _ := startAttempt(t, svc)

	assert.Zero(t, svc.SweepIdle(clock.Now().Add(30*time.Minute)))
	assert.Equal(t, 1, svc.SweepIdle(clock.Now().Add(2*time.Hour)))
	assert.False(t, attempts.exists(id))

	svc.SetTiming(quizConfig(time.Second))
	assert.Zero(t, svc.SweepIdle(clock.Now().Add(3*time.Hour)))
}

func TestQuizService_DeleteAllDropsSessions(t *testing.T) {
	svc, _, _ := newTestQuizService(fullBank(), time.Second)
	id, _ := startAttempt(t, svc)

	n, err := svc.DeleteAllAttempts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = svc.Current(id)
	assert.ErrorIs(t, err, util.ErrSessionNotActive)
}

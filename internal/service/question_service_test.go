package service

import (
	"context"
	"testing"

	"digcomp_backend/internal/model"
	"digcomp_backend/internal/quiz"
	"digcomp_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuestions struct {
	rows []model.Question
	err  error
}

func (f *fakeQuestions) FindAll(context.Context) ([]model.Question, error) {
	return f.rows, f.err
}

func (f *fakeQuestions) FindByIDOrCode(_ context.Context, key string) (*model.Question, error) {
	for i := range f.rows {
		if f.rows[i].ID == key || f.rows[i].Code == key {
			return &f.rows[i], nil
		}
	}
	return nil, util.ErrQuestionNotFound
}

func TestQuestionService_BankNormalizes(t *testing.T) {
	repo := &fakeQuestions{rows: []model.Question{
		{ID: "1", Code: "B2-C41-01", Statement: "¿Contraseña segura?", Type: "Opción única", Area: "4. Seguridad",
			Level: "Nivel B2", Data: []byte(`[{"texto":"a","correcta":true},{"texto":"b"}]`)},
		{ID: "2", Code: "A1-C11-02", Type: "VERDADERO_FALSO", Area: "Información",
			Data: []byte(`[{"texto":"x","es_verdadera":true}]`)},
	}}
	svc := NewQuestionService(repo, nil, 0)

	bank, err := svc.Bank(context.Background())
	require.NoError(t, err)
	require.Len(t, bank, 2)

	assert.Equal(t, quiz.B2, bank[0].Level)
	assert.Equal(t, quiz.SingleChoice, bank[0].Type)
	require.NotNil(t, bank[0].Choice)
	assert.Len(t, bank[0].Choice.Options, 2)

	assert.Equal(t, quiz.A1, bank[1].Level)
	assert.Equal(t, quiz.TrueFalse, bank[1].Type)
	assert.Equal(t, "item-0", bank[1].TrueFalse.Statements[0].ID)
}

func TestQuestionService_EmptyOrFailingBank(t *testing.T) {
	_, err := NewQuestionService(&fakeQuestions{}, nil, 0).Bank(context.Background())
	assert.ErrorIs(t, err, util.ErrEmptyBank)

	_, err = NewQuestionService(&fakeQuestions{err: errStoreDown}, nil, 0).Bank(context.Background())
	assert.ErrorIs(t, err, util.ErrEmptyBank)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestQuestionService_Find(t *testing.T) {
	svc := NewQuestionService(&fakeQuestions{rows: []model.Question{{ID: "1", Code: "A1-X"}}}, nil, 0)

	q, err := svc.Find(context.Background(), "A1-X")
	require.NoError(t, err)
	assert.Equal(t, "1", q.ID)

	_, err = svc.Find(context.Background(), "nope")
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
	assert.NoError(t, svc.InvalidateCache(context.Background()))
}

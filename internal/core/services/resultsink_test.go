package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litreview/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/litreview/internal/core/domain"
)

func TestResultSink_UpsertIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	report := &stubReport{}
	sink := NewResultSink(store, report)

	require.NoError(t, sink.Upsert(context.Background(), judgedAssessment(4, 30)))
	require.NoError(t, sink.Upsert(context.Background(), judgedAssessment(4, 80)))

	count, err := store.CountAssessments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.GetAssessment(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Verdict.Score)
	assert.Equal(t, []int{4, 4}, report.updated)
}

func TestResultSink_ReportMiss(t *testing.T) {
	store := memory.NewStore()
	sink := NewResultSink(store, &stubReport{missing: map[int]bool{9: true}})

	err := sink.Upsert(context.Background(), judgedAssessment(9, 55))

	var reportErr *ReportError
	require.ErrorAs(t, err, &reportErr)
	assert.Equal(t, 9, reportErr.FactNumber)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The durable write still happened.
	_, err = store.GetAssessment(context.Background(), 9)
	assert.NoError(t, err)
}

func TestResultSink_NilReport(t *testing.T) {
	sink := NewResultSink(memory.NewStore(), nil)

	assert.NoError(t, sink.Upsert(context.Background(), judgedAssessment(1, 10)))
}

type failingAssessmentStore struct {
	*memory.AssessmentStore
}

func (failingAssessmentStore) UpsertAssessment(context.Context, *domain.Assessment) error {
	return errors.New("write conflict")
}

func TestResultSink_StoreError(t *testing.T) {
	report := &stubReport{}
	sink := NewResultSink(failingAssessmentStore{memory.NewAssessmentStore()}, report)

	err := sink.Upsert(context.Background(), judgedAssessment(2, 10))

	require.Error(t, err)
	var reportErr *ReportError
	assert.False(t, errors.As(err, &reportErr))
	assert.Empty(t, report.updated, "report is not touched when the store write fails")
}

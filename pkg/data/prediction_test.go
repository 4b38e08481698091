package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralsmart/riskctl/pkg/assessment"
	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/predict"
)

func testPredictions() []*Prediction {
	v := features.Encode(&assessment.DentalRecord{CavitatedLesions: assessment.Yes}, nil)
	ok := predict.Result{
		RiskLevel:         "high",
		Confidence:        0.7,
		ProbabilityLow:    0.1,
		ProbabilityMedium: 0.2,
		ProbabilityHigh:   0.7,
		Available:         true,
	}
	msg := "model not trained"
	failed := predict.Result{
		RiskLevel:         "low",
		ProbabilityLow:    1.0 / 3,
		ProbabilityMedium: 1.0 / 3,
		ProbabilityHigh:   1.0 / 3,
		Error:             &msg,
	}

	a := NewPrediction("child-1", "run-1", v, ok)
	a.CreatedAt = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	b := NewPrediction("child-2", "", v, failed)
	b.CreatedAt = a.CreatedAt.Add(time.Minute)
	return []*Prediction{a, b}
}

func TestNewPrediction(t *testing.T) {
	p := testPredictions()[0]
	assert.NotEmpty(t, p.ID)
	assert.Len(t, p.Features, features.Width)
	assert.Equal(t, 1.0, p.Features["cavitated_lesions"])
	assert.Equal(t, 0.0, p.Features[features.HasDietaryColumn])
}

func TestSaveAndListPredictions(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	list := testPredictions()
	require.NoError(t, s.SavePredictions(ctx, list))

	got, err := s.ListPredictions(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest first
	assert.Equal(t, list[1].ID, got[0].ID)
	assert.False(t, got[0].Result.Available)
	require.NotNil(t, got[0].Result.Error)
	assert.Equal(t, "model not trained", *got[0].Result.Error)

	assert.Equal(t, list[0].Result, got[1].Result)
	assert.Equal(t, "child-1", got[1].Subject)
	assert.Equal(t, list[0].Features, got[1].Features)
	assert.True(t, list[0].CreatedAt.Equal(got[1].CreatedAt))

	run := "run-1"
	got, err = s.ListPredictions(ctx, &run, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, list[0].ID, got[0].ID)

	got, err = s.ListPredictions(ctx, nil, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSavePredictions_Empty(t *testing.T) {
	s := setupTestDB(t)
	assert.NoError(t, s.SavePredictions(context.Background(), nil))
}

func TestSavePredictions_DuplicateRollsBack(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	list := testPredictions()
	list[1].ID = list[0].ID
	assert.Error(t, s.SavePredictions(ctx, list))

	got, err := s.ListPredictions(ctx, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPredictions_NilDB(t *testing.T) {
	var s *Store
	assert.Error(t, s.SavePredictions(context.Background(), testPredictions()))
	_, err := s.ListPredictions(context.Background(), nil, 10)
	assert.Error(t, err)
}

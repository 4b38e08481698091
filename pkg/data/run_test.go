package data

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/train"
)

func testReport(id string, started time.Time) *train.Report {
	return &train.Report{
		RunID:         id,
		StartedAt:     started,
		SchemaVersion: features.SchemaVersion,
		Samples:       120,
		Strategy:      "anova",
		Hidden:        []int{64, 32},
		Alpha:         1e-3,
		Metrics:       train.Metrics{Accuracy: 0.875},
	}
}

func TestNewRun(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r, err := NewRun(testReport("run-1", started), "/tmp/model.json")
	require.NoError(t, err)
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, 0.875, r.Accuracy)
	assert.Equal(t, "/tmp/model.json", r.ArtifactPath)

	var rep train.Report
	require.NoError(t, json.Unmarshal(r.Report, &rep))
	assert.Equal(t, "anova", rep.Strategy)

	_, err = NewRun(nil, "")
	assert.Error(t, err)
}

func TestSaveAndGetRun(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	r, err := NewRun(testReport("run-1", started), "model.json")
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(ctx, r))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, []int{64, 32}, got.Hidden)
	assert.Equal(t, 0.875, got.Accuracy)
	assert.Equal(t, "anova", got.Strategy)
	assert.JSONEq(t, string(r.Report), string(got.Report))

	_, err = s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRun_Duplicate(t *testing.T) {
	s := setupTestDB(t)
	r, err := NewRun(testReport("run-1", time.Now()), "model.json")
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(context.Background(), r))
	assert.Error(t, s.SaveRun(context.Background(), r))
}

func TestSaveRun_Invalid(t *testing.T) {
	s := setupTestDB(t)
	assert.Error(t, s.SaveRun(context.Background(), nil))
	assert.Error(t, s.SaveRun(context.Background(), &Run{}))
}

func TestSaveRun_EmptyReport(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRun(ctx, &Run{ID: "bare", StartedAt: time.Now()}))
	got, err := s.GetRun(ctx, "bare")
	require.NoError(t, err)
	assert.Empty(t, got.Hidden)
	assert.JSONEq(t, "{}", string(got.Report))
}

func TestListRuns(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		r, err := NewRun(testReport(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour)), "m.json")
		require.NoError(t, err)
		require.NoError(t, s.SaveRun(ctx, r))
	}

	list, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "run-3", list[0].ID)
	assert.Equal(t, "run-1", list[2].ID)
}

func TestListRuns_Empty(t *testing.T) {
	s := setupTestDB(t)
	list, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRuns_NilDB(t *testing.T) {
	var s *Store
	ctx := context.Background()
	assert.Error(t, s.SaveRun(ctx, &Run{ID: "x"}))
	_, err := s.ListRuns(ctx, 1)
	assert.Error(t, err)
	_, err = s.GetRun(ctx, "x")
	assert.Error(t, err)
}

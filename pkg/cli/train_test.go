package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralsmart/riskctl/pkg/data"
	"github.com/oralsmart/riskctl/pkg/dataset"
	"github.com/oralsmart/riskctl/pkg/model"
	"github.com/oralsmart/riskctl/pkg/risk"
	"github.com/oralsmart/riskctl/pkg/train"
)

func TestTrainJobKeepsArtifactWhenLedgerFails(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	pairs := dataset.Generate(dataset.GenerateOptions{Count: 200, Seed: 11})
	table, _ := dataset.Build(pairs, dataset.BuildOptions{Policy: risk.DefaultPolicy()})
	tablePath := filepath.Join(dir, "training.csv")
	require.NoError(t, dataset.WriteTable(tablePath, table))

	store, err := data.Open(ctx, filepath.Join(dir, data.DataFileName))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	opts := train.DefaultOptions()
	opts.Hidden = []int{8, 4}
	opts.MaxEpochs = 10

	job := &trainJob{
		table:    tablePath,
		artifact: filepath.Join(dir, "model.json"),
		opts:     opts,
		store:    store,
	}
	rep, err := job.run(ctx)
	require.NoError(t, err)
	require.NotNil(t, rep)

	art, err := model.Load(job.artifact)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, art.Metadata.RunID)

	assert.Error(t, job.record(ctx, rep))
}

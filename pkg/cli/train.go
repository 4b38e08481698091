package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/oralsmart/riskctl/pkg/data"
	"github.com/oralsmart/riskctl/pkg/dataset"
	"github.com/oralsmart/riskctl/pkg/model"
	"github.com/oralsmart/riskctl/pkg/train"
)

const (
	tableFlagName        = "table"
	modelFlagName        = "model"
	strategyFlagName     = "strategy"
	featuresFlagName     = "features"
	searchFlagName       = "search"
	foldsFlagName        = "folds"
	testFractionFlagName = "test-fraction"
	epochsFlagName       = "epochs"
	hiddenFlagName       = "hidden"
	alphaFlagName        = "alpha"
	timeoutFlagName      = "timeout"
)

func modelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    modelFlagName,
		Aliases: []string{"m"},
		Usage:   "Model artifact path (defaults to config)",
	}
}

func trainFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     tableFlagName,
			Aliases:  []string{"t"},
			Usage:    "Training table (.csv or .xlsx) produced by export",
			Required: true,
		},
		modelFlag(),
		&cli.StringFlag{
			Name:  strategyFlagName,
			Usage: fmt.Sprintf("Feature selection strategy [%s] (optional, default: none)", strings.Join(train.Strategies, ", ")),
		},
		&cli.IntFlag{
			Name:  featuresFlagName,
			Usage: "Number of features to keep when a selection strategy is set",
		},
		&cli.BoolFlag{
			Name:  searchFlagName,
			Usage: "Run the cross-validated grid search over layouts and alpha",
		},
		&cli.IntFlag{
			Name:  foldsFlagName,
			Usage: "Cross-validation folds (defaults to config)",
		},
		&cli.FloatFlag{
			Name:  testFractionFlagName,
			Usage: "Share of rows held out for evaluation (defaults to config)",
		},
		&cli.IntFlag{
			Name:  seedFlagName,
			Usage: "Random seed (defaults to config)",
		},
		&cli.IntFlag{
			Name:  epochsFlagName,
			Usage: "Maximum training epochs (defaults to config)",
		},
		&cli.IntSliceFlag{
			Name:  hiddenFlagName,
			Usage: "Hidden layer widths, e.g. --hidden 64 --hidden 32 (defaults to config)",
		},
		&cli.FloatFlag{
			Name:  alphaFlagName,
			Usage: "L2 penalty (defaults to config)",
		},
		&cli.DurationFlag{
			Name:  timeoutFlagName,
			Usage: "Abort training after this long (defaults to config)",
		},
	}
}

func trainCmd() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "Train a classifier from a labeled table and save the model artifact",
		UsageText: `riskctl train --table training.csv
   riskctl train --table training.xlsx --strategy anova --features 30 --search --timeout 10m`,
		HideHelpCommand: true,
		Flags:           trainFlags(),
		Action:          cmdTrain,
	}
}

func cmdTrain(ctx context.Context, cmd *cli.Command) error {
	job, err := newTrainJob(cmd)
	if err != nil {
		return err
	}

	rep, err := job.run(ctx)
	if err != nil {
		return err
	}

	if err := encode(cmd, rep); err != nil {
		return fmt.Errorf("error encoding training report: %w", err)
	}
	return nil
}

// trainJob is one train-save-record cycle, shared with scheduled retraining.
type trainJob struct {
	table    string
	artifact string
	opts     train.Options
	timeout  time.Duration
	store    *data.Store
}

func newTrainJob(cmd *cli.Command) (*trainJob, error) {
	cfg := getConfig(cmd)
	opts := cfg.Config.Training.Options()

	if cmd.IsSet(strategyFlagName) {
		opts.Strategy = cmd.String(strategyFlagName)
	}
	if cmd.IsSet(featuresFlagName) {
		opts.NumFeatures = cmd.Int(featuresFlagName)
	}
	if cmd.IsSet(searchFlagName) {
		opts.Search = cmd.Bool(searchFlagName)
	}
	if cmd.IsSet(foldsFlagName) {
		opts.Folds = cmd.Int(foldsFlagName)
	}
	if cmd.IsSet(testFractionFlagName) {
		opts.TestFraction = cmd.Float(testFractionFlagName)
	}
	if cmd.IsSet(seedFlagName) {
		opts.Seed = uint64(cmd.Int(seedFlagName))
	}
	if cmd.IsSet(epochsFlagName) {
		opts.MaxEpochs = cmd.Int(epochsFlagName)
	}
	if cmd.IsSet(hiddenFlagName) {
		opts.Hidden = cmd.IntSlice(hiddenFlagName)
	}
	if cmd.IsSet(alphaFlagName) {
		opts.Alpha = cmd.Float(alphaFlagName)
	}

	// fail before reading any data
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Config.Training.Timeout
	if cmd.IsSet(timeoutFlagName) {
		timeout = cmd.Duration(timeoutFlagName)
	}

	return &trainJob{
		table:    cmd.String(tableFlagName),
		artifact: artifactPath(cmd),
		opts:     opts,
		timeout:  timeout,
		store:    cfg.Store,
	}, nil
}

func artifactPath(cmd *cli.Command) string {
	if p := cmd.String(modelFlagName); p != "" {
		return p
	}
	cfg := getConfig(cmd)
	return resolvePath(cfg.Dir, cfg.Config.ArtifactPath)
}

func (j *trainJob) run(ctx context.Context) (*train.Report, error) {
	table, err := dataset.ReadTable(j.table)
	if err != nil {
		return nil, fmt.Errorf("reading training table: %w", err)
	}

	tctx := ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	slog.Info("training started", "table", j.table, "rows", len(table.Rows),
		"strategy", j.opts.Strategy, "search", j.opts.Search)

	art, rep, err := train.Train(tctx, table.Samples(), j.opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("training timed out after %s: %w", j.timeout, err)
		}
		return nil, fmt.Errorf("training failed: %w", err)
	}

	if err := model.Save(j.artifact, art); err != nil {
		return nil, fmt.Errorf("saving model artifact: %w", err)
	}
	slog.Info("model saved", "path", j.artifact, "run", rep.RunID, "accuracy", rep.Metrics.Accuracy)

	// the artifact is already live; a ledger failure only loses history
	if err := j.record(ctx, rep); err != nil {
		slog.Error("training run not recorded", "run", rep.RunID, "error", err)
	}
	return rep, nil
}

func (j *trainJob) record(ctx context.Context, rep *train.Report) error {
	run, err := data.NewRun(rep, j.artifact)
	if err != nil {
		return err
	}
	if err := j.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("recording training run: %w", err)
	}
	return nil
}

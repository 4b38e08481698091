package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"

	"github.com/oralsmart/riskctl/pkg/predict"
	"github.com/oralsmart/riskctl/pkg/risk"
)

const (
	scheduleFlagName = "schedule"
	nowFlagName      = "now"

	stopTimeout = 30 * time.Second
)

func retrainCmd() *cli.Command {
	return &cli.Command{
		Name:  "retrain",
		Usage: "Retrain on a schedule, replacing the model artifact after every successful run",
		UsageText: `riskctl retrain --table training.csv --schedule "0 3 * * *"
   riskctl retrain --table training.xlsx --schedule "@every 6h" --now`,
		HideHelpCommand: true,
		Flags: append(trainFlags(),
			&cli.StringFlag{
				Name:     scheduleFlagName,
				Usage:    "Cron expression or descriptor (@daily, @every 1h)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  nowFlagName,
				Usage: "Run once immediately before waiting for the schedule",
			},
		),
		Action: cmdRetrain,
	}
}

func cmdRetrain(ctx context.Context, cmd *cli.Command) error {
	job, err := newTrainJob(cmd)
	if err != nil {
		return err
	}

	schedule, err := cron.ParseStandard(cmd.String(scheduleFlagName))
	if err != nil {
		return fmt.Errorf("%w: invalid schedule: %w", risk.ErrConfiguration, err)
	}

	if err := os.MkdirAll(filepath.Dir(job.artifact), dirMode); err != nil {
		return fmt.Errorf("error creating model directory: %w", err)
	}

	// the watcher confirms every replaced artifact loads cleanly
	p := predict.New()
	if _, err := p.LoadArtifact(job.artifact); err != nil {
		slog.Debug("no model loaded yet", "path", job.artifact, "error", err)
	}
	if err := p.Watch(ctx, job.artifact, func(err error) {
		if err != nil {
			return
		}
		info := p.Info()
		slog.Info("serving model", "run", info.Metadata.RunID, "accuracy", info.Metadata.Accuracy)
	}); err != nil {
		return fmt.Errorf("watching model artifact: %w", err)
	}

	r := &retrainer{job: job}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() { r.runOnce(ctx) }))
	c.Start()
	slog.Info("retraining scheduled", "schedule", cmd.String(scheduleFlagName), "table", job.table)

	if cmd.Bool(nowFlagName) {
		r.runOnce(ctx)
	}

	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(stopTimeout):
		slog.Warn("stop timeout waiting for running retrain")
	}

	r.mu.Lock()
	slog.Info("retraining stopped", "runs", r.runs, "failures", r.failures)
	r.mu.Unlock()
	return nil
}

type retrainer struct {
	job *trainJob

	mu       sync.Mutex
	runs     int
	failures int
}

func (r *retrainer) runOnce(ctx context.Context) {
	// a manual run and a scheduled one must not overlap
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs++
	rep, err := r.job.run(ctx)
	if err != nil {
		r.failures++
		slog.Error("retraining failed", "error", err)
		return
	}
	slog.Info("retraining complete", "run", rep.RunID, "accuracy", rep.Metrics.Accuracy, "duration", rep.Duration)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/oralsmart/riskctl/pkg/predict"
)

const (
	limitFlagName = "limit"
	idFlagName    = "id"
	runFlagName   = "run"

	queryResultLimitDefault = 20
)

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  limitFlagName,
		Usage: "Maximum number of records to list",
		Value: queryResultLimitDefault,
	}
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:            "info",
		Usage:           "Show the status of the trained model and the ledger",
		HideHelpCommand: true,
		Flags:           []cli.Flag{modelFlag()},
		Action:          cmdInfo,
	}
}

// InfoOutput combines model status with ledger counts.
type InfoOutput struct {
	Model  predict.Info     `json:"model" yaml:"model"`
	Ledger map[string]int64 `json:"ledger" yaml:"ledger"`
}

func cmdInfo(ctx context.Context, cmd *cli.Command) error {
	p := predict.New()
	path := artifactPath(cmd)
	if _, err := p.LoadArtifact(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading model: %w", err)
	}

	state, err := getConfig(cmd).Store.GetDataState(ctx)
	if err != nil {
		return fmt.Errorf("reading ledger state: %w", err)
	}

	if err := encode(cmd, &InfoOutput{Model: p.Info(), Ledger: state}); err != nil {
		return fmt.Errorf("error encoding info: %w", err)
	}
	return nil
}

func runsCmd() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recorded training runs",
		UsageText: `riskctl runs --limit 5
   riskctl runs --id 0b7c...   # full report of one run`,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			limitFlag(),
			&cli.StringFlag{
				Name:  idFlagName,
				Usage: "Show a single run including its report",
			},
		},
		Action: cmdRuns,
	}
}

func cmdRuns(ctx context.Context, cmd *cli.Command) error {
	store := getConfig(cmd).Store

	if id := cmd.String(idFlagName); id != "" {
		run, err := store.GetRun(ctx, id)
		if err != nil {
			return fmt.Errorf("getting run: %w", err)
		}
		return encode(cmd, run)
	}

	list, err := store.ListRuns(ctx, cmd.Int(limitFlagName))
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	// reports are only shown for a single run
	for _, r := range list {
		r.Report = nil
	}
	return encode(cmd, list)
}

func predictionsCmd() *cli.Command {
	return &cli.Command{
		Name:            "predictions",
		Usage:           "List recorded predictions",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			limitFlag(),
			&cli.StringFlag{
				Name:  runFlagName,
				Usage: "Only predictions served by this training run",
			},
		},
		Action: cmdPredictions,
	}
}

func cmdPredictions(ctx context.Context, cmd *cli.Command) error {
	var run *string
	if v := cmd.String(runFlagName); v != "" {
		run = &v
	}

	list, err := getConfig(cmd).Store.ListPredictions(ctx, run, cmd.Int(limitFlagName))
	if err != nil {
		return fmt.Errorf("listing predictions: %w", err)
	}
	return encode(cmd, list)
}

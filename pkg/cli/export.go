package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/oralsmart/riskctl/pkg/dataset"
)

const (
	outFlagName               = "out"
	includeIncompleteFlagName = "include-incomplete"
	dryRunFlagName            = "dry-run"
)

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Label assessments with the rule engine and write a training table",
		UsageText: `riskctl export --input assessments.jsonl --out training.csv
   riskctl export --input assessments.jsonl --out training.xlsx --include-incomplete --min-dmft 4
   riskctl export --input assessments.jsonl --dry-run`,
		HideHelpCommand: true,
		Flags: append([]cli.Flag{
			inputFlag(),
			&cli.StringFlag{
				Name:    outFlagName,
				Aliases: []string{"o"},
				Usage:   "Training table to write (.csv or .xlsx)",
			},
			&cli.BoolFlag{
				Name:  includeIncompleteFlagName,
				Usage: "Keep assessments with only a dental or only a dietary record (defaults to config)",
			},
			&cli.BoolFlag{
				Name:  dryRunFlagName,
				Usage: "Print statistics without writing the table",
			},
		}, labelFlags()...),
		Action: cmdExport,
	}
}

func cmdExport(_ context.Context, cmd *cli.Command) error {
	out := cmd.String(outFlagName)
	dryRun := cmd.Bool(dryRunFlagName)
	if out == "" && !dryRun {
		return cli.ShowSubcommandHelp(cmd)
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet(includeIncompleteFlagName) {
		opts.IncludeIncomplete = cmd.Bool(includeIncompleteFlagName)
	}

	pairs, err := dataset.ReadPairsFile(cmd.String(inputFlagName))
	if err != nil {
		return fmt.Errorf("reading assessments: %w", err)
	}

	table, stats := dataset.Build(pairs, opts)
	if !dryRun {
		if err := dataset.WriteTable(out, table); err != nil {
			return fmt.Errorf("writing training table: %w", err)
		}
		slog.Info("training table written", "path", out, "rows", stats.Exported)
	}

	if err := encode(cmd, stats); err != nil {
		return fmt.Errorf("error encoding export stats: %w", err)
	}
	return nil
}

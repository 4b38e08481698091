package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/oralsmart/riskctl/pkg/dataset"
)

const (
	countFlagName          = "count"
	seedFlagName           = "seed"
	incompleteRateFlagName = "incomplete-rate"

	generateCountDefault = 500
)

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a reproducible synthetic cohort of assessments",
		UsageText: `riskctl generate --count 1000 --out cohort.jsonl
   riskctl generate --seed 7 | riskctl score`,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  countFlagName,
				Usage: "Number of children to generate",
				Value: generateCountDefault,
			},
			&cli.IntFlag{
				Name:  seedFlagName,
				Usage: "Random seed",
				Value: 42,
			},
			&cli.FloatFlag{
				Name:  incompleteRateFlagName,
				Usage: "Share of children missing one of the two records",
				Value: 0.1,
			},
			&cli.StringFlag{
				Name:    outFlagName,
				Aliases: []string{"o"},
				Usage:   "JSON lines file to write, - for stdout",
				Value:   "-",
			},
		},
		Action: cmdGenerate,
	}
}

func cmdGenerate(_ context.Context, cmd *cli.Command) error {
	count := cmd.Int(countFlagName)
	rate := cmd.Float(incompleteRateFlagName)
	if count < 1 {
		return fmt.Errorf("count must be positive, got %d", count)
	}
	if rate < 0 || rate > 1 {
		return fmt.Errorf("incomplete rate must be in [0,1], got %v", rate)
	}

	pairs := dataset.Generate(dataset.GenerateOptions{
		Count:          count,
		Seed:           uint64(cmd.Int(seedFlagName)),
		IncompleteRate: rate,
	})

	out := cmd.String(outFlagName)
	if out == "-" {
		return dataset.WritePairs(cmd.Root().Writer, pairs)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", out, err)
	}
	if err := dataset.WritePairs(f, pairs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/oralsmart/riskctl/pkg/assessment"
	"github.com/oralsmart/riskctl/pkg/dataset"
	"github.com/oralsmart/riskctl/pkg/risk"
	"github.com/oralsmart/riskctl/pkg/score"
)

const (
	inputFlagName     = "input"
	thresholdFlagName = "threshold"
	minDMFTFlagName   = "min-dmft"
)

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    inputFlagName,
		Aliases: []string{"i"},
		Usage:   "Assessments as JSON lines ({\"dental\": ..., \"dietary\": ...}), - for stdin",
		Value:   "-",
	}
}

func labelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:  thresholdFlagName,
			Usage: "High risk threshold override; medium is derived at 65% (defaults to config, 0 uses tiered thresholds)",
		},
		&cli.IntFlag{
			Name:  minDMFTFlagName,
			Usage: "Label any child with at least this many affected teeth high risk (defaults to config, 0 disables)",
		},
	}
}

// ScoreResult explains how the rule engine labels one assessment.
type ScoreResult struct {
	ID           string          `json:"id,omitempty" yaml:"id,omitempty"`
	Tier         string          `json:"tier" yaml:"tier"`
	Score        score.Breakdown `json:"score" yaml:"score"`
	Thresholds   risk.Thresholds `json:"thresholds" yaml:"thresholds"`
	RiskLevel    string          `json:"risk_level" yaml:"risk_level"`
	DMFTShortcut bool            `json:"dmft_shortcut,omitempty" yaml:"dmft_shortcut,omitempty"`
}

func scoreCmd() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Explain the rule-based score and label of assessments",
		UsageText: `riskctl score --input assessments.jsonl
   cat assessments.jsonl | riskctl score --threshold 10`,
		HideHelpCommand: true,
		Flags:           append([]cli.Flag{inputFlag()}, labelFlags()...),
		Action:          cmdScore,
	}
}

func cmdScore(_ context.Context, cmd *cli.Command) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	pairs, err := dataset.ReadPairsFile(cmd.String(inputFlagName))
	if err != nil {
		return fmt.Errorf("reading assessments: %w", err)
	}

	list := make([]*ScoreResult, 0, len(pairs))
	for _, p := range pairs {
		list = append(list, scorePair(p, opts))
	}

	if err := encode(cmd, list); err != nil {
		return fmt.Errorf("error encoding scores: %w", err)
	}
	return nil
}

func scorePair(p assessment.Pair, opts dataset.BuildOptions) *ScoreResult {
	label, b, short := dataset.Label(p, opts)
	tier := risk.TierOf(p.Dental, p.Dietary)
	return &ScoreResult{
		ID:           p.ID,
		Tier:         tier.String(),
		Score:        b,
		Thresholds:   opts.Policy.Thresholds(tier),
		RiskLevel:    label.String(),
		DMFTShortcut: short,
	}
}

// buildOptions merges labeling flags over the config defaults.
func buildOptions(cmd *cli.Command) (dataset.BuildOptions, error) {
	labels := getConfig(cmd).Config.Labels
	if cmd.IsSet(thresholdFlagName) {
		labels.Threshold = cmd.Float(thresholdFlagName)
	}
	if cmd.IsSet(minDMFTFlagName) {
		labels.MinDMFT = cmd.Int(minDMFTFlagName)
	}
	if labels.MinDMFT < 0 {
		return dataset.BuildOptions{}, fmt.Errorf("%w: min dmft must not be negative", risk.ErrConfiguration)
	}

	policy, err := labels.Policy()
	if err != nil {
		return dataset.BuildOptions{}, err
	}
	return dataset.BuildOptions{
		Policy:            policy,
		MinDMFT:           labels.MinDMFT,
		IncludeIncomplete: labels.IncludeIncomplete,
	}, nil
}

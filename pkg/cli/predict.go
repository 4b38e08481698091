package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/oralsmart/riskctl/pkg/data"
	"github.com/oralsmart/riskctl/pkg/dataset"
	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/predict"
)

const noRecordFlagName = "no-record"

// PredictOutput pairs an assessment id with its prediction map.
type PredictOutput struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Prediction map[string]any `json:"prediction" yaml:"prediction"`
}

func predictCmd() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Predict caries risk for assessments with the trained model",
		UsageText: `riskctl predict --input assessments.jsonl
   echo '{"dental": {"cavitated_lesions": "yes"}, "dietary": null}' | riskctl predict`,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			inputFlag(),
			modelFlag(),
			&cli.BoolFlag{
				Name:  noRecordFlagName,
				Usage: "Do not record predictions in the ledger",
			},
		},
		Action: cmdPredict,
	}
}

func cmdPredict(ctx context.Context, cmd *cli.Command) error {
	pairs, err := dataset.ReadPairsFile(cmd.String(inputFlagName))
	if err != nil {
		return fmt.Errorf("reading assessments: %w", err)
	}

	p := predict.New()
	path := artifactPath(cmd)
	runID := ""
	if a, err := p.LoadArtifact(path); err != nil {
		// predictions still return, flagged unavailable
		slog.Warn("model unavailable", "path", path, "error", err)
	} else {
		runID = a.Metadata.RunID
	}

	out := make([]*PredictOutput, 0, len(pairs))
	records := make([]*data.Prediction, 0, len(pairs))
	for _, pair := range pairs {
		v := features.EncodePair(pair)
		res := p.PredictVector(v)
		out = append(out, &PredictOutput{ID: pair.ID, Prediction: res.Map()})
		records = append(records, data.NewPrediction(pair.ID, runID, v, res))
	}

	if !cmd.Bool(noRecordFlagName) {
		if err := getConfig(cmd).Store.SavePredictions(ctx, records); err != nil {
			return fmt.Errorf("recording predictions: %w", err)
		}
	}

	if err := encode(cmd, out); err != nil {
		return fmt.Errorf("error encoding predictions: %w", err)
	}
	return nil
}

package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/predict"
)

const (
	insertPredictionSQL = `INSERT INTO prediction (id, created_at, subject, risk_level,
			confidence, probability_low, probability_medium, probability_high,
			available, error, run_id, features)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectPredictionsSQL = `SELECT id, created_at, subject, risk_level, confidence,
			probability_low, probability_medium, probability_high,
			available, error, run_id, features
		FROM prediction
		WHERE run_id = COALESCE(?, run_id)
		ORDER BY created_at DESC, id
		LIMIT ?
	`
)

// Prediction is one recorded prediction with the inputs that produced it.
type Prediction struct {
	ID        string             `json:"id" yaml:"id"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	Subject   string             `json:"subject,omitempty" yaml:"subject,omitempty"`
	RunID     string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Result    predict.Result     `json:"result" yaml:"result"`
	Features  map[string]float64 `json:"features,omitempty" yaml:"features,omitempty"`
}

// NewPrediction stamps a result with a fresh id and the current time.
func NewPrediction(subject, runID string, v features.Vector, r predict.Result) *Prediction {
	return &Prediction{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Subject:   subject,
		RunID:     runID,
		Result:    r,
		Features:  v.Map(),
	}
}

// SavePredictions records predictions in a single transaction.
func (s *Store) SavePredictions(ctx context.Context, list []*Prediction) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting prediction tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertPredictionSQL))
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("error preparing prediction insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range list {
		feats, err := json.Marshal(p.Features)
		if err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error encoding features of prediction %s: %w", p.ID, err)
		}
		errMsg := ""
		if p.Result.Error != nil {
			errMsg = *p.Result.Error
		}
		available := 0
		if p.Result.Available {
			available = 1
		}

		if _, err := stmt.ExecContext(ctx,
			p.ID, formatTime(p.CreatedAt), p.Subject, p.Result.RiskLevel,
			p.Result.Confidence, p.Result.ProbabilityLow, p.Result.ProbabilityMedium,
			p.Result.ProbabilityHigh, available, errMsg, p.RunID, string(feats),
		); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting prediction %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing prediction tx: %w", err)
	}

	slog.Debug("recorded predictions", "count", len(list))
	return nil
}

// ListPredictions returns recent predictions, newest first. A nil runID
// matches every run.
func (s *Store) ListPredictions(ctx context.Context, runID *string, limit int) ([]*Prediction, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(selectPredictionsSQL), runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	list := make([]*Prediction, 0)
	for rows.Next() {
		var (
			p         Prediction
			created   string
			available int
			errMsg    string
			feats     string
		)
		if err := rows.Scan(&p.ID, &created, &p.Subject, &p.Result.RiskLevel,
			&p.Result.Confidence, &p.Result.ProbabilityLow, &p.Result.ProbabilityMedium,
			&p.Result.ProbabilityHigh, &available, &errMsg, &p.RunID, &feats); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		p.Result.Available = available == 1
		if errMsg != "" {
			p.Result.Error = &errMsg
		}
		if err := json.Unmarshal([]byte(feats), &p.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features of prediction %s: %w", p.ID, err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}
	return list, nil
}

package data

import (
	"context"
	"fmt"
	"log/slog"
)

var (
	stateQueries = map[string]string{
		"runs":             "SELECT COUNT(*) FROM training_run",
		"predictions":      "SELECT COUNT(*) FROM prediction",
		"unavailable":      "SELECT COUNT(*) FROM prediction WHERE available = 0",
		"high_predictions": "SELECT COUNT(*) FROM prediction WHERE risk_level = 'high'",
	}

	resetStatements = []string{
		"DELETE FROM prediction",
		"DELETE FROM training_run",
	}
)

// GetDataState returns row counts of the ledger.
func (s *Store) GetDataState(ctx context.Context) (map[string]int64, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	state := make(map[string]int64)
	for k, q := range stateQueries {
		var count int64
		if err := s.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
			return nil, fmt.Errorf("error getting %s count: %w", k, err)
		}
		state[k] = count
	}

	return state, nil
}

// Reset deletes every recorded run and prediction.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting reset tx: %w", err)
	}
	for _, q := range resetStatements {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error executing %q: %w", q, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing reset tx: %w", err)
	}

	slog.Debug("ledger reset")
	return nil
}

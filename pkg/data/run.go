package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oralsmart/riskctl/pkg/train"
)

const (
	insertRunSQL = `INSERT INTO training_run (id, started_at, schema_version, samples,
			accuracy, strategy, hidden, alpha, artifact_path, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRunColumns = `SELECT id, started_at, schema_version, samples, accuracy,
			strategy, hidden, alpha, artifact_path, report
		FROM training_run
	`

	selectRunsSQL = selectRunColumns + `ORDER BY started_at DESC, id LIMIT ?`
	selectRunSQL  = selectRunColumns + `WHERE id = ?`
)

// Run is one recorded training run.
type Run struct {
	ID            string          `json:"id" yaml:"id"`
	StartedAt     time.Time       `json:"started_at" yaml:"started_at"`
	SchemaVersion string          `json:"schema_version" yaml:"schema_version"`
	Samples       int             `json:"samples" yaml:"samples"`
	Accuracy      float64         `json:"accuracy" yaml:"accuracy"`
	Strategy      string          `json:"strategy" yaml:"strategy"`
	Hidden        []int           `json:"hidden" yaml:"hidden"`
	Alpha         float64         `json:"alpha" yaml:"alpha"`
	ArtifactPath  string          `json:"artifact_path" yaml:"artifact_path"`
	Report        json.RawMessage `json:"report,omitempty" yaml:"-"`
}

// NewRun captures a training report for the ledger.
func NewRun(rep *train.Report, artifactPath string) (*Run, error) {
	if rep == nil {
		return nil, errors.New("report is required")
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("error encoding report: %w", err)
	}
	return &Run{
		ID:            rep.RunID,
		StartedAt:     rep.StartedAt,
		SchemaVersion: rep.SchemaVersion,
		Samples:       rep.Samples,
		Accuracy:      rep.Metrics.Accuracy,
		Strategy:      rep.Strategy,
		Hidden:        rep.Hidden,
		Alpha:         rep.Alpha,
		ArtifactPath:  artifactPath,
		Report:        b,
	}, nil
}

// SaveRun records a training run.
func (s *Store) SaveRun(ctx context.Context, r *Run) error {
	if err := s.ready(); err != nil {
		return err
	}
	if r == nil || r.ID == "" {
		return errors.New("run with an id is required")
	}

	report := r.Report
	if len(report) == 0 {
		report = json.RawMessage("{}")
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(insertRunSQL),
		r.ID, formatTime(r.StartedAt), r.SchemaVersion, r.Samples, r.Accuracy,
		r.Strategy, joinInts(r.Hidden), r.Alpha, r.ArtifactPath, string(report),
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", r.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(selectRunsSQL), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return list, nil
}

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	r, err := scanRun(s.db.QueryRowContext(ctx, s.rebind(selectRunSQL), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r              Run
		started        string
		hidden, report string
	)
	if err := row.Scan(&r.ID, &started, &r.SchemaVersion, &r.Samples, &r.Accuracy,
		&r.Strategy, &hidden, &r.Alpha, &r.ArtifactPath, &report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	t, err := parseTime(started)
	if err != nil {
		return nil, err
	}
	r.StartedAt = t
	if r.Hidden, err = splitInts(hidden); err != nil {
		return nil, fmt.Errorf("run %s: %w", r.ID, err)
	}
	r.Report = json.RawMessage(report)
	return &r, nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid layer size %q: %w", p, err)
		}
		out[i] = n
	}
	return out, nil
}

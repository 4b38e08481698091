package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMock = errors.New("connection reset")

func setupMockDB(t *testing.T, dialect string) (sqlmock.Sqlmock, *Store) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewStore(db, dialect)
}

func TestSavePredictions_BeginError(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	mock.ExpectBegin().WillReturnError(errMock)

	err := s.SavePredictions(context.Background(), testPredictions())
	assert.ErrorIs(t, err, errMock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePredictions_ExecErrorRollsBack(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO prediction`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errMock)
	mock.ExpectRollback()

	err := s.SavePredictions(context.Background(), testPredictions())
	assert.ErrorIs(t, err, errMock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePredictions_CommitError(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO prediction`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit().WillReturnError(errMock)

	err := s.SavePredictions(context.Background(), testPredictions())
	assert.ErrorIs(t, err, errMock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePredictions_PostgresPlaceholders(t *testing.T) {
	mock, s := setupMockDB(t, DialectPostgres)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11, \$12\)`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SavePredictions(context.Background(), testPredictions()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRuns_QueryError(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	mock.ExpectQuery(`FROM training_run`).WillReturnError(errMock)

	_, err := s.ListRuns(context.Background(), 5)
	assert.ErrorIs(t, err, errMock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRuns_BadRow(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	rows := sqlmock.NewRows([]string{"id", "started_at", "schema_version", "samples", "accuracy",
		"strategy", "hidden", "alpha", "artifact_path", "report"}).
		AddRow("run-1", "yesterday", "v", 10, 0.5, "", "64", 0.001, "m.json", "{}")
	mock.ExpectQuery(`FROM training_run`).WithArgs(5).WillReturnRows(rows)

	_, err := s.ListRuns(context.Background(), 5)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRun_Rows(t *testing.T) {
	mock, s := setupMockDB(t, DialectPostgres)
	rows := sqlmock.NewRows([]string{"id", "started_at", "schema_version", "samples", "accuracy",
		"strategy", "hidden", "alpha", "artifact_path", "report"}).
		AddRow("run-1", "2026-01-02T03:04:05.000Z", "v", 10, 0.5, "rfe", "32,16", 0.01, "m.json", `{"run_id":"run-1"}`)
	mock.ExpectQuery(`WHERE id = \$1`).WithArgs("run-1").WillReturnRows(rows)

	r, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []int{32, 16}, r.Hidden)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Unix(), r.StartedAt.Unix())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRun_ExecError(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	mock.ExpectExec(`INSERT INTO training_run`).WillReturnError(errMock)

	err := s.SaveRun(context.Background(), &Run{ID: "run-1"})
	assert.ErrorIs(t, err, errMock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPredictions_ScanError(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	rows := sqlmock.NewRows([]string{"id"}).AddRow("only-one-column")
	mock.ExpectQuery(`FROM prediction`).WillReturnRows(rows)

	_, err := s.ListPredictions(context.Background(), nil, 5)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDataState_QueryError(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(errMock)

	_, err := s.GetDataState(context.Background())
	assert.ErrorIs(t, err, errMock)
}

func TestReset_ExecErrorRollsBack(t *testing.T) {
	mock, s := setupMockDB(t, DialectSQLite)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM prediction`).WillReturnError(errMock)
	mock.ExpectRollback()

	err := s.Reset(context.Background())
	assert.ErrorIs(t, err, errMock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Package report persists trial results and computes accuracy summaries
// against ground-truth URLs.
package report

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/harborline/resolve-cli/internal/model"
)

// Store persists trial results grouped by run.
type Store interface {
	SaveTrial(ctx context.Context, runID string, trial *model.TrialResult) error
	ListTrials(ctx context.Context, runID string) ([]model.TrialResult, error)
	Close() error
}

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, configures WAL mode
// and applies the schema.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "report: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "report: exec %s", pragma)
		}
	}

	s := &SQLiteStore{db: db}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "report: migrate")
	}
	return s, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS trials (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL,
	company_number TEXT NOT NULL,
	company        TEXT NOT NULL,
	attempts       TEXT NOT NULL,
	final_url      TEXT,
	final_method   TEXT NOT NULL,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trials_run_id ON trials(run_id);
CREATE INDEX IF NOT EXISTS idx_trials_company_number ON trials(company_number);
CREATE INDEX IF NOT EXISTS idx_trials_final_method ON trials(final_method);
`

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveTrial(ctx context.Context, runID string, trial *model.TrialResult) error {
	companyJSON, err := json.Marshal(trial.Company)
	if err != nil {
		return eris.Wrap(err, "report: marshal company")
	}
	attemptsJSON, err := json.Marshal(trial.Attempts)
	if err != nil {
		return eris.Wrap(err, "report: marshal attempts")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trials (id, run_id, company_number, company, attempts, final_url, final_method, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trial.ID, runID, trial.Company.RegistrationNumber,
		string(companyJSON), string(attemptsJSON),
		trial.FinalURL, string(trial.FinalMethod),
		trial.StartedAt, trial.FinishedAt,
	)
	return eris.Wrapf(err, "report: insert trial %s", trial.ID)
}

func (s *SQLiteStore) ListTrials(ctx context.Context, runID string) ([]model.TrialResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company, attempts, final_url, final_method, started_at, finished_at
		 FROM trials WHERE run_id = ? ORDER BY started_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "report: list trials")
	}
	defer rows.Close()

	var trials []model.TrialResult
	for rows.Next() {
		var t model.TrialResult
		var companyJSON, attemptsJSON string
		var finalURL sql.NullString
		var method string
		if err := rows.Scan(&t.ID, &companyJSON, &attemptsJSON, &finalURL, &method, &t.StartedAt, &t.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "report: scan trial")
		}
		if err := json.Unmarshal([]byte(companyJSON), &t.Company); err != nil {
			return nil, eris.Wrap(err, "report: unmarshal company")
		}
		if err := json.Unmarshal([]byte(attemptsJSON), &t.Attempts); err != nil {
			return nil, eris.Wrap(err, "report: unmarshal attempts")
		}
		t.FinalURL = finalURL.String
		t.FinalMethod = model.Method(method)
		trials = append(trials, t)
	}
	return trials, eris.Wrap(rows.Err(), "report: list trials iterate")
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/jmtracker/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "jmtracker.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS postings (
	seq       INTEGER NOT NULL,
	origin    TEXT NOT NULL,
	origin_id TEXT NOT NULL,
	data      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_changes (
	seq       INTEGER NOT NULL,
	origin    TEXT NOT NULL,
	origin_id TEXT NOT NULL,
	data      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS table_state (
	name       TEXT PRIMARY KEY,
	row_count  INTEGER NOT NULL,
	written_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id         TEXT PRIMARY KEY,
	origin     TEXT NOT NULL,
	file       TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL,
	rows_read  INTEGER NOT NULL DEFAULT 0,
	added      INTEGER NOT NULL DEFAULT 0,
	staged     INTEGER NOT NULL DEFAULT 0,
	skipped    INTEGER NOT NULL DEFAULT 0,
	message    TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL,
	ended_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_postings_key ON postings(origin, origin_id);
CREATE INDEX IF NOT EXISTS idx_pending_key ON pending_changes(origin, origin_id);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_origin ON ingest_runs(origin);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PostingsWritten(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM table_state WHERE name = ?`, TablePostings).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: read table state")
	}
	return n > 0, nil
}

func (s *SQLiteStore) LoadPostings(ctx context.Context) ([]model.Posting, error) {
	var postings []model.Posting
	err := s.loadTable(ctx, TablePostings, func(data []byte) error {
		p, err := decodePosting(data)
		if err != nil {
			return err
		}
		postings = append(postings, p)
		return nil
	})
	return postings, err
}

func (s *SQLiteStore) LoadPending(ctx context.Context) ([]model.PendingChange, error) {
	var pending []model.PendingChange
	err := s.loadTable(ctx, TablePending, func(data []byte) error {
		c, err := decodePending(data)
		if err != nil {
			return err
		}
		pending = append(pending, c)
		return nil
	})
	return pending, err
}

func (s *SQLiteStore) SavePostings(ctx context.Context, postings []model.Posting) error {
	return s.SaveAll(ctx, postings, nil)
}

func (s *SQLiteStore) SavePending(ctx context.Context, pending []model.PendingChange) error {
	rows, err := pendingRows(pending)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return replaceSQLite(ctx, tx, TablePending, rows)
	})
}

// SaveAll replaces the postings table and, when pending is non-nil, the
// pending table in one transaction.
func (s *SQLiteStore) SaveAll(ctx context.Context, postings []model.Posting, pending []model.PendingChange) error {
	prows, err := postingRows(postings)
	if err != nil {
		return err
	}
	var crows []row
	if pending != nil {
		if crows, err = pendingRows(pending); err != nil {
			return err
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := replaceSQLite(ctx, tx, TablePostings, prows); err != nil {
			return err
		}
		if pending == nil {
			return nil
		}
		return replaceSQLite(ctx, tx, TablePending, crows)
	})
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run model.IngestRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, origin, file, outcome, rows_read, added, staged, skipped, message, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Origin, run.File, string(run.Outcome), run.Rows, run.Added, run.Staged, run.Skipped,
		run.Message, run.StartedAt.UTC(), run.EndedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert ingest run %s", run.ID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.IngestRun, error) {
	query := `SELECT id, origin, file, outcome, rows_read, added, staged, skipped, message, started_at, ended_at
		FROM ingest_runs WHERE 1=1`
	var args []any
	if filter.Origin != "" {
		query += ` AND origin = ?`
		args = append(args, filter.Origin)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, runLimit(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		if err := rows.Scan(&r.ID, &r.Origin, &r.File, &r.Outcome, &r.Rows, &r.Added, &r.Staged, &r.Skipped,
			&r.Message, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) loadTable(ctx context.Context, table string, fn func([]byte) error) error {
	// table is one of the package constants, never user input.
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM `+table+` ORDER BY seq`)
	if err != nil {
		return eris.Wrapf(err, "sqlite: load %s", table)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return eris.Wrapf(err, "sqlite: scan %s", table)
		}
		if err := fn([]byte(data)); err != nil {
			return eris.Wrapf(err, "sqlite: decode %s", table)
		}
	}
	return eris.Wrapf(rows.Err(), "sqlite: iterate %s", table)
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func replaceSQLite(ctx context.Context, tx *sql.Tx, table string, rows []row) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return eris.Wrapf(err, "sqlite: clear %s", table)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (seq, origin, origin_id, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, i, r.origin, r.originID, string(r.data)); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s row %d", table, i)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO table_state (name, row_count, written_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET row_count = excluded.row_count, written_at = excluded.written_at`,
		table, len(rows), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: update table state %s", table)
}

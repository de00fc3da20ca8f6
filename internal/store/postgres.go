package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/jmtracker/internal/db"
	"github.com/sells-group/jmtracker/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var rowColumns = []string{"seq", "origin", "origin_id", "data"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS postings (
	seq       INTEGER NOT NULL,
	origin    TEXT NOT NULL,
	origin_id TEXT NOT NULL,
	data      JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_changes (
	seq       INTEGER NOT NULL,
	origin    TEXT NOT NULL,
	origin_id TEXT NOT NULL,
	data      JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS table_state (
	name       TEXT PRIMARY KEY,
	row_count  INTEGER NOT NULL,
	written_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	origin     TEXT NOT NULL,
	file       TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL,
	rows_read  INTEGER NOT NULL DEFAULT 0,
	added      INTEGER NOT NULL DEFAULT 0,
	staged     INTEGER NOT NULL DEFAULT 0,
	skipped    INTEGER NOT NULL DEFAULT 0,
	message    TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	ended_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_postings_key ON postings(origin, origin_id);
CREATE INDEX IF NOT EXISTS idx_pending_key ON pending_changes(origin, origin_id);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_origin ON ingest_runs(origin, started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) PostingsWritten(ctx context.Context) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM table_state WHERE name = $1`, TablePostings).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "postgres: read table state")
	}
	return n > 0, nil
}

func (s *PostgresStore) LoadPostings(ctx context.Context) ([]model.Posting, error) {
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

func (s *PostgresStore) LoadPending(ctx context.Context) ([]model.PendingChange, error) {
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

func (s *PostgresStore) SavePostings(ctx context.Context, postings []model.Posting) error {
	return s.SaveAll(ctx, postings, nil)
}

func (s *PostgresStore) SavePending(ctx context.Context, pending []model.PendingChange) error {
	rows, err := pendingRows(pending)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		return replacePostgres(ctx, tx, TablePending, rows)
	})
}

// SaveAll replaces the postings table and, when pending is non-nil, the
// pending table in one transaction.
func (s *PostgresStore) SaveAll(ctx context.Context, postings []model.Posting, pending []model.PendingChange) error {
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
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := replacePostgres(ctx, tx, TablePostings, prows); err != nil {
			return err
		}
		if pending == nil {
			return nil
		}
		return replacePostgres(ctx, tx, TablePending, crows)
	})
}

func (s *PostgresStore) RecordRun(ctx context.Context, run model.IngestRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, origin, file, outcome, rows_read, added, staged, skipped, message, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.Origin, run.File, string(run.Outcome), run.Rows, run.Added, run.Staged, run.Skipped,
		run.Message, run.StartedAt.UTC(), run.EndedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert ingest run %s", run.ID)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.IngestRun, error) {
	query := `SELECT id, origin, file, outcome, rows_read, added, staged, skipped, message, started_at, ended_at
		FROM ingest_runs WHERE true`
	args := []any{}
	argIdx := 1
	if filter.Origin != "" {
		query += fmt.Sprintf(` AND origin = $%d`, argIdx)
		args = append(args, filter.Origin)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT $%d`, argIdx)
	args = append(args, runLimit(filter))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		var outcome string
		if err := rows.Scan(&r.ID, &r.Origin, &r.File, &outcome, &r.Rows, &r.Added, &r.Staged, &r.Skipped,
			&r.Message, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Outcome = model.IngestOutcome(outcome)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) loadTable(ctx context.Context, table string, fn func([]byte) error) error {
	rows, err := s.pool.Query(ctx, `SELECT data FROM `+table+` ORDER BY seq`)
	if err != nil {
		return eris.Wrapf(err, "postgres: load %s", table)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return eris.Wrapf(err, "postgres: scan %s", table)
		}
		if err := fn(data); err != nil {
			return eris.Wrapf(err, "postgres: decode %s", table)
		}
	}
	return eris.Wrapf(rows.Err(), "postgres: iterate %s", table)
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func replacePostgres(ctx context.Context, tx pgx.Tx, table string, rows []row) error {
	if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
		return eris.Wrapf(err, "postgres: clear %s", table)
	}

	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{i, r.origin, r.originID, string(r.data)}
	}
	if _, err := db.CopyFrom(ctx, tx, table, rowColumns, values); err != nil {
		return err
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO table_state (name, row_count, written_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET row_count = EXCLUDED.row_count, written_at = EXCLUDED.written_at`,
		table, len(rows),
	)
	return eris.Wrapf(err, "postgres: update table state %s", table)
}

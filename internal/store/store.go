// Package store persists the posting table, the pending-change table and the
// ingestion history.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jmtracker/internal/model"
)

// Table names tracked in table_state.
const (
	TablePostings = "postings"
	TablePending  = "pending_changes"
)

// RunFilter specifies criteria for listing ingestion runs.
type RunFilter struct {
	Origin string `json:"origin,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Store is a whole-table store: every Save replaces the full table inside one
// transaction. Rows are kept in the order given and no uniqueness is enforced
// on (origin, origin_id).
type Store interface {
	// Postings
	PostingsWritten(ctx context.Context) (bool, error)
	LoadPostings(ctx context.Context) ([]model.Posting, error)
	SavePostings(ctx context.Context, postings []model.Posting) error

	// Pending changes
	LoadPending(ctx context.Context) ([]model.PendingChange, error)
	SavePending(ctx context.Context, pending []model.PendingChange) error

	// SaveAll replaces both tables in a single transaction.
	SaveAll(ctx context.Context, postings []model.Posting, pending []model.PendingChange) error

	// Ingestion history
	RecordRun(ctx context.Context, run model.IngestRun) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.IngestRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a store backend.
type Config struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"` // sqlite | postgres
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	Pool        *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open creates the configured store and runs its migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

type row struct {
	origin   string
	originID string
	data     []byte
}

func postingRows(postings []model.Posting) ([]row, error) {
	rows := make([]row, 0, len(postings))
	for i := range postings {
		data, err := json.Marshal(&postings[i])
		if err != nil {
			return nil, eris.Wrapf(err, "marshal posting %s", postings[i].Key())
		}
		rows = append(rows, row{origin: postings[i].Origin, originID: postings[i].OriginID, data: data})
	}
	return rows, nil
}

func pendingRows(pending []model.PendingChange) ([]row, error) {
	rows := make([]row, 0, len(pending))
	for i := range pending {
		data, err := json.Marshal(&pending[i])
		if err != nil {
			return nil, eris.Wrapf(err, "marshal pending change %s", pending[i].Key())
		}
		rows = append(rows, row{origin: pending[i].Origin, originID: pending[i].OriginID, data: data})
	}
	return rows, nil
}

func decodePosting(data []byte) (model.Posting, error) {
	var p model.Posting
	if err := json.Unmarshal(data, &p); err != nil {
		return p, eris.Wrap(err, "unmarshal posting")
	}
	return p, nil
}

func decodePending(data []byte) (model.PendingChange, error) {
	var c model.PendingChange
	if err := json.Unmarshal(data, &c); err != nil {
		return c, eris.Wrap(err, "unmarshal pending change")
	}
	return c, nil
}

func runLimit(filter RunFilter) int {
	if filter.Limit <= 0 {
		return 50
	}
	return filter.Limit
}

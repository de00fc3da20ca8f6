// Package ingest merges a normalized batch of postings into the posting
// store and stages changes to tracked postings for review.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/normalize"
	"github.com/sells-group/jmtracker/internal/source"
	"github.com/sells-group/jmtracker/internal/store"
)

// Result summarizes one ingestion.
type Result struct {
	Outcome model.IngestOutcome `json:"outcome"`
	Rows    int                 `json:"rows"`
	Added   int                 `json:"added"`
	Staged  int                 `json:"staged"`
	Skipped int                 `json:"skipped"`
	Run     model.IngestRun     `json:"run"`
}

// Engine runs ingestions against a store.
type Engine struct {
	store  store.Store
	now    func() time.Time
	custom []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCustomColumns adds the user's custom columns, blank, to every
// ingested posting that lacks them.
func WithCustomColumns(cols []string) Option {
	return func(e *Engine) { e.custom = cols }
}

// NewEngine creates an Engine.
func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{store: st, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// IngestFile loads, validates and normalizes a source file, then ingests it.
// Every call records an ingestion run, including failed ones.
func (e *Engine) IngestFile(ctx context.Context, cfg source.Config, path, inputDir string) (Result, error) {
	run := e.startRun(cfg.Origin, path)

	res, err := e.ingestFile(ctx, cfg, path, inputDir)
	return e.finishRun(ctx, run, res, err)
}

func (e *Engine) ingestFile(ctx context.Context, cfg source.Config, path, inputDir string) (Result, error) {
	table, err := source.Load(ctx, cfg, path, inputDir)
	if err != nil {
		return Result{}, err
	}

	written, err := e.store.PostingsWritten(ctx)
	if err != nil {
		return Result{}, err
	}
	var existing []model.Posting
	if written {
		if existing, err = e.store.LoadPostings(ctx); err != nil {
			return Result{}, err
		}
	}

	batch, err := normalize.Normalize(table, cfg, existing, e.now())
	if err != nil {
		return Result{}, err
	}
	return e.ingest(ctx, cfg.Origin, batch)
}

// Ingest merges a normalized batch for origin into the store and records the run.
func (e *Engine) Ingest(ctx context.Context, origin string, batch []model.Posting) (Result, error) {
	run := e.startRun(origin, "")
	res, err := e.ingest(ctx, origin, batch)
	return e.finishRun(ctx, run, res, err)
}

func (e *Engine) ingest(ctx context.Context, origin string, batch []model.Posting) (Result, error) {
	log := zap.L().With(zap.String("origin", origin), zap.Int("rows", len(batch)))
	e.stampCustom(batch)

	written, err := e.store.PostingsWritten(ctx)
	if err != nil {
		return Result{}, err
	}
	if !written {
		if err := e.store.SavePostings(ctx, batch); err != nil {
			return Result{}, eris.Wrap(err, "ingest: write initial postings")
		}
		log.Info("first run, stored batch as the posting table")
		return Result{Outcome: model.IngestInitial, Rows: len(batch), Added: len(batch)}, nil
	}

	stored, err := e.store.LoadPostings(ctx)
	if err != nil {
		return Result{}, err
	}

	known := make(map[string]bool)
	tracked := make(map[string]*model.Posting)
	for i := range stored {
		p := &stored[i]
		if p.Origin != origin {
			continue
		}
		known[p.OriginID] = true
		if p.Status.Tracked() {
			if _, dup := tracked[p.OriginID]; dup {
				log.Warn("duplicate tracked posting, comparing against the first", zap.String("origin_id", p.OriginID))
				continue
			}
			tracked[p.OriginID] = p
		}
	}

	if len(known) == 0 {
		if err := e.store.SavePostings(ctx, append(stored, batch...)); err != nil {
			return Result{}, eris.Wrap(err, "ingest: append first batch for origin")
		}
		log.Info("first batch for origin, appended")
		return Result{Outcome: model.IngestFirstOrigin, Rows: len(batch), Added: len(batch)}, nil
	}

	res := Result{Outcome: model.IngestMerged, Rows: len(batch)}
	var staged []model.PendingChange
	for i := range batch {
		p := &batch[i]
		if !known[p.OriginID] {
			stored = append(stored, *p)
			res.Added++
			continue
		}
		base, ok := tracked[p.OriginID]
		if !ok {
			res.Skipped++
			continue
		}
		if fields := changedFields(base, p); len(fields) > 0 {
			staged = append(staged, proposal(p, fields))
		}
	}
	res.Staged = len(staged)

	if res.Added == 0 && res.Staged == 0 {
		log.Info("no new or changed postings", zap.Int("skipped", res.Skipped))
		return res, nil
	}

	pending := []model.PendingChange(nil)
	if res.Staged > 0 {
		existing, err := e.store.LoadPending(ctx)
		if err != nil {
			return Result{}, err
		}
		pending = mergePending(existing, staged)
	}
	if err := e.store.SaveAll(ctx, stored, pending); err != nil {
		return Result{}, eris.Wrap(err, "ingest: save postings and pending changes")
	}

	log.Info("merged batch",
		zap.Int("added", res.Added),
		zap.Int("staged", res.Staged),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (e *Engine) stampCustom(batch []model.Posting) {
	for i := range batch {
		for _, col := range e.custom {
			if _, ok := batch[i].Extra[col]; !ok {
				_ = batch[i].Set(col, "")
			}
		}
	}
}

func (e *Engine) startRun(origin, file string) model.IngestRun {
	return model.IngestRun{
		ID:        uuid.New().String(),
		Origin:    origin,
		File:      file,
		StartedAt: e.now(),
	}
}

func (e *Engine) finishRun(ctx context.Context, run model.IngestRun, res Result, ingestErr error) (Result, error) {
	run.EndedAt = e.now()
	run.Outcome = res.Outcome
	run.Rows, run.Added, run.Staged, run.Skipped = res.Rows, res.Added, res.Staged, res.Skipped
	if ingestErr != nil {
		run.Outcome = model.IngestFailed
		run.Message = ingestErr.Error()
	}
	res.Run = run

	if err := e.store.RecordRun(ctx, run); err != nil {
		zap.L().Warn("failed to record ingest run", zap.String("run_id", run.ID), zap.Error(err))
	}
	if ingestErr != nil {
		return res, ingestErr
	}
	return res, nil
}

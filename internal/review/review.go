// Package review applies or discards the field changes staged by ingestion.
package review

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/store"
	"github.com/sells-group/jmtracker/internal/tracker"
)

// Item is a pending change joined with the posting it applies to.
type Item struct {
	Change  model.PendingChange `json:"change"`
	Posting model.Posting       `json:"posting"`
	Fields  []string            `json:"fields"`
}

// Reviewer accepts and rejects pending changes.
type Reviewer struct {
	store store.Store
}

// New creates a Reviewer.
func New(st store.Store) *Reviewer {
	return &Reviewer{store: st}
}

// List returns every pending change with its posting. Changes that do not
// resolve to exactly one posting are logged and left out; accepting or
// rejecting them still fails with ErrStoreCorrupt.
func (r *Reviewer) List(ctx context.Context) ([]Item, error) {
	pending, err := r.store.LoadPending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, tracker.ErrNothingPending
	}
	postings, err := r.store.LoadPostings(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(pending))
	for _, c := range pending {
		i, err := tracker.Resolve(postings, c.Key())
		if err != nil {
			zap.L().Warn("review: skipping unresolvable pending change",
				zap.String("key", c.Key().String()),
				zap.Error(err),
			)
			continue
		}
		items = append(items, Item{Change: c, Posting: postings[i], Fields: c.Fields()})
	}
	return items, nil
}

// AcceptAll copies every pending field into the posting and removes the
// pending change.
func (r *Reviewer) AcceptAll(ctx context.Context, key model.Key) (model.Posting, error) {
	var out model.Posting
	err := r.apply(ctx, key, func(p *model.Posting, c *model.PendingChange) error {
		for _, field := range c.Fields() {
			if err := acceptField(p, c, field); err != nil {
				return err
			}
		}
		c.SetFields(nil)
		out = *p
		return nil
	})
	return out, err
}

// RejectAll discards the pending change, leaving the posting's fields as
// they are.
func (r *Reviewer) RejectAll(ctx context.Context, key model.Key) error {
	return r.apply(ctx, key, func(_ *model.Posting, c *model.PendingChange) error {
		c.SetFields(nil)
		return nil
	})
}

// AcceptField copies one pending field into the posting. It returns the
// reduced pending change, or nil once no field remains.
func (r *Reviewer) AcceptField(ctx context.Context, key model.Key, field string) (*model.PendingChange, error) {
	var remaining *model.PendingChange
	err := r.apply(ctx, key, func(p *model.Posting, c *model.PendingChange) error {
		fields := c.Fields()
		if !slices.Contains(fields, field) {
			return eris.Errorf("%s has no pending %q update", key, field)
		}
		if err := acceptField(p, c, field); err != nil {
			return err
		}
		c.SetFields(slices.DeleteFunc(fields, func(f string) bool { return f == field }))
		if c.UpdateNotes != "" {
			cp := *c
			remaining = &cp
		}
		return nil
	})
	return remaining, err
}

// apply resolves key in both tables, runs fn and writes both tables in one
// save. A change left with no pending field is deleted and the posting's
// update markers are cleared.
func (r *Reviewer) apply(ctx context.Context, key model.Key, fn func(*model.Posting, *model.PendingChange) error) error {
	pending, err := r.store.LoadPending(ctx)
	if err != nil {
		return err
	}
	ci, err := resolvePending(pending, key)
	if err != nil {
		return err
	}
	postings, err := r.store.LoadPostings(ctx)
	if err != nil {
		return err
	}
	pi, err := tracker.Resolve(postings, key)
	if err != nil {
		return err
	}

	p, c := &postings[pi], &pending[ci]
	if err := fn(p, c); err != nil {
		return err
	}
	if c.UpdateNotes == "" {
		p.Updated = false
		p.UpdateNotes = ""
		pending = slices.Delete(pending, ci, ci+1)
	}

	if err := r.store.SaveAll(ctx, postings, pending); err != nil {
		return eris.Wrapf(err, "review: save %s", key)
	}
	zap.L().Info("reviewed pending change", zap.Stringer("key", key), zap.Int("pending_left", len(pending)))
	return nil
}

func resolvePending(pending []model.PendingChange, key model.Key) (int, error) {
	idx, n := -1, 0
	for i := range pending {
		if pending[i].Key() == key {
			if idx < 0 {
				idx = i
			}
			n++
		}
	}
	switch {
	case n == 0:
		return -1, eris.Wrapf(tracker.ErrNothingPending, "for %s", key)
	case n > 1:
		return -1, eris.Wrapf(tracker.ErrStoreCorrupt, "%d pending changes match %s", n, key)
	}
	return idx, nil
}

// acceptField copies a proposed value into the posting. An accepted deadline
// also becomes the new original deadline when one was recorded.
func acceptField(p *model.Posting, c *model.PendingChange, field string) error {
	v := c.NewValue(field)
	if field == model.ColDeadline {
		p.Deadline = v
		if p.OriginalDeadline != nil {
			p.OriginalDeadline = &v
		}
		return nil
	}
	return p.Set(field, v)
}

// Package tracker implements the user's actions on stored postings: status
// changes, edits, application tracking, letters, custom columns and the
// filtered views the CLI and API render.
package tracker

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jmtracker/internal/config"
	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/store"
)

// Service applies user actions to the posting store.
type Service struct {
	store    store.Store
	personal *config.Personal
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. personal may be nil when no settings file
// is in use.
func NewService(st store.Store, personal *config.Personal, opts ...Option) *Service {
	if personal == nil {
		personal = &config.Personal{}
	}
	s := &Service{store: st, personal: personal, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Personal returns the settings the service was created with.
func (s *Service) Personal() *config.Personal {
	return s.personal
}

func (s *Service) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve returns the index of the single posting with key. Zero or
// multiple matches return ErrStoreCorrupt.
func Resolve(postings []model.Posting, key model.Key) (int, error) {
	idx, n := -1, 0
	for i := range postings {
		if postings[i].Origin == key.Origin && postings[i].OriginID == key.OriginID {
			if idx < 0 {
				idx = i
			}
			n++
		}
	}
	if n != 1 {
		return -1, eris.Wrapf(ErrStoreCorrupt, "%d postings match %s", n, key)
	}
	return idx, nil
}

// postings loads the posting table, returning ErrNoPostings when it has
// never been written.
func (s *Service) postings(ctx context.Context) ([]model.Posting, error) {
	written, err := s.store.PostingsWritten(ctx)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, eris.Wrap(ErrNoPostings, "the posting table has not been written yet")
	}
	return s.store.LoadPostings(ctx)
}

// Update reloads the posting table, resolves key to exactly one row, applies
// mutate and writes the table back. Nothing is written when the key does
// not resolve or mutate fails.
func (s *Service) Update(ctx context.Context, key model.Key, mutate func(*model.Posting) error) (model.Posting, error) {
	postings, err := s.postings(ctx)
	if err != nil {
		return model.Posting{}, err
	}
	i, err := Resolve(postings, key)
	if err != nil {
		return model.Posting{}, err
	}
	if err := mutate(&postings[i]); err != nil {
		return model.Posting{}, err
	}
	if err := s.store.SavePostings(ctx, postings); err != nil {
		return model.Posting{}, eris.Wrapf(err, "tracker: save %s", key)
	}
	return postings[i], nil
}

// Get returns the posting with key.
func (s *Service) Get(ctx context.Context, key model.Key) (model.Posting, error) {
	postings, err := s.postings(ctx)
	if err != nil {
		return model.Posting{}, err
	}
	i, err := Resolve(postings, key)
	if err != nil {
		return model.Posting{}, err
	}
	return postings[i], nil
}

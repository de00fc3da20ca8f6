package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jmtracker/internal/config"
	"github.com/sells-group/jmtracker/internal/ingest"
	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/review"
	"github.com/sells-group/jmtracker/internal/source"
	"github.com/sells-group/jmtracker/internal/store"
	"github.com/sells-group/jmtracker/internal/tracker"
)

// appEnv bundles the services a command needs.
type appEnv struct {
	Store    store.Store
	Personal *config.Personal
	Tracker  *tracker.Service
	Reviewer *review.Reviewer
	Engine   *ingest.Engine
	Registry *source.Registry
}

// initStore opens the configured store. The SQLite file lives in the
// storage directory unless store.database_url points elsewhere.
func initStore(ctx context.Context) (store.Store, error) {
	sc := store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		Pool:        &store.PoolConfig{MaxConns: cfg.Store.MaxConns, MinConns: cfg.Store.MinConns},
	}
	if sc.Driver == "" || sc.Driver == "sqlite" {
		if err := os.MkdirAll(cfg.Dirs.Storage, 0o755); err != nil {
			return nil, eris.Wrap(err, "create storage directory")
		}
		if sc.DatabaseURL == "" {
			sc.DatabaseURL = cfg.DatabasePath()
		}
	}
	return store.Open(ctx, sc)
}

func initEnv(ctx context.Context) (*appEnv, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	personal, err := config.LoadPersonal(cfg.Dirs.Storage)
	if err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	return &appEnv{
		Store:    st,
		Personal: personal,
		Tracker:  tracker.NewService(st, personal),
		Reviewer: review.New(st),
		Engine:   ingest.NewEngine(st, ingest.WithCustomColumns(personal.CustomColumns)),
		Registry: reg,
	}, nil
}

func (e *appEnv) Close() {
	_ = e.Store.Close()
}

// informational reports empty states on w and swallows them. Any other
// error is returned unchanged.
func informational(w io.Writer, err error) error {
	if errors.Is(err, tracker.ErrNothingPending) || errors.Is(err, tracker.ErrNoPostings) {
		_, _ = fmt.Fprintln(w, err.Error())
		return nil
	}
	return err
}

func keyArgs(args []string) model.Key {
	return model.Key{Origin: args[0], OriginID: args[1]}
}

// parseKey reads "origin/id". The id is everything after the last slash.
func parseKey(s string) (model.Key, error) {
	i := strings.LastIndex(s, "/")
	if i <= 0 || i == len(s)-1 {
		return model.Key{}, eris.Errorf("invalid posting key %q (want origin/id)", s)
	}
	return model.Key{Origin: s[:i], OriginID: s[i+1:]}, nil
}

// parseAssignments reads repeated "field=value" flags.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, eris.Errorf("invalid assignment %q (want field=value)", p)
		}
		out[k] = v
	}
	return out, nil
}

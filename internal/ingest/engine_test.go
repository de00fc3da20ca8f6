package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/source"
	"github.com/sells-group/jmtracker/internal/store"
)

var fixedNow = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "jm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return NewEngine(st, WithClock(func() time.Time { return fixedNow })), st
}

func posting(origin, id, title, deadline string) model.Posting {
	return model.Posting{
		Origin: origin, OriginID: id, Title: title, Deadline: deadline,
		Status: model.StatusNew, DateReceived: "2024-09-01",
	}
}

func setStatus(t *testing.T, st store.Store, key model.Key, status model.Status) {
	t.Helper()
	ctx := context.Background()
	postings, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	for i := range postings {
		if postings[i].Key() == key {
			postings[i].Status = status
		}
	}
	require.NoError(t, st.SavePostings(ctx, postings))
}

func TestIngest_FirstRunStoresBatchExactly(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	batch := []model.Posting{posting("X", "1", "A", "2024-01-01"), posting("X", "2", "B", "")}
	res, err := e.Ingest(ctx, "X", batch)
	require.NoError(t, err)
	assert.Equal(t, model.IngestInitial, res.Outcome)
	assert.Equal(t, 2, res.Added)

	got, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	assert.Equal(t, batch, got)

	pending, err := st.LoadPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIngest_StampsCustomColumns(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "jm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	e := NewEngine(st, WithClock(func() time.Time { return fixedNow }), WithCustomColumns([]string{"contact"}))

	withContact := posting("X", "1", "A", "2024-01-01")
	withContact.Extra = map[string]string{"contact": "Jane"}
	_, err = e.Ingest(ctx, "X", []model.Posting{withContact, posting("X", "2", "B", "")})
	require.NoError(t, err)

	got, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	v, ok := got[0].Get("contact")
	assert.True(t, ok)
	assert.Equal(t, "Jane", v)
	v, ok = got[1].Get("contact")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestIngest_FirstBatchForOriginAppends(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "")})
	require.NoError(t, err)

	res, err := e.Ingest(ctx, "Y", []model.Posting{posting("Y", "1", "C", "")})
	require.NoError(t, err)
	assert.Equal(t, model.IngestFirstOrigin, res.Outcome)

	got, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Y", got[1].Origin)
}

func TestIngest_DisjointIDsAppendUnmodified(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "")})
	require.NoError(t, err)
	require.NoError(t, st.SavePending(ctx, []model.PendingChange{{Origin: "Z", OriginID: "9", UpdateNotes: "new title,"}}))

	fresh := []model.Posting{posting("X", "2", "B", ""), posting("X", "3", "C", "")}
	res, err := e.Ingest(ctx, "X", fresh)
	require.NoError(t, err)
	assert.Equal(t, model.IngestMerged, res.Outcome)
	assert.Equal(t, 2, res.Added)
	assert.Zero(t, res.Staged)

	got, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, got[1:])

	pending, err := st.LoadPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "pending table untouched")
	assert.Equal(t, "Z", pending[0].Origin)
}

func TestIngest_NoOpReingestion(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	batch := []model.Posting{posting("X", "1", "A", "2024-01-01")}

	_, err := e.Ingest(ctx, "X", batch)
	require.NoError(t, err)
	setStatus(t, st, model.Key{Origin: "X", OriginID: "1"}, model.StatusInterested)
	before, err := st.LoadPostings(ctx)
	require.NoError(t, err)

	res, err := e.Ingest(ctx, "X", batch)
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Zero(t, res.Staged)

	after, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	pending, err := st.LoadPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIngest_TitleChangeIsStaged(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	key := model.Key{Origin: "X", OriginID: "1"}

	_, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "2024-01-01")})
	require.NoError(t, err)
	setStatus(t, st, key, model.StatusInterested)

	res, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "B", "2024-01-01")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Staged)

	pending, err := st.LoadPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, key, pending[0].Key())
	assert.Equal(t, []string{"title"}, pending[0].Fields())
	assert.Equal(t, "B", pending[0].NewValue("title"))

	got, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", got[0].Title, "posting store untouched until review")
}

func TestIngest_UntrackedStatusesAreSkipped(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", ""), posting("X", "2", "A", "")})
	require.NoError(t, err)
	setStatus(t, st, model.Key{Origin: "X", OriginID: "2"}, model.StatusApplied)

	res, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "B", ""), posting("X", "2", "B", "")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	assert.Zero(t, res.Staged)
}

func TestIngest_DeadlineSameDayNotFlagged(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "2024-05-01")})
	require.NoError(t, err)
	setStatus(t, st, model.Key{Origin: "X", OriginID: "1"}, model.StatusMaybe)

	res, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "2024-05-01T00:00:00")})
	require.NoError(t, err)
	assert.Zero(t, res.Staged)
}

func TestIngest_OriginalDeadlineIsBaseline(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "2024-05-01")})
	require.NoError(t, err)

	postings, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	orig := "2024-05-01"
	postings[0].OriginalDeadline = &orig
	postings[0].Deadline = "2024-04-15"
	postings[0].Status = model.StatusInterested
	require.NoError(t, st.SavePostings(ctx, postings))

	res, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "2024-05-01")})
	require.NoError(t, err)
	assert.Zero(t, res.Staged)

	res, err = e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "2024-05-20")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Staged)
}

func TestIngest_OverlappingPendingMergesPerField(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	first := posting("X", "1", "A", "2024-01-01")
	first.URL = "https://x/1"
	_, err := e.Ingest(ctx, "X", []model.Posting{first})
	require.NoError(t, err)
	setStatus(t, st, model.Key{Origin: "X", OriginID: "1"}, model.StatusInterested)

	run1 := first
	run1.Title = "B"
	run1.Deadline = "2024-02-01"
	_, err = e.Ingest(ctx, "X", []model.Posting{run1})
	require.NoError(t, err)

	run2 := first
	run2.Title = "C"
	_, err = e.Ingest(ctx, "X", []model.Posting{run2})
	require.NoError(t, err)

	pending, err := st.LoadPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, []string{"title", "deadline"}, pending[0].Fields())
	assert.Equal(t, "C", pending[0].NewValue("title"), "later value wins")
	assert.Equal(t, "2024-02-01", pending[0].NewValue("deadline"), "earlier-only field stays pending")
}

func TestIngest_RecordsRuns(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Ingest(ctx, "X", []model.Posting{posting("X", "1", "A", "")})
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.IngestInitial, runs[0].Outcome)
	assert.Equal(t, 1, runs[0].Rows)
	assert.NotEmpty(t, runs[0].ID)
}

func TestIngestFile_EndToEnd(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	dir := t.TempDir()

	csv := "banner\nId,Ad title,Institution,Deadline,City,Country\n501,Assistant Professor,Rice,2024-11-15,Houston,USA\n"
	path := filepath.Join(dir, "ejm.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	res, err := e.IngestFile(ctx, source.EJM(), path, filepath.Join(dir, "in"))
	require.NoError(t, err)
	assert.Equal(t, model.IngestInitial, res.Outcome)
	assert.Equal(t, path, res.Run.File)

	got, err := st.LoadPostings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Houston, USA", got[0].Location)
	assert.Equal(t, "2024-10-01", got[0].DateReceived)
	assert.Equal(t, "https://econjobmarket.org/positions/view/501", got[0].URL)
}

func TestIngestFile_FailureIsRecorded(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	_, err := e.IngestFile(ctx, source.EJM(), filepath.Join(t.TempDir(), "export.xls"), t.TempDir())
	require.Error(t, err)

	runs, err := st.ListRuns(ctx, store.RunFilter{Origin: "EJM"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.IngestFailed, runs[0].Outcome)
	assert.Contains(t, runs[0].Message, "expected csv")
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jmtracker/internal/config"
	"github.com/sells-group/jmtracker/internal/ingest"
	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/review"
	"github.com/sells-group/jmtracker/internal/source"
	"github.com/sells-group/jmtracker/internal/store"
	"github.com/sells-group/jmtracker/internal/tracker"
)

var fixedNow = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	srv   *httptest.Server
	store store.Store
	dir   string
}

func newTestEnv(t *testing.T, postings []model.Posting, pending []model.PendingChange) *testEnv {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(dir, "jm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))
	if postings != nil {
		require.NoError(t, st.SaveAll(ctx, postings, pending))
	}

	personal, err := config.LoadPersonal(dir)
	require.NoError(t, err)
	reg, err := source.NewRegistry(source.Defaults(), nil, source.PolicyAppend)
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }
	s := New(Options{
		Tracker:     tracker.NewService(st, personal, tracker.WithClock(clock)),
		Reviewer:    review.New(st),
		Engine:      ingest.NewEngine(st, ingest.WithClock(clock)),
		Registry:    reg,
		InputDir:    filepath.Join(dir, "input"),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func seed() []model.Posting {
	return []model.Posting{
		{Origin: "EJM", OriginID: "1", Title: "Assistant Professor", Institution: "Rice", Deadline: "2024-11-15", Status: model.StatusInterested, Updated: true, UpdateNotes: "new title,"},
		{Origin: "EJM", OriginID: "2", Title: "Postdoc", Institution: "MIT", Deadline: "2024-11-15", Status: model.StatusNew},
		{Origin: "AEA", OriginID: "7", Title: "Lecturer", Institution: "LSE", Deadline: "", Status: model.StatusInterested},
	}
}

func titlePending() []model.PendingChange {
	return []model.PendingChange{{
		Origin: "EJM", OriginID: "1",
		Proposed:    map[string]string{model.ColTitle: "Associate Professor"},
		UpdateNotes: "new title,",
	}}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	code, body := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestPostings_ByStatus(t *testing.T) {
	env := newTestEnv(t, seed(), nil)

	code, body := env.do(t, http.MethodGet, "/postings", "")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["count"])

	code, body = env.do(t, http.MethodGet, "/postings?status=new", "")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, _ = env.do(t, http.MethodGet, "/postings?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPostings_EmptyStoreIsInformational(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	code, body := env.do(t, http.MethodGet, "/postings", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body["message"], "no postings found")
}

func TestDeadlines(t *testing.T) {
	env := newTestEnv(t, seed(), nil)
	code, body := env.do(t, http.MethodGet, "/deadlines", "")
	require.Equal(t, http.StatusOK, code)

	items := body["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "2024-11-15", first["deadline"])
	last := items[1].(map[string]any)
	assert.Equal(t, tracker.UnknownDeadline, last["deadline"])
}

func TestSetStatus(t *testing.T) {
	env := newTestEnv(t, seed(), nil)

	code, body := env.do(t, http.MethodPost, "/postings/EJM/1/status", `{"status":"applied"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "applied", body["status"])
	assert.Equal(t, string(model.AppAwaitingResponse), body["application_status"])

	code, _ = env.do(t, http.MethodPost, "/postings/EJM/2/status", `{"status":"applied"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code, "new postings cannot jump to applied")

	code, _ = env.do(t, http.MethodPost, "/postings/EJM/99/status", `{"status":"maybe"}`)
	assert.Equal(t, http.StatusConflict, code)
}

func TestApplicationAction(t *testing.T) {
	env := newTestEnv(t, seed(), nil)
	_, _ = env.do(t, http.MethodPost, "/postings/EJM/1/status", `{"status":"applied"}`)

	code, body := env.do(t, http.MethodPost, "/postings/EJM/1/application/progress", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(model.AppGotInterview), body["application_status"])

	code, _ = env.do(t, http.MethodPost, "/postings/EJM/1/application/jump", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPending_ListAndAccept(t *testing.T) {
	env := newTestEnv(t, seed(), titlePending())

	code, body := env.do(t, http.MethodGet, "/pending", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = env.do(t, http.MethodPost, "/pending/EJM/1/accept", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Associate Professor", body["title"])

	pending, err := env.store.LoadPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	code, body = env.do(t, http.MethodGet, "/pending", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body["message"], "no pending updates")
}

func TestPending_Reject(t *testing.T) {
	env := newTestEnv(t, seed(), titlePending())

	code, _ := env.do(t, http.MethodPost, "/pending/EJM/1/reject", "")
	require.Equal(t, http.StatusOK, code)

	postings, err := env.store.LoadPostings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Assistant Professor", postings[0].Title)
	assert.False(t, postings[0].Updated)
}

func TestPending_AcceptField(t *testing.T) {
	env := newTestEnv(t, seed(), titlePending())

	code, body := env.do(t, http.MethodPost, "/pending/EJM/1/accept/title", "")
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["remaining"])
}

func TestIngest(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	csv := "banner\nId,Ad title,Institution,Deadline,City,Country\n501,Assistant Professor,Rice,2024-11-15,Houston,USA\n"
	path := filepath.Join(env.dir, "ejm.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	reqBody, err := json.Marshal(map[string]string{"source": "EJM", "file": path})
	require.NoError(t, err)
	code, body := env.do(t, http.MethodPost, "/ingest", string(reqBody))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(model.IngestInitial), body["outcome"])

	code, _ = env.do(t, http.MethodPost, "/ingest", `{"source":"NOPE"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/ingest", `{"source":"EJM","file":"/tmp/export.xls"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, env.srv.URL+"/pending", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

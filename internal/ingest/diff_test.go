package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/jmtracker/internal/model"
)

func TestChangedFields(t *testing.T) {
	t.Parallel()
	orig := "2024-03-01"
	tests := []struct {
		name     string
		stored   model.Posting
		incoming model.Posting
		want     []string
	}{
		{"identical", model.Posting{Title: "A"}, model.Posting{Title: "A"}, nil},
		{"missing incoming ignored", model.Posting{Title: "A"}, model.Posting{Title: "  "}, nil},
		{"missing baseline flagged", model.Posting{}, model.Posting{URL: "https://x"}, []string{"url"}},
		{"trailing space equal", model.Posting{Institution: "MIT"}, model.Posting{Institution: "MIT "}, nil},
		{"several fields in watch order", model.Posting{Title: "A", Section: "1"}, model.Posting{Title: "B", Section: "2"}, []string{"title", "section"}},
		{"unwatched field ignored", model.Posting{Location: "Paris"}, model.Posting{Location: "Lyon"}, nil},
		{"deadline other format same day", model.Posting{Deadline: "2024-05-01"}, model.Posting{Deadline: "05/01/2024"}, nil},
		{"deadline moved", model.Posting{Deadline: "2024-05-01"}, model.Posting{Deadline: "2024-05-02"}, []string{"deadline"}},
		{"unparseable deadline compared as text", model.Posting{Deadline: "rolling"}, model.Posting{Deadline: "open"}, []string{"deadline"}},
		{"original deadline baseline", model.Posting{Deadline: "2024-01-01", OriginalDeadline: &orig}, model.Posting{Deadline: "2024-03-01"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, changedFields(&tt.stored, &tt.incoming))
		})
	}
}

func TestProposal_CarriesAllWatchedFields(t *testing.T) {
	t.Parallel()
	p := model.Posting{Origin: "X", OriginID: "1", Title: "B", URL: "u"}
	c := proposal(&p, []string{"title"})
	assert.Len(t, c.Proposed, len(model.WatchedFields))
	assert.Equal(t, "u", c.Proposed["url"])
	assert.Equal(t, "new title,", c.UpdateNotes)
}

func TestMergePending(t *testing.T) {
	t.Parallel()
	existing := []model.PendingChange{
		{Origin: "X", OriginID: "1", Proposed: map[string]string{"title": "B", "deadline": "d1", "url": "u1"}, UpdateNotes: "new title,new deadline,"},
		{Origin: "X", OriginID: "2", Proposed: map[string]string{"title": "Z"}, UpdateNotes: "new title,"},
	}
	later := []model.PendingChange{
		{Origin: "X", OriginID: "1", Proposed: map[string]string{"title": "C", "deadline": "d2", "url": "u2"}, UpdateNotes: "new title,new url,"},
		{Origin: "X", OriginID: "3", Proposed: map[string]string{"title": "Q"}, UpdateNotes: "new title,"},
	}

	got := mergePending(existing, later)
	assert.Len(t, got, 3)
	assert.Equal(t, "C", got[0].Proposed["title"])
	assert.Equal(t, "d1", got[0].Proposed["deadline"])
	assert.Equal(t, "u2", got[0].Proposed["url"])
	assert.Equal(t, []string{"title", "deadline", "url"}, got[0].Fields())
	assert.Equal(t, "2", got[1].OriginID)
	assert.Equal(t, "3", got[2].OriginID)

	assert.Equal(t, "B", existing[0].Proposed["title"], "inputs are not mutated")
}

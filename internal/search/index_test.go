package search

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jmtracker/internal/model"
)

func samplePostings() []model.Posting {
	return []model.Posting{
		{Origin: "EJM", OriginID: "1", Title: "Assistant Professor of Economics", Institution: "Rice University", Keywords: "labor", Status: model.StatusInterested},
		{Origin: "AEA", OriginID: "2", Title: "Postdoctoral Fellow", Institution: "Federal Reserve Board", FullText: "Research in macroeconomics and labor markets.", Status: model.StatusNew},
		{Origin: "AJO", OriginID: "3", Title: "Lecturer", Institution: "University of Leeds", Department: "Economics", Status: model.StatusIgnore},
	}
}

func TestSearch_TitleBoosted(t *testing.T) {
	idx, err := NewMemory()
	require.NoError(t, err)
	defer idx.Close() //nolint:errcheck
	require.NoError(t, idx.IndexPostings(samplePostings()))

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	hits, err := idx.Search("economics", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "EJM/1", hits[0].Key, "title match ranks first")
	assert.Equal(t, "Rice University", hits[0].Institution)
}

func TestSearch_StatusFilter(t *testing.T) {
	idx, err := NewMemory()
	require.NoError(t, err)
	defer idx.Close() //nolint:errcheck
	require.NoError(t, idx.IndexPostings(samplePostings()))

	hits, err := idx.Search("labor", "new", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "AEA/2", hits[0].Key)
}

func TestRebuild_ReplacesIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postings.bleve")

	idx, err := Rebuild(path, samplePostings())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	idx, err = Rebuild(path, samplePostings()[:1])
	require.NoError(t, err)
	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	require.NoError(t, idx.Close())

	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close() //nolint:errcheck
	n, err = idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

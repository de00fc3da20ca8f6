package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/jmtracker/internal/model"
)

func TestComputeRunStats(t *testing.T) {
	runs := []model.IngestRun{
		{Origin: "EJM", Outcome: model.IngestInitial, Rows: 10, Added: 10},
		{Origin: "EJM", Outcome: model.IngestMerged, Rows: 12, Added: 2, Staged: 1, Skipped: 9},
		{Origin: "AEA", Outcome: model.IngestFailed, Message: "expected xlsx"},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 22, s.Rows)
	assert.Equal(t, 12, s.Added)
	assert.Equal(t, 1, s.Staged)
	assert.Equal(t, 9, s.Skipped)
	assert.Equal(t, map[string]int{"EJM": 2, "AEA": 1}, s.ByOrigin)
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{Total: 2, Added: 5, ByOrigin: map[string]int{"EJM": 1, "AEA": 1}})

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Postings added:")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("AEA")), bytes.Index(buf.Bytes(), []byte("EJM")))
}

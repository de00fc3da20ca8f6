package main

import (
	"bytes"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/tracker"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Key
		wantErr bool
	}{
		{in: "EJM/501", want: model.Key{Origin: "EJM", OriginID: "501"}},
		{in: "manual entry/0", want: model.Key{Origin: "manual entry", OriginID: "0"}},
		{in: "a/b/7", want: model.Key{Origin: "a/b", OriginID: "7"}},
		{in: "EJM", wantErr: true},
		{in: "/501", wantErr: true},
		{in: "EJM/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"title=Lecturer", "deadline=2024-11-01", "notes="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "Lecturer", "deadline": "2024-11-01", "notes": ""}, got)

	_, err = parseAssignments([]string{"title"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestParseDecisions(t *testing.T) {
	got, err := parseDecisions([]string{"EJM/1=interested", "AEA/2=ignore"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInterested, got[model.Key{Origin: "EJM", OriginID: "1"}])
	assert.Equal(t, model.StatusIgnore, got[model.Key{Origin: "AEA", OriginID: "2"}])

	_, err = parseDecisions([]string{"EJM/1=bogus"})
	assert.Error(t, err)
}

func TestInformational(t *testing.T) {
	var buf bytes.Buffer
	err := informational(&buf, eris.Wrap(tracker.ErrNothingPending, "updates"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "there are no pending updates")

	buf.Reset()
	other := eris.New("boom")
	assert.Equal(t, other, informational(&buf, other))
	assert.Empty(t, buf.String())
}

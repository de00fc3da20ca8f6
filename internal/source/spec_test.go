package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/jmtracker/internal/model"
)

const customYAML = `
origin: CustomDocs
loader: csv
input_file_name: latest_nu.csv
unique_id: ID
renames:
  ID: origin_id
  Title: title
  Institution: institution
  Deadline: deadline
  URL: url
generators:
  location:
    kind: const
    value: unknown
`

func TestSpec_Build(t *testing.T) {
	var spec Spec
	require.NoError(t, yaml.Unmarshal([]byte(customYAML), &spec))

	cfg, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, "CustomDocs", cfg.Origin)
	assert.Equal(t, "csv", cfg.ExpectedExtension)
	require.Contains(t, cfg.Generators, model.ColLocation)
	assert.Equal(t, "unknown", cfg.Generators[model.ColLocation](nil, nil))

	dir := t.TempDir()
	path := writeFile(t, dir, "nu.csv", "ID,Title,Institution,Deadline,URL\n1,Prof,NU,2024-10-01,https://nu/1\n")
	table, err := Load(context.Background(), cfg, path, filepath.Join(dir, "in"))
	require.NoError(t, err)
	assert.Equal(t, []string{"origin_id", "title", "institution", "deadline", "url"}, table.Columns)

	ok, _ := cfg.PathValidator("nu.xlsx")
	assert.False(t, ok)
}

func TestSpec_BuildErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{"no origin", Spec{}, "origin is required"},
		{"bad loader", Spec{Origin: "X", Loader: "json"}, "unknown loader"},
		{"bad generator", Spec{Origin: "X", Generators: map[string]GeneratorSpec{"url": {Kind: "magic"}}}, "unknown generator kind"},
		{"url without template", Spec{Origin: "X", Generators: map[string]GeneratorSpec{"url": {Kind: "url"}}}, "needs a template"},
		{"location without columns", Spec{Origin: "X", Generators: map[string]GeneratorSpec{"location": {Kind: "location"}}}, "needs columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSpec_XLSXLoader(t *testing.T) {
	t.Parallel()
	cfg, err := Spec{Origin: "X", Loader: "xlsx", Sheet: "Jobs"}.Build()
	require.NoError(t, err)
	assert.Equal(t, "xlsx", cfg.ExpectedExtension)
	assert.Nil(t, cfg.Validator)
}
